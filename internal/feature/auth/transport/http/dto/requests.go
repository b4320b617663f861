// Package dto はauthフィーチャーのHTTPリクエスト/レスポンス型を定義します。
//
// 入力値の検証はusecase層で行うため、ここではJSONのデコードのみを担います。
package dto

// RegisterReq はユーザー登録リクエストのボディです。
type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginReq はログインリクエストのボディです。
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordReq はパスワードリセット要求のボディです。
type ForgotPasswordReq struct {
	Email string `json:"email"`
}

// ResetPasswordReq はパスワード再設定のボディです。トークンはURLパスで受け取ります。
type ResetPasswordReq struct {
	Password string `json:"password"`
}
