// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/transport/http/dto"
	"auth_backend/internal/feature/auth/transport/middleware"
	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/metrics"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Register は新規ユーザーを登録し、セッションを開始します。
	Register(ctx context.Context, in usecase.RegisterInput, client usecase.ClientInfo) (*usecase.AuthResult, error)
	// Login は資格情報を検証し、セッションを開始します。
	Login(ctx context.Context, email, password string, client usecase.ClientInfo) (*usecase.AuthResult, error)
	// Logout はセッションを失効させます。
	Logout(ctx context.Context, sessionID string) error
	// Me は認証済みユーザーの公開情報を返します。
	Me(ctx context.Context, userID string) (entity.PublicUser, error)
	// ForgotPassword はリセットトークンを発行し、リンクを送信します。
	ForgotPassword(ctx context.Context, email, resetBaseURL string) error
	// ResetPassword はトークンを消費してパスワードを再設定します。
	ResetPassword(ctx context.Context, rawToken, newPassword string, client usecase.ClientInfo) (*usecase.AuthResult, error)
}

// CookieWriter はセッションCookieを書き込みます。
type CookieWriter interface {
	Set(c *gin.Context, token string, expiresAt time.Time)
	Clear(c *gin.Context)
}

// OperationRecorder は操作ごとの結果を記録します。
type OperationRecorder interface {
	RecordOperation(operation, outcome string)
}

// Options はハンドラーの動作を調整します。
type Options struct {
	// Production が true の場合、500エラーの詳細を隠します。
	Production bool
	// ResetBaseURL はリセットリンクの基底URLです。空の場合はリクエストから組み立てます。
	ResetBaseURL string
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth    AuthUsecase
	cookies CookieWriter
	metrics OperationRecorder
	opts    Options
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// recorder が nil の場合、メトリクスは記録しません。
func NewAuthHandler(auth AuthUsecase, cookies CookieWriter, recorder OperationRecorder, opts Options) *AuthHandler {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &AuthHandler{auth: auth, cookies: cookies, metrics: recorder, opts: opts}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - 入力エラー、メール重複時は400を返却
// - 成功時はCookieを設定し、ユーザーとトークン付きで201を返却
func (h *AuthHandler) Register(c *gin.Context) {
	const op = "register"
	var req dto.RegisterReq
	if !h.bind(c, op, &req) {
		return
	}
	res, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, clientInfo(c))
	if err != nil {
		h.respondError(c, op, err)
		return
	}
	slog.Info("user registered", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	h.sendSession(c, op, http.StatusCreated, res)
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - 未入力時は400、認証失敗時は401を返却
// - 成功時はCookieを設定し、ユーザーとトークン付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	const op = "login"
	var req dto.LoginReq
	if !h.bind(c, op, &req) {
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		h.respondError(c, op, err)
		return
	}
	slog.Info("user login successful", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	h.sendSession(c, op, http.StatusOK, res)
}

// Logout は現在のセッションを失効させ、Cookieを消去します。
func (h *AuthHandler) Logout(c *gin.Context) {
	const op = "logout"
	if err := h.auth.Logout(c.Request.Context(), middleware.SessionID(c)); err != nil {
		h.respondError(c, op, err)
		return
	}
	h.cookies.Clear(c)
	h.metrics.RecordOperation(op, metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, dto.DataRes{Success: true, Data: struct{}{}})
}

// Me は認証済みユーザーの公開情報を返します。
func (h *AuthHandler) Me(c *gin.Context) {
	const op = "me"
	user, err := h.auth.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.respondError(c, op, err)
		return
	}
	h.metrics.RecordOperation(op, metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, dto.UserRes{Success: true, User: user})
}

// ForgotPassword はパスワードリセットリンクの送信を受け付けます。
// 未登録のメールアドレスでも同じレスポンスを返し、アカウントの存在を漏らしません。
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	const op = "forgotpassword"
	var req dto.ForgotPasswordReq
	if !h.bind(c, op, &req) {
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email, h.resetBaseURL(c)); err != nil {
		h.respondError(c, op, err)
		return
	}
	h.metrics.RecordOperation(op, metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, dto.DataRes{Success: true, Data: "Email sent"})
}

// ResetPassword はURLのトークンを消費し、新しいパスワードを設定します。
// 成功時は新しいセッションを開始します。
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	const op = "resetpassword"
	var req dto.ResetPasswordReq
	if !h.bind(c, op, &req) {
		return
	}
	res, err := h.auth.ResetPassword(c.Request.Context(), c.Param("resettoken"), req.Password, clientInfo(c))
	if err != nil {
		h.respondError(c, op, err)
		return
	}
	slog.Info("password reset", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	h.sendSession(c, op, http.StatusOK, res)
}

func (h *AuthHandler) bind(c *gin.Context, op string, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn(op+" request rejected", "error", err, "remote_addr", c.ClientIP())
		h.metrics.RecordOperation(op, metrics.OutcomeFailure)
		c.JSON(http.StatusBadRequest, dto.NewErrorRes("Invalid request body"))
		return false
	}
	return true
}

func (h *AuthHandler) sendSession(c *gin.Context, op string, status int, res *usecase.AuthResult) {
	h.cookies.Set(c, res.Token, res.ExpiresAt)
	h.metrics.RecordOperation(op, metrics.OutcomeSuccess)
	c.JSON(status, dto.AuthRes{Success: true, User: res.User, Token: res.Token})
}

// respondError はエラーの種類をHTTPステータスに対応付けます。
// ValidationError → 400, AuthError → 401, TokenError → 400, それ以外 → 500
func (h *AuthHandler) respondError(c *gin.Context, op string, err error) {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		tokenErr      *domain.TokenError
	)
	switch {
	case errors.As(err, &validationErr):
		slog.Warn(op+" failed", "error", err, "remote_addr", c.ClientIP())
		h.metrics.RecordOperation(op, metrics.OutcomeFailure)
		c.JSON(http.StatusBadRequest, dto.NewErrorRes(validationErr.Messages...))
	case errors.As(err, &authErr):
		slog.Warn(op+" failed", "error", err, "remote_addr", c.ClientIP())
		h.metrics.RecordOperation(op, metrics.OutcomeFailure)
		c.JSON(http.StatusUnauthorized, dto.NewErrorRes(authErr.Message))
	case errors.As(err, &tokenErr):
		slog.Warn(op+" failed", "error", err, "remote_addr", c.ClientIP())
		h.metrics.RecordOperation(op, metrics.OutcomeFailure)
		c.JSON(http.StatusBadRequest, dto.NewErrorRes(tokenErr.Message))
	default:
		slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
		h.metrics.RecordOperation(op, metrics.OutcomeError)
		c.JSON(http.StatusInternalServerError, dto.NewErrorRes(h.serverMessage(err)))
	}
}

func (h *AuthHandler) serverMessage(err error) string {
	if h.opts.Production {
		return "Server Error"
	}
	return err.Error()
}

// resetBaseURL は設定値、なければリクエストのスキームとホストを返します。
func (h *AuthHandler) resetBaseURL(c *gin.Context) string {
	if h.opts.ResetBaseURL != "" {
		return strings.TrimRight(h.opts.ResetBaseURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func clientInfo(c *gin.Context) usecase.ClientInfo {
	return usecase.ClientInfo{UserAgent: c.Request.UserAgent(), IPAddress: c.ClientIP()}
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(string, string) {}
