package usecase

import (
	"context"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// メールアドレスの一意性はアプリケーション層だけでなくストレージ層（ユニークインデックス）でも保証されます。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// FindByResetTokenHash はリセットトークンのハッシュが一致し、かつ now 時点で期限内のユーザーを取得します。
	// 該当しない場合、ErrUserNotFoundを返します。
	FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*entity.User, error)

	// SetResetToken はリセットトークンのハッシュと有効期限のみを更新します。他の項目は変更しません。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error

	// ClearResetToken は保存中のトークンが tokenHash と一致する場合に限りトークン項目をクリアします。
	// 既に別のトークンで上書き・消費済みの場合は何もしません。
	ClearResetToken(ctx context.Context, userID, tokenHash string) error

	// ConsumeResetToken はトークンがまだ一致し期限内である場合に限り、パスワードハッシュを更新し
	// トークン項目をクリアします（条件付き更新による原子的操作）。
	// 条件を満たさない場合、ErrUserNotFoundを返します。
	ConsumeResetToken(ctx context.Context, userID, tokenHash string, now time.Time, passwordHash string) error
}
