package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/usecase"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQLとSQLiteの両方で動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if err := r.db.WithContext(ctx).Create(UserModelFromEntity(u)).Error; err != nil {
		if isDuplicateKeyError(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "email = ?", email)
}

// FindByID はIDでユーザーを取得します。
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByResetTokenHash は期限内のリセットトークンハッシュでユーザーを取得します。
func (r *userGorm) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return r.first(ctx, "reset_password_token = ? AND reset_password_expire > ?", hash, now.UTC())
}

func (r *userGorm) first(ctx context.Context, query string, args ...any) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.ToEntity(), nil
}

// SetResetToken はトークン関連の列とupdated_atのみを更新します。
func (r *userGorm) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"reset_password_token":  tokenHash,
			"reset_password_expire": expiresAt.UTC(),
			"updated_at":            now.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// ClearResetToken はトークンがまだ tokenHash の場合のみクリアします。
func (r *userGorm) ClearResetToken(ctx context.Context, userID, tokenHash string) error {
	return r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ? AND reset_password_token = ?", userID, tokenHash).
		Updates(map[string]any{
			"reset_password_token":  nil,
			"reset_password_expire": nil,
		}).Error
}

// ConsumeResetToken はトークンが一致し期限内の場合のみパスワードを更新し、トークンをクリアします。
// 単一のUPDATE文で条件判定と更新を行うため、同じトークンで成功するのは1回だけです。
func (r *userGorm) ConsumeResetToken(ctx context.Context, userID, tokenHash string, now time.Time, passwordHash string) error {
	now = now.UTC()
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ? AND reset_password_token = ? AND reset_password_expire > ?", userID, tokenHash, now).
		Updates(map[string]any{
			"password":              passwordHash,
			"reset_password_token":  nil,
			"reset_password_expire": nil,
			"updated_at":            now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}
