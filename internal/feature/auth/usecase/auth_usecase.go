// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/platform/clock"
)

const (
	// DefaultSessionTTL はセッションの既定の有効期間です。
	DefaultSessionTTL = 24 * time.Hour
	// DefaultMaxPendingNotifications はバックグラウンドで同時に送信できるリセットメールの上限です。
	DefaultMaxPendingNotifications = 16
	// DefaultNotificationTimeout はリセットメール1通の送信にかける時間の上限です。
	DefaultNotificationTimeout = time.Minute
)

// PasswordHasher はパスワードのハッシュ化と照合を行います。
type PasswordHasher interface {
	// Hash は平文パスワードのハッシュを返します。
	Hash(ctx context.Context, password string) (string, error)
	// Compare はハッシュと平文パスワードが一致しない場合にエラーを返します。
	// hash が空の場合もダミー比較を行い、エラーを返します。
	Compare(ctx context.Context, hash, password string) error
}

// ResetTokenGenerator はパスワードリセットトークンを生成します。
type ResetTokenGenerator interface {
	// Generate は生トークン、そのハッシュ、有効期限を返します。
	Generate() (raw, hash string, expiresAt time.Time, err error)
	// Hash は生トークンのハッシュを返します。
	Hash(raw string) string
}

// SessionTokenIssuer は署名済みセッショントークンの発行と検証を行います。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type SessionTokenIssuer interface {
	GenerateToken(userID, sessionID string, expiresAt time.Time) (string, error)
	ParseToken(token string) (userID, sessionID string, err error)
}

// ResetNotifier はリセット用URLをユーザーに届けます（メール送信など）。
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string, expiresAt time.Time) error
}

// Dependencies groups the collaborators of the auth usecase.
type Dependencies struct {
	Users    UserRepository
	Sessions SessionRepository
	Hasher   PasswordHasher
	Resets   ResetTokenGenerator
	Tokens   SessionTokenIssuer
	Notifier ResetNotifier
	Clock    clock.Clock
}

// Options tunes session issuance.
type Options struct {
	// SessionTTL is how long an issued session stays valid.
	SessionTTL time.Duration
	// MaxSessionsPerUser caps concurrent sessions; the oldest is evicted. 0 disables the cap.
	MaxSessionsPerUser int
	// MaxPendingNotifications caps reset emails in flight. ForgotPassword waits for a slot.
	MaxPendingNotifications int64
	// NotificationTimeout bounds the delivery of one reset email.
	NotificationTimeout time.Duration
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ClientInfo describes the client a session is issued to.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// AuthResult is returned by operations that start a session.
type AuthResult struct {
	User      entity.PublicUser
	Session   *entity.Session
	Token     string
	ExpiresAt time.Time
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	resets   ResetTokenGenerator
	tokens   SessionTokenIssuer
	notifier ResetNotifier
	clock    clock.Clock
	opts     Options

	// リセットメールは応答後に送信する
	notifySem *semaphore.Weighted
	notifyWG  sync.WaitGroup
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(deps Dependencies, opts Options) *authUsecase {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.MaxPendingNotifications <= 0 {
		opts.MaxPendingNotifications = DefaultMaxPendingNotifications
	}
	if opts.NotificationTimeout <= 0 {
		opts.NotificationTimeout = DefaultNotificationTimeout
	}
	return &authUsecase{
		users:    deps.Users,
		sessions: deps.Sessions,
		hasher:   deps.Hasher,
		resets:   deps.Resets,
		tokens:   deps.Tokens,
		notifier: deps.Notifier,
		clock:    deps.Clock,
		opts:     opts,

		notifySem: semaphore.NewWeighted(opts.MaxPendingNotifications),
	}
}

// Register はハッシュ化されたパスワードで新規ユーザーを登録し、セッションを発行します。
func (u *authUsecase) Register(ctx context.Context, in RegisterInput, client ClientInfo) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(registerInput(in)); err != nil {
		return nil, err
	}

	// ストレージ層のユニーク制約が最終的な保証。ここでは早期に検出するだけ
	if _, err := u.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.NewValidationError(domain.MsgDuplicateEmail)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "FindByEmail").Wrap(err)
	}

	hashed, err := u.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "Hash").Wrap(err)
	}

	now := u.clock.Now()
	user := &entity.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         entity.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, domain.NewValidationError(domain.MsgDuplicateEmail)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "Create").Wrap(err)
	}

	return u.issueSession(ctx, user, client)
}

// Login はユーザーを認証し、成功時にセッションを発行します。
// ユーザー未検出とパスワード不一致は同一のエラーを返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string, client ClientInfo) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewValidationError("Please provide an email and password")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "FindByEmail").Wrap(err)
	}

	var hash string
	if user != nil {
		hash = user.PasswordHash
	}
	// 第1引数はハッシュ化パスワード、第2引数は平文パスワード
	if cmpErr := u.hasher.Compare(ctx, hash, password); cmpErr != nil || user == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.ErrInvalidCredentials
	}

	return u.issueSession(ctx, user, client)
}

// Logout はセッションを失効させます。既に失効済み・存在しない場合もエラーにしません。
func (u *authUsecase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := u.sessions.Revoke(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").With("operation", "Revoke").Wrap(err)
	}
	return nil
}

// Authenticate は署名済みトークンを検証し、有効なセッションを返します。
func (u *authUsecase) Authenticate(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	userID, sessionID, err := u.tokens.ParseToken(token)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	session, err := u.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, oops.Code("AUTH_AUTHENTICATE_FAILED").With("operation", "FindByID").Wrap(err)
	}
	if session.UserID != userID || !session.IsValid(u.clock.Now()) {
		return nil, domain.ErrUnauthenticated
	}
	return session, nil
}

// Me は現在のユーザーを返します。
func (u *authUsecase) Me(ctx context.Context, userID string) (entity.PublicUser, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return entity.PublicUser{}, domain.ErrUnauthenticated
		}
		return entity.PublicUser{}, oops.Code("AUTH_ME_FAILED").With("operation", "FindByID").Wrap(err)
	}
	return user.Public(), nil
}

// ForgotPassword はリセットトークンを発行し、ユーザーへの通知をバックグラウンドで開始します。
// メールアドレスの形式・存在有無・送信結果に関わらず、同じ結果を返します（ユーザー列挙攻撃の防止）。
// resetBaseURL にはリセット画面のベースURLを渡します（例: https://example.com）。
func (u *authUsecase) ForgotPassword(ctx context.Context, email, resetBaseURL string) error {
	email = normalizeEmail(email)
	if validateStruct(emailInput{Email: email}) != nil {
		return nil
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return oops.Code("AUTH_FORGOT_FAILED").With("operation", "FindByEmail").Wrap(err)
	}

	raw, hash, expiresAt, err := u.resets.Generate()
	if err != nil {
		return oops.Code("AUTH_FORGOT_FAILED").With("operation", "Generate").Wrap(err)
	}

	// トークン項目のみを更新する。直前のトークンは上書きされ、最新のトークンのみ有効になる
	if err := u.users.SetResetToken(ctx, user.ID, hash, expiresAt, u.clock.Now()); err != nil {
		return oops.Code("AUTH_FORGOT_FAILED").With("operation", "SetResetToken").Wrap(err)
	}

	// リクエストのキャンセルに影響されないよう切り離す
	bg := context.WithoutCancel(ctx)
	if err := u.notifySem.Acquire(ctx, 1); err != nil {
		u.clearResetToken(bg, user.ID, hash)
		slog.WarnContext(ctx, "reset email not queued", "user_id", user.ID, "error", err)
		return nil
	}

	resetURL := strings.TrimRight(resetBaseURL, "/") + "/resetpassword/" + raw
	to, name := user.Email, user.Name
	u.notifyWG.Go(func() {
		defer u.notifySem.Release(1)
		sendCtx, cancel := context.WithTimeout(bg, u.opts.NotificationTimeout)
		defer cancel()

		if err := u.notifier.SendPasswordReset(sendCtx, to, name, resetURL, expiresAt); err != nil {
			slog.ErrorContext(bg, "failed to send reset email", "user_id", user.ID, "error", err)
			u.clearResetToken(bg, user.ID, hash)
		}
	})
	return nil
}

// clearResetToken は送信できなかったトークンを無効化します。後続のリクエストで発行されたトークンには触れません。
func (u *authUsecase) clearResetToken(ctx context.Context, userID, hash string) {
	if err := u.users.ClearResetToken(ctx, userID, hash); err != nil {
		slog.WarnContext(ctx, "failed to clear reset token after notification failure", "user_id", userID, "error", err)
	}
}

// WaitForNotifications は送信中のリセットメールが完了するか ctx が終了するまで待ちます。
func (u *authUsecase) WaitForNotifications(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.notifyWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResetPassword は有効期限内のリセットトークンでパスワードを変更します。
// 成功時はトークンをクリアし、既存セッションをすべて失効させ、新しいセッションを発行します。
func (u *authUsecase) ResetPassword(ctx context.Context, rawToken, newPassword string, client ClientInfo) (*AuthResult, error) {
	if err := validateStruct(passwordInput{Password: newPassword}); err != nil {
		return nil, err
	}
	if rawToken == "" {
		return nil, domain.ErrInvalidResetToken
	}

	now := u.clock.Now()
	hash := u.resets.Hash(rawToken)
	user, err := u.users.FindByResetTokenHash(ctx, hash, now)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, domain.ErrInvalidResetToken
		}
		return nil, oops.Code("AUTH_RESET_FAILED").With("operation", "FindByResetTokenHash").Wrap(err)
	}
	if !user.ResetTokenValid(hash, now) {
		return nil, domain.ErrInvalidResetToken
	}

	hashed, err := u.hasher.Hash(ctx, newPassword)
	if err != nil {
		return nil, oops.Code("AUTH_RESET_FAILED").With("operation", "Hash").Wrap(err)
	}

	// 同じトークンでの同時リクエストのうち、条件付き更新に成功した1件だけが通る
	if err := u.users.ConsumeResetToken(ctx, user.ID, hash, now, hashed); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, domain.ErrInvalidResetToken
		}
		return nil, oops.Code("AUTH_RESET_FAILED").With("operation", "ConsumeResetToken").Wrap(err)
	}
	user.PasswordHash = hashed
	user.ClearResetToken()
	user.UpdatedAt = now

	if err := u.sessions.RevokeAllByUserID(ctx, user.ID); err != nil {
		// パスワードは既に更新済みのため処理は続行する
		slog.WarnContext(ctx, "failed to revoke sessions after password reset", "user_id", user.ID, "error", err)
	}

	return u.issueSession(ctx, user, client)
}

// issueSession creates a session for user and signs a token referencing it.
func (u *authUsecase) issueSession(ctx context.Context, user *entity.User, client ClientInfo) (*AuthResult, error) {
	if limit := u.opts.MaxSessionsPerUser; limit > 0 {
		count, err := u.sessions.CountByUserID(ctx, user.ID)
		if err != nil {
			return nil, oops.Code("AUTH_SESSION_FAILED").With("operation", "CountByUserID").Wrap(err)
		}
		for ; count >= int64(limit); count-- {
			if err := u.sessions.DeleteOldestByUserID(ctx, user.ID); err != nil {
				return nil, oops.Code("AUTH_SESSION_FAILED").With("operation", "DeleteOldestByUserID").Wrap(err)
			}
		}
	}

	now := u.clock.Now()
	session := &entity.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
		CreatedAt: now,
		ExpiresAt: now.Add(u.opts.SessionTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("AUTH_SESSION_FAILED").With("operation", "Create").Wrap(err)
	}

	token, err := u.tokens.GenerateToken(user.ID, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_FAILED").With("operation", "GenerateToken").Wrapf(err, "failed to generate token")
	}

	return &AuthResult{
		User:      user.Public(),
		Session:   session,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
