package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"auth_backend/internal/feature/auth/domain/entity"
)

// memUserRepository is an in-memory UserRepository used to exercise full flows.
type memUserRepository struct {
	mu    sync.Mutex
	users map[string]*entity.User

	// afterFindByEmail runs once after the next FindByEmail returns its copy.
	afterFindByEmail func()
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: make(map[string]*entity.User)}
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	if u.ResetPasswordTokenHash != nil {
		h := *u.ResetPasswordTokenHash
		c.ResetPasswordTokenHash = &h
	}
	if u.ResetPasswordExpire != nil {
		e := *u.ResetPasswordExpire
		c.ResetPasswordExpire = &e
	}
	return &c
}

func (r *memUserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return ErrEmailAlreadyExists
		}
	}
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	var found *entity.User
	for _, u := range r.users {
		if u.Email == email {
			found = cloneUser(u)
			break
		}
	}
	hook := r.afterFindByEmail
	r.afterFindByEmail = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	if found == nil {
		return nil, ErrUserNotFound
	}
	return found, nil
}

func (r *memUserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, ErrUserNotFound
}

func (r *memUserRepository) FindByResetTokenHash(_ context.Context, hash string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ResetTokenValid(hash, now) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memUserRepository) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.SetResetToken(tokenHash, expiresAt)
	u.UpdatedAt = now
	return nil
}

func (r *memUserRepository) ClearResetToken(_ context.Context, userID, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok && u.ResetPasswordTokenHash != nil && *u.ResetPasswordTokenHash == tokenHash {
		u.ClearResetToken()
	}
	return nil
}

func (r *memUserRepository) ConsumeResetToken(_ context.Context, userID, tokenHash string, now time.Time, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || !u.ResetTokenValid(tokenHash, now) {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ClearResetToken()
	return nil
}

func (r *memUserRepository) get(id string) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

// memSessionRepository is an in-memory SessionRepository.
type memSessionRepository struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]*entity.Session
}

func newMemSessionRepository(now func() time.Time) *memSessionRepository {
	return &memSessionRepository{now: now, sessions: make(map[string]*entity.Session)}
}

func (r *memSessionRepository) Create(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	r.sessions[s.ID] = &c
	return nil
}

func (r *memSessionRepository) FindByID(_ context.Context, id string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := *s
	return &c, nil
}

func (r *memSessionRepository) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	now := r.now()
	s.RevokedAt = &now
	return nil
}

func (r *memSessionRepository) RevokeAllByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for _, s := range r.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (r *memSessionRepository) active(userID string) []*entity.Session {
	var out []*entity.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsValid(r.now()) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memSessionRepository) CountByUserID(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.active(userID))), nil
}

func (r *memSessionRepository) DeleteOldestByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a := r.active(userID); len(a) > 0 {
		delete(r.sessions, a[0].ID)
	}
	return nil
}

func (r *memSessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.IsExpired(r.now()) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// mockTokenIssuer encodes "userID|sessionID" without signing.
type mockTokenIssuer struct {
	GenerateTokenFunc func(userID, sessionID string, expiresAt time.Time) (string, error)
}

func (m *mockTokenIssuer) GenerateToken(userID, sessionID string, expiresAt time.Time) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, sessionID, expiresAt)
	}
	return userID + "|" + sessionID, nil
}

func (m *mockTokenIssuer) ParseToken(token string) (string, string, error) {
	for i := 0; i < len(token); i++ {
		if token[i] == '|' {
			return token[:i], token[i+1:], nil
		}
	}
	return "", "", errors.New("malformed token")
}

// mockNotifier records the last reset URL it was asked to deliver.
// Fields are read after WaitForNotifications.
type mockNotifier struct {
	SendFunc func(ctx context.Context, toEmail, toName, resetURL string, expiresAt time.Time) error
	mu       sync.Mutex
	calls    int
	lastTo   string
	lastURL  string
}

func (m *mockNotifier) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastTo = toEmail
	m.lastURL = resetURL
	if m.SendFunc != nil {
		return m.SendFunc(ctx, toEmail, toName, resetURL, expiresAt)
	}
	return nil
}

// mockUserRepository is a Func-field mock for error-path tests.
type mockUserRepository struct {
	CreateFunc               func(ctx context.Context, u *entity.User) error
	FindByEmailFunc          func(ctx context.Context, email string) (*entity.User, error)
	FindByIDFunc             func(ctx context.Context, id string) (*entity.User, error)
	FindByResetTokenHashFunc func(ctx context.Context, hash string, now time.Time) (*entity.User, error)
	SetResetTokenFunc        func(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error
	ConsumeResetTokenFunc    func(ctx context.Context, userID, tokenHash string, now time.Time, passwordHash string) error
}

func (m *mockUserRepository) Create(ctx context.Context, u *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	if m.FindByResetTokenHashFunc != nil {
		return m.FindByResetTokenHashFunc(ctx, hash, now)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error {
	if m.SetResetTokenFunc != nil {
		return m.SetResetTokenFunc(ctx, userID, tokenHash, expiresAt, now)
	}
	return nil
}

func (m *mockUserRepository) ClearResetToken(context.Context, string, string) error { return nil }

func (m *mockUserRepository) ConsumeResetToken(ctx context.Context, userID, tokenHash string, now time.Time, passwordHash string) error {
	if m.ConsumeResetTokenFunc != nil {
		return m.ConsumeResetTokenFunc(ctx, userID, tokenHash, now, passwordHash)
	}
	return nil
}
