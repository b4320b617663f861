// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"time"

	"gorm.io/gorm"

	"auth_backend/internal/feature/auth/domain/entity"
)

// UserModel is the GORM model for the users table.
// Timestamps are written by the usecase clock, so GORM's auto timestamps are disabled.
type UserModel struct {
	ID                  string  `gorm:"primaryKey;size:36"`
	Name                string  `gorm:"size:100;not null"`
	Email               string  `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash        string  `gorm:"column:password;size:255;not null"`
	Role                string  `gorm:"size:16;not null;default:user"`
	ResetPasswordToken  *string `gorm:"size:64;index"`
	ResetPasswordExpire *time.Time
	CreatedAt           time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime:false;not null"`
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:                     m.ID,
		Name:                   m.Name,
		Email:                  m.Email,
		PasswordHash:           m.PasswordHash,
		Role:                   m.Role,
		ResetPasswordTokenHash: m.ResetPasswordToken,
		ResetPasswordExpire:    m.ResetPasswordExpire,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
	}
}

// UserModelFromEntity converts a domain entity to a GORM model.
func UserModelFromEntity(u *entity.User) *UserModel {
	m := &UserModel{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		ResetPasswordToken: u.ResetPasswordTokenHash,
		CreatedAt:          u.CreatedAt.UTC(),
		UpdatedAt:          u.UpdatedAt.UTC(),
	}
	if u.ResetPasswordExpire != nil {
		exp := u.ResetPasswordExpire.UTC()
		m.ResetPasswordExpire = &exp
	}
	return m
}

// SessionModel is the GORM model for the sessions table.
type SessionModel struct {
	ID        string     `gorm:"primaryKey;size:36"`
	UserID    string     `gorm:"size:36;index;not null"`
	UserAgent string     `gorm:"size:512"`
	IPAddress string     `gorm:"size:45"` // IPv6 max length
	CreatedAt time.Time  `gorm:"autoCreateTime:false;not null"`
	ExpiresAt time.Time  `gorm:"index;not null"`
	RevokedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}

// ToEntity converts the GORM model to a domain entity.
func (m *SessionModel) ToEntity() *entity.Session {
	return &entity.Session{
		ID:        m.ID,
		UserID:    m.UserID,
		UserAgent: m.UserAgent,
		IPAddress: m.IPAddress,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
		RevokedAt: m.RevokedAt,
	}
}

// SessionModelFromEntity converts a domain entity to a GORM model.
func SessionModelFromEntity(s *entity.Session) *SessionModel {
	return &SessionModel{
		ID:        s.ID,
		UserID:    s.UserID,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		CreatedAt: s.CreatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
		RevokedAt: s.RevokedAt,
	}
}

// AutoMigrate creates or updates the users and sessions tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{}, &SessionModel{})
}
