package dto

import "auth_backend/internal/feature/auth/domain/entity"

// AuthRes is returned by operations that start a session.
type AuthRes struct {
	Success bool              `json:"success"`
	User    entity.PublicUser `json:"user"`
	Token   string            `json:"token"`
}

// DataRes wraps an arbitrary payload in the success envelope.
type DataRes struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorRes is the failure envelope. Error is a string, or a list when
// several validation messages apply.
type ErrorRes struct {
	Success bool `json:"success"`
	Error   any  `json:"error"`
}

// NewErrorRes builds an ErrorRes from one or more messages.
func NewErrorRes(msgs ...string) ErrorRes {
	if len(msgs) == 1 {
		return ErrorRes{Error: msgs[0]}
	}
	return ErrorRes{Error: msgs}
}

// UserRes is returned by the current-user endpoint.
type UserRes struct {
	Success bool              `json:"success"`
	User    entity.PublicUser `json:"user"`
}
