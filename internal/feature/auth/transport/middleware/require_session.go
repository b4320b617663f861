// Package middleware はauthフィーチャーのginミドルウェアを提供します。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
	"auth_backend/internal/feature/auth/transport/http/dto"
	jwtmw "auth_backend/internal/platform/jwt"
)

// gin.Context に保存するキー
const (
	ContextUserID    = "userID"
	ContextSessionID = "sessionID"
)

// SessionAuthenticator はトークンから有効なセッションを解決します。
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.Session, error)
}

// RequireSession はリクエストに有効なセッションが付いていることを要求します。
// - Authorization: Bearer ヘッダー、なければ token Cookie からトークンを取得
// - 取得できない、または無効な場合は401を返却
// - 成功時はユーザーIDとセッションIDをコンテキストに保存
func RequireSession(auth SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := jwtmw.ExtractToken(c.Request)
		if !ok {
			abortUnauthorized(c)
			return
		}

		sess, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			var authErr *domain.AuthError
			if errors.As(err, &authErr) {
				slog.Warn("session rejected", "path", c.FullPath(), "remote_addr", c.ClientIP())
				abortUnauthorized(c)
				return
			}
			slog.Error("session lookup failed", "error", err, "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorRes("Server Error"))
			return
		}

		c.Set(ContextUserID, sess.UserID)
		c.Set(ContextSessionID, sess.ID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorRes(domain.MsgNotAuthorized))
}

// UserID returns the authenticated user's ID stored by RequireSession.
func UserID(c *gin.Context) string { return c.GetString(ContextUserID) }

// SessionID returns the authenticated session's ID stored by RequireSession.
func SessionID(c *gin.Context) string { return c.GetString(ContextSessionID) }
