package mail

import (
	"context"
	"log/slog"
	"time"
)

// LogNotifier logs reset links instead of sending them. It is used when no
// email provider is configured and must not be used in production.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier writing to logger, or slog.Default when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendPasswordReset logs the reset URL at info level.
func (n *LogNotifier) SendPasswordReset(ctx context.Context, toEmail, _, resetURL string, expiresAt time.Time) error {
	n.logger.InfoContext(ctx, "password reset link (email delivery disabled)",
		"to", toEmail,
		"reset_url", resetURL,
		"expires_at", expiresAt,
	)
	return nil
}
