// Package mail delivers password reset links to users.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	infrahttp "auth_backend/internal/platform/http"
)

// sesAPI is the subset of the SES v2 client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier sends reset emails through Amazon SES.
type SESNotifier struct {
	client    sesAPI
	fromEmail string
	fromName  string
}

// NewSESNotifier loads the default AWS configuration for region and creates an SES client.
// timeout bounds each SES HTTP request; 0 leaves the SDK default.
func NewSESNotifier(ctx context.Context, region, fromEmail, fromName string, timeout time.Duration) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithHTTPClient(newSESHTTPClient(timeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	slog.Info("email notifier enabled", "provider", "ses", "from", fromEmail, "region", region)
	return newSESNotifier(sesv2.NewFromConfig(cfg), fromEmail, fromName), nil
}

// newSESHTTPClient keeps the SDK's buildable client so that options such as
// AWS_CA_BUNDLE can still be applied to its transport.
func newSESHTTPClient(timeout time.Duration) *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().
		WithTimeout(timeout).
		WithDialerOptions(infrahttp.ConfigureDialer).
		WithTransportOptions(infrahttp.ConfigureTransport)
}

func newSESNotifier(client sesAPI, fromEmail, fromName string) *SESNotifier {
	return &SESNotifier{client: client, fromEmail: fromEmail, fromName: fromName}
}

// SendPasswordReset emails resetURL to the user.
func (s *SESNotifier) SendPasswordReset(ctx context.Context, toEmail, toName, resetURL string, expiresAt time.Time) error {
	msg := renderPasswordReset(toName, resetURL, expiresAt)

	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{toEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	return nil
}
