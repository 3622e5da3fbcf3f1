package resendmailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/kikorobot/storefront/internal/mailer"
)

// ErrMissingAPIKey signals absent email provider configuration.
var ErrMissingAPIKey = errors.New("resend api key is required")

// Mailer submits transactional email through the Resend API.
type Mailer struct {
	client *resend.Client
}

// NewMailer creates a Resend mailer. Fails fast when the API key is absent.
func NewMailer(apiKey string) (*Mailer, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return &Mailer{
		client: resend.NewClient(apiKey),
	}, nil
}

// Send submits the email and returns the provider's message id.
func (m *Mailer) Send(ctx context.Context, email mailer.Email) (string, error) {
	params := &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Text:    email.Text,
		Html:    email.HTML,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}
