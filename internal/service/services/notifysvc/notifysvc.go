package notifysvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kikorobot/storefront/internal/mailer"
	"github.com/kikorobot/storefront/internal/service/models/notification"
)

var (
	// ErrValidation signals missing required submission fields.
	ErrValidation = errors.New("validation failed")

	// ErrNotification signals that the email provider rejected the send.
	// The payload has already been written to the fallback directory.
	ErrNotification = errors.New("email delivery failed")
)

const (
	contactSender  = "KIKO ROBOT <onboarding@resend.dev>"
	feedbackSender = "KIKO Feedback System <onboarding@resend.dev>"
	recipient      = "kikorobotai@gmail.com"
)

// emailer is the provider contract the dispatcher depends on.
type emailer interface {
	Send(ctx context.Context, email mailer.Email) (string, error)
}

// NotifyService renders and dispatches transactional email for the contact
// and feedback funnels. Submissions are also written to local JSON files:
// as a backup on success, as the durable fallback on provider failure.
type NotifyService struct {
	mailer  emailer
	dataDir string
	now     func() time.Time
}

// option is a function that configures the NotifyService.
type option func(*NotifyService)

// MustNewNotifyService creates a new NotifyService. Panics when the mailer
// is missing.
func MustNewNotifyService(opts ...option) *NotifyService {
	s := &NotifyService{
		dataDir: "data",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.mailer == nil {
		panic("notifysvc: mailer is required")
	}

	return s
}

// WithMailer sets the email provider client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMailer(m emailer) option {
	return func(s *NotifyService) {
		s.mailer = m
	}
}

// WithDataDir sets the directory holding the contacts/ and feedback/ files.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDataDir(dir string) option {
	return func(s *NotifyService) {
		s.dataDir = dir
	}
}

// WithClock overrides the time source used for fallback file names.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *NotifyService) {
		s.now = now
	}
}

// SendContact dispatches a contact form submission.
func (s *NotifyService) SendContact(ctx context.Context, c notification.Contact) error {
	if c.Name == "" || c.Email == "" || c.Message == "" {
		return fmt.Errorf("%w: name, email and message are required", ErrValidation)
	}

	subject := c.Subject
	if subject == "" {
		subject = "No Subject"
	}

	email := mailer.Email{
		From:    contactSender,
		To:      []string{recipient},
		ReplyTo: c.Email,
		Subject: "Contact: " + subject,
		Text:    fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", c.Name, c.Email, c.Message),
	}

	if _, err := s.mailer.Send(ctx, email); err != nil {
		s.writeFallback("contacts", "contact", c)

		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	// Backup copy on success as well.
	s.writeFallback("contacts", "contact", c)

	return nil
}

// SendFeedback dispatches a feature feedback submission.
func (s *NotifyService) SendFeedback(ctx context.Context, f notification.Feedback) error {
	if f.Feature == "" || f.Description == "" {
		return fmt.Errorf("%w: feature and description are required", ErrValidation)
	}

	html, err := renderFeedbackHTML(f)
	if err != nil {
		return err
	}

	email := mailer.Email{
		From:    feedbackSender,
		To:      []string{recipient},
		ReplyTo: f.ContactEmail,
		Subject: "New KIKO Feature Request: " + f.Feature,
		Text:    renderFeedbackText(f),
		HTML:    html,
	}

	if _, err := s.mailer.Send(ctx, email); err != nil {
		s.writeFallback("feedback", "feedback", f)

		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	s.writeFallback("feedback", "feedback", f)

	return nil
}

// writeFallback stores the payload as a timestamped JSON file. Best-effort:
// a write failure is logged, the send outcome decides what the caller sees.
func (s *NotifyService) writeFallback(subdir, prefix string, payload any) {
	dir := filepath.Join(s.dataDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("Failed to create fallback directory", "dir", dir, "error", err)

		return
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		slog.Error("Failed to encode fallback payload", "error", err)

		return
	}

	name := fmt.Sprintf("%s-%d.json", prefix, s.now().UnixMilli())
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		slog.Error("Failed to write fallback file", "file", name, "error", err)
	}
}

func renderFeedbackText(f notification.Feedback) string {
	contact := "No contact email provided"
	if f.ContactEmail != "" {
		contact = "Contact Email: " + f.ContactEmail
	}

	return fmt.Sprintf(
		"NEW FEEDBACK SUBMISSION\n\nFeature Category: %s\nImportance: %s\n\nDescription:\n%s\n\n%s\n",
		f.Feature,
		notification.UrgencyLabel(f.Urgency),
		f.Description,
		contact,
	)
}

var feedbackTemplate = template.Must(template.New("feedback").Parse(`<!DOCTYPE html>
<html>
<body>
  <h1>New Feature Request</h1>
  <p><strong>Feature Category:</strong> {{.Feature}}</p>
  <p><strong>Importance:</strong> {{.UrgencyLabel}}</p>
  <p><strong>Description:</strong></p>
  <p style="white-space: pre-wrap;">{{.Description}}</p>
  {{if .ContactEmail}}<p><strong>Contact Email:</strong> <a href="mailto:{{.ContactEmail}}">{{.ContactEmail}}</a></p>{{end}}
  <p>This feedback was submitted via the KIKO Robot website.</p>
</body>
</html>`))

func renderFeedbackHTML(f notification.Feedback) (string, error) {
	var buf bytes.Buffer
	err := feedbackTemplate.Execute(&buf, struct {
		notification.Feedback
		UrgencyLabel string
	}{
		Feedback:     f,
		UrgencyLabel: notification.UrgencyLabel(f.Urgency),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render feedback email: %w", err)
	}

	return buf.String(), nil
}
