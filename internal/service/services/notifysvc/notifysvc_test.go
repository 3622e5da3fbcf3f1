package notifysvc

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kikorobot/storefront/internal/mailer"
	"github.com/kikorobot/storefront/internal/service/models/notification"
)

// fakeMailer records sent emails and optionally fails every send.
type fakeMailer struct {
	sent []mailer.Email
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, email mailer.Email) (string, error) {
	if m.fail {
		return "", errors.New("provider unavailable")
	}

	m.sent = append(m.sent, email)

	return "msg_1", nil
}

func newService(t *testing.T, m *fakeMailer) (*NotifyService, string) {
	t.Helper()

	dir := t.TempDir()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc := MustNewNotifyService(
		WithMailer(m),
		WithDataDir(dir),
		WithClock(func() time.Time { return now }),
	)

	return svc, dir
}

func readOnlyFile(t *testing.T, dir string) []byte {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 file in %s, got %d", dir, len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return data
}

func TestSendContact(t *testing.T) {
	ctx := context.Background()

	contact := notification.Contact{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Shipping",
		Message: "When does the founder edition ship?",
	}

	t.Run("missing fields rejected before provider call", func(t *testing.T) {
		m := &fakeMailer{}
		svc, dir := newService(t, m)

		err := svc.SendContact(ctx, notification.Contact{Name: "Ada"})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if len(m.sent) != 0 {
			t.Fatal("provider must not be called for invalid input")
		}
		if _, err := os.Stat(filepath.Join(dir, "contacts")); !os.IsNotExist(err) {
			t.Fatal("no fallback file must be written for invalid input")
		}
	})

	t.Run("success sends and writes backup", func(t *testing.T) {
		m := &fakeMailer{}
		svc, dir := newService(t, m)

		if err := svc.SendContact(ctx, contact); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(m.sent) != 1 {
			t.Fatalf("expected 1 email, got %d", len(m.sent))
		}
		email := m.sent[0]
		if email.Subject != "Contact: Shipping" {
			t.Fatalf("unexpected subject: %s", email.Subject)
		}
		if email.ReplyTo != "ada@example.com" {
			t.Fatalf("unexpected reply-to: %s", email.ReplyTo)
		}
		if !strings.Contains(email.Text, contact.Message) {
			t.Fatalf("message missing from body: %s", email.Text)
		}

		var stored notification.Contact
		if err := json.Unmarshal(readOnlyFile(t, filepath.Join(dir, "contacts")), &stored); err != nil {
			t.Fatalf("backup file is not valid JSON: %v", err)
		}
		if stored != contact {
			t.Fatalf("backup does not reconstruct the submission: %+v", stored)
		}
	})

	t.Run("empty subject becomes No Subject", func(t *testing.T) {
		m := &fakeMailer{}
		svc, _ := newService(t, m)

		c := contact
		c.Subject = ""
		if err := svc.SendContact(ctx, c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.sent[0].Subject != "Contact: No Subject" {
			t.Fatalf("unexpected subject: %s", m.sent[0].Subject)
		}
	})

	t.Run("provider failure writes fallback", func(t *testing.T) {
		m := &fakeMailer{fail: true}
		svc, dir := newService(t, m)

		err := svc.SendContact(ctx, contact)
		if !errors.Is(err, ErrNotification) {
			t.Fatalf("expected ErrNotification, got %v", err)
		}

		var stored notification.Contact
		if err := json.Unmarshal(readOnlyFile(t, filepath.Join(dir, "contacts")), &stored); err != nil {
			t.Fatalf("fallback file is not valid JSON: %v", err)
		}
		if stored != contact {
			t.Fatalf("fallback does not reconstruct the submission: %+v", stored)
		}
	})
}

func TestSendFeedback(t *testing.T) {
	ctx := context.Background()

	feedback := notification.Feedback{
		Feature:      "voice-control",
		Urgency:      "high",
		Description:  "Let KIKO respond to spoken commands.",
		ContactEmail: "ada@example.com",
	}

	t.Run("missing fields rejected before provider call", func(t *testing.T) {
		m := &fakeMailer{}
		svc, _ := newService(t, m)

		err := svc.SendFeedback(ctx, notification.Feedback{Feature: "voice-control"})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if len(m.sent) != 0 {
			t.Fatal("provider must not be called for invalid input")
		}
	})

	t.Run("success renders text and html", func(t *testing.T) {
		m := &fakeMailer{}
		svc, _ := newService(t, m)

		if err := svc.SendFeedback(ctx, feedback); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		email := m.sent[0]
		if email.Subject != "New KIKO Feature Request: voice-control" {
			t.Fatalf("unexpected subject: %s", email.Subject)
		}
		if !strings.Contains(email.Text, "Importance: Critical") {
			t.Fatalf("urgency label missing from text body: %s", email.Text)
		}
		if !strings.Contains(email.HTML, "mailto:ada@example.com") {
			t.Fatalf("contact email missing from html body: %s", email.HTML)
		}
	})

	t.Run("provider failure writes fallback", func(t *testing.T) {
		m := &fakeMailer{fail: true}
		svc, dir := newService(t, m)

		err := svc.SendFeedback(ctx, feedback)
		if !errors.Is(err, ErrNotification) {
			t.Fatalf("expected ErrNotification, got %v", err)
		}

		var stored notification.Feedback
		if err := json.Unmarshal(readOnlyFile(t, filepath.Join(dir, "feedback")), &stored); err != nil {
			t.Fatalf("fallback file is not valid JSON: %v", err)
		}
		if stored.Feature != feedback.Feature || stored.Description != feedback.Description {
			t.Fatalf("fallback does not reconstruct the submission: %+v", stored)
		}
	})
}

func TestUrgencyLabels(t *testing.T) {
	cases := []struct {
		urgency string
		want    string
	}{
		{"low", "Nice to have"},
		{"medium", "Important"},
		{"high", "Critical"},
		{"critical", "Must have"},
		{"", "Not specified"},
	}

	for _, c := range cases {
		if got := notification.UrgencyLabel(c.urgency); got != c.want {
			t.Errorf("UrgencyLabel(%q) = %q, want %q", c.urgency, got, c.want)
		}
	}
}
