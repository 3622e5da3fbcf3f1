package notification

import (
	"time"
)

// Contact is a message submitted through the contact form.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Feedback is a feature request submitted through the feedback form.
type Feedback struct {
	Feature      string    `json:"feature"`
	Urgency      string    `json:"urgency,omitempty"`
	Description  string    `json:"description"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	SubmittedAt  time.Time `json:"timestamp,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
}

// UrgencyLabel maps the raw urgency value to the label used in emails.
func UrgencyLabel(urgency string) string {
	switch urgency {
	case "low":
		return "Nice to have"
	case "medium":
		return "Important"
	case "high":
		return "Critical"
	case "critical":
		return "Must have"
	default:
		return "Not specified"
	}
}
