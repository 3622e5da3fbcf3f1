package mailer

// Email is a transactional email ready for submission to the provider.
type Email struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}
