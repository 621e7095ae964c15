package common

// EmailSender delivers a single HTML email to one recipient.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is one message captured by InMemoryEmail.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail collects sent messages instead of delivering them. Useful in
// tests and in environments without an SMTP relay.
type InMemoryEmail struct {
	Outbox []Email
}

// Send appends the message to the outbox. A nil receiver silently drops it.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender discards every message.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(string, string, string) error { return nil }
