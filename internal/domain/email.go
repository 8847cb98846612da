package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// TicketEmailData holds data for the registration confirmation email that
// carries the entry credential.
type TicketEmailData struct {
	Email     string
	Name      string
	EventName string
	TierName  string
	Code      string
	Label     string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendTicketConfirmation(ctx context.Context, data *TicketEmailData) error
}
