package services

import (
	"context"
	"fmt"
	"log"

	"eventpass/internal/domain"
)

type emailService struct {
	mailer domain.Mailer
}

// NewEmailService returns an EmailService that uses the given Mailer.
func NewEmailService(mailer domain.Mailer) domain.EmailService {
	return &emailService{mailer: mailer}
}

// SendTicketConfirmation sends the registration confirmation carrying the
// entry credential code.
func (s *emailService) SendTicketConfirmation(ctx context.Context, data *domain.TicketEmailData) error {
	if data == nil {
		return fmt.Errorf("ticket confirmation data is nil")
	}
	subject := fmt.Sprintf("Your ticket for %s", data.EventName)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your registration for <strong>%s</strong> (%s) is confirmed.</p>"+
			"<p>Entry code: <code>%s</code><br>Ticket: %s</p>"+
			"<p>Present the code at the entrance. It can be used once.</p>",
		data.Name, data.EventName, data.TierName, data.Code, data.Label,
	)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour registration for %s (%s) is confirmed.\n\nEntry code: %s\nTicket: %s\n\nPresent the code at the entrance. It can be used once.\n",
		data.Name, data.EventName, data.TierName, data.Code, data.Label,
	)
	if err := s.mailer.Send(data.Email, subject, html, text); err != nil {
		return fmt.Errorf("failed to send ticket confirmation: %w", err)
	}
	log.Printf("[EMAIL] Ticket confirmation sent to %s", data.Email)
	return nil
}
