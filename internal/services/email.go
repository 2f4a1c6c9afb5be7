package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventmanager/internal/adapters/email"
	"eventmanager/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that renders templates and hands them to mailer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

func (s *emailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationEmailData) error {
	if data == nil {
		return fmt.Errorf("registration email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render(email.TemplateRegistrationConfirmation, data)
	if err != nil {
		return fmt.Errorf("render registration template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send registration email: %w", err)
	}
	s.logger.DebugContext(ctx, "registration confirmation sent", "to", data.Email, "event", data.EventName)
	return nil
}
