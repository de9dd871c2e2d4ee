// Package services отправляет менеджерам письма о новых QA-активностях.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/metrics"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

// Repository возвращает получателей уведомлений.
type Repository interface {
	ListUsers(ctx context.Context, scope models.Scope) ([]models.User, error)
}

// SenderService рассылает уведомления по SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	users     Repository
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface, users Repository) *SenderService {
	return &SenderService{
		transport: transport,
		users:     users,
		log:       log,
	}
}

// HandleActivitySubmitted обрабатывает событие activity.submitted: письмо получают все QA_MANAGER.
// Нераспознанное сообщение логируется и отбрасывается без ошибки, чтобы не зациклить повторную доставку.
func (s *SenderService) HandleActivitySubmitted(ctx context.Context, body []byte) error {
	const op = "services.SenderService.HandleActivitySubmitted"

	var event models.ActivitySubmittedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body, dropping", "op", op, sl.Err(err))
		return nil
	}
	if event.ActivityID == "" {
		s.log.Error("event without activity id, dropping", "op", op)
		return nil
	}

	managers, err := s.users.ListUsers(ctx, models.Scope{PeerRole: models.RoleManager})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	to := make([]string, 0, len(managers))
	for _, m := range managers {
		if m.Email != "" {
			to = append(to, m.Email)
		}
	}
	if len(to) == 0 {
		s.log.Warn("no managers to notify", "op", op, "activity_id", event.ActivityID)
		return nil
	}

	subject := fmt.Sprintf("New %s QA activity from %s", strings.ToLower(string(event.ActivityType)), event.UserName)
	bodyText := fmt.Sprintf("Hello!\n\n%s (%s) submitted a %s QA activity for %s.\nActivity ID: %s\nSubmitted at: %s\n",
		event.UserName, event.UserEmail, strings.ToLower(string(event.ActivityType)),
		event.Date.Format(time.DateOnly), event.ActivityID, event.SubmittedAt.Format(time.RFC1123))

	err = s.sendEmail(to, subject, bodyText)
	metrics.RecordNotification(err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.From(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.Envelope()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.Envelope(), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
