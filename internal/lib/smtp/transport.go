// Package smtp отправляет уведомления о новых активностях через SMTP.
package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/config"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// Client — часть *smtp.Client, которой пользуется рассылка.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает сессии с почтовым сервером.
type TransportInterface interface {
	Connect() (Client, error)
	// From возвращает заголовок From письма.
	From() string
	// Envelope возвращает адрес для команды MAIL FROM.
	Envelope() string
}

// Transport подключается к серверу из config.SMTP.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log}
}

// Connect устанавливает соединение, включает STARTTLS и авторизуется.
// В режиме Insecure оба шага пропускаются.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"
	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		t.log.Error("failed to dial SMTP server", slog.String("addr", addr), sl.Err(err))
		return nil, fmt.Errorf("%s: failed to dial SMTP server: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		if closeErr := conn.Close(); closeErr != nil {
			t.log.Error("failed to close connection", sl.Err(closeErr))
		}
		return nil, fmt.Errorf("%s: failed to create SMTP client: %w", op, err)
	}

	if !t.cfg.Insecure {
		if err := t.secure(client); err != nil {
			if closeErr := client.Close(); closeErr != nil {
				t.log.Error("failed to close client", sl.Err(closeErr))
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return client, nil
}

func (t *Transport) secure(client *smtp.Client) error {
	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.log.Error("SMTP server does not support STARTTLS", slog.String("host", t.cfg.Host))
		return fmt.Errorf("server does not support STARTTLS")
	}
	err := client.StartTLS(&tls.Config{
		ServerName: t.cfg.Host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		t.log.Error("failed to start TLS", sl.Err(err))
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if t.cfg.User == "" {
		return nil
	}
	if err := client.Auth(smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)); err != nil {
		t.log.Error("smtp auth failed", slog.String("user", t.cfg.User), sl.Err(err))
		return fmt.Errorf("auth failed: %w", err)
	}
	return nil
}

// From возвращает cfg.From, а если он пуст, то логин SMTP.
func (t *Transport) From() string {
	if t.cfg.From != "" {
		return t.cfg.From
	}
	return t.cfg.User
}

// Envelope возвращает голый адрес из From для MAIL FROM.
func (t *Transport) Envelope() string {
	addr, err := mail.ParseAddress(t.From())
	if err != nil {
		return t.From()
	}
	return addr.Address
}
