package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"
)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email sends through an SMTP relay. With no host configured it only logs
// the message, which is how development runs.
type Email struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Send     SendFunc
	Logger   *logger.Logger
}

func NewEmail(cfg config.EmailConfig, log *logger.Logger) *Email {
	return &Email{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.From,
		Send:     smtp.SendMail,
		Logger:   log,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Notify(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Host == "" {
		e.Logger.LogNotify("EMAIL", fmt.Sprintf("SMTP not configured, to=%s subject=%q\n%s", msg.To, msg.Subject, msg.Body))
		return nil
	}

	from, err := mail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("invalid sender %q: %w", e.From, err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}

	var auth smtp.Auth
	if e.Username != "" {
		auth = smtp.PlainAuth("", e.Username, e.Password, e.Host)
	}
	addr := net.JoinHostPort(e.Host, e.Port)
	if err := e.Send(addr, auth, from.Address, []string{to.Address}, e.compose(from, to, msg)); err != nil {
		return fmt.Errorf("send email to %s: %w", to.Address, err)
	}
	e.Logger.LogNotify("EMAIL", fmt.Sprintf("Sent %q to %s", msg.Subject, to.Address))
	return nil
}

func (e *Email) compose(from, to *mail.Address, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", to.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.HTML != "" {
		b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(msg.HTML)
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
		b.WriteString(msg.Body)
	}
	return b.Bytes()
}
