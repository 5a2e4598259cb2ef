// Package mailer implements notification delivery channels.
// In-app notifications live in the database and are "delivered" the
// moment they are visible to the recipient; email goes out over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/axiom-hq/axiom-hub/internal/domain/notification"
	"github.com/axiom-hq/axiom-hub/internal/domain/shared"
	"github.com/axiom-hq/axiom-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-APP CHANNEL
// ══════════════════════════════════════════════════════════════════════════════

// InAppSender delivers in-app notifications. The notification row itself
// is the inbox entry, so there is no transport to speak to.
type InAppSender struct{}

// NewInAppSender creates an in-app sender.
func NewInAppSender() *InAppSender {
	return &InAppSender{}
}

// Send implements notification.Sender.
func (s *InAppSender) Send(_ context.Context, _ *notification.Notification) error {
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EMAIL CHANNEL
// ══════════════════════════════════════════════════════════════════════════════

// SMTPConfig contains SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address, e.g. "Axiom Hub <no-reply@axiomhub.dev>"
	From string
}

// Addr returns the host:port dial address.
func (c SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// UserDirectory resolves a recipient ID to their profile.
// Satisfied by user.Repository.
type UserDirectory interface {
	GetByID(ctx context.Context, id shared.UserID) (*user.User, error)
}

// SMTPSender delivers notifications as plain-text email.
type SMTPSender struct {
	config    SMTPConfig
	directory UserDirectory
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(config SMTPConfig, directory UserDirectory) *SMTPSender {
	return &SMTPSender{
		config:    config,
		directory: directory,
	}
}

// Send implements notification.Sender.
func (s *SMTPSender) Send(ctx context.Context, n *notification.Notification) error {
	recipient, err := s.directory.GetByID(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve recipient %s: %w", n.RecipientID, err)
	}

	to := recipient.Email.String()
	msg := buildMessage(s.config.From, to, subjectFor(n), n.Body)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(s.config.Addr(), auth, s.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// subjectFor builds the subject line from the notification type and title.
func subjectFor(n *notification.Notification) string {
	if n.Title != "" {
		return n.Type.Emoji() + " " + n.Title
	}
	return n.Type.Emoji() + " Axiom Hub"
}

// buildMessage assembles an RFC 5322 message with UTF-8 text body.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// ══════════════════════════════════════════════════════════════════════════════
// CHANNEL ROUTER
// ══════════════════════════════════════════════════════════════════════════════

// Router dispatches a notification to the sender for its channel.
type Router struct {
	senders map[notification.Channel]notification.Sender
}

// NewRouter creates a channel router.
func NewRouter() *Router {
	return &Router{
		senders: make(map[notification.Channel]notification.Sender),
	}
}

// Register binds a sender to a channel. Last registration wins.
func (r *Router) Register(channel notification.Channel, sender notification.Sender) {
	r.senders[channel] = sender
}

// Send implements notification.Sender.
func (r *Router) Send(ctx context.Context, n *notification.Notification) error {
	sender, ok := r.senders[n.Channel]
	if !ok {
		return fmt.Errorf("no sender registered for channel %q: %w", n.Channel, notification.ErrInvalidChannel)
	}
	return sender.Send(ctx, n)
}
