package notify

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier mails codes through an SMTP relay.
type SMTPNotifier struct {
	from   string
	dialer sender
	ttl    time.Duration
}

// NewSMTPNotifier builds a notifier for host:port; ttl is only quoted in
// the message text.
func NewSMTPNotifier(host string, port int, username, password, from string, ttl time.Duration) *SMTPNotifier {
	return &SMTPNotifier{
		from:   from,
		dialer: gomail.NewDialer(host, port, username, password),
		ttl:    ttl,
	}
}

func (n *SMTPNotifier) SendLoginOTP(ctx context.Context, email, code string) error {
	return n.send(ctx, email, loginOTPMessage(code, n.ttl))
}

func (n *SMTPNotifier) SendPasswordResetOTP(ctx context.Context, email, code string) error {
	return n.send(ctx, email, passwordResetOTPMessage(code, n.ttl))
}

func (n *SMTPNotifier) send(ctx context.Context, to string, m message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", m.subject)
	msg.SetBody("text/plain", m.body)

	if err := n.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
