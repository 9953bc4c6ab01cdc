package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/telehealthhq/telehealth-api/internal/config"
)

// Mailer sends transactional email over SMTP. It satisfies the auth usecase's
// Notifier capability.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

// New creates a new Mailer from the given SMTP settings.
func New(cfg config.SMTPConfig) *Mailer {
	dialer := gomail.NewDialer(
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
	)

	return &Mailer{
		from:   cfg.From,
		dialer: dialer,
	}
}

// SendHTML sends a single HTML email. Delivery is awaited; when the context
// expires first the send is abandoned and the context error is returned.
func (m *Mailer) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" {
		return fmt.Errorf("no recipient specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	// gomail has no context support; bound the dial-and-send instead of
	// blocking the request indefinitely on a wedged SMTP server.
	errc := make(chan error, 1)
	go func() {
		errc <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
