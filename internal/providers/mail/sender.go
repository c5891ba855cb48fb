// Package mail delivers finished mesh artifacts to submitters over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
)

const (
	resultSubject = "Your 3D Mesh is ready!"
	resultBody    = "Please find the file attached for your review."
)

// Options holds the SMTP account used for delivery.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Logger   zerolog.Logger
}

// Sender sends the result email with the artifact attached. Delivery is
// fire-and-forget from the queue's perspective: one attempt per processor
// pass, no partial-delivery tracking.
type Sender struct {
	client *gomail.Client
	from   string
	logger zerolog.Logger
}

// NewSender configures an SMTP sender. Host and From are required; the
// worker falls back to Disabled() when they are absent.
func NewSender(opts Options) (*Sender, error) {
	if strings.TrimSpace(opts.Host) == "" {
		return nil, errors.New("mail: smtp host is required")
	}
	if strings.TrimSpace(opts.From) == "" {
		return nil, errors.New("mail: sender address is required")
	}
	port := opts.Port
	if port == 0 {
		port = 587
	}
	clientOpts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.Username),
			gomail.WithPassword(opts.Password),
		)
	}
	client, err := gomail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("mail: configure smtp client: %w", err)
	}
	return &Sender{client: client, from: opts.From, logger: opts.Logger}, nil
}

// SendResult emails the artifact at artifactPath to recipient.
func (s *Sender) SendResult(ctx context.Context, artifactPath, recipient string) error {
	if _, err := os.Stat(artifactPath); err != nil {
		return fmt.Errorf("mail: artifact missing: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail: set sender: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("mail: set recipient: %w", err)
	}
	msg.Subject(resultSubject)
	msg.SetBodyString(gomail.TypeTextPlain, resultBody)
	msg.AttachFile(artifactPath)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", recipient, err)
	}
	s.logger.Info().Str("recipient", recipient).Str("artifact", artifactPath).Msg("mail: result delivered")
	return nil
}

// Disabled returns a mailer that refuses every delivery. Used when SMTP is
// not configured so builds still complete and records stay mail-pending.
func Disabled() DisabledSender { return DisabledSender{} }

// DisabledSender implements the delivery contract by always failing.
type DisabledSender struct{}

// SendResult always reports that delivery is not configured.
func (DisabledSender) SendResult(context.Context, string, string) error {
	return errors.New("mail: delivery not configured")
}
