package authkit

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the connection settings for the gomail-backed Mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP host")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP port")
	}
	if c.From == "" {
		return fmt.Errorf("missing SMTP from address")
	}
	return nil
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a Mailer from the given SMTP settings.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &SMTPMailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

// Send delivers a single HTML email.
func (m *SMTPMailer) Send(to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}

// NoopMailer discards every message. Useful for environments without an
// outbound relay.
type NoopMailer struct{}

var _ Mailer = NoopMailer{}

func (NoopMailer) Send(to []string, subject, htmlBody string) error {
	return nil
}

// verificationEmail renders the double-opt-in message for a pending signup.
func verificationEmail(cfg Config, name, token string) (subject, htmlBody string) {
	subject = "Verify your account"

	link := token
	if cfg.VerificationBaseURL != "" {
		link = fmt.Sprintf("%s?token=%s", cfg.VerificationBaseURL, token)
	}

	from := cfg.MailFromName
	if from == "" {
		from = "The team"
	}

	htmlBody = fmt.Sprintf(
		`<p>Hi %s,</p>
<p>Please confirm your registration by following this link:</p>
<p><a href="%s">%s</a></p>
<p>The link expires in %s. If you did not sign up, ignore this message.</p>
<p>%s</p>`,
		name, link, link, cfg.WithDefaults().PendingTTL, from,
	)

	return subject, htmlBody
}
