package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/lumina-chat/lumina-api/internal/core/ports"
)

// Config captures the SMTP settings for outbound mail.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers OTP messages over SMTP. One client is reused across
// sends; go-mail handles reconnects.
type SMTPMailer struct {
	client *gomail.Client
	from   string
}

// NewSMTPMailer builds the SMTP client. Auth is plain; STARTTLS is
// opportunistic, matching common provider defaults.
func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// SendOTP delivers a single verification code.
func (m *SMTPMailer) SendOTP(ctx context.Context, in ports.OTPMailInput) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(in.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject("Your Lumina verification code")
	msg.SetBodyString(gomail.TypeTextPlain, otpBody(in.Name, in.OTP))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

func otpBody(name, otp string) string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour verification code is %s. It expires in 5 minutes.\n\nIf you did not request this, you can ignore this email.\n",
		name, otp,
	)
}
