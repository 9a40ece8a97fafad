package ports

import "context"

// OTPMailInput carries everything needed to deliver a verification code.
type OTPMailInput struct {
	To   string
	Name string
	OTP  string
}

// Mailer delivers a single OTP message synchronously. The queue dispatcher
// wraps it so workflows never block on SMTP.
type Mailer interface {
	SendOTP(ctx context.Context, in OTPMailInput) error
}

// MailEnqueuer is the fire-and-forget side the workflows see.
type MailEnqueuer interface {
	Enqueue(in OTPMailInput)
}
