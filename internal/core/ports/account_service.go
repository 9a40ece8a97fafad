package ports

import (
	"context"
	"time"

	"github.com/lumina-chat/lumina-api/internal/core/domain"
)

// RegistrationResult is the sanitized view returned after a signup request.
// It deliberately carries neither the password hash nor the OTP.
type RegistrationResult struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	OTPExpiresAt time.Time `json:"otp_expires_at"`
}

// AccountService defines the registration, verification, and login use cases.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*RegistrationResult, error)
	VerifyEmail(ctx context.Context, email, otp string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}
