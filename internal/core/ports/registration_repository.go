package ports

import (
	"context"

	"github.com/lumina-chat/lumina-api/internal/core/domain"
)

// RegistrationRepository defines persistence for pending registrations.
// Create must surface domain.ErrRegistrationPending on a unique-email
// violation; FindByEmail must surface domain.ErrRegistrationNotFound.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.PendingRegistration) (*domain.PendingRegistration, error)
	FindByEmail(ctx context.Context, email string) (*domain.PendingRegistration, error)
	DeleteByID(ctx context.Context, id string) error
}
