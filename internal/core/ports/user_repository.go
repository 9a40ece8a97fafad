package ports

import (
	"context"

	"github.com/lumina-chat/lumina-api/internal/core/domain"
)

// UserRepository defines persistence for confirmed users.
// Create must surface domain.ErrUserExists on a unique-email violation.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
