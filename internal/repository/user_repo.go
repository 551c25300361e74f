// internal/repository/user_repo.go
package repository

import (
	"context"

	"github.com/opsnoopop/api-go-mysql/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// CreateUser inserts user and sets user.ID to the generated identifier.
	// A duplicate email yields util.ErrDuplicateEntry.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	// GetUserByID retrieves a user by ID. A missing row yields util.ErrUserNotFound.
	GetUserByID(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
}
