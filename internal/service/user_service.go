// internal/service/user_service.go
package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opsnoopop/api-go-mysql/internal/domain"
	"github.com/opsnoopop/api-go-mysql/internal/repository"
	"github.com/opsnoopop/api-go-mysql/internal/util"
)

// UserService defines the interface for user-related business logic.
type UserService interface {
	CreateUser(ctx context.Context, username, email string) (*domain.User, error)
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
}

// ConnPool hands out one connection per call and takes it back when fn returns.
// *db.Pool implements this.
type ConnPool interface {
	WithConn(ctx context.Context, fn func(ctx context.Context, conn *sqlx.Conn) error) error
}

// userService implements the UserService interface.
type userService struct {
	pool     ConnPool
	userRepo repository.UserRepository
}

// NewUserService creates a new instance of UserService.
func NewUserService(pool ConnPool, userRepo repository.UserRepository) UserService {
	return &userService{
		pool:     pool,
		userRepo: userRepo,
	}
}

// CreateUser stores a new user and returns it with its generated ID.
// Uniqueness of the email is left entirely to the database.
func (s *userService) CreateUser(ctx context.Context, username, email string) (*domain.User, error) {
	if username == "" || email == "" {
		return nil, util.ErrInvalidInput
	}

	user := domain.NewUser(username, email)
	err := s.pool.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		return s.userRepo.CreateUser(ctx, conn, user)
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// GetUser fetches a user by ID.
func (s *userService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	if userID <= 0 {
		return nil, util.ErrInvalidInput
	}

	var user *domain.User
	err := s.pool.WithConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		var err error
		user, err = s.userRepo.GetUserByID(ctx, conn, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	return user, nil
}
