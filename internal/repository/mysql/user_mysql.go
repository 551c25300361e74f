// internal/repository/mysql/user_mysql.go
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/opsnoopop/api-go-mysql/internal/domain"
	"github.com/opsnoopop/api-go-mysql/internal/repository"
	"github.com/opsnoopop/api-go-mysql/internal/util"
)

// erDupEntry is the MySQL server error for a unique key violation.
const erDupEntry = 1062

// UserRepository implements repository.UserRepository for MySQL.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
// Connections are passed to each method, so the repository holds no state.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new user. The generated ID is read from the result of
// the same statement, which MySQL scopes to the executing connection.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (username, email) VALUES (?, ?)`
	res, err := q.ExecContext(ctx, query, user.Username, user.Email)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == erDupEntry {
			return fmt.Errorf("email %q: %w", user.Email, util.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read generated user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	var user domain.User
	query := `SELECT user_id, username, email FROM users WHERE user_id = ?`
	if err := q.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}
