// internal/domain/user.go
package domain

// User represents a row of the users table.
type User struct {
	ID       int64  `db:"user_id" json:"user_id"`   // Assigned by the database on insert
	Username string `db:"username" json:"username"` // Display name, not unique
	Email    string `db:"email" json:"email"`       // Unique across all users
}

// NewUser creates a User that has not been persisted yet.
func NewUser(username, email string) *User {
	return &User{
		Username: username,
		Email:    email,
	}
}
