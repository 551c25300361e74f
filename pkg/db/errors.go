// pkg/db/errors.go
package db

import "errors"

// Pool errors.
var (
	ErrConnection    = errors.New("database connection failed")
	ErrPoolExhausted = errors.New("connection pool exhausted")
	ErrPoolClosed    = errors.New("connection pool closed")
)
