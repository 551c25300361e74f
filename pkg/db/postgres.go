// pkg/db/postgres.go
package db

import (
	"net"
	"net/url"
	"strconv"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// postgresDSN builds a lib/pq connection URL. Credentials and the database
// name are percent-encoded, so any characters are safe in them.
// PostgreSQL runs every statement outside an explicit transaction in autocommit mode.
func postgresDSN(cfg Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	query.Set("client_encoding", postgresEncoding(cfg.Charset))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.DBName,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// postgresEncoding maps MySQL-style charset names onto PostgreSQL encodings.
func postgresEncoding(charset string) string {
	switch charset {
	case "utf8mb4", "utf8", "utf-8":
		return "UTF8"
	}
	return charset
}
