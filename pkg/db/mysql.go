// pkg/db/mysql.go
package db

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql" // MySQL driver
)

// mysqlDSN builds a go-sql-driver DSN. Autocommit is forced on for every
// session and the charset is negotiated on connect.
func mysqlDSN(cfg Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.DBName
	mc.Params = map[string]string{
		"charset":    cfg.Charset,
		"autocommit": "true",
	}
	return mc.FormatDSN()
}
