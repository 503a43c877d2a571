// Package db provides database connection and schema migration for Roundhouse.
package db

import (
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/zulandar/roundhouse/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN from database settings. parseTime is required so
// GORM scans TIMESTAMP columns into time.Time.
func DSN(dc config.DatabaseConfig) string {
	cfg := gomysql.NewConfig()
	cfg.User = dc.User
	cfg.Passwd = dc.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", dc.Host, dc.Port)
	cfg.DBName = dc.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Connect opens a GORM connection for the configured backend. TranslateError
// is enabled so unique-constraint violations surface as gorm.ErrDuplicatedKey
// regardless of driver.
func Connect(dc config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	switch dc.Backend {
	case config.BackendSQLite:
		db, err := gorm.Open(sqlite.Open(dc.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite %s: %w", dc.Path, err)
		}
		return db, nil
	case config.BackendMySQL:
		db, err := gorm.Open(mysql.Open(DSN(dc)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", dc.Host, dc.Port, dc.Name, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("db: unknown backend %q", dc.Backend)
	}
}
