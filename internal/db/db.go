// Package db opens the table store connection and prepares its schema.
package db

import (
	"fmt"
	"log"
	"regexp"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-deliveries/internal/config"
)

var (
	passwordKVRe  = regexp.MustCompile(`(password=)([^\s]+)`)
	passwordURLRe = regexp.MustCompile(`(://[^:/@]+:)([^@]+)(@)`)
	passwordTCPRe = regexp.MustCompile(`^([^:/@]+:)([^@]+)(@tcp)`)
)

// RetryDelay is the pause between connection attempts.
var RetryDelay = 2 * time.Second

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	case "mysql":
		return mysql.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Connect opens the database, retrying while it comes up, and checks it
// answers queries.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	attempts := max(cfg.Retries, 1)
	var db *gorm.DB
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.Printf("[db] connection attempt %d/%d failed: %v", i, attempts, err)
		if i < attempts {
			time.Sleep(RetryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s after %d attempts: %w", cfg.Driver, attempts, err)
	}

	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	log.Printf("[db] connected driver=%s dsn=%s", cfg.Driver, MaskDSN(cfg.DSN()))
	return db, nil
}

// MaskDSN hides the password in key=value, URL and mysql style DSNs.
func MaskDSN(dsn string) string {
	dsn = passwordKVRe.ReplaceAllString(dsn, `${1}***`)
	dsn = passwordURLRe.ReplaceAllString(dsn, `${1}***${3}`)
	return passwordTCPRe.ReplaceAllString(dsn, `${1}***${3}`)
}
