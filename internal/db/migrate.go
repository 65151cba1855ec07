package db

import (
	"embed"
	"errors"
	"fmt"
	"log"

	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres:// scheme with golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	"github.com/diewo77/go-deliveries/internal/config"
	"github.com/diewo77/go-deliveries/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs AutoMigrate for all models.
func Migrate(db *gorm.DB) error {
	for _, m := range []any{&models.Location{}, &models.Delivery{}} {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"locations", "deliveries"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// Prepare brings the schema up to date: versioned SQL migrations when
// enabled on PostgreSQL, AutoMigrate otherwise.
func Prepare(db *gorm.DB, cfg *config.Config) error {
	if cfg.App.Migrations && cfg.Database.Driver == "postgres" {
		return MigrateSQL(cfg.Database.URL())
	}
	if cfg.App.Migrations {
		log.Printf("[db] SQL migrations are PostgreSQL only; using AutoMigrate for %s", cfg.Database.Driver)
	}
	return Migrate(db)
}

// MigrateSQL applies the embedded SQL migrations to the PostgreSQL
// database at url.
func MigrateSQL(url string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	log.Printf("[db] schema at version %d (dirty=%v)", version, dirty)
	return nil
}
