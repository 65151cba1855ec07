package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/diewo77/go-deliveries/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run DB migrations and exit",
	Long: `Migrate brings the schema up to date. On PostgreSQL the embedded
SQL migrations are applied; other drivers use AutoMigrate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.App.Migrations = true
		if _, _, err := openStore(); err != nil {
			return err
		}
		log.Println("Migrations completed successfully")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo locations and deliveries",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, _, err := openStore()
		if err != nil {
			return err
		}
		if err := db.Seed(gdb, time.Now(), cfg.Pricing.KgPerSack, cfg.Pricing.PricePerSack); err != nil {
			return err
		}
		log.Println("Seeding completed successfully")
		return nil
	},
}
