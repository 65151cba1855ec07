// Package main provides the deliveries command: the web server, schema
// tools, the terminal UI and the spreadsheet export.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/diewo77/go-deliveries/internal/config"
	"github.com/diewo77/go-deliveries/internal/db"
	"github.com/diewo77/go-deliveries/internal/ledger"
	"github.com/diewo77/go-deliveries/internal/models"
	"github.com/diewo77/go-deliveries/internal/store"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// cfg is loaded before every command runs.
	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deliveries",
	Short: "Locations and deliveries ledger",
	Long: `deliveries keeps a list of delivery locations and the dated
quantity/price records delivered to each of them.

Configuration comes from .env, an optional deliveries.yaml and the
environment (DB_DRIVER, DATABASE_DSN, PORT, APP_LANG, ...).`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./deliveries.yaml when present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(exportCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	// Load environment variables from .env file
	_ = godotenv.Load()

	c, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	return nil
}

// openStore connects to the database, brings the schema up to date and
// returns the table store over it.
func openStore() (*gorm.DB, *store.GormStore, error) {
	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.Prepare(gdb, cfg); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, store.NewGormStore(gdb, models.Location{}, models.Delivery{}), nil
}

func newController(st store.TableStore) *ledger.Controller {
	tz, _ := cfg.App.Location()
	return ledger.NewController(st, ledger.Options{
		Pricing:  ledger.Pricing{KgPerSack: cfg.Pricing.KgPerSack, PricePerSack: cfg.Pricing.PricePerSack},
		Location: tz,
		Now:      time.Now,
	})
}
