package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/diewo77/go-deliveries/internal/db"
	"github.com/diewo77/go-deliveries/internal/ledger"
	"github.com/diewo77/go-deliveries/session"
	"github.com/diewo77/go-deliveries/view"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	gdb, st, err := openStore()
	if err != nil {
		return err
	}

	if cfg.App.Seed {
		if err := db.Seed(gdb, time.Now(), cfg.Pricing.KgPerSack, cfg.Pricing.PricePerSack); err != nil {
			return err
		}
	}

	view.SetDev(cfg.App.Dev)
	if cfg.Session.SecretGenerated {
		log.Println("[session] SESSION_SECRET not set; using a random secret, sessions end on restart")
	}

	registry := ledger.NewRegistry(func() *ledger.Controller { return newController(st) })
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go registry.RunSweeper(sweepCtx, time.Minute, cfg.Session.IdleTTL)

	sm := session.NewManager(cfg.Session.Secret, cfg.Session.CookieName, cfg.Session.Secure, cfg.Session.IdleTTL)
	appHandler := NewApp(st, registry, sm, cfg.App.Lang)

	// Create server with config timeouts
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s (dev=%v, driver=%s)", cfg.Server.Port, cfg.App.Dev, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Println("Shutdown signal received")
	case err := <-errCh:
		return err
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server stopped gracefully")
	return nil
}
