package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/bakery-pos/internal/config"
	"github.com/diewo77/bakery-pos/internal/db"
	"github.com/diewo77/bakery-pos/internal/logging"
	"github.com/diewo77/bakery-pos/internal/server"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// app carries what every command needs: configuration, logger and an open
// database connection.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	conn   *gorm.DB
}

// bootstrap loads the environment file and configuration, installs the
// logger and connects to the database.
func bootstrap() (*app, error) {
	// A missing env file is normal outside development.
	_ = godotenv.Load(envFile)
	cfg := config.Load()
	logger := logging.Setup(cfg.App.LogLevel, cfg.App.Dev)

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &app{cfg: cfg, logger: logger, conn: conn}, nil
}

// prepareSchema applies the versioned SQL migrations when MIGRATIONS is set
// on PostgreSQL, otherwise AutoMigrate.
func (a *app) prepareSchema() error {
	if a.cfg.App.Migrations && !a.cfg.Database.IsSQLite() {
		dsn := a.cfg.Database.DSN()
		if err := db.MigrateSQL(dsn); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return db.CheckSchema(a.conn)
	}
	if err := db.Migrate(a.conn); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func runServe(ctx context.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	if err := a.prepareSchema(); err != nil {
		return err
	}
	if a.cfg.App.Seed {
		if err := db.Seed(ctx, a.conn); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}
	if !a.cfg.App.Dev && a.cfg.App.SessionSecret == "devsessionsecret" {
		log.Warn().Msg("SESSION_SECRET is the development default; set a real secret in production")
	}

	handler := server.New(a.conn, server.Options{
		SessionSecret: a.cfg.App.SessionSecret,
		SecureCookies: !a.cfg.App.Dev,
		DefaultLang:   a.cfg.App.DefaultLang,
		LoginRate:     a.cfg.App.LoginRate,
		Logger:        a.logger,
	})

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.cfg.Server.IdleTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", a.cfg.Server.Port).Bool("dev", a.cfg.App.Dev).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
		log.Info().Msg("shutdown signal received")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	if sqlDB, err := a.conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped gracefully")
	return nil
}
