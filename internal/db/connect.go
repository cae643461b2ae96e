// Package db opens the database, manages its schema and loads demo data.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/bakery-pos/internal/config"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// retryDelay is the pause between connection attempts at startup.
var retryDelay = 2 * time.Second

// zerologWriter routes gorm's SQL logger into zerolog.
type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...any) {
	log.Debug().Str("component", "gorm").Msgf(format, args...)
}

// GormConfig returns the gorm settings shared by the server and the CLI.
// Duplicate key errors are translated to gorm.ErrDuplicatedKey.
func GormConfig(debug bool) *gorm.Config {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(zerologWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// Open connects to the configured database, retrying while it comes up, and
// checks connectivity with a ping.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := cfg.DSN()
	if !cfg.IsSQLite() {
		dsn = NormalizeDSN(dsn)
	}
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN for driver %q", cfg.Driver)
	}
	var dialector gorm.Dialector
	if cfg.IsSQLite() {
		dialector = sqlite.Open(dsn)
	} else {
		dialector = postgres.Open(dsn)
	}
	log.Info().Str("driver", cfg.Driver).Str("dsn", MaskDSN(dsn)).Msg("connecting to database")

	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}
	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < attempts; i++ {
		conn, err = gorm.Open(dialector, GormConfig(cfg.Debug))
		if err == nil {
			err = Ping(context.Background(), conn)
		}
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("of", attempts).Msg("database not ready, retrying")
		if i < attempts-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", attempts, err)
	}
	return conn, nil
}

// Ping runs a trivial query to verify the connection is usable.
func Ping(ctx context.Context, conn *gorm.DB) error {
	if err := conn.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("db ping failed: %w", err)
	}
	return nil
}
