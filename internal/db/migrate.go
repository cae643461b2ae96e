package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/diewo77/bakery-pos/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// coreTables must exist once the schema is in place.
var coreTables = []string{"stores", "users", "customers", "suppliers", "ingredients", "products", "orders", "order_items"}

// Migrate creates or updates every table with AutoMigrate. It is idempotent
// and never drops data.
func Migrate(conn *gorm.DB) error {
	for _, m := range models.All() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return CheckSchema(conn)
}

// MigrateSQL applies the versioned SQL migrations embedded in the binary.
// Only PostgreSQL is supported; dsn may be key=value or URL form.
func MigrateSQL(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, ToURLDSN(NormalizeDSN(dsn)))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	v, dirty, _ := m.Version()
	log.Info().Uint("version", v).Bool("dirty", dirty).Msg("sql migrations applied")
	return nil
}

// CheckSchema verifies that every core table exists.
func CheckSchema(conn *gorm.DB) error {
	for _, table := range coreTables {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// Reset drops every table and recreates the schema. All data is lost; only
// the reset-db command calls it.
func Reset(conn *gorm.DB) error {
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := conn.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("drop %T: %w", all[i], err)
		}
	}
	// Left behind by golang-migrate when the SQL path was used.
	if conn.Migrator().HasTable("schema_migrations") {
		if err := conn.Migrator().DropTable("schema_migrations"); err != nil {
			return fmt.Errorf("drop schema_migrations: %w", err)
		}
	}
	log.Warn().Msg("all tables dropped")
	return Migrate(conn)
}
