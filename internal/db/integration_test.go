//go:build integration

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgres starts a throwaway PostgreSQL container and returns its URL DSN.
func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("panaderia"),
		postgres.WithUsername("pos"),
		postgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresSQLMigrationsAndSeed(t *testing.T) {
	dsn := setupPostgres(t)

	require.NoError(t, MigrateSQL(dsn))
	// Second run is a no-op.
	require.NoError(t, MigrateSQL(dsn))

	conn, err := gorm.Open(pgdriver.Open(dsn), GormConfig(false))
	require.NoError(t, err)
	require.NoError(t, CheckSchema(conn))

	ctx := context.Background()
	require.NoError(t, Seed(ctx, conn))
	require.NoError(t, Seed(ctx, conn))
	var products int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&products).Error)
	assert.EqualValues(t, 4, products)

	dup := models.Product{SKU: "PAN-001", Name: "Otro", Price: decimal.NewFromInt(1), Active: true}
	err = conn.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "expected translated duplicate error, got %v", err)
}

func TestPostgresAutoMigrateAndReset(t *testing.T) {
	dsn := setupPostgres(t)
	conn, err := gorm.Open(pgdriver.Open(dsn), GormConfig(false))
	require.NoError(t, err)

	require.NoError(t, Migrate(conn))
	require.NoError(t, Seed(context.Background(), conn))
	require.NoError(t, Reset(conn))

	var users int64
	require.NoError(t, conn.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
