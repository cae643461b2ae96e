package db

import (
	"context"
	"fmt"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Demo administrator created by Seed.
const (
	DemoAdminUsername = "admin"
	DemoAdminPassword = "admin123"
)

// Seed loads the demo data set. Each table is filled only when it is empty,
// so running Seed repeatedly never duplicates rows.
func Seed(ctx context.Context, conn *gorm.DB) error {
	conn = conn.WithContext(ctx)

	hash, err := auth.HashPassword(DemoAdminPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	steps := []struct {
		model any
		rows  any
	}{
		{&models.Store{}, &[]models.Store{
			{Name: "Tienda Central", Address: "Av. Principal 123", Phone: "999-888-777", Active: true},
		}},
		{&models.User{}, &[]models.User{
			{Username: DemoAdminUsername, PasswordHash: hash, Role: models.RoleAdmin, Active: true},
		}},
		{&models.Ingredient{}, &[]models.Ingredient{
			{Name: "Harina de Trigo", Unit: "kg", CostPerUnit: decimal.RequireFromString("3.50"), Active: true},
			{Name: "Azúcar", Unit: "kg", CostPerUnit: decimal.RequireFromString("2.80"), Active: true},
			{Name: "Levadura", Unit: "kg", CostPerUnit: decimal.RequireFromString("12.00"), Active: true},
			{Name: "Sal", Unit: "kg", CostPerUnit: decimal.RequireFromString("1.20"), Active: true},
		}},
		{&models.Product{}, &[]models.Product{
			{SKU: "PAN-001", Name: "Pan francés", Description: "Pan crujiente tradicional", Price: decimal.RequireFromString("0.40"), Category: "Pan diario", Active: true},
			{SKU: "PAN-002", Name: "Pan dulce", Description: "Pan suave y dulce", Price: decimal.RequireFromString("0.80"), Category: "Dulces", Active: true},
			{SKU: "TORTA-001", Name: "Torta de chocolate", Description: "Deliciosa torta de chocolate", Price: decimal.RequireFromString("15.50"), Category: "Tortas", Active: true},
			{SKU: "GALLETA-001", Name: "Galletas de avena", Description: "Galletas caseras de avena", Price: decimal.RequireFromString("2.50"), Category: "Galletas", Active: true},
		}},
		{&models.Supplier{}, &[]models.Supplier{
			{Name: "Molinos del Sur", ContactName: "Rosa Huamán", Phone: "01-555-0101", Active: true},
		}},
		{&models.Customer{}, &[]models.Customer{
			{Name: "María", LastName: "Quispe", DocumentType: "DNI", DocumentNumber: "45678912", Phone: "987-654-321", Active: true},
			{Name: "Jorge", LastName: "Ramírez", DocumentType: "DNI", DocumentNumber: "40123456", Active: true},
		}},
	}
	for _, s := range steps {
		var count int64
		if err := conn.Model(s.model).Count(&count).Error; err != nil {
			return fmt.Errorf("count %T: %w", s.model, err)
		}
		if count > 0 {
			continue
		}
		if err := conn.Create(s.rows).Error; err != nil {
			return fmt.Errorf("seed %T: %w", s.model, err)
		}
		log.Info().Str("table", tableName(conn, s.model)).Msg("demo data seeded")
	}
	return nil
}

func tableName(conn *gorm.DB, model any) string {
	stmt := &gorm.Statement{DB: conn}
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}
