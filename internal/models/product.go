package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IngredientUnits are the measurement units offered in the admin forms.
var IngredientUnits = []string{"kg", "lt", "unidad", "gramos", "ml"}

// Ingredient is a raw material tracked with its purchase cost.
type Ingredient struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Name        string          `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Unit        string          `gorm:"size:20;not null" json:"unit"`
	CostPerUnit decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"cost_per_unit"`
	Active      bool            `gorm:"not null" json:"active"`
}

// Product is a sellable item of the catalog.
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	SKU         string          `gorm:"column:sku;uniqueIndex;size:50;not null" json:"sku"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Category    string          `gorm:"size:50;index" json:"category,omitempty"`
	Active      bool            `gorm:"not null;index" json:"active"`
}
