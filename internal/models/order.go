package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a completed sale. Orders are append-only: once persisted they are
// never edited or deleted.
type Order struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Cashier who recorded the sale
	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	StoreID uint   `gorm:"index;not null" json:"store_id"`
	Store   *Store `gorm:"foreignKey:StoreID" json:"store,omitempty"`

	// Walk-in sales have no customer
	CustomerID *uint     `gorm:"index" json:"customer_id,omitempty"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`

	Total decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// ComputeTotal sums the item subtotals, rounded to cents.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Subtotal())
	}
	return total.Round(2)
}

// OrderItem is one line of an order. Price is the unit price at sale time,
// independent of later catalog changes.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Qty       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"qty"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

// Subtotal returns qty × price.
func (it *OrderItem) Subtotal() decimal.Decimal {
	return it.Qty.Mul(it.Price)
}

// All returns every persisted model, in dependency order.
func All() []any {
	return []any{
		&Store{}, &User{}, &Customer{}, &Supplier{}, &Ingredient{},
		&Product{}, &Order{}, &OrderItem{},
	}
}
