package models

import "time"

// Store is a physical shop where sales are recorded.
type Store struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Address   string    `gorm:"size:255" json:"address,omitempty"`
	Phone     string    `gorm:"size:30" json:"phone,omitempty"`
	Active    bool      `gorm:"not null" json:"active"`
}

// Supplier provides ingredients to the bakery.
type Supplier struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	ContactName string    `gorm:"size:100" json:"contact_name,omitempty"`
	Phone       string    `gorm:"size:30" json:"phone,omitempty"`
	Email       string    `gorm:"size:100" json:"email,omitempty"`
	Address     string    `gorm:"size:255" json:"address,omitempty"`
	Active      bool      `gorm:"not null" json:"active"`
}
