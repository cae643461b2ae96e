package models

import (
	"strings"
	"time"
)

// DefaultDocumentType is used when a customer is registered without one.
const DefaultDocumentType = "DNI"

// DocumentTypes lists the identity documents accepted at the counter.
var DocumentTypes = []string{"DNI", "RUC", "CE", "PASAPORTE"}

// Customer is a registered buyer. Orders may reference one optionally.
type Customer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	LastName       string    `gorm:"size:100" json:"last_name,omitempty"`
	DocumentType   string    `gorm:"size:20;default:'DNI'" json:"document_type"`
	DocumentNumber string    `gorm:"size:20;index" json:"document_number,omitempty"`
	Phone          string    `gorm:"size:30" json:"phone,omitempty"`
	Email          string    `gorm:"size:100" json:"email,omitempty"`
	Address        string    `gorm:"size:255" json:"address,omitempty"`
	Active         bool      `gorm:"not null" json:"active"`
}

// FullName joins first and last name.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.LastName)
}

// Document returns "TYPE NUMBER", or an empty string when no number is set.
func (c *Customer) Document() string {
	if strings.TrimSpace(c.DocumentNumber) == "" {
		return ""
	}
	dt := c.DocumentType
	if dt == "" {
		dt = DefaultDocumentType
	}
	return dt + " " + c.DocumentNumber
}
