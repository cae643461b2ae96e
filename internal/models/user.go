package models

import (
	"strings"
	"time"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleBaker   Role = "baker"
)

// Roles lists every valid role, in display order.
var Roles = []Role{RoleAdmin, RoleCashier, RoleBaker}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleBaker:
		return true
	}
	return false
}

// ParseRole normalizes s into a Role. The legacy Spanish names used by the
// first version of the shop ("cajero", "panadero") are accepted as aliases.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "administrador":
		return RoleAdmin, true
	case "cashier", "cajero":
		return RoleCashier, true
	case "baker", "panadero":
		return RoleBaker, true
	}
	return "", false
}

// User represents an operator of the point of sale.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // bcrypt, never exposed in JSON
	Role         Role      `gorm:"size:20;not null" json:"role"`
	Active       bool      `gorm:"not null" json:"active"`
}
