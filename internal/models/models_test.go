package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"admin", RoleAdmin, true},
		{"Cajero", RoleCashier, true},
		{"cashier", RoleCashier, true},
		{" panadero ", RoleBaker, true},
		{"root", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseRole(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range Roles {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("cajero").Valid() {
		t.Errorf("legacy alias must not be a stored role")
	}
}

func TestOrder_ComputeTotal(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{Qty: decimal.NewFromInt(3), Price: decimal.RequireFromString("0.40")},
		{Qty: decimal.NewFromInt(2), Price: decimal.RequireFromString("0.80")},
	}}
	if got := o.ComputeTotal().StringFixed(2); got != "2.80" {
		t.Errorf("ComputeTotal() = %s, want 2.80", got)
	}
}

func TestCustomer_Document(t *testing.T) {
	c := &Customer{Name: "Ana", LastName: "Quispe", DocumentNumber: "12345678"}
	if got := c.Document(); got != "DNI 12345678" {
		t.Errorf("Document() = %q", got)
	}
	if got := c.FullName(); got != "Ana Quispe" {
		t.Errorf("FullName() = %q", got)
	}
	c.DocumentNumber = ""
	if got := c.Document(); got != "" {
		t.Errorf("Document() without number = %q, want empty", got)
	}
}
