// Package receipt turns a persisted order into a customer ticket.
//
// An order is first flattened into a Record holding the display strings of
// the ticket. The HTML ticket, the fixed-width text and the PDF are all
// rendered from that same Record.
package receipt

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/shopspring/decimal"
)

// TimestampLayout is the date format printed on tickets.
const TimestampLayout = "02/01/2006 15:04"

// DefaultFooter closes every ticket.
const DefaultFooter = "¡Gracias por su compra!"

// CurrencyPrefix is prepended to every amount.
const CurrencyPrefix = "S/ "

// CustomerInfo is the optional customer block of a ticket.
type CustomerInfo struct {
	Name     string
	Document string
	Phone    string
}

// Line is one printed row of the item table.
type Line struct {
	Name      string
	Qty       string
	UnitPrice string
	Subtotal  string
}

// Record is the structured content of a ticket.
type Record struct {
	StoreName    string
	StoreAddress string
	StorePhone   string
	OrderID      uint
	Timestamp    string
	Cashier      string
	Customer     *CustomerInfo
	Lines        []Line
	Total        string
	Footer       string
}

// ErrIncomplete is returned by Validate when a required field is missing.
var ErrIncomplete = errors.New("receipt_incomplete")

// NewRecord flattens an order loaded with its Items.Product, User, Store and
// Customer associations.
func NewRecord(o *models.Order) Record {
	rec := Record{
		OrderID: o.ID,
		Total:   FormatMoney(o.Total),
		Footer:  DefaultFooter,
	}
	if !o.CreatedAt.IsZero() {
		rec.Timestamp = o.CreatedAt.Format(TimestampLayout)
	}
	if o.Store != nil {
		rec.StoreName = o.Store.Name
		rec.StoreAddress = o.Store.Address
		rec.StorePhone = o.Store.Phone
	}
	if o.User != nil {
		rec.Cashier = o.User.Username
	}
	if o.Customer != nil {
		rec.Customer = &CustomerInfo{
			Name:     o.Customer.FullName(),
			Document: o.Customer.Document(),
			Phone:    o.Customer.Phone,
		}
	}
	for i := range o.Items {
		it := &o.Items[i]
		name := fmt.Sprintf("#%d", it.ProductID)
		if it.Product != nil {
			name = it.Product.Name
		}
		rec.Lines = append(rec.Lines, Line{
			Name:      name,
			Qty:       FormatQty(it.Qty),
			UnitPrice: FormatMoney(it.Price),
			Subtotal:  FormatMoney(it.Subtotal()),
		})
	}
	return rec
}

// Validate checks the fields without which a ticket is meaningless.
func (r Record) Validate() error {
	var missing []string
	if strings.TrimSpace(r.StoreName) == "" {
		missing = append(missing, "store")
	}
	if r.OrderID == 0 {
		missing = append(missing, "order id")
	}
	if strings.TrimSpace(r.Total) == "" {
		missing = append(missing, "total")
	}
	if len(r.Lines) == 0 {
		missing = append(missing, "lines")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// FormatMoney renders an amount as "S/ 2.80". Values that cannot be read as
// a number are returned as their literal string form.
func FormatMoney(v any) string {
	var (
		d  decimal.Decimal
		ok = true
	)
	switch n := v.(type) {
	case decimal.Decimal:
		d = n
	case *decimal.Decimal:
		if n == nil {
			return ""
		}
		d = *n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Sprint(v)
		}
		d = decimal.NewFromFloat(n)
	case float32:
		if f := float64(n); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprint(v)
		}
		d = decimal.NewFromFloat32(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	case uint:
		d = decimal.NewFromInt(int64(n))
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return n
		}
		d = parsed
	case nil:
		return ""
	default:
		parsed, err := decimal.NewFromString(fmt.Sprint(v))
		d, ok = parsed, err == nil
	}
	if !ok {
		return fmt.Sprint(v)
	}
	return CurrencyPrefix + d.StringFixed(2)
}

// FormatQty prints whole quantities without decimals and fractional ones with two.
func FormatQty(q decimal.Decimal) string {
	if q.Equal(q.Truncate(0)) {
		return q.StringFixed(0)
	}
	return q.StringFixed(2)
}
