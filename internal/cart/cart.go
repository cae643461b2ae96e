// Package cart holds the in-progress sale of a session.
package cart

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Line is one product in the cart. QuotedPrice is the catalog price at the
// time the product was first added; checkout charges the live price.
type Line struct {
	ProductID   uint            `json:"product_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	QuotedPrice decimal.Decimal `json:"quoted_price"`
	Qty         decimal.Decimal `json:"qty"`
}

// Subtotal returns qty × quoted price.
func (l Line) Subtotal() decimal.Decimal { return l.Qty.Mul(l.QuotedPrice) }

// Cart maps products to quantities, keeping the order in which products were
// first added. It is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
	index map[uint]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: map[uint]int{}}
}

// Add merges qty of a product into the cart. Adding a product already in the
// cart increases its quantity; the quoted price of the first add is kept.
func (c *Cart) Add(l Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[l.ProductID]; ok {
		c.lines[i].Qty = c.lines[i].Qty.Add(l.Qty)
		return
	}
	c.index[l.ProductID] = len(c.lines)
	c.lines = append(c.lines, l)
}

// Remove deletes a product line, reporting whether it was present.
func (c *Cart) Remove(productID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[productID]
	if !ok {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.reindex()
	return true
}

func (c *Cart) reindex() {
	c.index = make(map[uint]int, len(c.lines))
	for i, l := range c.lines {
		c.index[l.ProductID] = i
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.index = map[uint]int{}
	c.mu.Unlock()
}

// Settle removes sold lines from the cart. Each sold quantity is subtracted
// from the current line, so quantities added after the snapshot was taken
// stay in the cart.
func (c *Cart) Settle(sold []Line) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range sold {
		i, ok := c.index[s.ProductID]
		if !ok {
			continue
		}
		rest := c.lines[i].Qty.Sub(s.Qty)
		if rest.IsPositive() {
			c.lines[i].Qty = rest
			continue
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		c.reindex()
	}
}

// Lines returns a snapshot of the cart content.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct products.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

// QuotedTotal sums the lines at their quoted prices.
func (c *Cart) QuotedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines() {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}

// DefaultIdleTTL matches the session lifetime: a cart unused for longer
// belongs to a session that can no longer be presented.
const DefaultIdleTTL = 14 * 24 * time.Hour

// Registry keeps one cart per session key. Carts not used for ExpiresIn are
// dropped, since sessions may expire without a logout.
type Registry struct {
	ExpiresIn time.Duration

	mu        sync.Mutex
	carts     map[string]*entry
	lastSweep time.Time
	now       func() time.Time
}

type entry struct {
	cart     *Cart
	lastSeen time.Time
}

// NewRegistry returns an empty registry evicting carts after DefaultIdleTTL.
func NewRegistry() *Registry {
	return &Registry{
		ExpiresIn: DefaultIdleTTL,
		carts:     map[string]*entry{},
		now:       time.Now,
	}
}

// Get returns the cart of key, creating it on first use.
func (r *Registry) Get(key string) *Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweep(now)
	e, ok := r.carts[key]
	if !ok {
		e = &entry{cart: New()}
		r.carts[key] = e
	}
	e.lastSeen = now
	return e.cart
}

// sweep runs at most once per minute.
func (r *Registry) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < time.Minute {
		return
	}
	for k, e := range r.carts {
		if now.Sub(e.lastSeen) > r.ExpiresIn {
			delete(r.carts, k)
		}
	}
	r.lastSweep = now
}

// Drop forgets the cart of key, typically on logout.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	delete(r.carts, key)
	r.mu.Unlock()
}

// Len returns the number of live carts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}
