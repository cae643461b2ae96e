package cart

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id uint, price string, qty int64) Line {
	return Line{ProductID: id, Name: "p", QuotedPrice: decimal.RequireFromString(price), Qty: decimal.NewFromInt(qty)}
}

func TestAddMergesAdditively(t *testing.T) {
	c := New()
	c.Add(line(1, "0.40", 2))
	c.Add(line(2, "0.80", 2))
	c.Add(line(1, "0.45", 1))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, uint(1), lines[0].ProductID, "insertion order kept")
	assert.Equal(t, "3", lines[0].Qty.String())
	assert.Equal(t, "0.40", lines[0].QuotedPrice.StringFixed(2), "first quoted price kept")
	assert.Equal(t, "2.80", c.QuotedTotal().StringFixed(2))
}

func TestClearAndRemove(t *testing.T) {
	c := New()
	c.Add(line(1, "1", 1))
	c.Add(line(2, "1", 1))
	c.Add(line(3, "1", 1))

	assert.True(t, c.Remove(2))
	assert.False(t, c.Remove(2))
	c.Add(line(3, "1", 1))
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "2", lines[1].Qty.String())

	c.Clear()
	assert.True(t, c.IsEmpty())
	c.Add(line(9, "1", 1))
	assert.Equal(t, 1, c.Len())
}

func TestLinesIsSnapshot(t *testing.T) {
	c := New()
	c.Add(line(1, "1", 1))
	snap := c.Lines()
	snap[0].Qty = decimal.NewFromInt(100)
	assert.Equal(t, "1", c.Lines()[0].Qty.String())
}

func TestRegistryIsolatesSessions(t *testing.T) {
	r := NewRegistry()
	r.Get("a").Add(line(1, "1", 1))
	assert.True(t, r.Get("b").IsEmpty())
	assert.Same(t, r.Get("a"), r.Get("a"))

	r.Drop("a")
	assert.True(t, r.Get("a").IsEmpty())
}

func TestRegistryEvictsIdleCarts(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Get("idle").Add(line(1, "1", 1))
	r.Get("busy").Add(line(2, "1", 1))

	now = now.Add(DefaultIdleTTL - time.Hour)
	r.Get("busy")
	assert.Equal(t, 2, r.Len())

	now = now.Add(2 * time.Hour)
	busy := r.Get("busy")
	assert.Equal(t, 1, r.Len(), "idle cart dropped")
	assert.False(t, busy.IsEmpty(), "recently used cart kept")
	assert.True(t, r.Get("idle").IsEmpty())
}

func TestSettleKeepsLinesAddedAfterSnapshot(t *testing.T) {
	c := New()
	c.Add(line(1, "0.40", 2))
	c.Add(line(2, "0.80", 1))
	sold := c.Lines()

	c.Add(line(1, "0.40", 3))
	c.Add(line(3, "1.00", 1))
	c.Settle(sold)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, uint(1), lines[0].ProductID)
	assert.Equal(t, "3", lines[0].Qty.String())
	assert.Equal(t, uint(3), lines[1].ProductID)

	c.Settle(c.Lines())
	assert.True(t, c.IsEmpty())
}

func TestConcurrentAdds(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(line(7, "0.40", 1))
		}()
	}
	wg.Wait()
	assert.Equal(t, "50", c.Lines()[0].Qty.String())
}
