package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/bakery-pos/internal/cart"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/validation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutInput identifies who sells, where, and optionally to whom.
type CheckoutInput struct {
	UserID     uint
	StoreID    uint
	CustomerID *uint
}

// PriceChange reports a product whose catalog price moved after it was put
// in the cart. The sale is charged at Current.
type PriceChange struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quoted    decimal.Decimal `json:"quoted"`
	Current   decimal.Decimal `json:"current"`
}

// CheckoutResult is the persisted order plus any price drift noticed.
type CheckoutResult struct {
	Order        *models.Order `json:"order"`
	PriceChanges []PriceChange `json:"price_changes,omitempty"`
}

// CheckoutService turns carts into orders.
type CheckoutService struct {
	db *gorm.DB
}

func NewCheckoutService(db *gorm.DB) *CheckoutService { return &CheckoutService{db: db} }

// AddToCart validates the product and merges qty into the cart. Nothing is
// written to the database.
func (s *CheckoutService) AddToCart(ctx context.Context, c *cart.Cart, productID uint, qty decimal.Decimal) (*models.Product, error) {
	// Quantities are stored to two decimals; validate what will be kept.
	qty = qty.Round(2)
	v := validation.Violations{}
	validation.PositiveDecimal("qty", qty, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	p, err := findByID[models.Product](s.db.WithContext(ctx), productID, "product")
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, fmt.Errorf("%s: %w", p.Name, ErrInvalidProduct)
	}
	c.Add(cart.Line{ProductID: p.ID, SKU: p.SKU, Name: p.Name, QuotedPrice: p.Price, Qty: qty})
	return p, nil
}

// ClearCart empties the cart.
func (s *CheckoutService) ClearCart(c *cart.Cart) { c.Clear() }

// Checkout records the cart as one order with its items, atomically.
//
// Prices and availability are read again inside the transaction; the order
// is charged at those live prices. If any product is gone or inactive
// nothing is written and the cart is left as it was. The cart is cleared
// only after a successful commit.
func (s *CheckoutService) Checkout(ctx context.Context, c *cart.Cart, in CheckoutInput) (*CheckoutResult, error) {
	lines := c.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	v := validation.Violations{}
	if in.UserID == 0 {
		v["user_id"] = "required"
	}
	if in.StoreID == 0 {
		v["store_id"] = "required"
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	result := &CheckoutResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store, err := findByID[models.Store](tx, in.StoreID, "store")
		if err != nil {
			return err
		}
		if !store.Active {
			return fmt.Errorf("store %d inactive: %w", store.ID, ErrNotFound)
		}
		if in.CustomerID != nil {
			if _, err := findByID[models.Customer](tx, *in.CustomerID, "customer"); err != nil {
				return err
			}
		}

		ids := make([]uint, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		var products []models.Product
		if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
			return err
		}
		live := make(map[uint]models.Product, len(products))
		for _, p := range products {
			live[p.ID] = p
		}

		order := models.Order{UserID: in.UserID, StoreID: in.StoreID, CustomerID: in.CustomerID}
		items := make([]models.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, l := range lines {
			p, ok := live[l.ProductID]
			if !ok || !p.Active {
				return fmt.Errorf("%s: %w", l.Name, ErrInvalidProduct)
			}
			v := validation.Violations{}
			validation.PositiveDecimal("qty", l.Qty, v)
			if err := invalid(v); err != nil {
				return err
			}
			if !p.Price.Equal(l.QuotedPrice) {
				result.PriceChanges = append(result.PriceChanges, PriceChange{ProductID: p.ID, Name: p.Name, Quoted: l.QuotedPrice, Current: p.Price})
			}
			items = append(items, models.OrderItem{ProductID: p.ID, Qty: l.Qty, Price: p.Price})
			total = total.Add(l.Qty.Mul(p.Price))
		}
		order.Total = total.Round(2)

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		order.Items = items
		result.Order = &order
		return nil
	})
	if err != nil {
		lvl := zerolog.ErrorLevel
		if errors.Is(err, ErrInvalidProduct) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			lvl = zerolog.WarnLevel
		}
		log.Ctx(ctx).WithLevel(lvl).Err(err).Uint("user_id", in.UserID).Int("lines", len(lines)).Msg("checkout failed")
		return nil, err
	}

	c.Settle(lines)
	log.Ctx(ctx).Info().
		Uint("order_id", result.Order.ID).
		Str("total", result.Order.Total.StringFixed(2)).
		Int("items", len(result.Order.Items)).
		Int("price_changes", len(result.PriceChanges)).
		Msg("order recorded")
	return result, nil
}
