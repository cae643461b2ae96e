package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/internal/receipt"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OrderService reads recorded sales and renders their receipts.
type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService { return &OrderService{db: db} }

// Get loads an order with everything needed to print it.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Items.Product").
		Preload("User").
		Preload("Store").
		Preload("Customer").
		First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns the most recent orders, without items.
func (s *OrderService) List(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var out []models.Order
	err := s.db.WithContext(ctx).
		Preload("User").Preload("Store").Preload("Customer").
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Receipt renders the ticket of a persisted order. A receipt that cannot be
// produced degrades to a diagnostic document; only a missing order or a
// database failure is an error.
func (s *OrderService) Receipt(ctx context.Context, id uint) (*models.Order, receipt.Document, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, receipt.Document{}, err
	}
	doc := receipt.Generate(receipt.NewRecord(o))
	if doc.Degraded() {
		log.Ctx(ctx).Warn().Uint("order_id", id).Str("reason", doc.Warning).Msg("receipt degraded")
	}
	return o, doc, nil
}
