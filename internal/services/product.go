package services

import (
	"context"
	"strings"

	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductInput holds the editable fields of a product.
type ProductInput struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Active      bool            `json:"active"`
}

func (in *ProductInput) normalize() {
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Price = in.Price.Round(2)
}

func (in ProductInput) validate() error {
	v := validation.Violations{}
	validation.Required("sku", in.SKU, v)
	validation.MaxLen("sku", in.SKU, 50, v)
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 200, v)
	validation.NonNegativeDecimal("price", in.Price, v)
	return invalid(v)
}

// ProductFilter narrows List.
type ProductFilter struct {
	Query      string
	Category   string
	ActiveOnly bool
}

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService { return &ProductService{db: db} }

// Create adds a product. A SKU already in use yields ErrAlreadyExists.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := models.Product{SKU: in.SKU, Name: in.Name, Description: in.Description, Price: in.Price, Category: in.Category, Active: in.Active}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, persistErr(err, "sku "+in.SKU)
	}
	return &p, nil
}

// Update overwrites every editable field of product id.
func (s *ProductService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	p, err := findByID[models.Product](db, id, "product")
	if err != nil {
		return nil, err
	}
	err = db.Model(p).
		Select("sku", "name", "description", "price", "category", "active").
		Updates(models.Product{SKU: in.SKU, Name: in.Name, Description: in.Description, Price: in.Price, Category: in.Category, Active: in.Active}).Error
	if err != nil {
		return nil, persistErr(err, "sku "+in.SKU)
	}
	return findByID[models.Product](db, id, "product")
}

// SetActive toggles availability; inactive products cannot be sold.
func (s *ProductService) SetActive(ctx context.Context, id uint, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		_, err := findByID[models.Product](s.db.WithContext(ctx), id, "product")
		return err
	}
	return nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	return findByID[models.Product](s.db.WithContext(ctx), id, "product")
}

// List returns products ordered by category then name.
func (s *ProductService) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("category = ?", c)
	}
	if strings.TrimSpace(f.Query) != "" {
		like := likePattern(f.Query)
		q = q.Where(`lower(name) LIKE ? ESCAPE '\' OR lower(sku) LIKE ? ESCAPE '\'`, like, like)
	}
	var out []models.Product
	if err := q.Order("category asc, name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Categories returns the distinct non-empty categories in use.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("category <> ''").
		Distinct().Order("category asc").Pluck("category", &out).Error
	return out, err
}
