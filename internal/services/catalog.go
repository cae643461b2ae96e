package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ─────────────────────────────────────────────────────────────────────────────
// Ingredients
// ─────────────────────────────────────────────────────────────────────────────

type IngredientInput struct {
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	Active      bool            `json:"active"`
}

func (in IngredientInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 100, v)
	validation.OneOf("unit", in.Unit, models.IngredientUnits, v)
	validation.NonNegativeDecimal("cost_per_unit", in.CostPerUnit, v)
	return invalid(v)
}

type IngredientService struct{ db *gorm.DB }

func NewIngredientService(db *gorm.DB) *IngredientService { return &IngredientService{db: db} }

func (s *IngredientService) Create(ctx context.Context, in IngredientInput) (*models.Ingredient, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return nil, err
	}
	ing := models.Ingredient{Name: in.Name, Unit: in.Unit, CostPerUnit: in.CostPerUnit.Round(4), Active: in.Active}
	if err := s.db.WithContext(ctx).Create(&ing).Error; err != nil {
		return nil, persistErr(err, "ingredient "+in.Name)
	}
	return &ing, nil
}

func (s *IngredientService) Update(ctx context.Context, id uint, in IngredientInput) (*models.Ingredient, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	ing, err := findByID[models.Ingredient](db, id, "ingredient")
	if err != nil {
		return nil, err
	}
	err = db.Model(ing).Select("name", "unit", "cost_per_unit", "active").
		Updates(models.Ingredient{Name: in.Name, Unit: in.Unit, CostPerUnit: in.CostPerUnit.Round(4), Active: in.Active}).Error
	if err != nil {
		return nil, persistErr(err, "ingredient "+in.Name)
	}
	return findByID[models.Ingredient](db, id, "ingredient")
}

func (s *IngredientService) Get(ctx context.Context, id uint) (*models.Ingredient, error) {
	return findByID[models.Ingredient](s.db.WithContext(ctx), id, "ingredient")
}

func (s *IngredientService) List(ctx context.Context) ([]models.Ingredient, error) {
	var out []models.Ingredient
	err := s.db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Suppliers
// ─────────────────────────────────────────────────────────────────────────────

type SupplierInput struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Active      bool   `json:"active"`
}

func (in SupplierInput) model() models.Supplier {
	return models.Supplier{Name: strings.TrimSpace(in.Name), ContactName: in.ContactName, Phone: in.Phone, Email: in.Email, Address: in.Address, Active: in.Active}
}

func (in SupplierInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 100, v)
	return invalid(v)
}

type SupplierService struct{ db *gorm.DB }

func NewSupplierService(db *gorm.DB) *SupplierService { return &SupplierService{db: db} }

func (s *SupplierService) Create(ctx context.Context, in SupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	sup := in.model()
	if err := s.db.WithContext(ctx).Create(&sup).Error; err != nil {
		return nil, persistErr(err, "supplier "+sup.Name)
	}
	return &sup, nil
}

func (s *SupplierService) Update(ctx context.Context, id uint, in SupplierInput) (*models.Supplier, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	sup, err := findByID[models.Supplier](db, id, "supplier")
	if err != nil {
		return nil, err
	}
	upd := in.model()
	if err := db.Model(sup).Select("name", "contact_name", "phone", "email", "address", "active").Updates(upd).Error; err != nil {
		return nil, persistErr(err, "supplier "+upd.Name)
	}
	return findByID[models.Supplier](db, id, "supplier")
}

func (s *SupplierService) List(ctx context.Context) ([]models.Supplier, error) {
	var out []models.Supplier
	err := s.db.WithContext(ctx).Order("name asc").Find(&out).Error
	return out, err
}

// ─────────────────────────────────────────────────────────────────────────────
// Stores
// ─────────────────────────────────────────────────────────────────────────────

type StoreInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Active  bool   `json:"active"`
}

func (in StoreInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 100, v)
	return invalid(v)
}

type StoreService struct{ db *gorm.DB }

func NewStoreService(db *gorm.DB) *StoreService { return &StoreService{db: db} }

func (s *StoreService) Create(ctx context.Context, in StoreInput) (*models.Store, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	st := models.Store{Name: strings.TrimSpace(in.Name), Address: in.Address, Phone: in.Phone, Active: in.Active}
	if err := s.db.WithContext(ctx).Create(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *StoreService) Update(ctx context.Context, id uint, in StoreInput) (*models.Store, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	st, err := findByID[models.Store](db, id, "store")
	if err != nil {
		return nil, err
	}
	err = db.Model(st).Select("name", "address", "phone", "active").
		Updates(models.Store{Name: strings.TrimSpace(in.Name), Address: in.Address, Phone: in.Phone, Active: in.Active}).Error
	if err != nil {
		return nil, err
	}
	return findByID[models.Store](db, id, "store")
}

func (s *StoreService) Get(ctx context.Context, id uint) (*models.Store, error) {
	return findByID[models.Store](s.db.WithContext(ctx), id, "store")
}

func (s *StoreService) List(ctx context.Context) ([]models.Store, error) {
	var out []models.Store
	err := s.db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// Default returns the first active store, where sales are booked when the
// cashier does not pick one.
func (s *StoreService) Default(ctx context.Context) (*models.Store, error) {
	var st models.Store
	err := s.db.WithContext(ctx).Where("active = ?", true).Order("id asc").First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no active store: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Customers
// ─────────────────────────────────────────────────────────────────────────────

type CustomerInput struct {
	Name           string `json:"name"`
	LastName       string `json:"last_name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	Active         bool   `json:"active"`
}

func (in *CustomerInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.LastName = strings.TrimSpace(in.LastName)
	in.DocumentType = strings.ToUpper(strings.TrimSpace(in.DocumentType))
	if in.DocumentType == "" {
		in.DocumentType = models.DefaultDocumentType
	}
	in.DocumentNumber = strings.TrimSpace(in.DocumentNumber)
	in.Email = strings.TrimSpace(in.Email)
}

func (in CustomerInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MaxLen("name", in.Name, 100, v)
	validation.OneOf("document_type", in.DocumentType, models.DocumentTypes, v)
	validation.MaxLen("document_number", in.DocumentNumber, 20, v)
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		v["email"] = "invalid_email"
	}
	return invalid(v)
}

func (in CustomerInput) model() models.Customer {
	return models.Customer{Name: in.Name, LastName: in.LastName, DocumentType: in.DocumentType, DocumentNumber: in.DocumentNumber, Phone: in.Phone, Email: in.Email, Address: in.Address, Active: in.Active}
}

type CustomerService struct{ db *gorm.DB }

func NewCustomerService(db *gorm.DB) *CustomerService { return &CustomerService{db: db} }

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := in.model()
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CustomerService) Update(ctx context.Context, id uint, in CustomerInput) (*models.Customer, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	c, err := findByID[models.Customer](db, id, "customer")
	if err != nil {
		return nil, err
	}
	err = db.Model(c).
		Select("name", "last_name", "document_type", "document_number", "phone", "email", "address", "active").
		Updates(in.model()).Error
	if err != nil {
		return nil, err
	}
	return findByID[models.Customer](db, id, "customer")
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	return findByID[models.Customer](s.db.WithContext(ctx), id, "customer")
}

// List returns customers, newest first, optionally filtered by name or document.
func (s *CustomerService) List(ctx context.Context, query string, activeOnly bool) ([]models.Customer, error) {
	q := s.db.WithContext(ctx).Model(&models.Customer{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if strings.TrimSpace(query) != "" {
		like := likePattern(query)
		q = q.Where(`lower(name) LIKE ? ESCAPE '\' OR lower(last_name) LIKE ? ESCAPE '\' OR document_number LIKE ? ESCAPE '\'`, like, like, like)
	}
	var out []models.Customer
	err := q.Order("created_at desc, id desc").Find(&out).Error
	return out, err
}
