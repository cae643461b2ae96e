package services

import (
	"context"
	"time"

	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DaySales aggregates the orders of one calendar day.
type DaySales struct {
	Day    time.Time       `json:"day"`
	Orders int64           `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

// ProductSales aggregates the sold quantity and revenue of one product.
type ProductSales struct {
	ProductID uint            `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// CustomerSales aggregates the orders of one registered customer.
type CustomerSales struct {
	CustomerID uint            `json:"customer_id"`
	Name       string          `json:"name"`
	LastName   string          `json:"last_name"`
	Orders     int64           `json:"orders"`
	Total      decimal.Decimal `json:"total"`
}

// Summary holds the headline numbers of the dashboard.
type Summary struct {
	Products     int64           `json:"products"`
	Ingredients  int64           `json:"ingredients"`
	Customers    int64           `json:"customers"`
	Users        int64           `json:"users"`
	Orders       int64           `json:"orders"`
	Revenue      decimal.Decimal `json:"revenue"`
	TodayOrders  int64           `json:"today_orders"`
	TodayRevenue decimal.Decimal `json:"today_revenue"`
}

// ReportService computes read-only aggregates over recorded sales.
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DailySales returns one row per day with sales in the last days days,
// newest first. Days are grouped in the server's local time zone.
func (s *ReportService) DailySales(ctx context.Context, days int) ([]DaySales, error) {
	if days <= 0 {
		days = 30
	}
	since := startOfDay(s.now()).AddDate(0, 0, -(days - 1))
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Select("id", "created_at", "total").
		Where("created_at >= ?", since).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	var out []DaySales
	for _, o := range orders {
		day := startOfDay(o.CreatedAt.In(s.now().Location()))
		if n := len(out); n > 0 && out[n-1].Day.Equal(day) {
			out[n-1].Orders++
			out[n-1].Total = out[n-1].Total.Add(o.Total)
			continue
		}
		out = append(out, DaySales{Day: day, Orders: 1, Total: o.Total})
	}
	return out, nil
}

// TopProducts ranks products by quantity sold.
func (s *ReportService) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []ProductSales
	err := s.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("p.id AS product_id, p.sku AS sku, p.name AS name, SUM(oi.qty) AS qty, SUM(oi.qty * oi.price) AS revenue").
		Joins("JOIN products p ON p.id = oi.product_id").
		Group("p.id, p.sku, p.name").
		Order("qty DESC, p.name ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	for i := range out {
		// SQLite sums in floating point.
		out[i].Qty = out[i].Qty.Round(2)
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	return out, nil
}

// TopCustomers ranks registered customers by amount spent.
func (s *ReportService) TopCustomers(ctx context.Context, limit int) ([]CustomerSales, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []CustomerSales
	err := s.db.WithContext(ctx).
		Table("orders AS o").
		Select("c.id AS customer_id, c.name AS name, c.last_name AS last_name, COUNT(o.id) AS orders, SUM(o.total) AS total").
		Joins("JOIN customers c ON c.id = o.customer_id").
		Group("c.id, c.name, c.last_name").
		Order("total DESC, c.name ASC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Total = out[i].Total.Round(2)
	}
	return out, nil
}

// Summary counts catalog entities and sums revenue, overall and for today.
func (s *ReportService) Summary(ctx context.Context) (*Summary, error) {
	db := s.db.WithContext(ctx)
	sum := &Summary{}
	counts := []struct {
		model any
		dest  *int64
		where string
	}{
		{&models.Product{}, &sum.Products, "active = ?"},
		{&models.Ingredient{}, &sum.Ingredients, ""},
		{&models.Customer{}, &sum.Customers, ""},
		{&models.User{}, &sum.Users, "active = ?"},
		{&models.Order{}, &sum.Orders, ""},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, true)
		}
		if err := q.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	var err error
	if sum.Revenue, err = s.revenue(db.Model(&models.Order{})); err != nil {
		return nil, err
	}
	today := db.Model(&models.Order{}).Where("created_at >= ?", startOfDay(s.now()))
	if err := today.Count(&sum.TodayOrders).Error; err != nil {
		return nil, err
	}
	today = db.Model(&models.Order{}).Where("created_at >= ?", startOfDay(s.now()))
	if sum.TodayRevenue, err = s.revenue(today); err != nil {
		return nil, err
	}
	return sum, nil
}

func (s *ReportService) revenue(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(total), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total.Round(2), nil
}
