package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/i18n"
	"github.com/diewo77/bakery-pos/internal/cart"
	"github.com/diewo77/bakery-pos/internal/db"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/internal/policy"
	"github.com/diewo77/bakery-pos/internal/services"
	"github.com/diewo77/bakery-pos/view"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(false))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.Seed(context.Background(), conn))
	view.ResetForTests()
	return conn
}

// as attaches a signed-in identity, a session and a language to r.
func as(r *http.Request, u models.User, sessionID string) *http.Request {
	ctx := auth.WithSession(r.Context(), auth.Session{UserID: u.ID, ID: sessionID})
	ctx = policy.WithIdentity(ctx, &policy.Identity{ID: u.ID, Username: u.Username, Role: u.Role})
	ctx = i18n.WithLang(ctx, "es")
	return r.WithContext(ctx)
}

func jsonRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	r.Header.Set("Accept", "application/json")
	return r
}

func formRequest(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func adminUser(t *testing.T, conn *gorm.DB) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, conn.Where("username = ?", db.DemoAdminUsername).First(&u).Error)
	return u
}

func cashierUser(t *testing.T, conn *gorm.DB) models.User {
	t.Helper()
	u, err := services.NewUserService(conn).Create(context.Background(), services.NewUserInput{Username: "caja", Password: "secret123", Role: models.RoleCashier})
	require.NoError(t, err)
	return *u
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&services.ValidationError{}, http.StatusBadRequest, "validation_failed"},
		{services.ErrEmptyCart, http.StatusBadRequest, services.ErrEmptyCart.Error()},
		{fmt.Errorf("wrap: %w", services.ErrInvalidProduct), http.StatusBadRequest, services.ErrInvalidProduct.Error()},
		{fmt.Errorf("product 9: %w", services.ErrNotFound), http.StatusNotFound, "not_found"},
		{services.ErrAlreadyExists, http.StatusConflict, services.ErrAlreadyExists.Error()},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, services.ErrInvalidCredentials.Error()},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		status, code := statusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestProductCreateJSON(t *testing.T) {
	conn := setupTestDB(t)
	h := NewProductHandler(services.NewProductService(conn))
	admin := adminUser(t, conn)

	body := `{"sku":"PAN-010","name":"Pan de yema","price":"1.20","category":"Pan diario","active":true}`
	w := httptest.NewRecorder()
	h.Create(w, as(jsonRequest(http.MethodPost, "/products", body), admin, "s1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "PAN-010", p.SKU)

	w = httptest.NewRecorder()
	h.Create(w, as(jsonRequest(http.MethodPost, "/products", body), admin, "s1"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), services.ErrAlreadyExists.Error())

	w = httptest.NewRecorder()
	h.Create(w, as(jsonRequest(http.MethodPost, "/products", `{"sku":`), admin, "s1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_json")
}

func TestProductCreateFormShowsViolations(t *testing.T) {
	conn := setupTestDB(t)
	h := NewProductHandler(services.NewProductService(conn))

	form := url.Values{"sku": {"X-1"}, "name": {"Queque"}, "price": {"abc"}, "category": {"Tortas"}}
	w := httptest.NewRecorder()
	h.Create(w, as(formRequest("/products", form), adminUser(t, conn), "s1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `value="Queque"`)
	assert.Contains(t, w.Body.String(), `class="error"`)
}

func TestProductViewReadOnlyForCashier(t *testing.T) {
	conn := setupTestDB(t)
	h := NewProductHandler(services.NewProductService(conn))
	var p models.Product
	require.NoError(t, conn.Where("sku = ?", "PAN-001").First(&p).Error)

	r := httptest.NewRequest(http.MethodGet, "/products/x", nil)
	r.SetPathValue("id", fmt.Sprint(p.ID))
	w := httptest.NewRecorder()
	h.View(w, as(r, cashierUser(t, conn), "s1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<fieldset disabled>")

	r = jsonRequest(http.MethodGet, "/products/x", "")
	r.SetPathValue("id", "424242")
	w = httptest.NewRecorder()
	h.View(w, as(r, adminUser(t, conn), "s1"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	r = jsonRequest(http.MethodGet, "/products/x", "")
	r.SetPathValue("id", "abc")
	w = httptest.NewRecorder()
	h.View(w, as(r, adminUser(t, conn), "s1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutFormRedirectsToOrder(t *testing.T) {
	conn := setupTestDB(t)
	carts := cart.NewRegistry()
	h := NewPOSHandler(
		services.NewProductService(conn),
		services.NewCustomerService(conn),
		services.NewStoreService(conn),
		services.NewCheckoutService(conn),
		carts,
	)
	cashier := cashierUser(t, conn)
	var p models.Product
	require.NoError(t, conn.Where("sku = ?", "PAN-002").First(&p).Error)

	w := httptest.NewRecorder()
	h.Add(w, as(formRequest("/pos/cart/add", url.Values{"product_id": {fmt.Sprint(p.ID)}, "qty": {"3"}}), cashier, "s1"))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, 1, carts.Get("s1").Len())
	assert.True(t, carts.Get("s2").IsEmpty(), "carts are per session")

	w = httptest.NewRecorder()
	h.Checkout(w, as(formRequest("/pos/checkout", url.Values{}), cashier, "s1"))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/orders/"))
	assert.True(t, carts.Get("s1").IsEmpty())

	var flash string
	for _, c := range w.Result().Cookies() {
		if c.Name == view.FlashCookie {
			flash = c.Value
		}
	}
	assert.Equal(t, "flash_order_recorded", flash)

	var o models.Order
	require.NoError(t, conn.Preload("Items").First(&o).Error)
	assert.Equal(t, cashier.ID, o.UserID)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("2.40")), o.Total.String())
	assert.Len(t, o.Items, 1)
}

func TestAddRejectsBadQuantity(t *testing.T) {
	conn := setupTestDB(t)
	h := NewPOSHandler(
		services.NewProductService(conn),
		services.NewCustomerService(conn),
		services.NewStoreService(conn),
		services.NewCheckoutService(conn),
		cart.NewRegistry(),
	)
	w := httptest.NewRecorder()
	h.Add(w, as(jsonRequest(http.MethodPost, "/pos/cart/add", `{"product_id":1,"qty":"0"}`), adminUser(t, conn), "s1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.Checkout(w, as(jsonRequest(http.MethodPost, "/pos/checkout", `{}`), adminUser(t, conn), "s1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.ErrEmptyCart.Error())
}

func TestLogoutDropsCart(t *testing.T) {
	conn := setupTestDB(t)
	carts := cart.NewRegistry()
	sessions := auth.NewManager("secret")
	h := NewAuthHandler(services.NewAuthService(conn), services.NewUserService(conn), sessions, carts)

	carts.Get("s1")
	require.Equal(t, 1, carts.Len())

	w := httptest.NewRecorder()
	h.Logout(w, as(jsonRequest(http.MethodPost, "/logout", ""), adminUser(t, conn), "s1"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, carts.Len())
}

func TestLoginFormFailureRendersPage(t *testing.T) {
	conn := setupTestDB(t)
	h := NewAuthHandler(services.NewAuthService(conn), services.NewUserService(conn), auth.NewManager("secret"), cart.NewRegistry())

	r := formRequest("/login", url.Values{"username": {"admin"}, "password": {"nope"}})
	r = r.WithContext(i18n.WithLang(r.Context(), "es"))
	w := httptest.NewRecorder()
	h.Login(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `value="admin"`)
	assert.Empty(t, w.Result().Cookies())

	r = formRequest("/login", url.Values{"username": {db.DemoAdminUsername}, "password": {db.DemoAdminPassword}})
	w = httptest.NewRecorder()
	h.Login(w, r)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestReceiptEndpoints(t *testing.T) {
	conn := setupTestDB(t)
	admin := adminUser(t, conn)
	c := cart.New()
	checkout := services.NewCheckoutService(conn)
	var p models.Product
	require.NoError(t, conn.Where("sku = ?", "TORTA-001").First(&p).Error)
	_, err := checkout.AddToCart(context.Background(), c, p.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	st, err := services.NewStoreService(conn).Default(context.Background())
	require.NoError(t, err)
	res, err := checkout.Checkout(context.Background(), c, services.CheckoutInput{UserID: admin.ID, StoreID: st.ID})
	require.NoError(t, err)

	h := NewOrderHandler(services.NewOrderService(conn))
	id := fmt.Sprint(res.Order.ID)

	r := httptest.NewRequest(http.MethodGet, "/orders/"+id+"/receipt.pdf", nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.ReceiptPDF(w, as(r, admin, "s1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get("X-Receipt-Warning"))

	r = httptest.NewRequest(http.MethodGet, "/orders/"+id+"/receipt", nil)
	r.SetPathValue("id", id)
	w = httptest.NewRecorder()
	h.Receipt(w, as(r, admin, "s1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "S/ 15.50")
	assert.Contains(t, w.Body.String(), "Torta de chocolate")
}

func TestReportsJSON(t *testing.T) {
	conn := setupTestDB(t)
	h := NewReportHandler(services.NewReportService(conn), services.NewOrderService(conn))

	w := httptest.NewRecorder()
	h.Index(w, as(jsonRequest(http.MethodGet, "/reports?days=7", ""), adminUser(t, conn), "s1"))
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Contains(t, out, "daily_sales")
	assert.Contains(t, out, "top_products")
	assert.Contains(t, out, "top_customers")

	w = httptest.NewRecorder()
	h.Dashboard(w, as(jsonRequest(http.MethodGet, "/dashboard", ""), adminUser(t, conn), "s1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"summary"`)
}

func TestAdminCreateUserForm(t *testing.T) {
	conn := setupTestDB(t)
	users := services.NewUserService(conn)
	var changed []uint
	users.OnChange(func(uid uint) { changed = append(changed, uid) })
	h := NewAdminHandler(users, services.NewStoreService(conn), services.NewSupplierService(conn), services.NewIngredientService(conn))
	admin := adminUser(t, conn)

	w := httptest.NewRecorder()
	h.CreateUser(w, as(formRequest("/admin/users", url.Values{"username": {"horno"}, "password": {"secret123"}, "role": {"baker"}}), admin, "s1"))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	h.CreateUser(w, as(formRequest("/admin/users", url.Values{"username": {"horno"}, "password": {"secret123"}, "role": {"baker"}}), admin, "s1"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "horno")

	var baker models.User
	require.NoError(t, conn.Where("username = ?", "horno").First(&baker).Error)
	r := formRequest("/admin/users/x", url.Values{"role": {"cashier"}, "active": {"on"}})
	r.SetPathValue("id", fmt.Sprint(baker.ID))
	w = httptest.NewRecorder()
	h.UpdateUser(w, as(r, admin, "s1"))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, []uint{baker.ID}, changed)
}
