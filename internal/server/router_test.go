package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/internal/db"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(false))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.Seed(context.Background(), conn))
	return conn
}

// client is a cookie-keeping JSON client against a test server.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, h http.Handler) *client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return res, data
}

func (c *client) login(username, password string) {
	c.t.Helper()
	res, body := c.do(http.MethodPost, "/login", map[string]string{"username": username, "password": password})
	require.Equal(c.t, http.StatusOK, res.StatusCode, string(body))
}

func newRouter(conn *gorm.DB) http.Handler {
	return New(conn, Options{SessionSecret: "test-secret", Logger: zerolog.Nop()})
}

func TestHealthEndpoints(t *testing.T) {
	conn := setupTestDB(t)
	c := newClient(t, newRouter(conn))

	res, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	res, body = c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	res, body = c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.JSONEq(t, `{"status":"degraded"}`, string(body))
}

func TestUnauthenticatedAccess(t *testing.T) {
	c := newClient(t, newRouter(setupTestDB(t)))

	res, body := c.do(http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.JSONEq(t, `{"error":"unauthorized"}`, string(body))

	req, err := http.NewRequest(http.MethodGet, c.base+"/pos", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/html")
	htmlRes, err := c.http.Do(req)
	require.NoError(t, err)
	htmlRes.Body.Close()
	assert.Equal(t, http.StatusSeeOther, htmlRes.StatusCode)
	assert.Equal(t, "/login", htmlRes.Header.Get("Location"))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	c := newClient(t, newRouter(setupTestDB(t)))
	res, body := c.do(http.MethodPost, "/login", map[string]string{"username": db.DemoAdminUsername, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, string(body), "invalid_credentials")
}

func TestLoginIsRateLimited(t *testing.T) {
	h := New(setupTestDB(t), Options{SessionSecret: "x", LoginRate: 2, Logger: zerolog.Nop()})
	c := newClient(t, h)
	for range 2 {
		res, _ := c.do(http.MethodPost, "/login", map[string]string{"username": "nobody", "password": "nothing"})
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	}
	res, body := c.do(http.MethodPost, "/login", map[string]string{"username": "nobody", "password": "nothing"})
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("Retry-After"))
	assert.Contains(t, string(body), "rate_limited")
}

func TestSaleFlow(t *testing.T) {
	conn := setupTestDB(t)
	c := newClient(t, newRouter(conn))
	c.login(db.DemoAdminUsername, db.DemoAdminPassword)

	var pan models.Product
	require.NoError(t, conn.Where("sku = ?", "PAN-001").First(&pan).Error)

	res, body := c.do(http.MethodPost, "/pos/cart/add", map[string]any{"product_id": pan.ID, "qty": "5"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var cartResp struct {
		Lines []any           `json:"lines"`
		Total decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &cartResp))
	assert.Len(t, cartResp.Lines, 1)
	assert.True(t, cartResp.Total.Equal(decimal.NewFromInt(2)))

	res, body = c.do(http.MethodPost, "/pos/checkout", map[string]any{})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var out struct {
		Order struct {
			ID    uint            `json:"id"`
			Total decimal.Decimal `json:"total"`
		} `json:"order"`
		ReceiptPDF string `json:"receipt_pdf"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Order.Total.Equal(decimal.RequireFromString("2.00")), out.Order.Total.String())
	assert.NotZero(t, out.Order.ID)

	// The cart is emptied by a successful sale.
	res, body = c.do(http.MethodPost, "/pos/checkout", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, string(body), "empty_cart")

	res, body = c.do(http.MethodGet, out.ReceiptPDF, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "recibo_")
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	res, body = c.do(http.MethodGet, "/orders/999999", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, string(body), "not_found")
}

func TestCashierPermissions(t *testing.T) {
	c := newClient(t, newRouter(setupTestDB(t)))
	res, body := c.do(http.MethodPost, "/register", map[string]string{"username": "caja1", "password": "secret123", "role": "cashier"})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))

	res, _ = c.do(http.MethodGet, "/pos", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	for _, path := range []string{"/reports", "/admin/users", "/admin/ingredients"} {
		res, body = c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusForbidden, res.StatusCode, path)
		assert.Contains(t, string(body), "forbidden")
	}

	res, _ = c.do(http.MethodPost, "/products", map[string]any{"sku": "X-1", "name": "X", "price": "1", "category": "Otros"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestRegisterCannotCreateAdmin(t *testing.T) {
	c := newClient(t, newRouter(setupTestDB(t)))
	res, body := c.do(http.MethodPost, "/register", map[string]string{"username": "root", "password": "secret123", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, string(body), "role")
}

func TestDeactivatedUserLosesSession(t *testing.T) {
	conn := setupTestDB(t)
	h := newRouter(conn)
	admin := newClient(t, h)
	admin.login(db.DemoAdminUsername, db.DemoAdminPassword)

	cashier := newClient(t, h)
	res, body := cashier.do(http.MethodPost, "/register", map[string]string{"username": "caja2", "password": "secret123", "role": "cashier"})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(body))
	var u models.User
	require.NoError(t, json.Unmarshal(body, &u))

	res, _ = admin.do(http.MethodPost, "/admin/users/"+httpx.FormatID(u.ID), map[string]any{"active": false})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = cashier.do(http.MethodGet, "/pos", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestLanguageFollowsQuery(t *testing.T) {
	c := newClient(t, newRouter(setupTestDB(t)))
	req, err := http.NewRequest(http.MethodGet, c.base+"/login?lang=en", nil)
	require.NoError(t, err)
	res, err := c.http.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `lang="en"`)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}
