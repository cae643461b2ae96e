// Package server assembles the HTTP surface of the application: services,
// handlers, route guards and the global middleware chain.
package server

import (
	"net/http"
	"time"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/i18n"
	"github.com/diewo77/bakery-pos/internal/cart"
	"github.com/diewo77/bakery-pos/internal/db"
	"github.com/diewo77/bakery-pos/internal/handlers"
	"github.com/diewo77/bakery-pos/internal/middleware"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/internal/policy"
	"github.com/diewo77/bakery-pos/internal/services"
	"github.com/diewo77/bakery-pos/view"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Options tunes the router. Zero values fall back to development defaults.
type Options struct {
	SessionSecret string
	SecureCookies bool
	DefaultLang   string
	// LoginRate is the number of login and register attempts allowed per
	// client IP per minute.
	LoginRate   int
	IdentityTTL time.Duration
	Logger      zerolog.Logger
}

func (o *Options) defaults() {
	if o.DefaultLang == "" {
		o.DefaultLang = i18n.Default
	}
	if o.LoginRate <= 0 {
		o.LoginRate = 10
	}
	if o.IdentityTTL <= 0 {
		o.IdentityTTL = 30 * time.Second
	}
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(conn *gorm.DB, opts Options) http.Handler {
	opts.defaults()
	mux := http.NewServeMux()

	gate := policy.NewGate(conn, opts.IdentityTTL)
	sessions := auth.NewManager(opts.SessionSecret)
	sessions.SetSecure(opts.SecureCookies)
	sessions.SetVerifier(gate.Verify)
	carts := cart.NewRegistry()
	limiter := middleware.NewRateLimiter(opts.LoginRate)

	products := services.NewProductService(conn)
	customers := services.NewCustomerService(conn)
	stores := services.NewStoreService(conn)
	suppliers := services.NewSupplierService(conn)
	ingredients := services.NewIngredientService(conn)
	users := services.NewUserService(conn)
	users.OnChange(gate.Invalidate)
	orders := services.NewOrderService(conn)

	setViewResolvers()

	// --- Health endpoints ---
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context(), conn); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	ah := handlers.NewAuthHandler(services.NewAuthService(conn), users, sessions, carts)
	mux.HandleFunc("GET /login", ah.LoginForm)
	mux.Handle("POST /login", limiter.Limit(http.HandlerFunc(ah.Login)))
	mux.HandleFunc("GET /register", ah.RegisterForm)
	mux.Handle("POST /register", limiter.Limit(http.HandlerFunc(ah.Register)))
	mux.HandleFunc("POST /logout", ah.Logout)
	mux.HandleFunc("GET /logout", ah.Logout)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.UserIDFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	// protect wraps h so that it requires a session and passes guard.
	protect := func(guard func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
		return sessions.RequireAuth(guard(h))
	}
	perm := gate.RequirePermission
	adminOnly := gate.RequireRole(models.RoleAdmin)

	// ─────────────────────────────────────────────────────────────────────────
	// Dashboard and reports
	// ─────────────────────────────────────────────────────────────────────────
	rh := handlers.NewReportHandler(services.NewReportService(conn), orders)
	mux.Handle("GET /dashboard", protect(perm("dashboard", policy.ActionView), rh.Dashboard))
	mux.Handle("GET /reports", protect(adminOnly, rh.Index))

	// ─────────────────────────────────────────────────────────────────────────
	// Products
	// ─────────────────────────────────────────────────────────────────────────
	ph := handlers.NewProductHandler(products)
	mux.Handle("GET /products", protect(perm("product", policy.ActionList), ph.List))
	mux.Handle("GET /products/new", protect(perm("product", policy.ActionCreate), ph.New))
	mux.Handle("POST /products", protect(perm("product", policy.ActionCreate), ph.Create))
	mux.Handle("GET /products/{id}", protect(perm("product", policy.ActionView), ph.View))
	mux.Handle("POST /products/{id}", protect(perm("product", policy.ActionUpdate), ph.Update))
	mux.Handle("POST /products/{id}/active", protect(perm("product", policy.ActionUpdate), ph.SetActive))

	// ─────────────────────────────────────────────────────────────────────────
	// Customers
	// ─────────────────────────────────────────────────────────────────────────
	ch := handlers.NewCustomerHandler(customers)
	mux.Handle("GET /customers", protect(perm("customer", policy.ActionList), ch.List))
	mux.Handle("GET /customers/new", protect(perm("customer", policy.ActionCreate), ch.New))
	mux.Handle("POST /customers", protect(perm("customer", policy.ActionCreate), ch.Create))
	mux.Handle("GET /customers/{id}", protect(perm("customer", policy.ActionView), ch.View))
	mux.Handle("POST /customers/{id}", protect(perm("customer", policy.ActionUpdate), ch.Update))

	// ─────────────────────────────────────────────────────────────────────────
	// Point of sale
	// ─────────────────────────────────────────────────────────────────────────
	pos := handlers.NewPOSHandler(products, customers, stores, services.NewCheckoutService(conn), carts)
	mux.Handle("GET /pos", protect(perm("pos", policy.ActionView), pos.Index))
	mux.Handle("POST /pos/cart/add", protect(perm("pos", policy.ActionUpdate), pos.Add))
	mux.Handle("POST /pos/cart/remove", protect(perm("pos", policy.ActionUpdate), pos.Remove))
	mux.Handle("POST /pos/cart/clear", protect(perm("pos", policy.ActionUpdate), pos.Clear))
	mux.Handle("POST /pos/checkout", protect(perm("pos", policy.ActionCheckout), pos.Checkout))

	// ─────────────────────────────────────────────────────────────────────────
	// Orders and receipts
	// ─────────────────────────────────────────────────────────────────────────
	oh := handlers.NewOrderHandler(orders)
	mux.Handle("GET /orders", protect(perm("order", policy.ActionList), oh.List))
	mux.Handle("GET /orders/{id}", protect(perm("order", policy.ActionView), oh.View))
	mux.Handle("GET /orders/{id}/receipt", protect(perm("order", policy.ActionView), oh.Receipt))
	mux.Handle("GET /orders/{id}/receipt.pdf", protect(perm("order", policy.ActionView), oh.ReceiptPDF))

	// ─────────────────────────────────────────────────────────────────────────
	// Administration
	// ─────────────────────────────────────────────────────────────────────────
	adm := handlers.NewAdminHandler(users, stores, suppliers, ingredients)
	mux.Handle("GET /admin/users", protect(adminOnly, adm.Users))
	mux.Handle("POST /admin/users", protect(adminOnly, adm.CreateUser))
	mux.Handle("POST /admin/users/{id}", protect(adminOnly, adm.UpdateUser))
	mux.Handle("GET /admin/stores", protect(adminOnly, adm.Stores))
	mux.Handle("POST /admin/stores", protect(adminOnly, adm.CreateStore))
	mux.Handle("POST /admin/stores/{id}", protect(adminOnly, adm.UpdateStore))
	mux.Handle("GET /admin/suppliers", protect(perm("supplier", policy.ActionList), adm.Suppliers))
	mux.Handle("POST /admin/suppliers", protect(perm("supplier", policy.ActionCreate), adm.CreateSupplier))
	mux.Handle("POST /admin/suppliers/{id}", protect(perm("supplier", policy.ActionUpdate), adm.UpdateSupplier))
	mux.Handle("GET /admin/ingredients", protect(perm("ingredient", policy.ActionList), adm.Ingredients))
	mux.Handle("POST /admin/ingredients", protect(perm("ingredient", policy.ActionCreate), adm.CreateIngredient))
	mux.Handle("POST /admin/ingredients/{id}", protect(perm("ingredient", policy.ActionUpdate), adm.UpdateIngredient))

	// The session must be parsed before the logger runs so that the access
	// log carries the user id.
	var h http.Handler = mux
	h = gate.Identify(h)
	h = middleware.Prefs(opts.DefaultLang)(h)
	h = middleware.Recover(h)
	h = middleware.Logger(opts.Logger)(h)
	h = sessions.Middleware(h)
	return h
}

// setViewResolvers lets templates query the request identity without the
// view package importing policy.
func setViewResolvers() {
	view.SetAllowedResolver(func(r *http.Request, resource, action string) bool {
		return policy.Allowed(policy.IdentityFrom(r.Context()), resource, policy.Action(action))
	})
	view.SetIsAdminResolver(func(r *http.Request) bool {
		return policy.IdentityFrom(r.Context()).IsAdmin()
	})
	view.SetUserResolver(func(r *http.Request) string {
		if id := policy.IdentityFrom(r.Context()); id != nil {
			return id.Username
		}
		return ""
	})
}
