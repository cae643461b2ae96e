package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/internal/cart"
	"github.com/diewo77/bakery-pos/internal/services"
	"github.com/diewo77/bakery-pos/validation"
	"github.com/shopspring/decimal"
)

// POSHandler serves the sales screen: the session cart and checkout.
type POSHandler struct {
	products  *services.ProductService
	customers *services.CustomerService
	stores    *services.StoreService
	checkout  *services.CheckoutService
	carts     *cart.Registry
}

func NewPOSHandler(products *services.ProductService, customers *services.CustomerService, stores *services.StoreService, checkout *services.CheckoutService, carts *cart.Registry) *POSHandler {
	return &POSHandler{products: products, customers: customers, stores: stores, checkout: checkout, carts: carts}
}

type cartView struct {
	Lines []cart.Line     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func viewOf(c *cart.Cart) cartView {
	return cartView{Lines: c.Lines(), Total: c.QuotedTotal()}
}

// cartFor returns the cart of the request's session.
func (h *POSHandler) cartFor(r *http.Request) *cart.Cart {
	s, _ := auth.SessionFromContext(r.Context())
	return h.carts.Get(s.Key())
}

func (h *POSHandler) Index(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, viewOf(c))
		return
	}
	h.renderPOS(w, r, http.StatusOK, c, nil)
}

func (h *POSHandler) renderPOS(w http.ResponseWriter, r *http.Request, status int, c *cart.Cart, extra map[string]any) {
	ctx := r.Context()
	products, err := h.products.List(ctx, services.ProductFilter{ActiveOnly: true, Query: r.URL.Query().Get("q")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	customers, err := h.customers.List(ctx, "", true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stores, err := h.stores.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data := map[string]any{
		"Products":  products,
		"Customers": customers,
		"Stores":    stores,
		"Cart":      viewOf(c),
	}
	for k, v := range extra {
		data[k] = v
	}
	render(w, r, status, "pos.html", data)
}

// posError re-renders the sales screen with the error, keeping the cart.
func (h *POSHandler) posError(w http.ResponseWriter, r *http.Request, c *cart.Cart, err error) {
	status, code := statusFor(err)
	if wantsJSON(r) || status >= 500 {
		writeError(w, r, err)
		return
	}
	h.renderPOS(w, r, status, c, map[string]any{"Error": code, "Errors": services.Violations(err)})
}

type addRequest struct {
	ProductID uint            `json:"product_id"`
	Qty       decimal.Decimal `json:"qty"`
}

func (h *POSHandler) Add(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	var in addRequest
	if isJSONBody(r) {
		if err := decode(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		v := validation.Violations{}
		id, err := strconv.ParseUint(r.FormValue("product_id"), 10, 64)
		if err != nil {
			v["product_id"] = "invalid_number"
		}
		in.ProductID = uint(id)
		raw := r.FormValue("qty")
		if raw == "" {
			raw = "1"
		}
		in.Qty = validation.Decimal("qty", raw, v)
		if !v.Empty() {
			h.posError(w, r, c, &services.ValidationError{Violations: v})
			return
		}
	}
	if _, err := h.checkout.AddToCart(r.Context(), c, in.ProductID, in.Qty); err != nil {
		h.posError(w, r, c, err)
		return
	}
	done(w, r, http.StatusOK, viewOf(c), "/pos", "flash_added_to_cart")
}

func (h *POSHandler) Remove(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	var in addRequest
	if isJSONBody(r) {
		if err := decode(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		id, _ := strconv.ParseUint(r.FormValue("product_id"), 10, 64)
		in.ProductID = uint(id)
	}
	c.Remove(in.ProductID)
	done(w, r, http.StatusOK, viewOf(c), "/pos", "")
}

func (h *POSHandler) Clear(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	h.checkout.ClearCart(c)
	done(w, r, http.StatusOK, viewOf(c), "/pos", "flash_cart_cleared")
}

type checkoutRequest struct {
	StoreID    uint  `json:"store_id"`
	CustomerID *uint `json:"customer_id"`
}

// Checkout records the cart as an order for the signed-in cashier.
func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	c := h.cartFor(r)
	var in checkoutRequest
	if isJSONBody(r) {
		if err := decode(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		if n, err := strconv.ParseUint(r.FormValue("store_id"), 10, 64); err == nil {
			in.StoreID = uint(n)
		}
		if n, err := strconv.ParseUint(r.FormValue("customer_id"), 10, 64); err == nil && n > 0 {
			id := uint(n)
			in.CustomerID = &id
		}
	}
	if in.StoreID == 0 {
		st, err := h.stores.Default(r.Context())
		if err != nil {
			h.posError(w, r, c, err)
			return
		}
		in.StoreID = st.ID
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	res, err := h.checkout.Checkout(r.Context(), c, services.CheckoutInput{UserID: uid, StoreID: in.StoreID, CustomerID: in.CustomerID})
	if err != nil {
		h.posError(w, r, c, err)
		return
	}
	id := httpx.FormatID(res.Order.ID)
	flash := "flash_order_recorded"
	if len(res.PriceChanges) > 0 {
		flash = "price_changed"
	}
	done(w, r, http.StatusCreated, map[string]any{
		"order":         res.Order,
		"price_changes": res.PriceChanges,
		"receipt_url":   "/orders/" + id + "/receipt",
		"receipt_pdf":   "/orders/" + id + "/receipt.pdf",
	}, "/orders/"+id, flash)
}
