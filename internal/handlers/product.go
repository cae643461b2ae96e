package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/internal/policy"
	"github.com/diewo77/bakery-pos/internal/services"
	"github.com/diewo77/bakery-pos/validation"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// productInput reads a product from a JSON body or a form. Unparsable
// numbers are reported as violations.
func productInput(r *http.Request) (services.ProductInput, error) {
	var in services.ProductInput
	if isJSONBody(r) {
		err := decode(r, &in)
		return in, err
	}
	v := validation.Violations{}
	in = services.ProductInput{
		SKU:         r.FormValue("sku"),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       validation.Decimal("price", r.FormValue("price"), v),
		Category:    r.FormValue("category"),
		Active:      formBool(r, "active"),
	}
	if !v.Empty() {
		return in, &services.ValidationError{Violations: v}
	}
	return in, nil
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.ProductFilter{
		Query:      strings.TrimSpace(q.Get("q")),
		Category:   q.Get("category"),
		ActiveOnly: q.Get("active") == "1",
	}
	products, err := h.products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": len(products)})
		return
	}
	categories, _ := h.products.Categories(r.Context())
	render(w, r, http.StatusOK, "products/index.html", map[string]any{
		"Products":   products,
		"Categories": categories,
		"Filter":     f,
	})
}

func (h *ProductHandler) New(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "products/form.html", map[string]any{
		"Product": services.ProductInput{Active: true},
		"Action":  "/products",
	})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := productInput(r)
	if err == nil {
		var p *models.Product
		if p, err = h.products.Create(r.Context(), in); err == nil {
			done(w, r, http.StatusCreated, p, "/products", "flash_saved")
			return
		}
	}
	formError(w, r, err, "products/form.html", map[string]any{"Product": in, "Action": "/products"})
}

// View returns the product as JSON, or its edit form for users allowed to
// change it.
func (h *ProductHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, p)
		return
	}
	render(w, r, http.StatusOK, "products/form.html", map[string]any{
		"ID":       p.ID,
		"Product":  p,
		"Action":   "/products/" + httpx.FormatID(p.ID),
		"ReadOnly": !policy.Allowed(policy.IdentityFrom(r.Context()), "product", policy.ActionUpdate),
	})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := productInput(r)
	if err == nil {
		var p *models.Product
		if p, err = h.products.Update(r.Context(), id, in); err == nil {
			done(w, r, http.StatusOK, p, "/products", "flash_saved")
			return
		}
	}
	formError(w, r, err, "products/form.html", map[string]any{"ID": id, "Product": in, "Action": "/products/" + httpx.FormatID(id)})
}

// SetActive toggles whether the product can be sold.
func (h *ProductHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if isJSONBody(r) {
		if err := decode(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		body.Active = formBool(r, "active")
	}
	if err := h.products.SetActive(r.Context(), id, body.Active); err != nil {
		writeError(w, r, err)
		return
	}
	done(w, r, http.StatusOK, map[string]any{"id": id, "active": body.Active}, "/products", "flash_saved")
}
