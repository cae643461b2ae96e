package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/internal/services"
)

type CustomerHandler struct {
	customers *services.CustomerService
}

func NewCustomerHandler(customers *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

func customerInput(r *http.Request) (services.CustomerInput, error) {
	var in services.CustomerInput
	if isJSONBody(r) {
		err := decode(r, &in)
		return in, err
	}
	return services.CustomerInput{
		Name:           r.FormValue("name"),
		LastName:       r.FormValue("last_name"),
		DocumentType:   r.FormValue("document_type"),
		DocumentNumber: r.FormValue("document_number"),
		Phone:          r.FormValue("phone"),
		Email:          r.FormValue("email"),
		Address:        r.FormValue("address"),
		Active:         formBool(r, "active"),
	}, nil
}

func customerForm(action string, c any) map[string]any {
	return map[string]any{
		"Customer":      c,
		"Action":        action,
		"DocumentTypes": models.DocumentTypes,
	}
}

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	customers, err := h.customers.List(r.Context(), q, r.URL.Query().Get("active") == "1")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": customers, "total": len(customers)})
		return
	}
	render(w, r, http.StatusOK, "customers/index.html", map[string]any{"Customers": customers, "Query": q})
}

func (h *CustomerHandler) New(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "customers/form.html",
		customerForm("/customers", services.CustomerInput{DocumentType: models.DefaultDocumentType, Active: true}))
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := customerInput(r)
	if err == nil {
		var c *models.Customer
		if c, err = h.customers.Create(r.Context(), in); err == nil {
			done(w, r, http.StatusCreated, c, "/customers", "flash_saved")
			return
		}
	}
	formError(w, r, err, "customers/form.html", customerForm("/customers", in))
}

func (h *CustomerHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.customers.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, c)
		return
	}
	render(w, r, http.StatusOK, "customers/form.html", customerForm("/customers/"+httpx.FormatID(c.ID), c))
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := customerInput(r)
	if err == nil {
		var c *models.Customer
		if c, err = h.customers.Update(r.Context(), id, in); err == nil {
			done(w, r, http.StatusOK, c, "/customers", "flash_saved")
			return
		}
	}
	formError(w, r, err, "customers/form.html", customerForm("/customers/"+httpx.FormatID(id), in))
}
