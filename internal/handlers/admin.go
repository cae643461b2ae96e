package handlers

import (
	"net/http"

	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/internal/services"
	"github.com/diewo77/bakery-pos/validation"
)

// AdminHandler manages users and the reference catalogs: stores, suppliers
// and ingredients. Each resource has one page listing the rows with a form
// that creates a row, or edits the one picked with ?edit=<id>.
type AdminHandler struct {
	users       *services.UserService
	stores      *services.StoreService
	suppliers   *services.SupplierService
	ingredients *services.IngredientService
}

func NewAdminHandler(users *services.UserService, stores *services.StoreService, suppliers *services.SupplierService, ingredients *services.IngredientService) *AdminHandler {
	return &AdminHandler{users: users, stores: stores, suppliers: suppliers, ingredients: ingredients}
}

// editID returns the ?edit= row id, or 0.
func editID(r *http.Request) uint {
	return uint(queryInt(r, "edit", 0))
}

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

func (h *AdminHandler) usersPage(w http.ResponseWriter, r *http.Request, status int, extra map[string]any) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": users, "total": len(users)})
		return
	}
	data := map[string]any{"Users": users, "Roles": models.Roles}
	if id := editID(r); id != 0 {
		u, err := h.users.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data["Edit"] = u
	}
	for k, v := range extra {
		data[k] = v
	}
	render(w, r, status, "admin/users.html", data)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	h.usersPage(w, r, http.StatusOK, nil)
}

// adminFormError re-renders an admin page with the error of err.
func adminFormError(w http.ResponseWriter, r *http.Request, err error, page func(http.ResponseWriter, *http.Request, int, map[string]any)) {
	status, code := statusFor(err)
	if wantsJSON(r) || status >= 500 || status == http.StatusNotFound {
		writeError(w, r, err)
		return
	}
	page(w, r, status, map[string]any{"Error": code, "Errors": services.Violations(err)})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in services.NewUserInput
	if isJSONBody(r) {
		if err := decode(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		in = services.NewUserInput{Username: r.FormValue("username"), Password: r.FormValue("password"), Role: models.Role(r.FormValue("role"))}
	}
	if role, ok := models.ParseRole(string(in.Role)); ok {
		in.Role = role
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		adminFormError(w, r, err, h.usersPage)
		return
	}
	done(w, r, http.StatusCreated, u, "/admin/users", "flash_saved")
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var upd services.UserUpdate
	if isJSONBody(r) {
		if err := decode(r, &upd); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		if raw := r.FormValue("role"); raw != "" {
			role := models.Role(raw)
			if parsed, ok := models.ParseRole(raw); ok {
				role = parsed
			}
			upd.Role = &role
		}
		active := formBool(r, "active")
		upd.Active = &active
		upd.Password = r.FormValue("password")
	}
	u, err := h.users.Update(r.Context(), id, upd)
	if err != nil {
		adminFormError(w, r, err, h.usersPage)
		return
	}
	done(w, r, http.StatusOK, u, "/admin/users", "flash_saved")
}

// ─────────────────────────────────────────────────────────────────────────────
// Stores
// ─────────────────────────────────────────────────────────────────────────────

func (h *AdminHandler) storesPage(w http.ResponseWriter, r *http.Request, status int, extra map[string]any) {
	stores, err := h.stores.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": stores, "total": len(stores)})
		return
	}
	data := map[string]any{"Stores": stores}
	if id := editID(r); id != 0 {
		st, err := h.stores.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data["Edit"] = st
	}
	for k, v := range extra {
		data[k] = v
	}
	render(w, r, status, "admin/stores.html", data)
}

func (h *AdminHandler) Stores(w http.ResponseWriter, r *http.Request) {
	h.storesPage(w, r, http.StatusOK, nil)
}

func storeInput(r *http.Request) (services.StoreInput, error) {
	var in services.StoreInput
	if isJSONBody(r) {
		err := decode(r, &in)
		return in, err
	}
	return services.StoreInput{Name: r.FormValue("name"), Address: r.FormValue("address"), Phone: r.FormValue("phone"), Active: formBool(r, "active")}, nil
}

func (h *AdminHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	in, err := storeInput(r)
	if err == nil {
		var st *models.Store
		if st, err = h.stores.Create(r.Context(), in); err == nil {
			done(w, r, http.StatusCreated, st, "/admin/stores", "flash_saved")
			return
		}
	}
	adminFormError(w, r, err, h.storesPage)
}

func (h *AdminHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := storeInput(r)
	if err == nil {
		var st *models.Store
		if st, err = h.stores.Update(r.Context(), id, in); err == nil {
			done(w, r, http.StatusOK, st, "/admin/stores", "flash_saved")
			return
		}
	}
	adminFormError(w, r, err, h.storesPage)
}

// ─────────────────────────────────────────────────────────────────────────────
// Suppliers
// ─────────────────────────────────────────────────────────────────────────────

func (h *AdminHandler) suppliersPage(w http.ResponseWriter, r *http.Request, status int, extra map[string]any) {
	suppliers, err := h.suppliers.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": suppliers, "total": len(suppliers)})
		return
	}
	data := map[string]any{"Suppliers": suppliers}
	if id := editID(r); id != 0 {
		for i := range suppliers {
			if suppliers[i].ID == id {
				data["Edit"] = &suppliers[i]
			}
		}
	}
	for k, v := range extra {
		data[k] = v
	}
	render(w, r, status, "admin/suppliers.html", data)
}

func (h *AdminHandler) Suppliers(w http.ResponseWriter, r *http.Request) {
	h.suppliersPage(w, r, http.StatusOK, nil)
}

func supplierInput(r *http.Request) (services.SupplierInput, error) {
	var in services.SupplierInput
	if isJSONBody(r) {
		err := decode(r, &in)
		return in, err
	}
	return services.SupplierInput{
		Name:        r.FormValue("name"),
		ContactName: r.FormValue("contact_name"),
		Phone:       r.FormValue("phone"),
		Email:       r.FormValue("email"),
		Address:     r.FormValue("address"),
		Active:      formBool(r, "active"),
	}, nil
}

func (h *AdminHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	in, err := supplierInput(r)
	if err == nil {
		var s *models.Supplier
		if s, err = h.suppliers.Create(r.Context(), in); err == nil {
			done(w, r, http.StatusCreated, s, "/admin/suppliers", "flash_saved")
			return
		}
	}
	adminFormError(w, r, err, h.suppliersPage)
}

func (h *AdminHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := supplierInput(r)
	if err == nil {
		var s *models.Supplier
		if s, err = h.suppliers.Update(r.Context(), id, in); err == nil {
			done(w, r, http.StatusOK, s, "/admin/suppliers", "flash_saved")
			return
		}
	}
	adminFormError(w, r, err, h.suppliersPage)
}

// ─────────────────────────────────────────────────────────────────────────────
// Ingredients
// ─────────────────────────────────────────────────────────────────────────────

func (h *AdminHandler) ingredientsPage(w http.ResponseWriter, r *http.Request, status int, extra map[string]any) {
	ingredients, err := h.ingredients.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": ingredients, "total": len(ingredients)})
		return
	}
	data := map[string]any{"Ingredients": ingredients, "Units": models.IngredientUnits}
	if id := editID(r); id != 0 {
		ing, err := h.ingredients.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data["Edit"] = ing
	}
	for k, v := range extra {
		data[k] = v
	}
	render(w, r, status, "admin/ingredients.html", data)
}

func (h *AdminHandler) Ingredients(w http.ResponseWriter, r *http.Request) {
	h.ingredientsPage(w, r, http.StatusOK, nil)
}

func ingredientInput(r *http.Request) (services.IngredientInput, error) {
	var in services.IngredientInput
	if isJSONBody(r) {
		err := decode(r, &in)
		return in, err
	}
	v := validation.Violations{}
	in = services.IngredientInput{
		Name:        r.FormValue("name"),
		Unit:        r.FormValue("unit"),
		CostPerUnit: validation.Decimal("cost_per_unit", r.FormValue("cost_per_unit"), v),
		Active:      formBool(r, "active"),
	}
	if !v.Empty() {
		return in, &services.ValidationError{Violations: v}
	}
	return in, nil
}

func (h *AdminHandler) CreateIngredient(w http.ResponseWriter, r *http.Request) {
	in, err := ingredientInput(r)
	if err == nil {
		var ing *models.Ingredient
		if ing, err = h.ingredients.Create(r.Context(), in); err == nil {
			done(w, r, http.StatusCreated, ing, "/admin/ingredients", "flash_saved")
			return
		}
	}
	adminFormError(w, r, err, h.ingredientsPage)
}

func (h *AdminHandler) UpdateIngredient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := ingredientInput(r)
	if err == nil {
		var ing *models.Ingredient
		if ing, err = h.ingredients.Update(r.Context(), id, in); err == nil {
			done(w, r, http.StatusOK, ing, "/admin/ingredients", "flash_saved")
			return
		}
	}
	adminFormError(w, r, err, h.ingredientsPage)
}
