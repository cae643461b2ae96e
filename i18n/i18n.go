// Package i18n provides message catalogs for the user interface and error
// codes. Spanish is the default language.
package i18n

import (
	"context"
	"strings"
)

const Default = "es"

// Supported lists the available languages.
var Supported = []string{"es", "en"}

var catalogs = map[string]map[string]string{
	"es": {
		// errors
		"required":              "Obligatorio",
		"too_long":              "Demasiado largo",
		"must_be_positive":      "Debe ser mayor que cero",
		"must_not_be_negative":  "No puede ser negativo",
		"invalid_number":        "Número inválido",
		"invalid_choice":        "Opción inválida",
		"invalid_email":         "Correo inválido",
		"password_too_short":    "La contraseña es demasiado corta",
		"not_found":             "No encontrado",
		"already_exists":        "Ya existe",
		"validation_failed":     "Revise los datos del formulario",
		"empty_cart":            "El carrito está vacío",
		"invalid_product":       "Producto no disponible",
		"invalid_credentials":   "Usuario o contraseña incorrectos",
		"unauthorized":          "Debe iniciar sesión",
		"forbidden":             "No tiene permiso para esta acción",
		"rate_limited":          "Demasiados intentos, espere un momento",
		"internal_error":        "Error interno",
		"receipt_degraded":      "El recibo no pudo generarse completo",
		"price_changed":         "El precio cambió desde que se agregó al carrito",
		"confirm_reset":         "Confirme con --yes para borrar todos los datos",
		"flash_order_recorded":  "Venta registrada",
		"flash_cart_cleared":    "Carrito vaciado",
		"flash_added_to_cart":   "Producto agregado",
		"flash_saved":           "Cambios guardados",
		"flash_user_registered": "Cuenta creada",
		// navigation
		"nav_dashboard":   "Panel",
		"nav_pos":         "Punto de venta",
		"nav_products":    "Productos",
		"nav_customers":   "Clientes",
		"nav_orders":      "Ventas",
		"nav_reports":     "Reportes",
		"nav_users":       "Usuarios",
		"nav_stores":      "Tiendas",
		"nav_suppliers":   "Proveedores",
		"nav_ingredients": "Ingredientes",
		"nav_login":       "Ingresar",
		"nav_logout":      "Salir",
		"nav_register":    "Registrarse",
		// fields
		"field_username":        "Usuario",
		"field_password":        "Contraseña",
		"field_role":            "Rol",
		"field_active":          "Activo",
		"field_sku":             "Código",
		"field_name":            "Nombre",
		"field_last_name":       "Apellido",
		"field_description":     "Descripción",
		"field_price":           "Precio",
		"field_category":        "Categoría",
		"field_unit":            "Unidad",
		"field_cost_per_unit":   "Costo por unidad",
		"field_document_type":   "Tipo de documento",
		"field_document_number": "Número de documento",
		"field_phone":           "Teléfono",
		"field_email":           "Correo",
		"field_address":         "Dirección",
		"field_contact_name":    "Contacto",
		"field_qty":             "Cantidad",
		"field_subtotal":        "Subtotal",
		"field_total":           "Total",
		"field_customer":        "Cliente",
		"field_cashier":         "Cajero",
		"field_store":           "Tienda",
		"field_date":            "Fecha",
		"field_orders":          "Ventas",
		"field_revenue":         "Ingresos",
		// roles
		"role_admin":   "Administrador",
		"role_cashier": "Cajero",
		"role_baker":   "Panadero",
		// actions and titles
		"action_save":          "Guardar",
		"action_new":           "Nuevo",
		"action_edit":          "Editar",
		"action_search":        "Buscar",
		"action_add":           "Agregar",
		"action_clear_cart":    "Vaciar carrito",
		"action_checkout":      "Cobrar",
		"action_print":         "Imprimir",
		"action_download_pdf":  "Descargar PDF",
		"title_login":          "Iniciar sesión",
		"title_register":       "Registro rápido",
		"title_cart":           "Carrito",
		"title_today":          "Hoy",
		"title_daily_sales":    "Ventas por día",
		"title_top_products":   "Productos más vendidos",
		"title_top_customers":  "Mejores clientes",
		"title_recent_orders":  "Últimas ventas",
		"title_order":          "Venta",
		"walk_in_customer":     "Cliente ocasional",
		"empty_list":           "No hay registros",
		"demo_credentials":     "Demo: admin / admin123",
		"welcome":              "Bienvenido",
	},
	"en": {
		"required":              "Required",
		"too_long":              "Too long",
		"must_be_positive":      "Must be greater than zero",
		"must_not_be_negative":  "Must not be negative",
		"invalid_number":        "Invalid number",
		"invalid_choice":        "Invalid choice",
		"invalid_email":         "Invalid email",
		"password_too_short":    "Password is too short",
		"not_found":             "Not found",
		"already_exists":        "Already exists",
		"validation_failed":     "Please check the form",
		"empty_cart":            "The cart is empty",
		"invalid_product":       "Product not available",
		"invalid_credentials":   "Invalid username or password",
		"unauthorized":          "Please log in",
		"forbidden":             "You are not allowed to do this",
		"rate_limited":          "Too many attempts, please wait",
		"internal_error":        "Internal error",
		"receipt_degraded":      "The receipt could not be fully generated",
		"price_changed":         "The price changed since it was added to the cart",
		"confirm_reset":         "Confirm with --yes to erase all data",
		"flash_order_recorded":  "Sale recorded",
		"flash_cart_cleared":    "Cart cleared",
		"flash_added_to_cart":   "Product added",
		"flash_saved":           "Changes saved",
		"flash_user_registered": "Account created",
		"nav_dashboard":         "Dashboard",
		"nav_pos":               "Point of sale",
		"nav_products":          "Products",
		"nav_customers":         "Customers",
		"nav_orders":            "Sales",
		"nav_reports":           "Reports",
		"nav_users":             "Users",
		"nav_stores":            "Stores",
		"nav_suppliers":         "Suppliers",
		"nav_ingredients":       "Ingredients",
		"nav_login":             "Log in",
		"nav_logout":            "Log out",
		"nav_register":          "Sign up",
		"field_username":        "Username",
		"field_password":        "Password",
		"field_role":            "Role",
		"field_active":          "Active",
		"field_sku":             "SKU",
		"field_name":            "Name",
		"field_last_name":       "Last name",
		"field_description":     "Description",
		"field_price":           "Price",
		"field_category":        "Category",
		"field_unit":            "Unit",
		"field_cost_per_unit":   "Cost per unit",
		"field_document_type":   "Document type",
		"field_document_number": "Document number",
		"field_phone":           "Phone",
		"field_email":           "Email",
		"field_address":         "Address",
		"field_contact_name":    "Contact",
		"field_qty":             "Quantity",
		"field_subtotal":        "Subtotal",
		"field_total":           "Total",
		"field_customer":        "Customer",
		"field_cashier":         "Cashier",
		"field_store":           "Store",
		"field_date":            "Date",
		"field_orders":          "Sales",
		"field_revenue":         "Revenue",
		"role_admin":            "Administrator",
		"role_cashier":          "Cashier",
		"role_baker":            "Baker",
		"action_save":           "Save",
		"action_new":            "New",
		"action_edit":           "Edit",
		"action_search":         "Search",
		"action_add":            "Add",
		"action_clear_cart":     "Clear cart",
		"action_checkout":       "Checkout",
		"action_print":          "Print",
		"action_download_pdf":   "Download PDF",
		"title_login":           "Log in",
		"title_register":        "Quick sign up",
		"title_cart":            "Cart",
		"title_today":           "Today",
		"title_daily_sales":     "Sales per day",
		"title_top_products":    "Best selling products",
		"title_top_customers":   "Top customers",
		"title_recent_orders":   "Recent sales",
		"title_order":           "Sale",
		"walk_in_customer":      "Walk-in customer",
		"empty_list":            "Nothing here yet",
		"demo_credentials":      "Demo: admin / admin123",
		"welcome":               "Welcome",
	},
}

// T returns the message for code in lang, falling back to the default
// language and finally to the code itself.
func T(lang, code string) string {
	if m, ok := catalogs[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalogs[Default][code]; ok {
		return s
	}
	return code
}

// Normalize maps lang to a supported language, or "" if unsupported.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if _, ok := catalogs[lang]; ok {
		return lang
	}
	return ""
}

// DetectLanguage picks the first supported language of an Accept-Language
// header, or Default.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		if l := Normalize(tag); l != "" {
			return l
		}
	}
	return Default
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFrom returns the language stored in ctx, or Default.
func LangFrom(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && l != "" {
		return l
	}
	return Default
}
