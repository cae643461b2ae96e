package handlers

import (
	"net/http"

	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/internal/policy"
	"github.com/diewo77/bakery-pos/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
	orders  *services.OrderService
}

func NewReportHandler(reports *services.ReportService, orders *services.OrderService) *ReportHandler {
	return &ReportHandler{reports: reports, orders: orders}
}

// Dashboard shows the headline numbers and, to those who may list them,
// the latest sales.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sum, err := h.reports.Summary(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data := map[string]any{"Summary": sum, "Identity": policy.IdentityFrom(ctx)}
	if policy.Allowed(policy.IdentityFrom(ctx), "order", policy.ActionList) {
		recent, err := h.orders.List(ctx, 5)
		if err != nil {
			writeError(w, r, err)
			return
		}
		data["Recent"] = recent
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"summary": sum, "recent": data["Recent"]})
		return
	}
	render(w, r, http.StatusOK, "dashboard.html", data)
}

// Index renders the sales reports.
func (h *ReportHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	days := queryInt(r, "days", 30)
	limit := queryInt(r, "limit", 10)
	daily, err := h.reports.DailySales(ctx, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	products, err := h.reports.TopProducts(ctx, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	customers, err := h.reports.TopCustomers(ctx, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"daily_sales":   daily,
			"top_products":  products,
			"top_customers": customers,
		})
		return
	}
	render(w, r, http.StatusOK, "reports.html", map[string]any{
		"Days":         days,
		"Daily":        daily,
		"TopProducts":  products,
		"TopCustomers": customers,
	})
}
