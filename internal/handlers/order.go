package handlers

import (
	"net/http"

	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/internal/receipt"
	"github.com/diewo77/bakery-pos/internal/services"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"items": orders, "total": len(orders)})
		return
	}
	render(w, r, http.StatusOK, "orders/index.html", map[string]any{"Orders": orders})
}

// View shows the order with its HTML ticket.
func (h *OrderHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if wantsJSON(r) {
		o, err := h.orders.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, o)
		return
	}
	o, doc, err := h.orders.Receipt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, "orders/view.html", map[string]any{"Order": o, "Receipt": doc})
}

// Receipt serves the standalone HTML ticket, or its text form as JSON.
func (h *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, doc, err := h.orders.Receipt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"html": doc.HTML, "text": doc.Text, "warning": doc.Warning})
		return
	}
	if doc.HTML == "" {
		// Degraded: the plain text is all there is.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(doc.Text))
		return
	}
	render(w, r, http.StatusOK, "orders/receipt.html", map[string]any{"Receipt": doc, "OrderID": id})
}

// ReceiptPDF downloads the printable ticket. A degraded receipt is still
// served, with its warning in a header.
func (h *OrderHandler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	_, doc, err := h.orders.Receipt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if doc.Degraded() {
		w.Header().Set("X-Receipt-Warning", doc.Warning)
	}
	httpx.Attachment(w, "application/pdf", receipt.Filename(id), doc.PDF)
}
