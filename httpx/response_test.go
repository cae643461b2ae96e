package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, http.StatusConflict, "sku_already_exists", map[string]string{"sku": "PAN-001"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	want := `{"error":"sku_already_exists","details":{"sku":"PAN-001"}}`
	if got := w.Body.String(); got != want {
		t.Fatalf("body %s", got)
	}
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orders/12", nil)
	r.SetPathValue("id", "12")
	if id, ok := PathID(r, "id"); !ok || id != 12 {
		t.Fatalf("got %d %v", id, ok)
	}
	r.SetPathValue("id", "abc")
	if _, ok := PathID(r, "id"); ok {
		t.Fatalf("expected failure for non numeric id")
	}
}
