package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/bakery-pos/i18n"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func langEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(i18n.LangFrom(r.Context())))
	})
}

func TestPrefs(t *testing.T) {
	h := Prefs("es")(langEcho())
	cases := []struct {
		name   string
		url    string
		cookie string
		accept string
		want   string
	}{
		{"default", "/", "", "", "es"},
		{"header", "/", "", "en-US,en;q=0.9", "en"},
		{"unsupported header", "/", "", "de-DE", "es"},
		{"cookie beats header", "/", "es", "en", "es"},
		{"query beats cookie", "/?lang=en", "es", "", "en"},
		{"bad query ignored", "/?lang=xx", "en", "", "en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: langCookie, Value: tc.cookie})
			}
			if tc.accept != "" {
				req.Header.Set("Accept-Language", tc.accept)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Body.String())
		})
	}
}

func TestPrefsRemembersQueryLanguage(t *testing.T) {
	w := httptest.NewRecorder()
	Prefs("es")(langEcho()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?lang=en", nil))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "en", cookies[0].Value)
}

func TestLoggerSetsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	var seen string
	h := Logger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		seen = w.Header().Get(RequestIDHeader)
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pos", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	out := buf.String()
	assert.Contains(t, out, `"message":"inside"`)
	assert.Contains(t, out, `"request_id":"`+seen+`"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"path":"/pos"`)
}

func TestLoggerKeepsIncomingRequestID(t *testing.T) {
	h := Logger(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())
}

func TestRateLimiterPerIP(t *testing.T) {
	l := NewRateLimiter(2)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	h := l.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	post := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, post("10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, post("10.0.0.1:2222"))
	assert.Equal(t, http.StatusTooManyRequests, post("10.0.0.1:3333"))
	assert.Equal(t, http.StatusOK, post("10.0.0.2:1111"))

	// GETs are never counted.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "10.0.0.1:4444"
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusOK, post("10.0.0.1:5555"))
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	l := NewRateLimiter(5)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.Allow("a")
	l.Allow("b")
	now = now.Add(10 * time.Minute)
	l.Allow("c")
	assert.Len(t, l.visitors, 1)
}
