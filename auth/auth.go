// Package auth implements signed cookie sessions and password hashing.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	sessionCookieName = "session"
	sessionCtxKey     = ctxKey("session")
	defaultTTL        = 14 * 24 * time.Hour
)

// Session identifies a logged-in browser. ID is random per login so that
// per-session state (the sales cart) is not shared between two logins of the
// same user.
type Session struct {
	UserID uint
	ID     string
}

// Key returns the identifier used to index per-session state.
func (s Session) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return "uid:" + strconv.FormatUint(uint64(s.UserID), 10)
}

// UserVerifier validates that a session's user still exists and is allowed in.
type UserVerifier func(ctx context.Context, uid uint) bool

// Manager issues and validates session cookies signed with HMAC-SHA256.
type Manager struct {
	secret   []byte
	ttl      time.Duration
	secure   bool
	verifier UserVerifier
}

// NewManager returns a Manager signing cookies with secret.
func NewManager(secret string) *Manager {
	if secret == "" {
		secret = "devsessionsecret"
	}
	return &Manager{secret: []byte(secret), ttl: defaultTTL}
}

// SetVerifier configures the check run by RequireAuth on every request.
// If nil, no extra verification is performed.
func (m *Manager) SetVerifier(v UserVerifier) { m.verifier = v }

// SetSecure marks cookies Secure (HTTPS only).
func (m *Manager) SetSecure(secure bool) { m.secure = secure }

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie for userID and returns the new session.
func (m *Manager) CreateSession(w http.ResponseWriter, userID uint) Session {
	s := Session{UserID: userID, ID: uuid.NewString()}
	payload := strconv.FormatUint(uint64(userID), 10) + "." + s.ID
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + m.sign(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(m.ttl),
	})
	return s
}

// ClearSession deletes the session cookie.
func (m *Manager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the session it carries.
func (m *Manager) ParseSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return Session{}, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return Session{}, false
	}
	uidStr, sid, sig := parts[0], parts[1], parts[2]
	expected := m.sign(uidStr + "." + sid)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return Session{}, false
	}
	id64, err := strconv.ParseUint(uidStr, 10, 64)
	if err != nil || id64 == 0 {
		return Session{}, false
	}
	return Session{UserID: uint(id64), ID: sid}, true
}

// WithSession stores the session in context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

// SessionFromContext extracts the session.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionCtxKey).(Session)
	return s, ok
}

// WithUserID stores a session for userID in context, without a session id.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return WithSession(ctx, Session{UserID: userID})
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	s, ok := SessionFromContext(ctx)
	if !ok || s.UserID == 0 {
		return 0, false
	}
	return s.UserID, true
}

// Middleware attaches the session to the request context if present.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := m.ParseSession(r); ok {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or returns 401 JSON.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if ok && m.verifier != nil && !m.verifier(r.Context(), uid) {
			// Session refers to a missing or disabled user.
			m.ClearSession(w)
			ok = false
		}
		if !ok {
			if WantsJSON(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"unauthorized"}`)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WantsJSON reports whether the client asked for JSON rather than HTML.
func WantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
