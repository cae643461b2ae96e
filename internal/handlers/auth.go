package handlers

import (
	"net/http"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/internal/cart"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/diewo77/bakery-pos/internal/services"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	auth     *services.AuthService
	users    *services.UserService
	sessions *auth.Manager
	carts    *cart.Registry
}

func NewAuthHandler(authSvc *services.AuthService, users *services.UserService, sessions *auth.Manager, carts *cart.Registry) *AuthHandler {
	return &AuthHandler{auth: authSvc, users: users, sessions: sessions, carts: carts}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, "login.html", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if isJSONBody(r) {
		if err := decode(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		in.Username = r.FormValue("username")
		in.Password = r.FormValue("password")
	}
	id, err := h.auth.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Str("username", in.Username).Str("ip", r.RemoteAddr).Msg("login failed")
		formError(w, r, err, "login.html", map[string]any{"Username": in.Username})
		return
	}
	h.sessions.CreateSession(w, id.ID)
	zerolog.Ctx(r.Context()).Info().Uint("user_id", id.ID).Str("role", string(id.Role)).Msg("login")
	done(w, r, http.StatusOK, id, "/dashboard", "")
}

// Logout ends the session and discards its cart.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok := auth.SessionFromContext(r.Context()); ok {
		h.carts.Drop(s.Key())
	}
	h.sessions.ClearSession(w)
	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "register.html", map[string]any{"Role": string(models.RoleCashier)})
}

// Register is the public quick registration: cashier or baker only.
// The new user is signed in right away.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.NewUserInput
	if isJSONBody(r) {
		if err := decode(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		in = services.NewUserInput{
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
			Role:     models.Role(r.FormValue("role")),
		}
	}
	if role, ok := models.ParseRole(string(in.Role)); ok {
		in.Role = role
	}
	u, err := h.users.Register(r.Context(), in)
	if err != nil {
		formError(w, r, err, "register.html", map[string]any{"Username": in.Username, "Role": string(in.Role)})
		return
	}
	h.sessions.CreateSession(w, u.ID)
	done(w, r, http.StatusCreated, u, "/dashboard", "flash_user_registered")
}
