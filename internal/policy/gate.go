package policy

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/bakery-pos/auth"
	"github.com/diewo77/bakery-pos/httpx"
	"github.com/diewo77/bakery-pos/internal/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Gate resolves the identity behind a session and enforces role and
// permission requirements on routes.
type Gate struct {
	Resolver *CachedResolver
}

// NewGate creates a gate backed by the users table with a TTL cache.
func NewGate(db *gorm.DB, cacheTTL time.Duration) *Gate {
	return &Gate{Resolver: NewCachedResolver(NewDBResolver(db), cacheTTL)}
}

// Verify reports whether uid is an existing active user. It satisfies
// auth.UserVerifier.
func (g *Gate) Verify(ctx context.Context, uid uint) bool {
	id, err := g.Resolver.Resolve(ctx, uid)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Uint("user_id", uid).Msg("resolve identity")
		return false
	}
	return id != nil
}

// Invalidate drops the cached identity of uid.
func (g *Gate) Invalidate(uid uint) { g.Resolver.Invalidate(uid) }

// Identify attaches the Identity of the session user to the request context.
// Requests without a session, or whose user is gone, pass through anonymous.
func (g *Gate) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := auth.UserIDFromContext(r.Context()); ok {
			id, err := g.Resolver.Resolve(r.Context(), uid)
			if err != nil {
				log.Ctx(r.Context()).Error().Err(err).Uint("user_id", uid).Msg("resolve identity")
			} else if id != nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole returns middleware that admits identities holding any of roles.
func (g *Gate) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Can(IdentityFrom(r.Context()), roles...) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission returns middleware that checks a role permission.
func (g *Gate) RequirePermission(resourceType string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Allowed(IdentityFrom(r.Context()), resourceType, action) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if auth.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}
