package policy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/diewo77/bakery-pos/internal/models"
	"gorm.io/gorm"
)

// IdentityResolver maps a user id to its identity. A nil identity without
// error means the user does not exist or may not log in.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uint) (*Identity, error)
}

// DBResolver fetches identities from the users table.
type DBResolver struct {
	DB *gorm.DB
}

// NewDBResolver creates a new database-backed identity resolver.
func NewDBResolver(db *gorm.DB) *DBResolver {
	return &DBResolver{DB: db}
}

// Resolve loads the user; inactive or unknown users resolve to nil.
func (r *DBResolver) Resolve(ctx context.Context, userID uint) (*Identity, error) {
	var u models.User
	err := r.DB.WithContext(ctx).Select("id", "username", "role", "active").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, nil
	}
	return &Identity{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// CachedResolver wraps an IdentityResolver with TTL-based caching.
// This avoids hitting the database on every request.
type CachedResolver struct {
	inner IdentityResolver
	cache map[uint]cacheEntry
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

type cacheEntry struct {
	identity  *Identity
	expiresAt time.Time
}

// NewCachedResolver wraps a resolver with caching.
func NewCachedResolver(inner IdentityResolver, ttl time.Duration) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		cache: make(map[uint]cacheEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Resolve returns the identity for the given user, using cache if available.
func (r *CachedResolver) Resolve(ctx context.Context, userID uint) (*Identity, error) {
	r.mu.RLock()
	entry, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok && r.now().Before(entry.expiresAt) {
		return entry.identity, nil
	}

	id, err := r.inner.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache[userID] = cacheEntry{identity: id, expiresAt: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return id, nil
}

// Invalidate removes a user from the cache.
// Call this when a user's role or active flag changes.
func (r *CachedResolver) Invalidate(userID uint) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}
