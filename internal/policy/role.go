package policy

import (
	"context"
	"slices"

	"github.com/diewo77/bakery-pos/internal/models"
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID       uint        `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool { return i != nil && i.Role == models.RoleAdmin }

// rolePermissions is the static permission table of each role.
var rolePermissions = map[models.Role][]Permission{
	models.RoleAdmin: {PermissionSuperAdmin},
	models.RoleCashier: {
		"dashboard:view",
		"pos:*",
		"order:list", "order:view",
		"product:list", "product:view",
		"customer:*",
	},
	models.RoleBaker: {
		"dashboard:view",
		"product:*",
		"ingredient:list", "ingredient:view",
		"supplier:list", "supplier:view",
	},
}

// PermissionsFor returns the permissions granted to role.
func PermissionsFor(role models.Role) []Permission {
	return slices.Clone(rolePermissions[role])
}

// Can reports whether identity may act when any of roles is required.
// A nil identity is never allowed; an empty role list admits any
// authenticated identity with a valid role.
func Can(identity *Identity, roles ...models.Role) bool {
	if identity == nil || !identity.Role.Valid() {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	return slices.Contains(roles, identity.Role)
}

// Allowed reports whether identity's role grants action on resource.
func Allowed(identity *Identity, resource string, action Action) bool {
	if identity == nil {
		return false
	}
	requested := NewPermission(resource, action)
	for _, p := range rolePermissions[identity.Role] {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}

type identityKey struct{}

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in context, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
