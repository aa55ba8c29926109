package access

import (
	"context"
	"errors"
	"fmt"

	"dinein/internal/domain"
	"dinein/internal/repository"
)

var ErrForbidden = errors.New("forbidden")

// Principal вызывающая сторона, извлечённая из токена
type Principal struct {
	UserID       int64
	Role         domain.Role
	RestaurantID int64
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Gate проверяет роль и права вкладок
type Gate struct {
	perms repository.PermissionRepository
}

func NewGate(perms repository.PermissionRepository) *Gate {
	return &Gate{perms: perms}
}

// Authorize checks that p may use any of caps on restaurantID. The caller's
// restaurant scope must match for every role. Admins and superadmins are
// implicitly granted every tab; staff need an active permission record
// granting one of caps.
func (g *Gate) Authorize(ctx context.Context, p Principal, restaurantID int64, caps ...domain.Capability) error {
	if restaurantID == 0 || p.RestaurantID != restaurantID {
		return fmt.Errorf("%w: restaurant mismatch", ErrForbidden)
	}
	switch p.Role {
	case domain.RoleAdmin, domain.RoleSuperadmin:
		return nil
	case domain.RoleStaff:
		perm, err := g.perms.Get(ctx, p.UserID, restaurantID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: no permission record", ErrForbidden)
		}
		if err != nil {
			return err
		}
		if !perm.Active {
			return fmt.Errorf("%w: access revoked", ErrForbidden)
		}
		for _, c := range caps {
			if perm.Tabs.Has(c) {
				return nil
			}
		}
		return fmt.Errorf("%w: missing %s access", ErrForbidden, capNames(caps))
	default:
		return fmt.Errorf("%w: unknown role", ErrForbidden)
	}
}

// RequireRole passes when p holds one of roles.
func RequireRole(p Principal, roles ...domain.Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q not allowed", ErrForbidden, p.Role)
}

func capNames(caps []domain.Capability) string {
	switch len(caps) {
	case 0:
		return "any"
	case 1:
		return caps[0].String()
	}
	out := caps[0].String()
	for _, c := range caps[1:] {
		out += "/" + c.String()
	}
	return out
}
