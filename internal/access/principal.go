package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Roles    []enums.RoleName
}

func (p *Principal) HasRole(role enums.RoleName) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p *Principal) IsAdmin() bool {
	return p.HasRole(enums.RoleAdmin)
}

// RoleStrings is used for log fields.
func (p *Principal) RoleStrings() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		out = append(out, r.String())
	}
	return out
}

type principalKey struct{}

// WithPrincipal stores the principal on the request context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal set by the authentication middleware.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Require fails unless the context carries a principal holding role.
func Require(ctx context.Context, role enums.RoleName) (*Principal, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !p.HasRole(role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role")
	}
	return p, nil
}
