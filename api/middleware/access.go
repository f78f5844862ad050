package middleware

import (
	"net/http"

	"github.com/angelmondragon/pharmacy-inventory/internal/access"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/logger"
)

// LoginPath is where anonymous browser requests are sent.
const LoginPath = "/login"

// Access enforces policy before any handler runs. Anonymous page requests are
// redirected to the login form; API requests get a 401 envelope.
func Access(policy *access.Policy, pages ErrorPages, logg *logger.Logger) func(http.Handler) http.Handler {
	if policy == nil {
		policy = access.DefaultPolicy()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, _ := access.PrincipalFrom(r.Context())

			switch policy.Decide(principal, r.Method, r.URL.Path) {
			case access.Allow:
				next.ServeHTTP(w, r)
			case access.Unauthenticated:
				if access.IsAPIPath(r.URL.Path) {
					writeFailure(w, r, pages, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusFound)
			default:
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
					})
					logg.Warn(ctx, "access.denied")
				}
				writeFailure(w, r, pages, logg, pkgerrors.New(pkgerrors.CodeForbidden, "you do not have access to this resource"))
			}
		})
	}
}
