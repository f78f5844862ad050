package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/pharmacy-inventory/api/validators"
	"github.com/angelmondragon/pharmacy-inventory/internal/access"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/logger"
)

// Authenticator resolves a session token into the caller's principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*access.Principal, error)
}

// Auth resolves the caller from the bearer header or the session cookie and
// seeds the request context with the principal. Requests without a usable
// token continue anonymously; Access decides whether that is acceptable.
func Auth(authn Authenticator, cookieName string, pages ErrorPages, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := validators.RequestToken(r, cookieName)
			if token == "" || authn == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
					writeFailure(w, r, pages, logg, err)
					return
				}
				if logg != nil {
					logg.Debug(r.Context(), "auth.token_rejected")
				}
				clearStaleCookie(w, r, cookieName)
				next.ServeHTTP(w, r)
				return
			}

			ctx := access.WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.UserID.String())
				ctx = logg.WithUsername(ctx, principal.Username)
				ctx = logg.WithRoles(ctx, principal.RoleStrings())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clearStaleCookie(w http.ResponseWriter, r *http.Request, cookieName string) {
	if cookieName == "" {
		return
	}
	if _, err := r.Cookie(cookieName); err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
