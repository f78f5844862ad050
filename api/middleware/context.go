package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/pharmacy-inventory/api/responses"
	"github.com/angelmondragon/pharmacy-inventory/internal/access"
	"github.com/angelmondragon/pharmacy-inventory/pkg/logger"
)

// ErrorPages renders HTML error pages for browser requests.
type ErrorPages interface {
	Error(w http.ResponseWriter, r *http.Request, err error)
}

// UserIDFromContext returns the authenticated user's id, or "" for anonymous callers.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	principal, ok := access.PrincipalFrom(ctx)
	if !ok {
		return ""
	}
	return principal.UserID.String()
}

// writeFailure answers API paths with the JSON envelope and everything else
// with an HTML page when one is available.
func writeFailure(w http.ResponseWriter, r *http.Request, pages ErrorPages, logg *logger.Logger, err error) {
	if pages == nil || access.IsAPIPath(r.URL.Path) {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	pages.Error(w, r, err)
}
