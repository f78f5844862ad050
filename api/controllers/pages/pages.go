package pages

import (
	"net/http"

	"github.com/angelmondragon/pharmacy-inventory/internal/access"
	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
)

// Renderer draws HTML pages and error pages.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any)
	Error(w http.ResponseWriter, r *http.Request, err error)
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// fieldErrors extracts per-field messages from a validation-style error.
// ok is false when err does not carry field details.
func fieldErrors(err error) (map[string]string, bool) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return nil, false
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeConflict, pkgerrors.CodeDuplicateEmail:
	default:
		return nil, false
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || len(details) == 0 {
		return map[string]string{"form": typed.Message()}, true
	}
	return details, true
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}

// requireAdmin sends anonymous callers to the login page and renders the
// access denied page for everyone else without the administrator role.
func requireAdmin(w http.ResponseWriter, r *http.Request, view Renderer) bool {
	_, err := access.Require(r.Context(), enums.RoleAdmin)
	if err == nil {
		return true
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		redirect(w, r, "/login")
		return false
	}
	view.Error(w, r, err)
	return false
}

// Forbidden renders the access denied page.
func Forbidden(view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view.Render(w, r, http.StatusForbidden, "403", map[string]any{"Title": "Access denied"})
	}
}

// NotFound renders the missing page.
func NotFound(view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view.Render(w, r, http.StatusNotFound, "404", map[string]any{"Title": "Not found"})
	}
}

// Author renders the about page.
func Author(view Renderer, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view.Render(w, r, http.StatusOK, "author", map[string]any{"Title": "About", "Version": version})
	}
}
