package pages

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/pharmacy-inventory/api/validators"
	"github.com/angelmondragon/pharmacy-inventory/internal/accounts"
	"github.com/angelmondragon/pharmacy-inventory/internal/auth"
	"github.com/angelmondragon/pharmacy-inventory/internal/categories"
	"github.com/angelmondragon/pharmacy-inventory/pkg/config"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
)

func LoginForm(view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		view.Render(w, r, http.StatusOK, "login", map[string]any{
			"Title":     "Log in",
			"Failed":    q.Has("error"),
			"LoggedOut": q.Has("logout"),
		})
	}
}

// Login authenticates the form credentials and stores the session token in
// an HttpOnly cookie.
func Login(svc auth.Service, cfg config.SessionConfig, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			view.Error(w, r, unavailable("auth"))
			return
		}

		req := auth.LoginRequest{
			Username: strings.TrimSpace(r.PostFormValue("username")),
			Password: r.PostFormValue("password"),
		}
		if err := validators.Struct(&req); err != nil {
			redirect(w, r, "/login?error")
			return
		}

		result, err := svc.Login(r.Context(), req)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				redirect(w, r, "/login?error")
				return
			}
			view.Error(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    result.Token,
			Path:     "/",
			Expires:  result.ExpiresAt,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		redirect(w, r, "/")
	}
}

// Logout revokes the session behind the cookie and clears it.
func Logout(svc auth.Service, cfg config.SessionConfig, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			view.Error(w, r, unavailable("auth"))
			return
		}

		if err := svc.Logout(r.Context(), validators.RequestToken(r, cfg.CookieName)); err != nil {
			view.Error(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		redirect(w, r, "/login?logout")
	}
}

func RegisterForm(view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view.Render(w, r, http.StatusOK, "register", map[string]any{
			"Title":   "Register",
			"Form":    accounts.RegisterInput{},
			"Success": r.URL.Query().Has("success"),
		})
	}
}

// Register creates the account. A taken email re-renders the form with the
// message next to the email field.
func Register(svc accounts.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			view.Error(w, r, unavailable("account"))
			return
		}

		input := accounts.RegisterInput{
			Name:     strings.TrimSpace(r.PostFormValue("name")),
			Username: strings.TrimSpace(r.PostFormValue("username")),
			Email:    strings.TrimSpace(r.PostFormValue("email")),
			Password: r.PostFormValue("password"),
		}

		err := validators.Struct(&input)
		if err == nil {
			_, err = svc.Register(r.Context(), input)
		}
		if err != nil {
			fields, ok := fieldErrors(err)
			if !ok {
				view.Error(w, r, err)
				return
			}
			input.Password = ""
			view.Render(w, r, http.StatusBadRequest, "register", map[string]any{
				"Title":  "Register",
				"Form":   input,
				"Errors": fields,
			})
			return
		}

		redirect(w, r, "/register?success")
	}
}

// Users lists accounts for administrators, filtered by ?q=.
func Users(svc accounts.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			view.Error(w, r, unavailable("account"))
			return
		}
		if !requireAdmin(w, r, view) {
			return
		}

		query := strings.TrimSpace(r.URL.Query().Get("q"))
		list, err := svc.Search(r.Context(), query)
		if err != nil {
			view.Error(w, r, err)
			return
		}

		view.Render(w, r, http.StatusOK, "users", map[string]any{
			"Title": "Users",
			"Query": query,
			"Users": list,
		})
	}
}

func DeleteUser(svc accounts.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			view.Error(w, r, unavailable("account"))
			return
		}
		if !requireAdmin(w, r, view) {
			return
		}

		id, err := validators.PathUUID(r, "id")
		if err != nil {
			// nothing can carry a malformed id
			redirect(w, r, "/users")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			view.Error(w, r, err)
			return
		}

		redirect(w, r, "/users")
	}
}

// AssignRole grants the administrator role.
func AssignRole(svc accounts.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			view.Error(w, r, unavailable("account"))
			return
		}
		if !requireAdmin(w, r, view) {
			return
		}

		id, err := validators.PathUUID(r, "userId")
		if err != nil {
			view.Error(w, r, err)
			return
		}

		if _, err := svc.ElevateToAdmin(r.Context(), id); err != nil {
			view.Error(w, r, err)
			return
		}

		redirect(w, r, "/users")
	}
}

func Categories(svc categories.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderCategories(w, r, svc, view, http.StatusOK, "", "")
	}
}

func CreateCategory(svc categories.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			view.Error(w, r, unavailable("category"))
			return
		}

		name := strings.TrimSpace(r.PostFormValue("name"))
		if _, err := svc.Create(r.Context(), name); err != nil {
			if _, ok := fieldErrors(err); ok {
				renderCategories(w, r, svc, view, http.StatusBadRequest, name, pkgerrors.As(err).Message())
				return
			}
			view.Error(w, r, err)
			return
		}

		redirect(w, r, "/categories")
	}
}

func renderCategories(w http.ResponseWriter, r *http.Request, svc categories.Service, view Renderer, status int, name, message string) {
	if svc == nil {
		view.Error(w, r, unavailable("category"))
		return
	}
	list, err := svc.List(r.Context())
	if err != nil {
		view.Error(w, r, err)
		return
	}
	view.Render(w, r, status, "categories", map[string]any{
		"Title":      "Categories",
		"Categories": list,
		"Name":       name,
		"Error":      message,
	})
}
