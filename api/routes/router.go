package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/pharmacy-inventory/api/controllers"
	"github.com/angelmondragon/pharmacy-inventory/api/controllers/pages"
	"github.com/angelmondragon/pharmacy-inventory/api/middleware"
	"github.com/angelmondragon/pharmacy-inventory/api/responses"
	"github.com/angelmondragon/pharmacy-inventory/internal/access"
	"github.com/angelmondragon/pharmacy-inventory/internal/accounts"
	"github.com/angelmondragon/pharmacy-inventory/internal/auth"
	"github.com/angelmondragon/pharmacy-inventory/internal/categories"
	"github.com/angelmondragon/pharmacy-inventory/internal/products"
	"github.com/angelmondragon/pharmacy-inventory/pkg/config"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/logger"
	"github.com/angelmondragon/pharmacy-inventory/pkg/metrics"
	"github.com/angelmondragon/pharmacy-inventory/pkg/redis"
)

// Views renders pages, error pages and the embedded static assets.
type Views interface {
	pages.Renderer
	Static() http.Handler
}

// Dependencies is everything the router hands to controllers and middleware.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Views       Views
	Auth        auth.Service
	Accounts    accounts.Service
	Products    products.Service
	Categories  categories.Service
	Idempotency redis.IdempotencyStore
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Readiness   []controllers.ReadinessCheck
	Policy      *access.Policy
	Now         func() time.Time
	Version     string
}

// NewRouter wires the page routes, the JSON API and the operational endpoints.
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	view := deps.Views

	policy := deps.Policy
	if policy == nil {
		policy = access.DefaultPolicy()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(view, logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
		middleware.Auth(deps.Auth, cfg.Session.CookieName, view, logg),
		middleware.Access(policy, view, logg),
	)

	r.NotFound(notFound(view, logg))
	r.MethodNotAllowed(methodNotAllowed(view))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Handle("/static/*", view.Static())

	// server-rendered pages
	r.Get("/", pages.Index(deps.Products, view))
	r.Get("/new", pages.NewProduct(deps.Categories, view))
	r.Post("/save", pages.SaveProduct(deps.Products, deps.Categories, view))
	r.Get("/edit/{id}", pages.EditProduct(deps.Products, deps.Categories, view))
	r.Get("/delete/{id}", pages.DeleteProduct(deps.Products, view))
	r.Get("/histogram", pages.Histogram(deps.Products, now, view))
	r.Get("/categories", pages.Categories(deps.Categories, view))
	r.Post("/categories", pages.CreateCategory(deps.Categories, view))

	r.Get("/register", pages.RegisterForm(view))
	r.Post("/register", pages.Register(deps.Accounts, view))
	r.Get("/login", pages.LoginForm(view))
	r.Post("/login", pages.Login(deps.Auth, cfg.Session, view))
	r.Get("/logout", pages.Logout(deps.Auth, cfg.Session, view))
	r.Post("/logout", pages.Logout(deps.Auth, cfg.Session, view))

	r.Get("/users", pages.Users(deps.Accounts, view))
	r.Post("/users/delete/{id}", pages.DeleteUser(deps.Accounts, view))
	r.Post("/assignRole/{userId}", pages.AssignRole(deps.Accounts, view))

	r.Get("/403", pages.Forbidden(view))
	r.Get("/404", pages.NotFound(view))
	r.Get("/author", pages.Author(view, deps.Version))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			r.Post("/register", controllers.AuthRegister(deps.Accounts, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductsList(deps.Products, logg))
			r.With(middleware.Idempotency(deps.Idempotency, logg)).
				Post("/", controllers.ProductsCreate(deps.Products, logg))
			r.Get("/histogram", controllers.ProductsHistogram(deps.Products, now, logg))
			r.Get("/stats", controllers.ProductsStats(deps.Products, logg))
			r.Get("/{id}", controllers.ProductsGet(deps.Products, logg))
			r.Put("/{id}", controllers.ProductsUpdate(deps.Products, logg))
			r.Delete("/{id}", controllers.ProductsDelete(deps.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoriesList(deps.Categories, logg))
			r.With(middleware.Idempotency(deps.Idempotency, logg)).
				Post("/", controllers.CategoriesCreate(deps.Categories, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.UsersList(deps.Accounts, logg))
			r.Get("/search", controllers.UsersSearch(deps.Accounts, logg))
			r.Get("/current", controllers.UsersCurrent(deps.Accounts, logg))
			r.Delete("/{id}", controllers.UsersDelete(deps.Accounts, logg))
			r.Put("/{id}/makeAdmin", controllers.UsersMakeAdmin(deps.Accounts, logg))
		})
	})

	return r
}

func notFound(view Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
		if access.IsAPIPath(r.URL.Path) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view.Error(w, r, err)
	}
}

func methodNotAllowed(view Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if access.IsAPIPath(r.URL.Path) {
			responses.WriteStatusError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		view.Error(w, r, pkgerrors.New(pkgerrors.CodeNotFound, "page not found"))
	}
}
