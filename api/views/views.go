package views

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pharmacy-inventory/api/responses"
	"github.com/angelmondragon/pharmacy-inventory/internal/access"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/logger"
	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
)

const layout = "layouts/main"

//go:embed templates static
var assets embed.FS

// Data is the binding handed to a page template.
type Data = map[string]any

// Renderer executes the embedded HTML templates inside the main layout.
type Renderer struct {
	engine *html.Engine
	static fs.FS
	logg   *logger.Logger
}

// New parses every embedded template up front so a broken page fails at
// startup rather than on first request.
func New(logg *logger.Logger) (*Renderer, error) {
	templates, err := fs.Sub(assets, "templates")
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	engine := html.NewFileSystem(http.FS(templates), ".html")
	engine.AddFunc("money", formatMoney)
	engine.AddFunc("date", formatDate)
	engine.AddFunc("year", func() int { return time.Now().Year() })
	if err := engine.Load(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	return &Renderer{engine: engine, static: static, logg: logg}, nil
}

// Static serves the embedded stylesheets under /static/.
func (v *Renderer) Static() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.FS(v.static)))
}

// Render writes page with the given status. The current principal, when
// there is one, is always available to the layout as .Principal.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data Data) {
	if data == nil {
		data = Data{}
	}
	if _, ok := data["Principal"]; !ok {
		if principal, ok := access.PrincipalFrom(r.Context()); ok {
			data["Principal"] = principal
		}
	}

	var buf bytes.Buffer
	if err := v.engine.Render(&buf, "pages/"+page, data, layout); err != nil {
		if v.logg != nil {
			ctx := v.logg.WithField(r.Context(), "page", page)
			v.logg.Error(ctx, "views.render_failed", err)
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error renders the error page matching err's status. Internal failures only
// ever show the generic message.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	typed := responses.Typed(err)
	status := pkgerrors.MetadataFor(typed.Code()).HTTPStatus
	responses.LogError(r.Context(), v.logg, err)

	page := "error"
	switch status {
	case http.StatusForbidden:
		page = "403"
	case http.StatusNotFound:
		page = "404"
	}

	v.Render(w, r, status, page, Data{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": responses.PublicMessage(typed),
	})
}

func formatMoney(value any) string {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.StringFixed(2)
	case *decimal.Decimal:
		if v == nil {
			return "-"
		}
		return v.StringFixed(2)
	default:
		return ""
	}
}

func formatDate(value any) string {
	switch v := value.(type) {
	case types.Date:
		return v.String()
	case *types.Date:
		if v == nil {
			return ""
		}
		return v.String()
	default:
		return ""
	}
}
