package pages

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pharmacy-inventory/api/validators"
	"github.com/angelmondragon/pharmacy-inventory/internal/aggregation"
	"github.com/angelmondragon/pharmacy-inventory/internal/categories"
	productsvc "github.com/angelmondragon/pharmacy-inventory/internal/products"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
)

// productForm mirrors the HTML form; every field stays a string so invalid
// input can be shown back to the user unchanged.
type productForm struct {
	ID           string
	Name         string
	CategoryID   string
	CategoryName string
	Manufacturer string
	Price        string
	Quantity     string
	DeliveryDate string
}

func formFromProduct(p *productsvc.ProductDTO) productForm {
	form := productForm{
		ID:           p.ID.String(),
		Name:         p.Name,
		Manufacturer: p.Manufacturer,
		Price:        p.Price.StringFixed(2),
		Quantity:     strconv.Itoa(p.Quantity),
	}
	if p.Category != nil {
		form.CategoryID = p.Category.ID
	}
	if p.DeliveryDate != nil {
		form.DeliveryDate = p.DeliveryDate.String()
	}
	return form
}

func readProductForm(r *http.Request) productForm {
	return productForm{
		ID:           strings.TrimSpace(r.PostFormValue("id")),
		Name:         r.PostFormValue("name"),
		CategoryID:   strings.TrimSpace(r.PostFormValue("categoryId")),
		CategoryName: r.PostFormValue("categoryName"),
		Manufacturer: r.PostFormValue("manufacturer"),
		Price:        strings.TrimSpace(r.PostFormValue("price")),
		Quantity:     strings.TrimSpace(r.PostFormValue("quantity")),
		DeliveryDate: strings.TrimSpace(r.PostFormValue("deliveryDate")),
	}
}

// toInput converts the raw form into a service input. Parse failures are
// reported per field alongside whatever else the service would reject.
func (f productForm) toInput() (productsvc.ProductInput, map[string]string) {
	errs := map[string]string{}
	input := productsvc.ProductInput{
		Name:         f.Name,
		Manufacturer: f.Manufacturer,
		Category:     &productsvc.CategoryRef{Name: strings.TrimSpace(f.CategoryName)},
	}

	if f.CategoryID != "" {
		id, err := uuid.Parse(f.CategoryID)
		if err != nil {
			errs["category"] = "unknown category"
		} else {
			input.Category = &productsvc.CategoryRef{ID: &id}
		}
	}

	if f.Price != "" {
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			errs["price"] = "price must be a number"
		} else {
			input.Price = price
		}
	}

	if f.Quantity != "" {
		qty, err := strconv.Atoi(f.Quantity)
		if err != nil {
			errs["quantity"] = "quantity must be a whole number"
		} else {
			input.Quantity = qty
		}
	}

	if f.DeliveryDate != "" {
		date, err := types.ParseDate(f.DeliveryDate)
		if err != nil {
			errs["deliveryDate"] = "delivery date must be YYYY-MM-DD"
		} else {
			input.DeliveryDate = &date
		}
	}

	return input, errs
}

// Index lists products with the inventory summary.
func Index(products productsvc.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			view.Error(w, r, unavailable("product"))
			return
		}

		keyword, err := validators.SearchKeyword(r, "keyword")
		if err != nil {
			view.Error(w, r, err)
			return
		}
		items, err := products.List(r.Context(), keyword)
		if err != nil {
			view.Error(w, r, err)
			return
		}
		stats, err := products.Stats(r.Context())
		if err != nil {
			view.Error(w, r, err)
			return
		}

		view.Render(w, r, http.StatusOK, "index", map[string]any{
			"Title":    "Products",
			"Keyword":  keyword,
			"Products": items,
			"Stats":    stats,
		})
	}
}

func NewProduct(cats categories.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderProductForm(w, r, view, cats, http.StatusOK, productForm{Quantity: "0"}, nil)
	}
}

func EditProduct(products productsvc.Service, cats categories.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			view.Error(w, r, unavailable("product"))
			return
		}

		id, err := validators.PathUUID(r, "id")
		if err != nil {
			view.Error(w, r, err)
			return
		}

		product, err := products.Get(r.Context(), id)
		if err != nil {
			view.Error(w, r, err)
			return
		}

		renderProductForm(w, r, view, cats, http.StatusOK, formFromProduct(product), nil)
	}
}

// SaveProduct creates the product when the form has no id and updates it
// otherwise. Invalid input re-renders the form with field messages.
func SaveProduct(products productsvc.Service, cats categories.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			view.Error(w, r, unavailable("product"))
			return
		}

		form := readProductForm(r)
		input, errs := form.toInput()
		if len(errs) > 0 {
			renderProductForm(w, r, view, cats, http.StatusBadRequest, form, errs)
			return
		}

		var err error
		if form.ID == "" {
			_, err = products.Create(r.Context(), input)
		} else {
			id, parseErr := uuid.Parse(form.ID)
			if parseErr != nil {
				view.Error(w, r, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
				return
			}
			_, err = products.Update(r.Context(), id, input)
		}
		if err != nil {
			if fields, ok := fieldErrors(err); ok {
				renderProductForm(w, r, view, cats, http.StatusBadRequest, form, fields)
				return
			}
			view.Error(w, r, err)
			return
		}

		redirect(w, r, "/")
	}
}

func DeleteProduct(products productsvc.Service, view Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			view.Error(w, r, unavailable("product"))
			return
		}

		id, err := validators.PathUUID(r, "id")
		if err != nil {
			view.Error(w, r, err)
			return
		}

		if err := products.Delete(r.Context(), id); err != nil {
			view.Error(w, r, err)
			return
		}

		redirect(w, r, "/")
	}
}

// Histogram shows deliveries per day for the window ending today.
func Histogram(products productsvc.Service, now func() time.Time, view Renderer) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			view.Error(w, r, unavailable("product"))
			return
		}

		asOf := types.DateOf(now())
		days, err := products.Histogram(r.Context(), asOf)
		if err != nil {
			view.Error(w, r, err)
			return
		}

		view.Render(w, r, http.StatusOK, "histogram", map[string]any{
			"Title":      "Deliveries",
			"AsOf":       asOf,
			"From":       asOf.AddDays(-aggregation.HistogramWindowDays),
			"WindowDays": aggregation.HistogramWindowDays,
			"Days":       days,
		})
	}
}

func renderProductForm(w http.ResponseWriter, r *http.Request, view Renderer, cats categories.Service, status int, form productForm, errs map[string]string) {
	var list []categories.CategoryDTO
	if cats != nil {
		items, err := cats.List(r.Context())
		if err != nil {
			view.Error(w, r, err)
			return
		}
		list = items
	}

	title := "New product"
	if form.ID != "" {
		title = "Edit product"
	}
	view.Render(w, r, status, "product_form", map[string]any{
		"Title":      title,
		"Form":       form,
		"Categories": list,
		"Errors":     errs,
	})
}
