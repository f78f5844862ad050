package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pharmacy-inventory/internal/aggregation"
	"github.com/angelmondragon/pharmacy-inventory/internal/categories"
	productsvc "github.com/angelmondragon/pharmacy-inventory/internal/products"
	"github.com/angelmondragon/pharmacy-inventory/pkg/enums"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
)

type stubProductService struct {
	items     []productsvc.ProductDTO
	keyword   string
	created   productsvc.ProductInput
	updatedID uuid.UUID
	deletedID uuid.UUID
	asOf      types.Date
	err       error
	histogram []aggregation.DayCount
	stats     *productsvc.Stats
}

func (s *stubProductService) List(_ context.Context, keyword string) ([]productsvc.ProductDTO, error) {
	s.keyword = keyword
	return s.items, s.err
}

func (s *stubProductService) Get(_ context.Context, id uuid.UUID) (*productsvc.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubProductService) Create(_ context.Context, input productsvc.ProductInput) (*productsvc.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = input
	return &productsvc.ProductDTO{ID: uuid.New(), Name: input.Name, Manufacturer: input.Manufacturer, Price: input.Price}, nil
}

func (s *stubProductService) Update(_ context.Context, id uuid.UUID, input productsvc.ProductInput) (*productsvc.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.updatedID = id
	return &productsvc.ProductDTO{ID: id, Name: input.Name}, nil
}

func (s *stubProductService) Delete(_ context.Context, id uuid.UUID) error {
	s.deletedID = id
	return s.err
}

func (s *stubProductService) Histogram(_ context.Context, asOf types.Date) ([]aggregation.DayCount, error) {
	s.asOf = asOf
	return s.histogram, s.err
}

func (s *stubProductService) Stats(context.Context) (*productsvc.Stats, error) {
	return s.stats, s.err
}

func TestProductsListPassesKeyword(t *testing.T) {
	svc := &stubProductService{items: []productsvc.ProductDTO{{ID: uuid.New(), Name: "Aspirin"}}}
	rec := httptest.NewRecorder()
	ProductsList(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/products?keyword=Bayer", "", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.keyword != "Bayer" {
		t.Fatalf("expected keyword to reach the service, got %q", svc.keyword)
	}
	var items []productsvc.ProductDTO
	decodeEnvelope(t, rec, &items)
	if len(items) != 1 || items[0].Name != "Aspirin" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestProductsGet(t *testing.T) {
	id := uuid.New()
	svc := &stubProductService{items: []productsvc.ProductDTO{{ID: id, Name: "Aspirin"}}}

	rec := httptest.NewRecorder()
	ProductsGet(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/products/"+id.String(), "", map[string]string{"id": id.String()}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	missing := uuid.NewString()
	rec = httptest.NewRecorder()
	ProductsGet(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/products/"+missing, "", map[string]string{"id": missing}))
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != string(pkgerrors.CodeNotFound) {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ProductsGet(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/products/7", "", map[string]string{"id": "7"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", rec.Code)
	}
}

func TestProductsCreate(t *testing.T) {
	svc := &stubProductService{}
	body := `{"name":"Aspirin","category":{"name":"Analgesic"},"manufacturer":"Bayer","price":"9.50","quantity":3,"deliveryDate":"2024-01-08"}`

	rec := httptest.NewRecorder()
	ProductsCreate(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/products", body, nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.created.Category == nil || svc.created.Category.Name != "Analgesic" {
		t.Fatalf("category ref not decoded: %+v", svc.created.Category)
	}
	if !svc.created.Price.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("unexpected price %s", svc.created.Price)
	}
	if svc.created.DeliveryDate == nil || !svc.created.DeliveryDate.Equal(types.NewDate(2024, time.January, 8)) {
		t.Fatalf("unexpected delivery date %v", svc.created.DeliveryDate)
	}
}

func TestProductsCreateRejectsInvalidBody(t *testing.T) {
	svc := &stubProductService{}
	rec := httptest.NewRecorder()
	ProductsCreate(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/products", `{"name":"","quantity":-1}`, nil))

	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected 400 validation error got %d", rec.Code)
	}
	if svc.created.Name != "" {
		t.Fatal("service should not be called for invalid input")
	}
}

func TestProductsUpdateAndDelete(t *testing.T) {
	id := uuid.New()
	svc := &stubProductService{}
	params := map[string]string{"id": id.String()}

	rec := httptest.NewRecorder()
	body := `{"name":"Aspirin Forte","category":{"name":"Analgesic"},"manufacturer":"Bayer","price":12,"quantity":1}`
	ProductsUpdate(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPut, "/api/products/"+id.String(), body, params))
	if rec.Code != http.StatusOK || svc.updatedID != id {
		t.Fatalf("expected update of %s, got %d", id, rec.Code)
	}

	rec = httptest.NewRecorder()
	ProductsDelete(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodDelete, "/api/products/"+id.String(), "", params))
	if rec.Code != http.StatusNoContent || svc.deletedID != id {
		t.Fatalf("expected 204 delete of %s, got %d", id, rec.Code)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	rec = httptest.NewRecorder()
	ProductsDelete(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodDelete, "/api/products/"+id.String(), "", params))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestProductsHistogram(t *testing.T) {
	svc := &stubProductService{histogram: []aggregation.DayCount{{Date: types.NewDate(2024, time.January, 8), Count: 1}}}
	now := func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }

	rec := httptest.NewRecorder()
	ProductsHistogram(svc, now, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodGet, "/api/products/histogram", "", nil), enums.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.asOf.String() != "2024-01-10" {
		t.Fatalf("expected asOf to default to today, got %s", svc.asOf)
	}
	if got := rec.Body.String(); got != "{\"data\":[{\"date\":\"2024-01-08\",\"count\":1}]}\n" {
		t.Fatalf("unexpected body %s", got)
	}

	rec = httptest.NewRecorder()
	ProductsHistogram(svc, now, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodGet, "/api/products/histogram?asOf=2023-12-31", "", nil), enums.RoleAdmin))
	if svc.asOf.String() != "2023-12-31" {
		t.Fatalf("expected explicit asOf, got %s", svc.asOf)
	}
}

func TestProductsHistogramRequiresAdmin(t *testing.T) {
	svc := &stubProductService{}

	rec := httptest.NewRecorder()
	ProductsHistogram(svc, nil, testLogger()).ServeHTTP(rec, asPrincipal(newRequest(http.MethodGet, "/api/products/histogram?asOf=2023-12-31", "", nil), enums.RoleUser))
	if rec.Code != http.StatusForbidden || errorCode(t, rec) != string(pkgerrors.CodeForbidden) {
		t.Fatalf("expected 403 for user role, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	ProductsHistogram(svc, nil, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/products/histogram", "", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
	if !svc.asOf.IsZero() {
		t.Fatal("service should not be called")
	}
}

func TestProductsUpdateRejectsMismatchedID(t *testing.T) {
	id := uuid.New()
	svc := &stubProductService{}
	body := `{"id":"` + uuid.NewString() + `","name":"Aspirin","category":{"name":"Analgesic"},"manufacturer":"Bayer","price":"1","quantity":1}`

	rec := httptest.NewRecorder()
	ProductsUpdate(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPut, "/api/products/"+id.String(), body, map[string]string{"id": id.String()}))
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.updatedID != uuid.Nil {
		t.Fatal("service should not be called")
	}

	body = `{"id":"` + id.String() + `","name":"Aspirin","category":{"id":"` + uuid.NewString() + `","name":"Analgesic"},"manufacturer":"Bayer","price":"1","quantity":1}`
	rec = httptest.NewRecorder()
	ProductsUpdate(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPut, "/api/products/"+id.String(), body, map[string]string{"id": id.String()}))
	if rec.Code != http.StatusOK || svc.updatedID != id {
		t.Fatalf("expected matching id to update, got %d", rec.Code)
	}
}

func TestProductsListRejectsOversizeKeyword(t *testing.T) {
	svc := &stubProductService{}
	rec := httptest.NewRecorder()
	ProductsList(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/products?keyword="+strings.Repeat("A", 201), "", nil))
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestProductsStats(t *testing.T) {
	avg := decimal.RequireFromString("15")
	svc := &stubProductService{stats: &productsvc.Stats{AveragePrice: &avg, Count: 2}}
	rec := httptest.NewRecorder()
	ProductsStats(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/api/products/stats", "", nil))

	var stats struct {
		AveragePrice      *string `json:"averagePrice"`
		AverageStockValue *string `json:"averageStockValue"`
		Count             int     `json:"count"`
	}
	decodeEnvelope(t, rec, &stats)
	if stats.AveragePrice == nil || *stats.AveragePrice != "15" || stats.AverageStockValue != nil || stats.Count != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestCategoriesCreate(t *testing.T) {
	svc := &stubCategoryService{}
	rec := httptest.NewRecorder()
	CategoriesCreate(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/categories", `{"name":"Vitamins"}`, nil))
	if rec.Code != http.StatusCreated || svc.created != "Vitamins" {
		t.Fatalf("expected 201 for Vitamins, got %d (%q)", rec.Code, svc.created)
	}

	svc.err = pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
	rec = httptest.NewRecorder()
	CategoriesCreate(svc, testLogger()).ServeHTTP(rec, newRequest(http.MethodPost, "/api/categories", `{"name":"Vitamins"}`, nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

type stubCategoryService struct {
	created string
	err     error
}

func (s *stubCategoryService) List(context.Context) ([]categories.CategoryDTO, error) {
	return []categories.CategoryDTO{{ID: uuid.NewString(), Name: "Analgesic"}}, s.err
}

func (s *stubCategoryService) Create(_ context.Context, name string) (*categories.CategoryDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = name
	return &categories.CategoryDTO{ID: uuid.NewString(), Name: name}, nil
}
