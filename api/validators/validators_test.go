package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type loginBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=4"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"alice","password":"secret"}`))
	var body loginBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Username != "alice" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"alice","password":"secret","admin":true}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"password":"abc"}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	if details["username"] != "is required" || details["password"] != "must be at least 4" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestParseQueryDate(t *testing.T) {
	now := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/?asOf=2023-12-31", nil)
	got, err := ParseQueryDate(req, "asOf", now)
	if err != nil || got.String() != "2023-12-31" {
		t.Fatalf("unexpected %v (%v)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	got, err = ParseQueryDate(req, "asOf", now)
	if err != nil || got.String() != "2024-01-10" {
		t.Fatalf("expected default to today, got %v (%v)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?asOf=yesterday", nil)
	if _, err := ParseQueryDate(req, "asOf", now); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchKeyword(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?keyword=+Aspirin+", nil)
	got, err := SearchKeyword(req, "keyword")
	if err != nil || got != " Aspirin " {
		t.Fatalf("expected keyword as sent, got %q (%v)", got, err)
	}

	// multibyte keywords are measured in characters
	long := strings.Repeat("é", maxKeywordLen)
	req = httptest.NewRequest(http.MethodGet, "/?keyword="+url.QueryEscape(long), nil)
	got, err = SearchKeyword(req, "keyword")
	if err != nil || got != long {
		t.Fatalf("expected %d character keyword to pass untouched, got %d (%v)", maxKeywordLen, len(got), err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?keyword="+strings.Repeat("A", maxKeywordLen)+"X", nil)
	if _, err := SearchKeyword(req, "keyword"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for oversize keyword, got %v", err)
	}
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	got, err := PathUUID(withParam(id.String()), "id")
	if err != nil || got != id {
		t.Fatalf("unexpected %v (%v)", got, err)
	}
	if _, err := PathUUID(withParam("42"), "id"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRequestToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def")
	req.AddCookie(&http.Cookie{Name: "rx_session", Value: "cookie-token"})
	if got := RequestToken(req, "rx_session"); got != "abc.def" {
		t.Fatalf("bearer header should win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "rx_session", Value: "cookie-token"})
	if got := RequestToken(req, "rx_session"); got != "cookie-token" {
		t.Fatalf("unexpected cookie token %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	if got := RequestToken(req, ""); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}
}
