package validators

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxKeywordLen = 200

// SearchKeyword returns the query value for key exactly as sent. Keywords
// longer than maxKeywordLen characters are rejected.
func SearchKeyword(r *http.Request, key string) (string, error) {
	keyword := r.URL.Query().Get(key)
	if utf8.RuneCountInString(keyword) > maxKeywordLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "search keyword is too long").
			WithDetails(map[string]any{"field": key, "max": maxKeywordLen})
	}
	return keyword, nil
}

// ParseQueryDate reads an optional YYYY-MM-DD parameter, falling back to
// the calendar day of now.
func ParseQueryDate(r *http.Request, key string, now time.Time) (types.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return types.DateOf(now), nil
	}
	parsed, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a date").
			WithDetails(map[string]any{"field": key, "format": types.DateLayout})
	}
	return parsed, nil
}

// PathUUID parses a chi URL parameter as a UUID. Malformed ids are reported
// as not found since no record can carry them.
func PathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found").
			WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
