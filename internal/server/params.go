package server

import (
	"net/http"
	"strconv"

	goa "goa.design/goa/v3/pkg"

	"lumenai/internal/services"
	apperrors "lumenai/pkg/errors"
)

// pageParams reads page and limit from the query string.
func pageParams(r *http.Request) (int, int, error) {
	page, limit, details := services.ParsePage(r.URL.Query())
	if len(details) > 0 {
		return 0, 0, apperrors.Validation("invalid query parameters", details...)
	}
	return page, limit, nil
}

// boolParam reads an optional boolean query parameter; absent means nil.
func boolParam(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.Validation("invalid query parameters", apperrors.FieldError{
			Field:   name,
			Message: goa.InvalidFieldTypeError(name, raw, "boolean").Error(),
		})
	}
	return &v, nil
}
