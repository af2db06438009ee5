package controllers

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

// queryString returns a trimmed query parameter.
func queryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// parseEnum runs a Parse* enum helper on an optional query parameter.
func parseEnum[T any](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := queryString(r, key)
	if raw == "" {
		return nil, nil
	}
	value, err := parse(strings.ToLower(raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()).WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}
