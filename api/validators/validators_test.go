package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

type lineBody struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type orderBody struct {
	Number string     `json:"number" validate:"required,max=5"`
	Lines  []lineBody `json:"lines" validate:"dive"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"number":"ABCDEFG","lines":[{"name":"","quantity":0}]}`))
	var body orderBody
	err := DecodeJSONBody(r, &body)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at most 5", details["number"])
	assert.Equal(t, "is required", details["lines[0].name"])
	assert.Equal(t, "must be at least 1", details["lines[0].quantity"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"number":"A1","extra":true}`))
	var body orderBody
	err := DecodeJSONBody(r, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryDate(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?from=2025-11-05&to=2025-11-06T10:00:00Z&bad=11/05", nil)

	from, err := ParseQueryDate(r, "from")
	require.NoError(t, err)
	assert.Equal(t, "2025-11-05", from.Format("2006-01-02"))

	to, err := ParseQueryDate(r, "to")
	require.NoError(t, err)
	assert.Equal(t, 10, to.Hour())

	missing, err := ParseQueryDate(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseQueryDate(r, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePathID(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", value)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := ParsePathID(withParam("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-3", "abc"} {
		_, err := ParsePathID(withParam(raw), "id")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), raw)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "cable", SanitizeString("  cable ", 10))
	assert.Equal(t, "cab", SanitizeString("cable", 3))
	assert.Equal(t, "usb c cable", SanitizeString("usb\t c\n\x00cable", 0))
	assert.Equal(t, "caf", SanitizeString("café", 4))
}
