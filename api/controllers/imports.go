package controllers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cardledger/api/responses"
	"github.com/angelmondragon/cardledger/internal/imports"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/logger"
)

const maxImportBytes = 5 << 20

// CardTransfer moves gift cards in and out of retailer CSV files.
type CardTransfer interface {
	Import(ctx context.Context, retailerCode string, r io.Reader) (*imports.Report, error)
	Export(ctx context.Context, retailerCode string, w io.Writer) (int, error)
}

// ImportGiftCards reads a CSV body for the retailer in the path. Rows that
// fail are listed in the report; the request still succeeds.
func ImportGiftCards(svc CardTransfer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		body := http.MaxBytesReader(w, r.Body, maxImportBytes)
		report, err := svc.Import(r.Context(), code, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(report.Failed) > 0 {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"retailer_code": report.RetailerCode,
				"failed":        len(report.Failed),
			})
			logg.Warn(ctx, "import finished with failed rows")
		}
		responses.WriteSuccess(w, report)
	}
}

// ExportGiftCards streams the retailer's cards as CSV.
func ExportGiftCards(svc CardTransfer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "retailer code is required"))
			return
		}
		var buf bytes.Buffer
		if _, err := svc.Export(r.Context(), code, &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_gift_cards.csv"`, strings.ToLower(code)))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
