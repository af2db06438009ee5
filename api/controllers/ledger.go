package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cardledger/api/responses"
	"github.com/angelmondragon/cardledger/api/validators"
	"github.com/angelmondragon/cardledger/internal/cron"
	"github.com/angelmondragon/cardledger/internal/ledger"
	"github.com/angelmondragon/cardledger/pkg/logger"
)

type recomputer interface {
	Recompute(ctx context.Context, kind string, id int64) (ledger.Drift, error)
}

type sweeper interface {
	Sweep(ctx context.Context) (cron.ReconcileResult, error)
}

// RecomputeEntity replays one entity's events and stores the result.
func RecomputeEntity(engine recomputer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := strings.TrimSpace(chi.URLParam(r, "kind"))
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		drift, err := engine.Recompute(r.Context(), kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, drift)
	}
}

// Reconcile runs a full sweep now instead of waiting for the worker.
func Reconcile(job sweeper, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := job.Sweep(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
