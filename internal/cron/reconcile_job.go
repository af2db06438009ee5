package cron

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/ledger"
	"github.com/angelmondragon/cardledger/pkg/logger"
)

var errDryRun = errors.New("reconcile dry run")

type recomputer interface {
	Atomically(ctx context.Context, keys []string, fn func(tx *gorm.DB) error) error
	EntityIDs(ctx context.Context, kind string) ([]int64, error)
	RecomputeTx(ctx context.Context, tx *gorm.DB, kind string, id int64) (ledger.Drift, error)
}

// ReconcileJobParams configure the projection sweep.
type ReconcileJobParams struct {
	Logger *logger.Logger
	Engine recomputer
	// Repair stores the replayed projections. Without it drift is only reported.
	Repair bool
	Kinds  []string
}

// ReconcileResult counts what one sweep saw.
type ReconcileResult struct {
	Checked int            `json:"checked"`
	Drifted []ledger.Drift `json:"drifted"`
}

// ReconcileJob replays every cached projection from its event rows.
type ReconcileJob struct {
	logg   *logger.Logger
	engine recomputer
	repair bool
	kinds  []string
}

func NewReconcileJob(params ReconcileJobParams) (*ReconcileJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("ledger engine required")
	}
	kinds := params.Kinds
	if len(kinds) == 0 {
		kinds = ledger.RecomputableKinds()
	}
	return &ReconcileJob{logg: params.Logger, engine: params.Engine, repair: params.Repair, kinds: kinds}, nil
}

func (j *ReconcileJob) Name() string { return "ledger-reconcile" }

func (j *ReconcileJob) Run(ctx context.Context) error {
	_, err := j.Sweep(ctx)
	return err
}

// Sweep recomputes each entity under its own lock and transaction. One
// entity failing does not stop the rest; all failures are returned together.
func (j *ReconcileJob) Sweep(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult
	var errs error
	for _, kind := range j.kinds {
		ids, err := j.engine.EntityIDs(ctx, kind)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list %s: %w", kind, err))
			continue
		}
		for _, id := range ids {
			if ctx.Err() != nil {
				return result, multierr.Append(errs, ctx.Err())
			}
			drift, err := j.recompute(ctx, kind, id)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("recompute %s: %w", ledger.Key(kind, id), err))
				continue
			}
			result.Checked++
			if drift.Changed() {
				result.Drifted = append(result.Drifted, drift)
			}
		}
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"checked": result.Checked,
		"drifted": len(result.Drifted),
		"repair":  j.repair,
	})
	j.logg.Info(ctx, "reconcile sweep finished")
	return result, errs
}

func (j *ReconcileJob) recompute(ctx context.Context, kind string, id int64) (ledger.Drift, error) {
	var drift ledger.Drift
	err := j.engine.Atomically(ctx, []string{ledger.Key(kind, id)}, func(tx *gorm.DB) error {
		var err error
		if drift, err = j.engine.RecomputeTx(ctx, tx, kind, id); err != nil {
			return err
		}
		if !j.repair {
			return errDryRun
		}
		return nil
	})
	if errors.Is(err, errDryRun) {
		err = nil
	}
	return drift, err
}
