package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pauljones0/dealboard/internal/backfill"
	"github.com/pauljones0/dealboard/internal/leaderboard"
)

// Recount keeps the denormalized store and category deal counts current.
func Recount(store backfill.CountStore) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		res, err := backfill.Recount(ctx, store, time.Now())
		slog.Info("Recounted deal totals", "storesChanged", res.StoresChanged, "categoriesChanged", res.CategoriesChanged)
		return err
	}
}

type Refresher interface {
	Refresh(ctx context.Context, p leaderboard.Period) (bool, error)
}

// WarmLeaderboards refreshes every leaderboard period so requests can be
// served from memory.
func WarmLeaderboards(r Refresher) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		var errs []error
		for _, p := range leaderboard.Periods {
			committed, err := r.Refresh(ctx, p)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !committed {
				slog.Debug("Leaderboard refresh superseded", "period", p)
			}
		}
		return errors.Join(errs...)
	}
}
