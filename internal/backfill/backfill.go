// Package backfill holds one-shot data migrations over the deals collection.
package backfill

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pauljones0/dealboard/internal/models"
	"github.com/pauljones0/dealboard/internal/slug"
)

// DealSlugStore is what the slug backfill reads from and writes to.
type DealSlugStore interface {
	ListDeals(ctx context.Context) ([]models.Deal, error)
	SetDealSlug(ctx context.Context, id, slug string) error
}

// Result summarises a backfill run.
type Result struct {
	Total   int
	Updated int
	Skipped int
}

// Slugs gives every deal without a slug one derived from its title and
// store. Deals are processed one at a time; the first failed write stops the
// run and is returned together with the counts so far.
func Slugs(ctx context.Context, store DealSlugStore) (Result, error) {
	deals, err := store.ListDeals(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list deals: %w", err)
	}

	res := Result{Total: len(deals)}
	for _, d := range deals {
		if d.Slug != "" {
			res.Skipped++
			continue
		}
		s := slug.ForDeal(d.Title, d.Store.Slug)
		if err := store.SetDealSlug(ctx, d.ID, s); err != nil {
			return res, fmt.Errorf("failed to backfill deal %s: %w", d.ID, err)
		}
		slog.Info("Backfilled slug", "id", d.ID, "slug", s)
		res.Updated++
	}
	return res, nil
}
