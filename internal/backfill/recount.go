package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pauljones0/dealboard/internal/models"
)

// CountStore is what Recount needs from the storage layer.
type CountStore interface {
	ListDeals(ctx context.Context) ([]models.Deal, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CountDealsInCategory(ctx context.Context, categorySlug string) (int, error)
	SetStoreDealCounts(ctx context.Context, counts map[string]int) error
	SetCategoryDealCounts(ctx context.Context, counts map[string]int) error
}

// RecountResult reports how many denormalized counters changed.
type RecountResult struct {
	StoresChanged     int
	CategoriesChanged int
}

// Recount refreshes Store.ActiveDealCount and Category.DealCount. Only
// counters whose value changed are written.
func Recount(ctx context.Context, store CountStore, now time.Time) (RecountResult, error) {
	deals, err := store.ListDeals(ctx)
	if err != nil {
		return RecountResult{}, fmt.Errorf("failed to list deals: %w", err)
	}
	active := make(map[string]int)
	for _, d := range deals {
		if d.Store.Slug == "" || d.IsExpired(now) {
			continue
		}
		active[d.Store.Slug]++
	}

	stores, err := store.ListStores(ctx)
	if err != nil {
		return RecountResult{}, fmt.Errorf("failed to list stores: %w", err)
	}
	storeCounts := make(map[string]int)
	for _, s := range stores {
		if n := active[s.Slug]; n != s.ActiveDealCount {
			storeCounts[s.ID] = n
		}
	}

	categories, err := store.ListCategories(ctx)
	if err != nil {
		return RecountResult{}, fmt.Errorf("failed to list categories: %w", err)
	}
	categoryCounts := make(map[string]int)
	for _, c := range categories {
		n, err := store.CountDealsInCategory(ctx, c.Slug)
		if err != nil {
			return RecountResult{}, err
		}
		if n != c.DealCount {
			categoryCounts[c.ID] = n
		}
	}

	var errs []error
	if err := store.SetStoreDealCounts(ctx, storeCounts); err != nil {
		errs = append(errs, err)
	}
	if err := store.SetCategoryDealCounts(ctx, categoryCounts); err != nil {
		errs = append(errs, err)
	}

	res := RecountResult{StoresChanged: len(storeCounts), CategoriesChanged: len(categoryCounts)}
	slog.Info("Recounted deals", "stores_changed", res.StoresChanged, "categories_changed", res.CategoriesChanged)
	return res, errors.Join(errs...)
}
