package processor

import (
	"context"

	"github.com/pauljones0/dealboard/internal/models"
)

// DealStore abstracts the storage layer for deal submission.
type DealStore interface {
	GetDealBySlug(ctx context.Context, slug string) (*models.Deal, error)
	CreateDeal(ctx context.Context, deal models.Deal) (models.Deal, error)
	GetStoreBySlug(ctx context.Context, slug string) (*models.Store, error)
	CreateStore(ctx context.Context, store models.Store) (models.Store, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// DealNotifier announces newly created deals.
type DealNotifier interface {
	Send(ctx context.Context, deal models.Deal) (string, error)
}
