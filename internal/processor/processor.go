// Package processor turns a user submission into a stored deal: it validates
// the input, resolves or creates the store, derives the slug and announces
// the result.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pauljones0/dealboard/internal/models"
	"github.com/pauljones0/dealboard/internal/scraper"
	"github.com/pauljones0/dealboard/internal/slug"
	"github.com/pauljones0/dealboard/internal/util"
	"github.com/pauljones0/dealboard/internal/validator"
)

const defaultCategory = "other"

// Submission is a deal as posted by a user or prefilled from an extraction.
type Submission struct {
	Title               string             `json:"title"`
	Description         string             `json:"description,omitempty"`
	DiscountDescription string             `json:"discountDescription,omitempty"`
	SavingsAmount       string             `json:"savingsAmount,omitempty"`
	SavingsType         models.SavingsType `json:"savingsType"`
	Code                string             `json:"code,omitempty"`
	URL                 string             `json:"url,omitempty"`
	Conditions          string             `json:"conditions,omitempty"`
	ExpiresAt           time.Time          `json:"expiresAt,omitzero"`
	StoreName           string             `json:"storeName"`
	StoreDomain         string             `json:"storeDomain,omitempty"`
	CategorySlug        string             `json:"category,omitempty"`
	SubmittedBy         string             `json:"submittedBy,omitempty"`
}

type DealProcessor struct {
	store     DealStore
	notifier  DealNotifier
	scraper   scraper.Scraper
	validator *validator.Validator
	now       func() time.Time
}

// New wires a processor. notifier and s may be nil, which disables
// announcements and store enrichment respectively.
func New(store DealStore, n DealNotifier, s scraper.Scraper, v *validator.Validator) *DealProcessor {
	return &DealProcessor{
		store:     store,
		notifier:  n,
		scraper:   s,
		validator: v,
		now:       time.Now,
	}
}

// Submit validates sub and stores it as a new deal. Input problems are
// reported wrapped in validator.ErrValidation; a slug clash is
// models.ErrDealExists.
func (p *DealProcessor) Submit(ctx context.Context, sub Submission) (models.Deal, error) {
	deal := models.Deal{
		Title:               strings.TrimSpace(sub.Title),
		Description:         strings.TrimSpace(sub.Description),
		DiscountDescription: strings.TrimSpace(sub.DiscountDescription),
		SavingsAmount:       strings.TrimSpace(sub.SavingsAmount),
		SavingsType:         models.SavingsType(strings.ToLower(strings.TrimSpace(string(sub.SavingsType)))),
		Code:                strings.TrimSpace(sub.Code),
		Conditions:          strings.TrimSpace(sub.Conditions),
		ExpiresAt:           sub.ExpiresAt,
		SubmittedBy:         sub.SubmittedBy,
		Store:               models.StoreRef{Name: strings.TrimSpace(sub.StoreName)},
	}
	if deal.SavingsType == "" {
		deal.SavingsType = models.SavingsOther
	}
	if u := strings.TrimSpace(sub.URL); u != "" {
		cleaned, err := util.CleanDealURL(u)
		if err != nil {
			return models.Deal{}, fmt.Errorf("%w: URL must be a valid URL", validator.ErrValidation)
		}
		deal.URL = cleaned
	}
	if err := p.validator.ValidateStruct(deal); err != nil {
		return models.Deal{}, err
	}

	storeSlug := slug.Slugify(deal.Store.Name)
	if storeSlug == "" {
		return models.Deal{}, fmt.Errorf("%w: Store.Name must contain letters or digits", validator.ErrValidation)
	}

	category, err := p.resolveCategory(ctx, sub.CategorySlug)
	if err != nil {
		return models.Deal{}, err
	}
	deal.Category = category.Ref()

	deal.Slug = slug.ForDeal(deal.Title, storeSlug)
	if deal.Slug == "" {
		return models.Deal{}, fmt.Errorf("%w: Title must contain letters or digits", validator.ErrValidation)
	}
	if _, err := p.store.GetDealBySlug(ctx, deal.Slug); err == nil {
		return models.Deal{}, fmt.Errorf("deal %s: %w", deal.Slug, models.ErrDealExists)
	} else if !errors.Is(err, models.ErrNotFound) {
		return models.Deal{}, fmt.Errorf("failed to check slug %s: %w", deal.Slug, err)
	}

	store, err := p.ensureStore(ctx, deal.Store.Name, storeSlug, sub.StoreDomain, deal.URL)
	if err != nil {
		return models.Deal{}, err
	}
	deal.Store = store.Ref()
	deal.CreatedAt = p.now().UTC()

	created, err := p.store.CreateDeal(ctx, deal)
	if err != nil {
		return models.Deal{}, fmt.Errorf("failed to create deal %s: %w", deal.Slug, err)
	}
	slog.Info("New deal added", "slug", created.Slug, "store", created.Store.Slug)

	p.announce(ctx, created)
	return created, nil
}

func (p *DealProcessor) resolveCategory(ctx context.Context, categorySlug string) (models.Category, error) {
	categorySlug = strings.ToLower(strings.TrimSpace(categorySlug))
	if categorySlug == "" {
		categorySlug = defaultCategory
	}
	category, err := p.store.GetCategoryBySlug(ctx, categorySlug)
	if errors.Is(err, models.ErrNotFound) {
		return models.Category{}, fmt.Errorf("%w: unknown category %q", validator.ErrValidation, categorySlug)
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to load category %s: %w", categorySlug, err)
	}
	return *category, nil
}

// ensureStore returns the store with storeSlug, creating it when missing.
// A new store is enriched from its homepage; enrichment failures only log.
func (p *DealProcessor) ensureStore(ctx context.Context, name, storeSlug, domain, dealURL string) (models.Store, error) {
	existing, err := p.store.GetStoreBySlug(ctx, storeSlug)
	if err == nil {
		return *existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.Store{}, fmt.Errorf("failed to load store %s: %w", storeSlug, err)
	}

	store := models.Store{
		Name:   name,
		Slug:   storeSlug,
		Domain: util.RegistrableDomain(domain),
	}
	if store.Domain == "" {
		store.Domain = util.RegistrableDomain(dealURL)
	}
	if store.Domain != "" && p.scraper != nil {
		info, err := p.scraper.ScrapeStore(ctx, "https://"+store.Domain)
		if err != nil {
			slog.Warn("Store enrichment failed", "store", storeSlug, "domain", store.Domain, "error", err)
		} else {
			store.LogoURL = info.LogoURL
			// Adopt the site's own spelling of the name when it is the same store.
			if info.Name != "" && slug.Slugify(info.Name) == storeSlug {
				store.Name = info.Name
			}
		}
	}

	created, err := p.store.CreateStore(ctx, store)
	if err != nil {
		return models.Store{}, fmt.Errorf("failed to create store %s: %w", storeSlug, err)
	}
	slog.Info("New store added", "slug", created.Slug, "domain", created.Domain)
	return created, nil
}

func (p *DealProcessor) announce(ctx context.Context, deal models.Deal) {
	if p.notifier == nil {
		return
	}
	if _, err := p.notifier.Send(ctx, deal); err != nil {
		slog.Warn("Failed to announce deal", "slug", deal.Slug, "error", err)
	}
}
