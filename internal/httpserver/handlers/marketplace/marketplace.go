package marketplace

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pauljones0/dealboard/internal/httpserver/query"
	"github.com/pauljones0/dealboard/internal/httpserver/respond"
	"github.com/pauljones0/dealboard/internal/marketplace"
)

type Client interface {
	Search(ctx context.Context, query string, limit int) (*marketplace.SearchResult, error)
	Listing(ctx context.Context, id string) (*marketplace.Listing, error)
}

type Options struct {
	Log     *slog.Logger
	Client  Client
	Timeout time.Duration
}

type listingView struct {
	marketplace.Listing
	DiscountPercent int `json:"discountPercent"`
}

func withDiscount(l marketplace.Listing) listingView {
	return listingView{Listing: l, DiscountPercent: l.DiscountPercent()}
}

// NewSearchHandler serves GET /api/marketplace/search?q=&limit=.
func NewSearchHandler(opts Options) http.HandlerFunc {
	log, timeout := defaults(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			respond.BadRequest(w, "q is required")
			return
		}
		limit, err := query.Limit(r, "limit", 20, 50)
		if err != nil {
			respond.BadRequest(w, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		res, err := opts.Client.Search(ctx, q, limit)
		if err != nil {
			writeUpstreamError(w, log, err)
			return
		}
		listings := make([]listingView, 0, len(res.Listings))
		for _, l := range res.Listings {
			listings = append(listings, withDiscount(l))
		}
		respond.JSON(w, http.StatusOK, map[string]any{
			"query":    res.Query,
			"total":    res.Total,
			"listings": listings,
		})
	}
}

// NewListingHandler serves GET /api/marketplace/listings/{id}.
func NewListingHandler(opts Options) http.HandlerFunc {
	log, timeout := defaults(opts)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		l, err := opts.Client.Listing(ctx, r.PathValue("id"))
		if err != nil {
			writeUpstreamError(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, withDiscount(*l))
	}
}

func defaults(opts Options) (*slog.Logger, time.Duration) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return log, opts.Timeout
}

func writeUpstreamError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, marketplace.ErrNotConfigured):
		respond.Error(w, http.StatusServiceUnavailable, respond.CodeUnavailable, err.Error())
	case errors.Is(err, marketplace.ErrListingNotFound):
		respond.NotFound(w, err.Error())
	default:
		log.Error("marketplace request failed", "error", err)
		respond.Error(w, http.StatusBadGateway, respond.CodeUpstream, "marketplace request failed")
	}
}
