// Package marketplace is a thin client for the third-party marketplace API
// used to look up product listings that back a deal.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/dealboard/internal/util"
)

// ErrNotConfigured is returned by a nil Client.
var ErrNotConfigured = errors.New("marketplace API is not configured")

// ErrListingNotFound is returned by Listing for unknown IDs.
var ErrListingNotFound = errors.New("listing not found")

const maxResponseBytes = 2 << 20

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Listing is one marketplace product offer.
type Listing struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Currency      string   `json:"currency"`
	Seller        string   `json:"seller,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
}

// DiscountPercent is the rounded saving against the original price, or 0.
func (l Listing) DiscountPercent() int {
	if l.OriginalPrice <= 0 || l.Price >= l.OriginalPrice {
		return 0
	}
	return int((l.OriginalPrice-l.Price)/l.OriginalPrice*100 + 0.5)
}

// SearchResult is a page of listings.
type SearchResult struct {
	Query    string    `json:"query"`
	Total    int       `json:"total"`
	Listings []Listing `json:"listings"`
}

type Client struct {
	doer        Doer
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	retry       util.RetryPolicy
}

// New returns nil when baseURL or apiKey is empty.
func New(doer Doer, baseURL, apiKey string) *Client {
	if baseURL == "" || apiKey == "" {
		return nil
	}
	if doer == nil {
		doer = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		doer:        doer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 5),
		retry: util.RetryPolicy{
			MaxRetries: 3,
			BaseDelay:  500 * time.Millisecond,
		},
	}
}

// Search finds listings matching query. limit is clamped to [1, 50].
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(min(max(limit, 1), 50)))

	var out SearchResult
	if err := c.getJSON(ctx, "/v1/search?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	if out.Query == "" {
		out.Query = query
	}
	return &out, nil
}

// Listing fetches one listing by ID.
func (c *Client) Listing(ctx context.Context, id string) (*Listing, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("listing id is required")
	}
	var out Listing
	if err := c.getJSON(ctx, "/v1/listings/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// statusError carries a non-2xx response.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("marketplace status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Transport errors are worth retrying; context errors are not.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	policy := c.retry
	policy.Retryable = retryable

	var body []byte
	err := util.RetryWithBackoff(ctx, policy, func(attempt int) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", util.ErrPermanent, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.doer.Do(req)
		if err != nil {
			return fmt.Errorf("marketplace request failed: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("failed to read marketplace response: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", util.ErrPermanent, ErrListingNotFound)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &statusError{code: resp.StatusCode, body: truncate(string(b), 200)}
		}
		body = b
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode marketplace response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
