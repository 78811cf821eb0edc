package marketplace

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	c := New(server.Client(), server.URL+"/", "secret")
	// Override rate limiter and backoff for tests to run fast
	c.rateLimiter = rate.NewLimiter(rate.Inf, 1)
	c.retry.BaseDelay = time.Millisecond
	return c, server
}

func TestNew_RequiresConfig(t *testing.T) {
	if New(nil, "", "key") != nil {
		t.Error("expected nil client without base URL")
	}
	if New(nil, "https://api.test", "") != nil {
		t.Error("expected nil client without API key")
	}

	var c *Client
	if _, err := c.Search(context.Background(), "tv", 5); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("nil client Search() error = %v, want ErrNotConfigured", err)
	}
}

func TestClient_Search(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Query().Get("q") != "oled tv" || r.URL.Query().Get("limit") != "50" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":1,"listings":[{"id":"L1","title":"OLED TV","price":999.99,"originalPrice":1499.99,"currency":"CAD"}]}`))
	})

	res, err := c.Search(context.Background(), "  oled tv ", 500)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Query != "oled tv" || res.Total != 1 || len(res.Listings) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := res.Listings[0].DiscountPercent(); got != 33 {
		t.Errorf("DiscountPercent() = %d, want 33", got)
	}
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty query")
	})
	if _, err := c.Search(context.Background(), "   ", 10); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestClient_RetriesOn5xx(t *testing.T) {
	var attempts int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"L9","title":"Blender","price":49}`))
	})

	l, err := c.Listing(context.Background(), "L9")
	if err != nil {
		t.Fatalf("Listing() should succeed after retries, got %v", err)
	}
	if l.ID != "L9" {
		t.Errorf("ID = %s", l.ID)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestClient_NoRetryOn4xx(t *testing.T) {
	var attempts int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"bad key"}`))
	})

	if _, err := c.Search(context.Background(), "x", 1); err == nil {
		t.Fatal("expected error for 401")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("4xx should not be retried, got %d attempts", attempts)
	}
}

func TestClient_ListingNotFound(t *testing.T) {
	var attempts int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Listing(context.Background(), "missing")
	if !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("Listing() error = %v, want ErrListingNotFound", err)
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("404 should not be retried, got %d attempts", attempts)
	}
}

func TestListing_DiscountPercent(t *testing.T) {
	tests := []struct {
		l    Listing
		want int
	}{
		{Listing{Price: 50, OriginalPrice: 100}, 50},
		{Listing{Price: 100, OriginalPrice: 100}, 0},
		{Listing{Price: 120, OriginalPrice: 100}, 0},
		{Listing{Price: 10}, 0},
	}
	for _, tt := range tests {
		if got := tt.l.DiscountPercent(); got != tt.want {
			t.Errorf("DiscountPercent(%+v) = %d, want %d", tt.l, got, tt.want)
		}
	}
}
