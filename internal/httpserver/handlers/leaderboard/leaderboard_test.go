package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pauljones0/dealboard/internal/leaderboard"
)

type mockLoader struct {
	entries []leaderboard.Entry
	err     error
	period  leaderboard.Period
	limit   int
	calls   int
}

func (m *mockLoader) Load(_ context.Context, p leaderboard.Period, limit int) ([]leaderboard.Entry, error) {
	m.calls++
	m.period, m.limit = p, limit
	return m.entries, m.err
}

type fixedSnapshots map[leaderboard.Period]leaderboard.Snapshot

func (f fixedSnapshots) Current(p leaderboard.Period) (leaderboard.Snapshot, bool) {
	s, ok := f[p]
	return s, ok
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
	return rec
}

func TestLeaderboard_Defaults(t *testing.T) {
	loader := &mockLoader{entries: []leaderboard.Entry{{Rank: 1, UserID: "u1"}}}
	rec := get(NewGetHandler(Options{Loader: loader}), "/api/leaderboard")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if loader.period != leaderboard.AllTime || loader.limit != 20 {
		t.Errorf("loaded %s/%d", loader.period, loader.limit)
	}
	var resp response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Period != leaderboard.AllTime || len(resp.Entries) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestLeaderboard_BadInput(t *testing.T) {
	h := NewGetHandler(Options{Loader: &mockLoader{}})
	for _, target := range []string{"/api/leaderboard?period=decade", "/api/leaderboard?limit=500", "/api/leaderboard?limit=x"} {
		if rec := get(h, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestLeaderboard_LoaderError(t *testing.T) {
	rec := get(NewGetHandler(Options{Loader: &mockLoader{err: errors.New("boom")}}), "/api/leaderboard?period=week")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestLeaderboard_ServesFreshSnapshot(t *testing.T) {
	loader := &mockLoader{}
	snaps := fixedSnapshots{
		leaderboard.Week: {
			Period:   leaderboard.Week,
			Entries:  []leaderboard.Entry{{Rank: 1}, {Rank: 2}, {Rank: 3}},
			Limit:    100,
			LoadedAt: time.Now(),
		},
		leaderboard.Month: {
			Period:   leaderboard.Month,
			Entries:  []leaderboard.Entry{{Rank: 1}},
			Limit:    100,
			LoadedAt: time.Now().Add(-time.Hour),
		},
	}
	h := NewGetHandler(Options{Loader: loader, Snapshots: snaps, MaxAge: 10 * time.Minute})

	rec := get(h, "/api/leaderboard?period=week&limit=2")
	var resp response
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Entries) != 2 || loader.calls != 0 {
		t.Errorf("entries = %d, loader calls = %d", len(resp.Entries), loader.calls)
	}

	// stale snapshot falls through to the loader
	get(h, "/api/leaderboard?period=month")
	if loader.calls != 1 {
		t.Errorf("loader calls = %d, want 1", loader.calls)
	}
}

func TestLeaderboard_TruncatedSnapshotNotReused(t *testing.T) {
	loader := &mockLoader{}
	snaps := fixedSnapshots{
		leaderboard.AllTime: {
			Entries:  []leaderboard.Entry{{Rank: 1}, {Rank: 2}},
			Limit:    2,
			LoadedAt: time.Now(),
		},
	}
	h := NewGetHandler(Options{Loader: loader, Snapshots: snaps})

	get(h, "/api/leaderboard?limit=50")
	if loader.calls != 1 {
		t.Errorf("a snapshot cut at its own limit cannot answer a larger one")
	}
}
