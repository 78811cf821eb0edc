package leaderboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pauljones0/dealboard/internal/models"
)

type mockStore struct {
	top       []models.User
	deals     []models.Deal
	users     map[string]models.User
	err       error
	since     time.Time
	topCalls  int
	dealCalls int
}

func (m *mockStore) TopUsersByReputation(_ context.Context, limit int) ([]models.User, error) {
	m.topCalls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.top) > limit {
		return m.top[:limit], nil
	}
	return m.top, nil
}

func (m *mockStore) DealsCreatedSince(_ context.Context, since time.Time) ([]models.Deal, error) {
	m.dealCalls++
	m.since = since
	return m.deals, m.err
}

func (m *mockStore) GetUsersByIDs(_ context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", AllTime, false},
		{"all-time", AllTime, false},
		{"month", Month, false},
		{"week", Week, false},
		{"year", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestPeriodSince(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if !AllTime.Since(now).IsZero() {
		t.Error("all-time should have no lower bound")
	}
	if got := Week.Since(now); !got.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("Week.Since = %v", got)
	}
	if got := Month.Since(now); !got.Equal(time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Month.Since = %v", got)
	}
}

func TestLoad_AllTimeByReputation(t *testing.T) {
	store := &mockStore{top: []models.User{
		{ID: "a", Username: "alice", Reputation: 900},
		{ID: "b", Username: "bob", Reputation: 400},
	}}
	svc := NewService(store, nil, time.Minute)

	got, err := svc.Load(context.Background(), AllTime, 10)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 2 || got[0].Rank != 1 || got[0].Username != "alice" || got[1].Rank != 2 {
		t.Errorf("unexpected entries %+v", got)
	}
}

func TestLoad_WeekCountsSubmissions(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	store := &mockStore{
		deals: []models.Deal{
			{SubmittedBy: "b"}, {SubmittedBy: "a"}, {SubmittedBy: "b"},
			{SubmittedBy: "c"}, {SubmittedBy: ""},
		},
		users: map[string]models.User{
			"a": {ID: "a", Username: "alice", Reputation: 50},
			"b": {ID: "b", Username: "bob", Reputation: 10},
			"c": {ID: "c", Username: "carol", Reputation: 70},
		},
	}
	svc := NewService(store, nil, time.Minute)
	svc.now = func() time.Time { return now }

	got, err := svc.Load(context.Background(), Week, 2)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !store.since.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("queried since %v", store.since)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].UserID != "b" || got[0].Submissions != 2 {
		t.Errorf("first = %+v", got[0])
	}
	// tie on submissions broken by reputation
	if got[1].UserID != "c" || got[1].Rank != 2 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestLoad_NoRecentDeals(t *testing.T) {
	svc := NewService(&mockStore{}, nil, time.Minute)
	got, err := svc.Load(context.Background(), Month, 10)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestLoad_UsesCache(t *testing.T) {
	store := &mockStore{top: []models.User{{ID: "a", Username: "alice"}}}
	svc := NewService(store, &memCache{data: map[string][]byte{}}, time.Minute)
	ctx := context.Background()

	for range 3 {
		if _, err := svc.Load(ctx, AllTime, 5); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}
	if store.topCalls != 1 {
		t.Errorf("store hit %d times, want 1", store.topCalls)
	}
}

func TestLoad_StoreError(t *testing.T) {
	svc := NewService(&mockStore{err: errors.New("unavailable")}, nil, time.Minute)
	if _, err := svc.Load(context.Background(), AllTime, 5); err == nil {
		t.Fatal("expected error")
	}
}
