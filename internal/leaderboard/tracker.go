package leaderboard

import (
	"context"
	"sync"
	"time"
)

// Snapshot is the last committed leaderboard for a period.
type Snapshot struct {
	Period   Period    `json:"period"`
	Entries  []Entry   `json:"entries"`
	Limit    int       `json:"limit"`
	LoadedAt time.Time `json:"loadedAt"`
}

type Loader interface {
	Load(ctx context.Context, period Period, limit int) ([]Entry, error)
}

// Tracker keeps the latest leaderboard per period. Every load takes a
// generation number and may only commit while it is still the newest load
// for its period, so a slow earlier fetch can never overwrite a newer one.
type Tracker struct {
	loader Loader
	limit  int

	mu        sync.Mutex
	gens      map[Period]uint64
	snapshots map[Period]Snapshot
}

func NewTracker(loader Loader, limit int) *Tracker {
	return &Tracker{
		loader:    loader,
		limit:     limit,
		gens:      make(map[Period]uint64),
		snapshots: make(map[Period]Snapshot),
	}
}

func (t *Tracker) begin(p Period) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gens[p]++
	return t.gens[p]
}

func (t *Tracker) commit(p Period, gen uint64, snap Snapshot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gens[p] != gen {
		return false
	}
	t.snapshots[p] = snap
	return true
}

// Refresh loads period and commits the result unless a newer refresh for the
// same period started in the meantime. It reports whether it committed.
func (t *Tracker) Refresh(ctx context.Context, p Period) (bool, error) {
	gen := t.begin(p)
	entries, err := t.loader.Load(ctx, p, t.limit)
	if err != nil {
		return false, err
	}
	return t.commit(p, gen, Snapshot{Period: p, Entries: entries, Limit: t.limit, LoadedAt: time.Now()}), nil
}

// Current returns the committed snapshot for p, if any.
func (t *Tracker) Current(p Period) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.snapshots[p]
	return s, ok
}
