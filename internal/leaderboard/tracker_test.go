package leaderboard

import (
	"context"
	"errors"
	"testing"
)

// gatedLoader blocks each Load until the test releases it.
type gatedLoader struct {
	gates   chan chan []Entry
	started chan struct{}
	err     error
}

func (g *gatedLoader) Load(ctx context.Context, _ Period, _ int) ([]Entry, error) {
	if g.err != nil {
		return nil, g.err
	}
	gate := make(chan []Entry)
	g.gates <- gate
	select {
	case entries := <-gate:
		return entries, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestTracker_StaleRefreshDiscarded(t *testing.T) {
	loader := &gatedLoader{gates: make(chan chan []Entry, 2)}
	tr := NewTracker(loader, 10)
	ctx := context.Background()

	type result struct {
		committed bool
		err       error
	}
	first := make(chan result)
	go func() {
		ok, err := tr.Refresh(ctx, Week)
		first <- result{ok, err}
	}()
	slowGate := <-loader.gates

	second := make(chan result)
	go func() {
		ok, err := tr.Refresh(ctx, Week)
		second <- result{ok, err}
	}()
	fastGate := <-loader.gates

	fastGate <- []Entry{{UserID: "new"}}
	if r := <-second; !r.committed || r.err != nil {
		t.Fatalf("newer refresh should commit, got %+v", r)
	}
	slowGate <- []Entry{{UserID: "old"}}
	if r := <-first; r.committed {
		t.Fatal("older refresh must not commit after a newer one started")
	}

	snap, ok := tr.Current(Week)
	if !ok || len(snap.Entries) != 1 || snap.Entries[0].UserID != "new" {
		t.Errorf("Current = %+v, %v", snap, ok)
	}
}

func TestTracker_PeriodsIndependent(t *testing.T) {
	loader := &gatedLoader{gates: make(chan chan []Entry, 2)}
	tr := NewTracker(loader, 10)
	ctx := context.Background()

	done := make(chan bool, 2)
	go func() { ok, _ := tr.Refresh(ctx, Week); done <- ok }()
	weekGate := <-loader.gates
	go func() { ok, _ := tr.Refresh(ctx, Month); done <- ok }()
	monthGate := <-loader.gates

	monthGate <- []Entry{{UserID: "m"}}
	weekGate <- []Entry{{UserID: "w"}}
	if !<-done || !<-done {
		t.Fatal("refreshes for different periods should both commit")
	}
	if _, ok := tr.Current(AllTime); ok {
		t.Error("all-time was never loaded")
	}
}

func TestTracker_ErrorKeepsPreviousSnapshot(t *testing.T) {
	loader := &gatedLoader{gates: make(chan chan []Entry, 1)}
	tr := NewTracker(loader, 10)
	ctx := context.Background()

	go func() { (<-loader.gates) <- []Entry{{UserID: "a"}} }()
	if ok, err := tr.Refresh(ctx, AllTime); !ok || err != nil {
		t.Fatalf("Refresh() = %v, %v", ok, err)
	}

	loader.err = errors.New("boom")
	if _, err := tr.Refresh(ctx, AllTime); err == nil {
		t.Fatal("expected error")
	}
	if snap, ok := tr.Current(AllTime); !ok || snap.Entries[0].UserID != "a" {
		t.Errorf("previous snapshot lost: %+v", snap)
	}
}
