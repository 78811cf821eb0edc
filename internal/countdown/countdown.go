// Package countdown computes the time left on a deal and streams it once per
// second for live displays.
package countdown

import (
	"context"
	"fmt"
	"time"
)

// Remaining is the time left until a deal expires, split for display.
type Remaining struct {
	Days     int  `json:"days"`
	Hours    int  `json:"hours"`
	Minutes  int  `json:"minutes"`
	Seconds  int  `json:"seconds"`
	Expired  bool `json:"expired"`
	NoExpiry bool `json:"noExpiry,omitempty"`
}

// Compute splits expiresAt-now into days, hours, minutes and seconds. Any
// non-positive remainder is reported as expired with every field zero.
func Compute(expiresAt, now time.Time) Remaining {
	if expiresAt.IsZero() {
		return Remaining{NoExpiry: true}
	}
	left := expiresAt.Sub(now)
	if left <= 0 {
		return Remaining{Expired: true}
	}
	total := int64(left / time.Second)
	return Remaining{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

func (r Remaining) String() string {
	switch {
	case r.NoExpiry:
		return "no expiry"
	case r.Expired:
		return "expired"
	}
	return fmt.Sprintf("%dd %02dh %02dm %02ds", r.Days, r.Hours, r.Minutes, r.Seconds)
}

// Clock abstracts wall time and tickers so Watch can be driven in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of *time.Ticker that Watch needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

type realTicker struct{ t *time.Ticker }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// SystemClock is the wall clock.
var SystemClock Clock = realClock{}

// Watch emits the current Remaining immediately and then once per second.
// The channel is closed after the expired state has been sent, when ctx is
// cancelled, or straight away for deals without an expiry. The ticker is
// always stopped before the channel closes.
func Watch(ctx context.Context, expiresAt time.Time, clock Clock) <-chan Remaining {
	if clock == nil {
		clock = SystemClock
	}
	out := make(chan Remaining)

	go func() {
		defer close(out)

		ticker := clock.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			r := Compute(expiresAt, clock.Now())
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
			if r.Expired || r.NoExpiry {
				return
			}

			select {
			case <-ticker.C():
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
