package leaderboard

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pauljones0/dealboard/internal/httpserver/query"
	"github.com/pauljones0/dealboard/internal/httpserver/respond"
	"github.com/pauljones0/dealboard/internal/leaderboard"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Loader interface {
	Load(ctx context.Context, period leaderboard.Period, limit int) ([]leaderboard.Entry, error)
}

type Snapshots interface {
	Current(p leaderboard.Period) (leaderboard.Snapshot, bool)
}

type Options struct {
	Log    *slog.Logger
	Loader Loader
	// Snapshots, when set, answers requests from the background warmer's
	// results while they are younger than MaxAge.
	Snapshots Snapshots
	MaxAge    time.Duration
	Timeout   time.Duration
}

type response struct {
	Period  leaderboard.Period  `json:"period"`
	Entries []leaderboard.Entry `json:"entries"`
}

// NewGetHandler serves GET /api/leaderboard?period=&limit=.
func NewGetHandler(opts Options) http.HandlerFunc {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		period, err := leaderboard.ParsePeriod(r.URL.Query().Get("period"))
		if err != nil {
			respond.BadRequest(w, err.Error())
			return
		}
		limit, err := query.Limit(r, "limit", defaultLimit, maxLimit)
		if err != nil {
			respond.BadRequest(w, err.Error())
			return
		}

		if entries, ok := fromSnapshot(opts, period, limit); ok {
			respond.JSON(w, http.StatusOK, response{Period: period, Entries: entries})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), opts.Timeout)
		defer cancel()

		entries, err := opts.Loader.Load(ctx, period, limit)
		if err != nil {
			log.Error("load leaderboard failed", "period", period, "error", err)
			respond.InternalError(w)
			return
		}
		respond.JSON(w, http.StatusOK, response{Period: period, Entries: entries})
	}
}

// fromSnapshot serves from a warm snapshot when it is fresh and holds at
// least limit entries, or fewer because that is everyone there is.
func fromSnapshot(opts Options, period leaderboard.Period, limit int) ([]leaderboard.Entry, bool) {
	if opts.Snapshots == nil {
		return nil, false
	}
	snap, ok := opts.Snapshots.Current(period)
	if !ok || (opts.MaxAge > 0 && time.Since(snap.LoadedAt) > opts.MaxAge) {
		return nil, false
	}
	if len(snap.Entries) < limit && len(snap.Entries) == snap.Limit {
		return nil, false
	}
	if len(snap.Entries) > limit {
		return snap.Entries[:limit], true
	}
	return snap.Entries, true
}
