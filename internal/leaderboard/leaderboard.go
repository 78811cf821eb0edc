// Package leaderboard ranks community members by reputation or recent
// submissions.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/pauljones0/dealboard/internal/cache"
	"github.com/pauljones0/dealboard/internal/models"
)

// Period selects the time window a leaderboard covers.
type Period string

const (
	AllTime Period = "all-time"
	Month   Period = "month"
	Week    Period = "week"
)

// Periods lists every supported period.
var Periods = []Period{AllTime, Month, Week}

// ParsePeriod maps a query value to a Period. Empty means all-time.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", AllTime:
		return AllTime, nil
	case Month, Week:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown leaderboard period %q", s)
}

// Since returns the start of the window, or the zero time for all-time.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case Week:
		return now.AddDate(0, 0, -7)
	case Month:
		return now.AddDate(0, -1, 0)
	}
	return time.Time{}
}

// Entry is one ranked user.
type Entry struct {
	Rank        int      `json:"rank"`
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	Reputation  int      `json:"reputation"`
	Badges      []string `json:"badges,omitempty"`
	Submissions int      `json:"submissions"`
}

type Store interface {
	TopUsersByReputation(ctx context.Context, limit int) ([]models.User, error)
	DealsCreatedSince(ctx context.Context, since time.Time) ([]models.Deal, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

type Service struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewService(store Store, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{store: store, cache: c, ttl: ttl, now: time.Now}
}

// Load ranks at most limit users for period.
func (s *Service) Load(ctx context.Context, period Period, limit int) ([]Entry, error) {
	key := fmt.Sprintf("leaderboard:%s:%d", period, limit)
	var cached []Entry
	if cache.GetJSON(ctx, s.cache, key, &cached) {
		return cached, nil
	}

	var (
		entries []Entry
		err     error
	)
	if period == AllTime {
		entries, err = s.byReputation(ctx, limit)
	} else {
		entries, err = s.bySubmissions(ctx, period.Since(s.now()), limit)
	}
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, entries, s.ttl); err != nil {
		slog.Warn("Failed to cache leaderboard", "period", period, "error", err)
	}
	return entries, nil
}

func (s *Service) byReputation(ctx context.Context, limit int) ([]Entry, error) {
	users, err := s.store.TopUsersByReputation(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top users: %w", err)
	}
	entries := make([]Entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, Entry{
			Rank:        i + 1,
			UserID:      u.ID,
			Username:    u.Username,
			Reputation:  u.Reputation,
			Badges:      u.Badges,
			Submissions: u.SubmissionCount,
		})
	}
	return entries, nil
}

func (s *Service) bySubmissions(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	deals, err := s.store.DealsCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent deals: %w", err)
	}
	counts := make(map[string]int)
	for _, d := range deals {
		if d.SubmittedBy != "" {
			counts[d.SubmittedBy]++
		}
	}
	if len(counts) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		u := users[id]
		entries = append(entries, Entry{
			UserID:      id,
			Username:    u.Username,
			Reputation:  u.Reputation,
			Badges:      u.Badges,
			Submissions: counts[id],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Submissions != b.Submissions {
			return a.Submissions > b.Submissions
		}
		if a.Reputation != b.Reputation {
			return a.Reputation > b.Reputation
		}
		return a.UserID < b.UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
