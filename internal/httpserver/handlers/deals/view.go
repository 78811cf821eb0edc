package deals

import (
	"time"

	"github.com/pauljones0/dealboard/internal/countdown"
	"github.com/pauljones0/dealboard/internal/models"
	"github.com/pauljones0/dealboard/internal/votes"
)

// View is a deal as the browser renders it, with the derived presentation
// fields computed server side.
type View struct {
	models.Deal
	Status      models.DealStatus   `json:"status"`
	Countdown   countdown.Remaining `json:"countdown"`
	TimeLeft    string              `json:"timeLeft"`
	VoteShare   votes.Share         `json:"voteShare"`
	WorkedShare votes.Share         `json:"workedShare"`
	Score       int                 `json:"score"`
	Heat        votes.Heat          `json:"heat"`
	Verified    bool                `json:"verified"`
}

func NewView(d models.Deal, now time.Time) View {
	remaining := countdown.Compute(d.ExpiresAt, now)
	return View{
		Deal:        d,
		Status:      d.Status(now),
		Countdown:   remaining,
		TimeLeft:    remaining.String(),
		VoteShare:   votes.Ratio(d.Upvotes, d.Downvotes),
		WorkedShare: votes.Ratio(d.WorkedYes, d.WorkedNo),
		Score:       votes.Score(d.Upvotes, d.Downvotes),
		Heat:        votes.HeatOf(d.Upvotes, d.Downvotes),
		Verified:    d.RecentlyVerified(now),
	}
}
