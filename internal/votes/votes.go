// Package votes turns raw vote counts into the shares and heat levels shown
// next to a deal.
package votes

import "math"

// Share is the percentage split between affirmative and negative votes.
type Share struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// Ratio returns the rounded percentage split of yes and no. With no votes at
// all the split is 50/50. Negative counts are treated as zero.
func Ratio(yes, no int) Share {
	yes, no = max(yes, 0), max(no, 0)
	total := yes + no
	if total == 0 {
		return Share{Yes: 50, No: 50}
	}
	y := int(math.Round(float64(yes) * 100 / float64(total)))
	return Share{Yes: y, No: 100 - y}
}

// Score is the net community score of a deal.
func Score(up, down int) int {
	return max(up, 0) - max(down, 0)
}

// Heat buckets a deal by how strongly the community backs it.
type Heat string

const (
	HeatCold Heat = "cold"
	HeatWarm Heat = "warm"
	HeatHot  Heat = "hot"
	HeatLava Heat = "lava"
)

const (
	heatScoreThresholdWarm = 10
	heatScoreThresholdHot  = 50
	heatScoreThresholdLava = 150

	// Below this many votes a deal stays cold whatever its ratio.
	minVotesForHeat = 5
	minUpShareHot   = 70
)

// HeatOf classifies a deal from its up and down votes.
func HeatOf(up, down int) Heat {
	up, down = max(up, 0), max(down, 0)
	if up+down < minVotesForHeat {
		return HeatCold
	}
	score := Score(up, down)
	share := Ratio(up, down)
	switch {
	case score >= heatScoreThresholdLava && share.Yes >= minUpShareHot:
		return HeatLava
	case score >= heatScoreThresholdHot && share.Yes >= minUpShareHot:
		return HeatHot
	case score >= heatScoreThresholdWarm:
		return HeatWarm
	}
	return HeatCold
}
