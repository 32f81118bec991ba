package stats

import (
	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/score"
)

// TierCount is the number of sessions stored with one tier.
type TierCount struct {
	Tier  score.Tier
	Count int
}

// TierDistribution counts the stored tier of every record, best tier first.
// Tiers without sessions are omitted; sessions without a tier come last.
func TierDistribution(records []model.SessionRecord) []TierCount {
	counts := map[score.Tier]int{}
	for _, r := range records {
		counts[score.ParseTier(r.Tier)]++
	}
	var out []TierCount
	for _, t := range append(score.Tiers(), score.TierNone) {
		if n := counts[t]; n > 0 {
			out = append(out, TierCount{Tier: t, Count: n})
		}
	}
	return out
}
