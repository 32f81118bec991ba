// Package score converts raw session counts into net scores and tiers.
package score

import (
	"math"
	"strings"
)

// Tier is a performance tier identifier.
type Tier string

// Tiers from best to worst. TierNone marks sessions without a percentage.
const (
	TierLegendary Tier = "LEGENDARY"
	TierChampion  Tier = "CHAMPION"
	TierElite     Tier = "ELITE"
	TierRising    Tier = "RISING"
	TierNewbie    Tier = "NEWBIE"
	TierBeginner  Tier = "BEGINNER"
	TierNone      Tier = ""
)

type tierInfo struct {
	tier     Tier
	min      float64
	stars    int
	label    string
	subtitle string
}

// Evaluated top-down, first match wins. BEGINNER catches everything below 30.
var ladder = []tierInfo{
	{TierLegendary, 100, 5, "LEGENDARY", "Error 404: no rivals left"},
	{TierChampion, 90, 4, "CHAMPION DARK SOULS", "Circling the final boss"},
	{TierElite, 70, 3, "ELITE WARRIOR", "Ready to hunt the tough monsters"},
	{TierRising, 50, 2, "RISING STAR", "Slow but steady on the way to the top"},
	{TierNewbie, 30, 1, "NEWBIE POTENTIAL", "There is potential, keep working"},
	{TierBeginner, math.Inf(-1), 0, "SKYRIM ÇAYLAĞI", "Every expert was once a beginner"},
}

// Tiers returns all tiers from best to worst.
func Tiers() []Tier {
	out := make([]Tier, 0, len(ladder))
	for _, t := range ladder {
		out = append(out, t.tier)
	}
	return out
}

// Round2 rounds to two decimals, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeNet returns correct - incorrect/4 rounded to two decimals.
func ComputeNet(correct, incorrect int) float64 {
	return Round2(float64(correct) - float64(incorrect)/4)
}

// ComputePercentage returns net as a percentage of questionCount. ok is false
// when questionCount is not positive.
func ComputePercentage(net float64, questionCount int) (pct float64, ok bool) {
	if questionCount <= 0 {
		return 0, false
	}
	// Scaling before dividing keeps quarter-point nets exact at tier boundaries.
	return net * 100 / float64(questionCount), true
}

// ClassifyTier maps a percentage onto the tier ladder.
func ClassifyTier(percentage float64) Tier {
	if math.IsNaN(percentage) {
		return TierBeginner
	}
	for _, t := range ladder {
		if percentage >= t.min {
			return t.tier
		}
	}
	return TierBeginner
}

// Result is the full evaluation of one session.
type Result struct {
	Net           float64
	Percentage    float64
	HasPercentage bool
	Tier          Tier
}

// Evaluate computes net, percentage and tier for raw counts.
func Evaluate(questionCount, correct, incorrect int) Result {
	net := ComputeNet(correct, incorrect)
	pct, ok := ComputePercentage(net, questionCount)
	res := Result{Net: net, Percentage: pct, HasPercentage: ok}
	if ok {
		res.Tier = ClassifyTier(pct)
	}
	return res
}

func (t Tier) info() (tierInfo, bool) {
	for _, ti := range ladder {
		if ti.tier == t {
			return ti, true
		}
	}
	return tierInfo{}, false
}

// Stars returns the star rating, 0 for TierNone.
func (t Tier) Stars() int {
	ti, _ := t.info()
	return ti.stars
}

// Label returns the display label.
func (t Tier) Label() string {
	ti, ok := t.info()
	if !ok {
		return ""
	}
	return ti.label
}

// Subtitle returns the display tagline.
func (t Tier) Subtitle() string {
	ti, _ := t.info()
	return ti.subtitle
}

func (t Tier) String() string {
	if t == TierNone {
		return "NONE"
	}
	return string(t)
}

// StarBar renders the rating as five filled or empty stars.
func (t Tier) StarBar() string {
	n := t.Stars()
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// ParseTier accepts tier ids and display labels. Unknown values map to TierNone.
func ParseTier(value string) Tier {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, "NONE") {
		return TierNone
	}
	for _, ti := range ladder {
		if strings.EqualFold(v, string(ti.tier)) || strings.EqualFold(v, ti.label) {
			return ti.tier
		}
	}
	return TierNone
}

// Motivation returns an encouragement line for an average percentage.
func Motivation(percentage float64) string {
	switch {
	case percentage >= 90:
		return "Outstanding performance!"
	case percentage >= 70:
		return "You're doing great!"
	case percentage >= 50:
		return "You're on the right track!"
	case percentage >= 30:
		return "You're improving!"
	default:
		return "A little further every day!"
	}
}
