// Package scoring reduces detections to scores.
//
// Two scorers live here and are intentionally kept apart:
//   - Percentile: tiered weights smoothed by a fixed constant into 0..100
//   - InterestScore: flat per-signal weights smoothed by the signal count into 0..1
//
// They have different neutral points (Percentile of nothing is a
// configuration-dependent baseline, InterestScore of nothing is 0.5).
package scoring

import (
	"math"

	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/models"
)

// Percentile sums detection weights and maps the total onto 0..100 as
// clamp(0, 100, round((total+k)/(maxPossible+k)*100)).
func Percentile(detections []models.Detection, maxPossible, k float64) models.ScoreResult {
	total := 0.0
	for _, d := range detections {
		total += d.Weight
	}
	p := PercentileOf(total, maxPossible, k)
	b := BandFor(p)
	return models.ScoreResult{
		Total:       total,
		MaxPossible: maxPossible,
		Percentile:  p,
		Level:       b.Level,
		Message:     b.Message,
		Confidence:  b.Confidence,
		Action:      b.Action,
	}
}

// PercentileOf maps a raw total onto 0..100.
func PercentileOf(total, maxPossible, k float64) int {
	denom := maxPossible + k
	if denom <= 0 {
		return 0
	}
	p := math.Round((total + k) / denom * 100)
	return int(clamp(p, 0, 100))
}

// NeutralPercentile is the percentile of an empty detection list.
func NeutralPercentile(maxPossible, k float64) int {
	return PercentileOf(0, maxPossible, k)
}

// InterestScore computes the flat interest probability:
// count>0 ? clamp(0, 1, (sum+count)/(count*2)) : 0.5.
func InterestScore(weights []float64) float64 {
	count := len(weights)
	if count == 0 {
		return constants.NeutralInterest
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	return clamp((sum+float64(count))/float64(count*2), 0, 1)
}

// Band is the reading attached to a percentile range.
type Band struct {
	Min        int
	Level      string
	Message    string
	Confidence string
	Action     string
}

// percentileBands is ordered from the highest floor down.
var percentileBands = []Band{
	{
		Min:        constants.ExceptionalPercentile,
		Level:      "EXCEPTIONAL",
		Message:    "This is outstanding! They are showing very strong interest signals.",
		Confidence: "Very High",
		Action:     "Continue current approach and consider moving relationship forward",
	},
	{
		Min:        constants.VeryPositivePercentile,
		Level:      "VERY POSITIVE",
		Message:    "Things are going well. Multiple positive indicators present.",
		Confidence: "High",
		Action:     "Build on this momentum with consistent engagement",
	},
	{
		Min:        constants.ModeratelyPositivePercentile,
		Level:      "MODERATELY POSITIVE",
		Message:    "Some positive signs, but not clear-cut yet.",
		Confidence: "Moderate",
		Action:     "Continue building rapport and look for clearer signals",
	},
	{
		Min:        constants.UnclearPercentile,
		Level:      "UNCLEAR",
		Message:    "Mixed signals present. Need more information.",
		Confidence: "Low",
		Action:     "Be patient and observe patterns over time",
	},
	{
		Min:        0,
		Level:      "CONCERNING",
		Message:    "Interest signals are weak or negative patterns are present.",
		Confidence: "High",
		Action:     "Consider if pursuing this is the best path forward",
	},
}

// BandFor returns the band a percentile falls in.
func BandFor(percentile int) Band {
	for _, b := range percentileBands {
		if percentile >= b.Min {
			return b
		}
	}
	return percentileBands[len(percentileBands)-1]
}

// Level labels a percentile.
func Level(percentile int) string {
	return BandFor(percentile).Level
}

// SignalConfidence is how far the flat interest sits from the neutral
// midpoint, on 0..1: 0 is a coin flip, 1 is certain either way.
func SignalConfidence(interest float64) float64 {
	return clamp(math.Abs(interest-constants.NeutralInterest)*2, 0, 1)
}

// Interpretation labels produced by Interpret.
const (
	VeryPositive = "very_positive"
	Positive     = "positive"
	Neutral      = "neutral"
	Unclear      = "unclear"
	Concerning   = "concerning"
)

// Interpret labels a flat interest score.
func Interpret(interest float64) string {
	switch {
	case interest > constants.VeryPositiveInterest:
		return VeryPositive
	case interest > constants.PositiveInterest:
		return Positive
	case interest < constants.ConcerningInterest:
		return Concerning
	case interest < constants.UnclearInterest:
		return Unclear
	default:
		return Neutral
	}
}

// InterestBand gives the human-facing interest label.
func InterestBand(interest float64) string {
	switch {
	case interest >= constants.StrongInterestBand:
		return "strong_interest"
	case interest >= constants.ModerateInterestBand:
		return "moderate_interest"
	case interest >= constants.WeakInterestBand:
		return "weak_interest"
	default:
		return "likely_disinterest"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
