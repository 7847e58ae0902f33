package scoring

import (
	"math"

	"github.com/nvandessel/wingman/internal/models"
)

// Signals reduces interest-signal detections to a flat report. Each signal
// name counts once no matter how many of its phrases matched; neutral
// signals are listed but do not move the score.
func Signals(detections []models.Detection) models.SignalReport {
	report := models.SignalReport{
		Positive: []string{},
		Neutral:  []string{},
		Negative: []string{},
	}

	seen := make(map[string]bool, len(detections))
	var weights []float64
	for _, d := range detections {
		if seen[d.Category] {
			continue
		}
		seen[d.Category] = true

		switch models.PolarityOf(d.Weight) {
		case models.PolarityPositive:
			report.Positive = append(report.Positive, d.Category)
			weights = append(weights, d.Weight)
		case models.PolarityNegative:
			report.Negative = append(report.Negative, d.Category)
			weights = append(weights, d.Weight)
		default:
			report.Neutral = append(report.Neutral, d.Category)
		}
	}

	report.Interest = InterestScore(weights)
	report.Score = int(math.Round(report.Interest * 100))
	report.Confidence = SignalConfidence(report.Interest)
	report.Interpretation = Interpret(report.Interest)
	report.Band = InterestBand(report.Interest)
	return report
}
