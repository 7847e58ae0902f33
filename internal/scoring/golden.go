package scoring

import (
	"fmt"

	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/patterns"
)

// Verdict statuses.
const (
	TrackYes       = "yes"
	TrackNo        = "no"
	TrackUncertain = "uncertain"
)

// AssessTrack decides whether the user is on the right track.
func AssessTrack(score models.ScoreResult, detections []models.Detection) models.TrackVerdict {
	positive, _, negative := patterns.Partition(detections)

	hasStrong := false
	for _, d := range positive {
		if d.Weight >= constants.StrongDetectionWeight {
			hasStrong = true
			break
		}
	}
	hasNegative := len(negative) > 0
	p := score.Percentile

	switch {
	case p >= constants.VeryPositivePercentile && !hasNegative:
		return models.TrackVerdict{
			Status:    TrackYes,
			Message:   "YES - You are on the right track!",
			Reasoning: "Multiple strong positive signals detected with no red flags",
		}
	case p >= constants.ModeratelyPositivePercentile && hasStrong:
		return models.TrackVerdict{
			Status:    TrackYes,
			Message:   "YES - Generally on the right track",
			Reasoning: "Strong positive indicators present, keep building momentum",
		}
	case hasNegative && p < constants.ModeratelyPositivePercentile:
		return models.TrackVerdict{
			Status:    TrackNo,
			Message:   "NOT YET - Need to reassess approach",
			Reasoning: "Negative patterns detected, interest may be low",
		}
	default:
		return models.TrackVerdict{
			Status:    TrackUncertain,
			Message:   "UNCLEAR - More data needed",
			Reasoning: "Signals are mixed, continue building connection and observe",
		}
	}
}

var recommendations = map[string][]string{
	TrackYes: {
		"Maintain current approach - it is working",
		"Look for opportunities to deepen connection",
		"Be consistent and authentic in your interactions",
	},
	TrackNo: {
		"Give them space and reassess their interest level",
		"Do not push harder - focus on building friendship first",
		"Be prepared that romantic interest may not be mutual",
	},
	TrackUncertain: {
		"Continue current pace without rushing",
		"Look for clearer signals over the next 2-3 interactions",
		"Be patient and let connection develop naturally",
	},
}

// Feedback renders strengths and concerns from detections plus the
// recommendations for the verdict.
func Feedback(detections []models.Detection, verdict models.TrackVerdict) models.Feedback {
	fb := models.Feedback{
		Strengths: []string{},
		Concerns:  []string{},
	}

	positive, _, negative := patterns.Partition(detections)
	for _, d := range positive {
		fb.Strengths = append(fb.Strengths, describe(d))
	}
	for _, d := range negative {
		fb.Concerns = append(fb.Concerns, describe(d))
	}

	recs, ok := recommendations[verdict.Status]
	if !ok {
		recs = recommendations[TrackUncertain]
	}
	fb.Recommendations = append([]string(nil), recs...)
	return fb
}

func describe(d models.Detection) string {
	return fmt.Sprintf("%s - %s", patterns.Normalize(d.Phrase), d.Interpretation)
}

// NextMilestone returns the next goal for a raw tiered total.
func NextMilestone(total float64) string {
	switch {
	case total < 10:
		return "First goal: Get consistent responses and basic conversation flow"
	case total < 20:
		return "Next milestone: Build rapport through shared interests and regular interaction"
	case total < 35:
		return "Next milestone: Achieve initiation from their side or deeper personal sharing"
	case total < 50:
		return "Next milestone: Create opportunities for one-on-one time and future plans"
	default:
		return "Next milestone: Express romantic interest or move toward dating"
	}
}

// Golden runs the full tiered analysis over detections.
func Golden(detections []models.Detection, maxPossible, k float64) models.GoldenAnalysis {
	if detections == nil {
		detections = []models.Detection{}
	}
	score := Percentile(detections, maxPossible, k)
	verdict := AssessTrack(score, detections)
	return models.GoldenAnalysis{
		Score:         score,
		Detections:    detections,
		Verdict:       verdict,
		Feedback:      Feedback(detections, verdict),
		NextMilestone: NextMilestone(score.Total),
	}
}
