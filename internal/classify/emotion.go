package classify

import (
	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/patterns"
	"github.com/nvandessel/wingman/internal/rules"
)

// indicatorPoints is awarded per emotional indicator phrase found.
const indicatorPoints = 2

// EmotionalState reads the subject's latest message among the last few
// turns, then lets an explicit cue in the narrative ("she seems sad")
// override whatever the message suggested.
func EmotionalState(rb *rules.Rulebook, narrative string, history []models.Message) models.ProfileAssessment {
	best := 0
	bestScore := 0

	if last, ok := lastSubjectMessage(history, constants.EmotionRecentTurns); ok {
		lower := patterns.Normalize(last.Message)
		for i, e := range rb.EmotionalStates {
			score := indicatorPoints * patterns.CountMatches(lower, e.Indicators)
			score += heuristicPoints(e.Heuristics, last.Message, lower)
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
	}

	key := rb.EmotionalStates[best].Key
	explicit := false
	if narrative != "" {
		lowerNarrative := patterns.Normalize(narrative)
		for _, cue := range rb.EmotionCues {
			if patterns.ContainsAny(lowerNarrative, cue.Phrases) {
				key = cue.State
				bestScore = constants.NarrativeCueScore
				explicit = true
				break
			}
		}
	}

	e, _ := rb.EmotionalState(key)
	return models.ProfileAssessment{
		Axis:       models.AxisEmotionalState,
		Type:       e.Key,
		Label:      e.Label,
		Score:      bestScore,
		Confidence: confidence(bestScore),
		Explicit:   explicit,
		Approach:   e.Approach,
		Avoid:      e.Avoid,
	}
}

// lastSubjectMessage finds the most recent subject turn within the trailing window.
func lastSubjectMessage(history []models.Message, window int) (models.Message, bool) {
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		if history[i].FromSubject() {
			return history[i], true
		}
	}
	return models.Message{}, false
}
