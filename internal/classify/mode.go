package classify

import (
	"unicode/utf8"

	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

// Communication mode keys.
const (
	ModeConsistent = "consistent"
	ModeFastShort  = "fast_short"
	ModeSlowLong   = "slow_long"
	ModeInitiates  = "initiates"
)

// ModeStats are the measurements behind a communication mode.
type ModeStats struct {
	Messages      int
	AverageLength float64
	Initiations   int
}

// CommunicationMode classifies how the subject messages. With fewer than
// two subject messages there is too little data and the result is always
// "consistent" with zero confidence.
func CommunicationMode(rb *rules.Rulebook, history []models.Message) models.ProfileAssessment {
	stats := measure(history)

	key := ModeConsistent
	conf := 0
	if stats.Messages >= constants.MinModeMessages {
		switch {
		case stats.AverageLength < constants.ShortMessageLength:
			key = ModeFastShort
		case stats.AverageLength > constants.LongMessageLength:
			key = ModeSlowLong
		}
		if float64(stats.Initiations) > float64(stats.Messages)*constants.InitiationRatio {
			key = ModeInitiates
		}
		conf = confidence(stats.Messages)
	}

	m, _ := rb.Mode(key)
	return models.ProfileAssessment{
		Axis:        models.AxisCommunicationMode,
		Type:        key,
		Label:       m.Label,
		Score:       stats.Messages,
		Confidence:  conf,
		Description: m.Description,
		Approach:    m.Approach,
	}
}

func measure(history []models.Message) ModeStats {
	subject := models.SubjectMessages(history)
	stats := ModeStats{Messages: len(subject)}
	if len(subject) == 0 {
		return stats
	}
	total := 0
	for _, m := range subject {
		total += utf8.RuneCountInString(m.Message)
		if m.IsInitiation {
			stats.Initiations++
		}
	}
	stats.AverageLength = float64(total) / float64(len(subject))
	return stats
}
