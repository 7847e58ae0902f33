package classify

import (
	"strings"

	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/patterns"
	"github.com/nvandessel/wingman/internal/rules"
)

// Profile infers the subject's personality profile from the context's
// personality field and the subject's own messages.
func Profile(rb *rules.Rulebook, ctx models.SubjectContext, history []models.Message) models.ProfileAssessment {
	scores := make([]int, len(rb.Profiles))
	personality := strings.ToLower(ctx.Personality)
	subject := models.SubjectMessages(history)

	for i, p := range rb.Profiles {
		if personality != "" && mentionsProfile(personality, p) {
			scores[i] += constants.PersonalityContextBonus
		}

		for _, m := range subject {
			if strings.TrimSpace(m.Message) == "" {
				continue
			}
			lower := patterns.Normalize(m.Message)
			scores[i] += patterns.CountMatches(lower, p.Indicators)
			scores[i] += heuristicPoints(p.Heuristics, m.Message, lower)
		}
	}

	best := pickBest(scores)
	p := rb.Profiles[best]
	return models.ProfileAssessment{
		Axis:               models.AxisProfile,
		Type:               p.Key,
		Label:              p.Label,
		Score:              scores[best],
		Confidence:         confidence(scores[best]),
		Explicit:           personality != "" && mentionsProfile(personality, p),
		Traits:             p.Traits,
		CommunicationStyle: p.CommunicationStyle,
		Approach:           p.Approach,
		Avoid:              p.Avoid,
	}
}

func mentionsProfile(personality string, p rules.ProfileDef) bool {
	if strings.Contains(personality, p.Key) {
		return true
	}
	for _, a := range p.Aliases {
		if a != "" && strings.Contains(personality, a) {
			return true
		}
	}
	return false
}
