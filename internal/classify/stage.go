package classify

import (
	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

// Stage returns the relationship stage. A known stage named in the context
// wins outright with full confidence; otherwise the stage is inferred from
// the total message count and the subject's initiations.
func Stage(rb *rules.Rulebook, ctx models.SubjectContext, history []models.Message) models.ProfileAssessment {
	if ctx.CurrentStage != "" {
		if s, ok := rb.Stage(normalizeKey(ctx.CurrentStage)); ok {
			return stageAssessment(s, constants.MaxConfidence, true)
		}
	}

	messages := len(history)
	initiations := models.CountInitiations(history)

	var inferred []rules.StageDef
	for _, s := range rb.Stages {
		if s.Inferred {
			inferred = append(inferred, s)
		}
	}

	chosen := inferred[0]
	for i := len(inferred) - 1; i >= 0; i-- {
		s := inferred[i]
		if messages >= s.MinMessages && initiations >= s.MinInitiations {
			chosen = s
			break
		}
	}

	conf := messages * constants.StageConfidencePerMessage
	if conf > constants.MaxConfidence {
		conf = constants.MaxConfidence
	}
	return stageAssessment(chosen, conf, false)
}

func stageAssessment(s rules.StageDef, conf int, explicit bool) models.ProfileAssessment {
	return models.ProfileAssessment{
		Axis:        models.AxisStage,
		Type:        s.Key,
		Label:       s.Label,
		Confidence:  conf,
		Explicit:    explicit,
		Description: s.Description,
		Approach:    s.Goal,
	}
}
