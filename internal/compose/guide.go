package compose

import (
	"github.com/nvandessel/wingman/internal/activation"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

// Guide builds the timing advice and behavioral instructions. Timing rules
// are first-match; every instruction whose conditions fire is included,
// and tactic-bound instructions also require that tactic to be selected.
func Guide(rb *rules.Rulebook, profile, state, mode string, selected []models.Tactic) models.BehavioralGuide {
	ev := activation.NewEvaluator()
	facts := activation.Facts{
		activation.FactProfile:           profile,
		activation.FactEmotionalState:    state,
		activation.FactCommunicationMode: mode,
	}

	guide := models.BehavioralGuide{
		Timing:       rb.Guide.DefaultTiming.Text,
		TimingKey:    rb.Guide.DefaultTiming.Key,
		Instructions: []string{},
	}
	for _, r := range rb.Guide.Timing {
		if ev.Fires(facts, r.When) {
			guide.Timing = r.Text
			guide.TimingKey = r.Key
			break
		}
	}

	keys := make(map[string]bool, len(selected))
	for _, t := range selected {
		keys[t.Key] = true
	}
	for _, r := range rb.Guide.Instructions {
		if r.Tactic != "" && !keys[r.Tactic] {
			continue
		}
		if !ev.Fires(facts, r.When) {
			continue
		}
		guide.Instructions = append(guide.Instructions, r.Text)
	}
	return guide
}
