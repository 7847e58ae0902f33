package classify

import (
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

// ScenarioIndicators collects the names a scenario can match on: detected
// signals, golden pattern categories, raised red flags, the emotional state
// and the stage. Order is stable and each name appears once.
func ScenarioIndicators(signals models.SignalReport, golden []models.Detection, flags models.RedFlagReport, state, stage string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}

	add(signals.Positive...)
	add(signals.Neutral...)
	add(signals.Negative...)
	for _, d := range golden {
		add(d.Category)
	}
	add(flags.Flags.Self...)
	add(flags.Flags.Other...)
	add(flags.Flags.Situational...)
	add(state, stage)
	return out
}

// Scenario matches indicators against the rulebook's scenarios. A decisive
// scenario with any overlap wins outright, first declared first. Otherwise
// the scenario with the strictly highest overlap wins, ties going to the
// one declared first, and no overlap at all yields the default scenario.
// The zero value is returned when the rulebook declares no scenarios.
func Scenario(rb *rules.Rulebook, indicators []string) models.ScenarioMatch {
	if len(rb.Scenarios) == 0 {
		return models.ScenarioMatch{}
	}

	present := make(map[string]bool, len(indicators))
	for _, ind := range indicators {
		present[ind] = true
	}

	matched := make([][]string, len(rb.Scenarios))
	scores := make([]int, len(rb.Scenarios))
	for i, sc := range rb.Scenarios {
		for _, ind := range sc.Indicators {
			if present[ind] {
				matched[i] = append(matched[i], ind)
			}
		}
		scores[i] = len(matched[i])
		if sc.Decisive && scores[i] > 0 {
			return scenarioMatch(sc, matched[i], false)
		}
	}

	best := pickBest(scores)
	if scores[best] == 0 {
		def, _ := rb.Scenario(rb.DefaultScenario)
		return scenarioMatch(def, nil, true)
	}
	return scenarioMatch(rb.Scenarios[best], matched[best], false)
}

func scenarioMatch(sc rules.ScenarioDef, matched []string, fallback bool) models.ScenarioMatch {
	if matched == nil {
		matched = []string{}
	}
	return models.ScenarioMatch{
		Key:         sc.Key,
		Label:       sc.Label,
		Description: sc.Description,
		RiskLevel:   sc.RiskLevel,
		Recommended: sc.Recommended,
		Avoid:       sc.Avoid,
		Matched:     matched,
		Fallback:    fallback,
	}
}
