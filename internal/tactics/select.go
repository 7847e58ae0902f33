// Package tactics selects the strategic tactics for an analysis.
package tactics

import (
	"github.com/nvandessel/wingman/internal/activation"
	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

// Input is the classifier and scoring output the selector conditions on.
type Input struct {
	Profile           string
	EmotionalState    string
	Stage             string
	Interpretation    string
	CommunicationMode string
}

// Facts exposes the input to rulebook when-conditions.
func (in Input) Facts() activation.Facts {
	return activation.Facts{
		activation.FactProfile:           in.Profile,
		activation.FactEmotionalState:    in.EmotionalState,
		activation.FactStage:             in.Stage,
		activation.FactInterpretation:    in.Interpretation,
		activation.FactCommunicationMode: in.CommunicationMode,
	}
}

type pick struct {
	tactic models.Tactic
	forced bool
}

// Select runs the tactic rules in order and returns the accumulated
// tactics, deduplicated by name (first occurrence wins) and capped at the
// rulebook's max_tactics. Tactics added by a forced rule survive the cap by
// displacing the last entry that is neither forced nor the baseline.
func Select(rb *rules.Rulebook, in Input) []models.Tactic {
	ev := activation.NewEvaluator()
	facts := in.Facts()

	var picks []pick
	index := make(map[string]int)
	for _, rule := range rb.TacticRules {
		if !ev.Fires(facts, rule.When) {
			continue
		}
		for _, key := range rule.Add {
			t, ok := rb.Tactic(key)
			if !ok {
				continue
			}
			if i, dup := index[t.Name]; dup {
				if rule.Force {
					picks[i].forced = true
				}
				continue
			}
			index[t.Name] = len(picks)
			picks = append(picks, pick{tactic: t, forced: rule.Force})
		}
	}

	limit := rb.MaxTactics
	if limit <= 0 {
		limit = constants.DefaultMaxTactics
	}
	picks = capPicks(picks, limit, rb.BaselineTactic)

	if len(picks) == 0 {
		if t, ok := rb.Tactic(rb.BaselineTactic); ok {
			return []models.Tactic{t}
		}
		return []models.Tactic{}
	}

	out := make([]models.Tactic, len(picks))
	for i, p := range picks {
		out[i] = p.tactic
	}
	return out
}

// RuleTrace explains one tactic rule's outcome for an input.
type RuleTrace struct {
	Index       int                    `json:"index"`
	Add         []string               `json:"add"`
	Force       bool                   `json:"force,omitempty"`
	Explanation activation.Explanation `json:"explanation"`
}

// Explain reports, rule by rule, whether each tactic rule fires for in
// and which conditions decided it.
func Explain(rb *rules.Rulebook, in Input) []RuleTrace {
	ev := activation.NewEvaluator()
	facts := in.Facts()
	traces := make([]RuleTrace, len(rb.TacticRules))
	for i, rule := range rb.TacticRules {
		traces[i] = RuleTrace{
			Index:       i,
			Add:         rule.Add,
			Force:       rule.Force,
			Explanation: ev.Explain(facts, rule.When),
		}
	}
	return traces
}

// Fired keeps the traces whose rule fired.
func Fired(traces []RuleTrace) []RuleTrace {
	var out []RuleTrace
	for _, t := range traces {
		if t.Explanation.Fires {
			out = append(out, t)
		}
	}
	return out
}

func capPicks(picks []pick, limit int, baseline string) []pick {
	if len(picks) <= limit {
		return picks
	}
	kept := append([]pick(nil), picks[:limit]...)
	for _, p := range picks[limit:] {
		if !p.forced {
			continue
		}
		victim := -1
		for i := len(kept) - 1; i >= 0; i-- {
			if !kept[i].forced && kept[i].tactic.Key != baseline {
				victim = i
				break
			}
		}
		if victim < 0 {
			continue
		}
		kept = append(kept[:victim], kept[victim+1:]...)
		kept = append(kept, p)
	}
	return kept
}
