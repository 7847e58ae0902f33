// Package activation decides which rulebook rules fire for the facts
// derived during an analysis (profile, emotional state, stage, ...).
package activation

import (
	"fmt"
	"sort"
	"strings"
)

// Fact keys understood by rulebook 'when' conditions.
const (
	FactProfile           = "profile"
	FactEmotionalState    = "emotional_state"
	FactStage             = "stage"
	FactInterpretation    = "interpretation"
	FactCommunicationMode = "communication_mode"
)

// KnownFacts lists every fact key a condition may reference.
var KnownFacts = []string{
	FactProfile,
	FactEmotionalState,
	FactStage,
	FactInterpretation,
	FactCommunicationMode,
}

// IsKnownFact reports whether key is a recognized fact.
func IsKnownFact(key string) bool {
	for _, k := range KnownFacts {
		if k == key {
			return true
		}
	}
	return false
}

// Facts is the flat label view of an analysis used for rule matching.
// Missing keys are treated as absent, not as empty strings.
type Facts map[string]string

// Get returns the fact value and whether it is present.
func (f Facts) Get(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// MatchResult captures the outcome of evaluating a rule's when-conditions.
type MatchResult struct {
	Matched      bool                   // every condition confirmed
	Score        float64                // confirmed / total (0.0-1.0), 1 if no conditions
	Confirmed    map[string]interface{} // conditions that matched
	Absent       []string               // conditions with no fact value
	Contradicted []string               // conditions where the fact differed
}

// Evaluator matches 'when' maps against facts.
// A rule fires only when every condition is confirmed; an empty map always fires.
type Evaluator struct{}

// NewEvaluator creates a new evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Match evaluates one when-map against the facts.
func (e *Evaluator) Match(facts Facts, when map[string]interface{}) MatchResult {
	if len(when) == 0 {
		return MatchResult{Matched: true, Score: 1.0}
	}

	confirmed := make(map[string]interface{})
	var absent []string
	var contradicted []string

	for key, required := range when {
		actual, ok := facts.Get(key)
		switch {
		case !ok:
			absent = append(absent, key)
		case matchValue(actual, required):
			confirmed[key] = required
		default:
			contradicted = append(contradicted, key)
		}
	}

	sort.Strings(absent)
	sort.Strings(contradicted)

	return MatchResult{
		Matched:      len(absent) == 0 && len(contradicted) == 0,
		Score:        float64(len(confirmed)) / float64(len(when)),
		Confirmed:    confirmed,
		Absent:       absent,
		Contradicted: contradicted,
	}
}

// Fires is a convenience wrapper around Match.
func (e *Evaluator) Fires(facts Facts, when map[string]interface{}) bool {
	return e.Match(facts, when).Matched
}

// Explain describes why a when-map does or does not fire.
func (e *Evaluator) Explain(facts Facts, when map[string]interface{}) Explanation {
	if len(when) == 0 {
		return Explanation{Fires: true, Score: 1.0, Reason: "No conditions - always fires"}
	}

	mr := e.Match(facts, when)
	explanation := Explanation{Fires: mr.Matched, Score: mr.Score}

	keys := make([]string, 0, len(when))
	for k := range when {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actual, _ := facts.Get(key)
		cr := ConditionResult{Field: key, Required: when[key], Actual: actual}
		_, confirmed := mr.Confirmed[key]
		switch {
		case confirmed:
			cr.Status = "confirmed"
			cr.Matched = true
		case sliceContains(mr.Contradicted, key):
			cr.Status = "contradicted"
		default:
			cr.Status = "absent"
		}
		explanation.Conditions = append(explanation.Conditions, cr)
	}

	switch {
	case len(mr.Contradicted) > 0:
		explanation.Reason = fmt.Sprintf("Contradicted on: %s", strings.Join(mr.Contradicted, ", "))
	case len(mr.Absent) > 0:
		explanation.Reason = fmt.Sprintf("Missing facts: %s", strings.Join(mr.Absent, ", "))
	default:
		explanation.Reason = "All conditions confirmed"
	}

	return explanation
}

// Explanation reports the per-condition outcome of a when-map.
type Explanation struct {
	Fires      bool              `json:"fires"`
	Score      float64           `json:"score"`
	Reason     string            `json:"reason"`
	Conditions []ConditionResult `json:"conditions,omitempty"`
}

// ConditionResult shows the result of evaluating one 'when' condition
type ConditionResult struct {
	Field    string      `json:"field"`
	Required interface{} `json:"required"`
	Actual   string      `json:"actual"`
	Matched  bool        `json:"matched"`
	Status   string      `json:"status"` // "confirmed", "contradicted", "absent"
}

// RequiredValues flattens a condition value into its accepted strings.
// Returns nil for unsupported shapes.
func RequiredValues(required interface{}) []string {
	switch req := required.(type) {
	case string:
		return []string{req}
	case []string:
		return req
	case []interface{}:
		out := make([]string, 0, len(req))
		for _, option := range req {
			s, ok := option.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

// matchValue checks a fact against a required value: exact string or list membership.
func matchValue(actual string, required interface{}) bool {
	for _, option := range RequiredValues(required) {
		if strings.EqualFold(actual, option) {
			return true
		}
	}
	return false
}

func sliceContains(s []string, v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
