package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nvandessel/wingman/internal/activation"
	"github.com/nvandessel/wingman/internal/models"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid rulebook")

// Communication modes the classifier can emit; each must be declared.
var requiredModes = []string{"consistent", "fast_short", "slow_long", "initiates"}

// Valid red-flag origins.
var validOrigins = map[string]bool{
	models.OriginSelf:        true,
	models.OriginOther:       true,
	models.OriginSituational: true,
}

var validRisks = map[string]bool{
	RiskLow:      true,
	RiskMedium:   true,
	RiskHigh:     true,
	RiskCritical: true,
}

// Validate checks the rulebook for structural problems and compiles
// heuristic patterns. A rulebook that fails validation must not be used.
func (rb *Rulebook) Validate() error {
	if rb == nil {
		return fmt.Errorf("%w: nil rulebook", ErrInvalid)
	}

	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if rb.Scoring.MaxPossible <= 0 {
		add("scoring.max_possible must be positive, got %v", rb.Scoring.MaxPossible)
	}
	if rb.Scoring.Smoothing < 0 {
		add("scoring.smoothing must be non-negative, got %v", rb.Scoring.Smoothing)
	}

	if len(rb.GoldenPatterns) == 0 {
		add("golden_patterns must not be empty")
	}
	validateCategories(add, "golden_patterns", rb.GoldenPatterns, 10)
	validateCategories(add, "signals", rb.Signals, 1)

	signals := make(map[string]bool, len(rb.Signals))
	for _, s := range rb.Signals {
		signals[s.Name] = true
	}

	if len(rb.Profiles) == 0 {
		add("profiles must not be empty")
	}
	seen := map[string]bool{}
	for i := range rb.Profiles {
		p := &rb.Profiles[i]
		if p.Key == "" {
			add("profiles[%d]: key is required", i)
		} else if seen[p.Key] {
			add("profiles: duplicate key %q", p.Key)
		}
		seen[p.Key] = true
		compileHeuristics(add, "profiles."+p.Key, p.Heuristics)
	}

	if len(rb.EmotionalStates) == 0 {
		add("emotional_states must not be empty")
	}
	states := map[string]bool{}
	for i := range rb.EmotionalStates {
		e := &rb.EmotionalStates[i]
		if e.Key == "" {
			add("emotional_states[%d]: key is required", i)
		} else if states[e.Key] {
			add("emotional_states: duplicate key %q", e.Key)
		}
		states[e.Key] = true
		compileHeuristics(add, "emotional_states."+e.Key, e.Heuristics)
	}
	for i, cue := range rb.EmotionCues {
		if !states[cue.State] {
			add("emotion_cues[%d]: unknown state %q", i, cue.State)
		}
		if len(cue.Phrases) == 0 {
			add("emotion_cues[%d]: phrases must not be empty", i)
		}
	}

	modes := map[string]bool{}
	for _, m := range rb.CommunicationModes {
		modes[m.Key] = true
	}
	for _, key := range requiredModes {
		if !modes[key] {
			add("communication_modes: missing required mode %q", key)
		}
	}

	validateStages(add, rb.Stages)

	for i, rf := range rb.RedFlags {
		if rf.Flag == "" {
			add("red_flags[%d]: flag is required", i)
		}
		if !validOrigins[rf.Origin] {
			add("red_flags[%d]: invalid origin %q (valid: self, other, situational)", i, rf.Origin)
		}
		if len(rf.Signals)+len(rf.Phrases)+len(rf.Statuses) == 0 {
			add("red_flags[%d]: needs at least one signal, phrase or status", i)
		}
		for _, s := range rf.Signals {
			if !signals[s] {
				add("red_flags[%d]: unknown signal %q", i, s)
			}
		}
	}

	validateScenarios(add, rb)

	validateTactics(add, rb)

	if rb.Tones.Default == "" {
		add("tones.default is required")
	}
	for i, tr := range rb.Tones.Rules {
		if tr.Tone == "" {
			add("tones.rules[%d]: tone is required", i)
		}
		validateWhen(add, fmt.Sprintf("tones.rules[%d]", i), tr.When)
	}

	validateBranches(add, rb.Branches, signals, states)

	if rb.Guide.DefaultTiming.Key == "" || rb.Guide.DefaultTiming.Text == "" {
		add("guide.default_timing needs key and text")
	}
	for i, tr := range rb.Guide.Timing {
		if tr.Key == "" || tr.Text == "" {
			add("guide.timing[%d]: needs key and text", i)
		}
		validateWhen(add, fmt.Sprintf("guide.timing[%d]", i), tr.When)
	}
	for i, ir := range rb.Guide.Instructions {
		if ir.Text == "" {
			add("guide.instructions[%d]: text is required", i)
		}
		if ir.Tactic != "" {
			if _, ok := rb.Tactic(ir.Tactic); !ok {
				add("guide.instructions[%d]: unknown tactic %q", i, ir.Tactic)
			}
		}
		validateWhen(add, fmt.Sprintf("guide.instructions[%d]", i), ir.When)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func validateCategories(add func(string, ...any), section string, cats []models.PatternCategory, maxAbs float64) {
	names := map[string]bool{}
	for i, c := range cats {
		if c.Name == "" {
			add("%s[%d]: name is required", section, i)
		} else if names[c.Name] {
			add("%s: duplicate name %q", section, c.Name)
		}
		names[c.Name] = true
		if c.Weight < -maxAbs || c.Weight > maxAbs {
			add("%s.%s: weight %v outside [-%v, %v]", section, c.Name, c.Weight, maxAbs, maxAbs)
		}
		if len(c.Phrases) == 0 {
			add("%s.%s: phrases must not be empty", section, c.Name)
		}
		for _, p := range c.Phrases {
			if strings.TrimSpace(p) == "" {
				add("%s.%s: empty phrase", section, c.Name)
			}
		}
	}
}

func compileHeuristics(add func(string, ...any), section string, hs []Heuristic) {
	for j := range hs {
		h := &hs[j]
		// Already compiled rulebooks are revalidated without writes.
		if h.Pattern == "" || h.re != nil {
			continue
		}
		re, err := regexp.Compile(h.Pattern)
		if err != nil {
			add("%s.heuristics[%d]: bad pattern: %v", section, j, err)
			continue
		}
		h.re = re
	}
}

func validateStages(add func(string, ...any), stages []StageDef) {
	if len(stages) == 0 {
		add("stages must not be empty")
		return
	}
	keys := map[string]bool{}
	var inferred []StageDef
	for i, s := range stages {
		if s.Key == "" {
			add("stages[%d]: key is required", i)
		} else if keys[s.Key] {
			add("stages: duplicate key %q", s.Key)
		}
		keys[s.Key] = true
		if s.Inferred {
			inferred = append(inferred, s)
		}
	}
	if len(inferred) == 0 {
		add("stages: at least one inferred stage is required")
		return
	}
	if inferred[0].MinMessages != 0 || inferred[0].MinInitiations != 0 {
		add("stages: first inferred stage %q must have zero thresholds", inferred[0].Key)
	}
	for i := 1; i < len(inferred); i++ {
		if inferred[i].MinMessages < inferred[i-1].MinMessages {
			add("stages: inferred stage %q thresholds must ascend", inferred[i].Key)
		}
	}
}

func validateScenarios(add func(string, ...any), rb *Rulebook) {
	if len(rb.Scenarios) == 0 {
		if rb.DefaultScenario != "" {
			add("default_scenario %q set but no scenarios declared", rb.DefaultScenario)
		}
		return
	}

	vocab := map[string]bool{}
	for _, c := range rb.GoldenPatterns {
		vocab[c.Name] = true
	}
	for _, c := range rb.Signals {
		vocab[c.Name] = true
	}
	for _, rf := range rb.RedFlags {
		vocab[rf.Flag] = true
	}
	for _, e := range rb.EmotionalStates {
		vocab[e.Key] = true
	}
	for _, st := range rb.Stages {
		vocab[st.Key] = true
	}

	keys := map[string]bool{}
	for i, sc := range rb.Scenarios {
		section := fmt.Sprintf("scenarios[%d]", i)
		if sc.Key == "" {
			add("%s: key is required", section)
		} else if keys[sc.Key] {
			add("scenarios: duplicate key %q", sc.Key)
		}
		keys[sc.Key] = true
		if !validRisks[sc.RiskLevel] {
			add("%s: invalid risk_level %q (valid: low, medium, high, critical)", section, sc.RiskLevel)
		}
		if len(sc.Indicators) == 0 {
			add("%s: indicators must not be empty", section)
		}
		for _, ind := range sc.Indicators {
			if !vocab[ind] {
				add("%s: unknown indicator %q", section, ind)
			}
		}
	}
	if rb.DefaultScenario == "" {
		add("default_scenario is required when scenarios are declared")
	} else if !keys[rb.DefaultScenario] {
		add("default_scenario %q is not a known scenario", rb.DefaultScenario)
	}
}

func validateTactics(add func(string, ...any), rb *Rulebook) {
	keys := map[string]bool{}
	names := map[string]bool{}
	for i, t := range rb.Tactics {
		if t.Key == "" || t.Name == "" {
			add("tactics[%d]: key and name are required", i)
			continue
		}
		if keys[t.Key] {
			add("tactics: duplicate key %q", t.Key)
		}
		if names[t.Name] {
			add("tactics: duplicate name %q", t.Name)
		}
		keys[t.Key] = true
		names[t.Name] = true
	}
	if rb.BaselineTactic == "" {
		add("baseline_tactic is required")
	} else if !keys[rb.BaselineTactic] {
		add("baseline_tactic %q is not a known tactic", rb.BaselineTactic)
	}
	if rb.MaxTactics < 1 {
		add("max_tactics must be at least 1, got %d", rb.MaxTactics)
	}
	for i, tr := range rb.TacticRules {
		section := fmt.Sprintf("tactic_rules[%d]", i)
		if len(tr.Add) == 0 {
			add("%s: add must not be empty", section)
		}
		for _, k := range tr.Add {
			if !keys[k] {
				add("%s: unknown tactic %q", section, k)
			}
		}
		validateWhen(add, section, tr.When)
	}
}

func validateWhen(add func(string, ...any), section string, when map[string]interface{}) {
	for key, v := range when {
		if !activation.IsKnownFact(key) {
			add("%s: unknown condition %q", section, key)
			continue
		}
		if len(activation.RequiredValues(v)) == 0 {
			add("%s: condition %q must be a string or list of strings", section, key)
		}
	}
}

func validateBranches(add func(string, ...any), branches []MessageBranch, signals, states map[string]bool) {
	if len(branches) == 0 {
		add("message_branches must not be empty")
		return
	}
	if !branches[len(branches)-1].IsFallback() {
		add("message_branches: last branch must be an unconditional fallback")
	}
	for i, b := range branches {
		section := fmt.Sprintf("message_branches[%d]", i)
		if b.Key == "" {
			add("%s: key is required", section)
		}
		if b.Signal != "" && !signals[b.Signal] {
			add("%s: unknown signal %q", section, b.Signal)
		}
		if b.EmotionalState != "" && !states[b.EmotionalState] {
			add("%s: unknown emotional state %q", section, b.EmotionalState)
		}
		if _, ok := b.Templates[DefaultTone]; !ok {
			add("%s: templates.%s is required", section, DefaultTone)
		}
		for tone, set := range b.Templates {
			if len(set) != 3 {
				add("%s.templates.%s: need exactly 3 templates, got %d", section, tone, len(set))
				continue
			}
			if set[0] == "" || set[1] == "" || set[2] == "" {
				add("%s.templates.%s: templates must not be empty", section, tone)
			}
			if set[0] == set[1] || set[0] == set[2] || set[1] == set[2] {
				add("%s.templates.%s: templates must be distinct", section, tone)
			}
		}
	}
}
