// Package rules holds the rulebook: the weighted pattern library, signal
// library, classifier label tables, tactic table and message templates the
// decision engine runs on. A Rulebook is immutable once validated; reloads
// swap a whole new Rulebook through a Holder.
package rules

import (
	"regexp"

	"github.com/nvandessel/wingman/internal/models"
)

// Rulebook is the complete configuration payload consumed by the engine.
type Rulebook struct {
	Version string `json:"version" yaml:"version"`

	Scoring   ScoringRules   `json:"scoring" yaml:"scoring"`
	Detection DetectionRules `json:"detection" yaml:"detection"`

	// GoldenPatterns is the tiered library scored into a percentile.
	GoldenPatterns []models.PatternCategory `json:"golden_patterns" yaml:"golden_patterns"`

	// Signals is the flat library scored into a 0..1 interest probability.
	Signals []models.PatternCategory `json:"signals" yaml:"signals"`

	// Label tables, in declaration order. The first declared label wins ties.
	Profiles           []ProfileDef `json:"profiles" yaml:"profiles"`
	EmotionalStates    []EmotionDef `json:"emotional_states" yaml:"emotional_states"`
	EmotionCues        []EmotionCue `json:"emotion_cues" yaml:"emotion_cues"`
	CommunicationModes []ModeDef    `json:"communication_modes" yaml:"communication_modes"`
	Stages             []StageDef   `json:"stages" yaml:"stages"`

	RedFlags []RedFlagRule `json:"red_flags" yaml:"red_flags"`

	// Scenarios are matched by indicator overlap in declaration order;
	// DefaultScenario is used when nothing overlaps.
	Scenarios       []ScenarioDef `json:"scenarios" yaml:"scenarios"`
	DefaultScenario string        `json:"default_scenario" yaml:"default_scenario"`

	Tactics        []models.Tactic `json:"tactics" yaml:"tactics"`
	TacticRules    []TacticRule    `json:"tactic_rules" yaml:"tactic_rules"`
	BaselineTactic string          `json:"baseline_tactic" yaml:"baseline_tactic"`
	MaxTactics     int             `json:"max_tactics" yaml:"max_tactics"`

	Tones    ToneRules       `json:"tones" yaml:"tones"`
	Branches []MessageBranch `json:"message_branches" yaml:"message_branches"`
	Guide    GuideRules      `json:"guide" yaml:"guide"`

	FallbackAdvice   string `json:"fallback_advice" yaml:"fallback_advice"`
	FallbackStrategy string `json:"fallback_strategy" yaml:"fallback_strategy"`
}

// ScoringRules configures the tiered percentile.
type ScoringRules struct {
	MaxPossible float64 `json:"max_possible" yaml:"max_possible"`
	Smoothing   float64 `json:"smoothing" yaml:"smoothing"`
}

// DetectionRules configures the pattern detector.
type DetectionRules struct {
	// ScanHistory also scans subject-authored history turns.
	ScanHistory bool `json:"scan_history" yaml:"scan_history"`
}

// Heuristic awards Points to a label when every predicate it sets holds
// for a message. Unset predicates are ignored.
type Heuristic struct {
	LongerThan  int      `json:"longer_than,omitempty" yaml:"longer_than,omitempty"`
	ShorterThan int      `json:"shorter_than,omitempty" yaml:"shorter_than,omitempty"`
	AnyOf       string   `json:"any_of,omitempty" yaml:"any_of,omitempty"`
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Points      int      `json:"points" yaml:"points"`

	re *regexp.Regexp
}

// Regexp returns the compiled Pattern, or nil when none is set.
func (h Heuristic) Regexp() *regexp.Regexp {
	return h.re
}

// ProfileDef is one personality profile.
type ProfileDef struct {
	Key                string      `json:"key" yaml:"key"`
	Label              string      `json:"label" yaml:"label"`
	Aliases            []string    `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Indicators         []string    `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	Heuristics         []Heuristic `json:"heuristics,omitempty" yaml:"heuristics,omitempty"`
	Traits             []string    `json:"traits,omitempty" yaml:"traits,omitempty"`
	CommunicationStyle string      `json:"communication_style,omitempty" yaml:"communication_style,omitempty"`
	Approach           string      `json:"approach,omitempty" yaml:"approach,omitempty"`
	Avoid              []string    `json:"avoid,omitempty" yaml:"avoid,omitempty"`
}

// EmotionDef is one emotional state.
type EmotionDef struct {
	Key        string      `json:"key" yaml:"key"`
	Label      string      `json:"label" yaml:"label"`
	Indicators []string    `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	Heuristics []Heuristic `json:"heuristics,omitempty" yaml:"heuristics,omitempty"`
	Approach   string      `json:"approach,omitempty" yaml:"approach,omitempty"`
	Avoid      []string    `json:"avoid,omitempty" yaml:"avoid,omitempty"`
}

// EmotionCue maps narrative phrases to a declared emotional state.
// Cues are checked in order; the first match wins.
type EmotionCue struct {
	State   string   `json:"state" yaml:"state"`
	Phrases []string `json:"phrases" yaml:"phrases"`
}

// ModeDef is one communication mode.
type ModeDef struct {
	Key         string `json:"key" yaml:"key"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Approach    string `json:"approach,omitempty" yaml:"approach,omitempty"`
}

// StageDef is one relationship stage. Inferred stages carry inclusive
// minimum message and initiation counts; the rest are only reachable
// through an explicit context stage.
type StageDef struct {
	Key            string `json:"key" yaml:"key"`
	Label          string `json:"label" yaml:"label"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Goal           string `json:"goal,omitempty" yaml:"goal,omitempty"`
	Inferred       bool   `json:"inferred" yaml:"inferred"`
	MinMessages    int    `json:"min_messages,omitempty" yaml:"min_messages,omitempty"`
	MinInitiations int    `json:"min_initiations,omitempty" yaml:"min_initiations,omitempty"`
}

// RedFlagRule raises Flag under Origin when any trigger matches.
type RedFlagRule struct {
	Flag     string   `json:"flag" yaml:"flag"`
	Origin   string   `json:"origin" yaml:"origin"`
	Signals  []string `json:"signals,omitempty" yaml:"signals,omitempty"`
	Phrases  []string `json:"phrases,omitempty" yaml:"phrases,omitempty"`
	Statuses []string `json:"statuses,omitempty" yaml:"statuses,omitempty"`
}

// Scenario risk levels, lowest first.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// ScenarioDef is one situational blueprint. Indicators name detected
// signals, golden pattern categories, raised red flags, the emotional
// state or the stage. A decisive scenario wins as soon as any of its
// indicators is present.
type ScenarioDef struct {
	Key         string   `json:"key" yaml:"key"`
	Label       string   `json:"label" yaml:"label"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Indicators  []string `json:"indicators" yaml:"indicators"`
	Decisive    bool     `json:"decisive,omitempty" yaml:"decisive,omitempty"`
	RiskLevel   string   `json:"risk_level" yaml:"risk_level"`
	Recommended []string `json:"recommended_actions" yaml:"recommended_actions"`
	Avoid       []string `json:"avoid" yaml:"avoid"`
}

// TacticRule adds tactics when its conditions fire.
type TacticRule struct {
	When map[string]interface{} `json:"when,omitempty" yaml:"when,omitempty"`
	Add  []string               `json:"add" yaml:"add"`

	// Force keeps the added tactics even when the cap is reached.
	Force bool `json:"force,omitempty" yaml:"force,omitempty"`
}

// ToneRules picks a reply tone; rules are first-match.
type ToneRules struct {
	Default string     `json:"default" yaml:"default"`
	Rules   []ToneRule `json:"rules" yaml:"rules"`
}

// ToneRule maps a condition to a tone.
type ToneRule struct {
	When map[string]interface{} `json:"when" yaml:"when"`
	Tone string                 `json:"tone" yaml:"tone"`
}

// MessageBranch is one node of the reply decision tree. Branches are
// checked in order; the last branch must have no predicates.
type MessageBranch struct {
	Key            string   `json:"key" yaml:"key"`
	RemarkContains []string `json:"remark_contains,omitempty" yaml:"remark_contains,omitempty"`
	Signal         string   `json:"signal,omitempty" yaml:"signal,omitempty"`
	EmotionalState string   `json:"emotional_state,omitempty" yaml:"emotional_state,omitempty"`

	// Templates maps a tone (or "default") to {primary, alternate, alternate}.
	Templates map[string][]string `json:"templates" yaml:"templates"`
}

// IsFallback reports whether the branch matches unconditionally.
func (b MessageBranch) IsFallback() bool {
	return len(b.RemarkContains) == 0 && b.Signal == "" && b.EmotionalState == ""
}

// GuideRules drives the behavioral guide.
type GuideRules struct {
	Timing        []TimingRule      `json:"timing" yaml:"timing"`
	DefaultTiming TimingRule        `json:"default_timing" yaml:"default_timing"`
	Instructions  []InstructionRule `json:"instructions" yaml:"instructions"`
}

// TimingRule selects a reply timing; first match wins.
type TimingRule struct {
	When map[string]interface{} `json:"when,omitempty" yaml:"when,omitempty"`
	Key  string                 `json:"key" yaml:"key"`
	Text string                 `json:"text" yaml:"text"`
}

// InstructionRule contributes a behavioral instruction when its
// conditions fire and, if Tactic is set, that tactic was selected.
type InstructionRule struct {
	When   map[string]interface{} `json:"when,omitempty" yaml:"when,omitempty"`
	Tactic string                 `json:"tactic,omitempty" yaml:"tactic,omitempty"`
	Text   string                 `json:"text" yaml:"text"`
}

// Tactic looks up a tactic by key.
func (rb *Rulebook) Tactic(key string) (models.Tactic, bool) {
	for _, t := range rb.Tactics {
		if t.Key == key {
			return t, true
		}
	}
	return models.Tactic{}, false
}

// Profile looks up a profile by key.
func (rb *Rulebook) Profile(key string) (ProfileDef, bool) {
	for _, p := range rb.Profiles {
		if p.Key == key {
			return p, true
		}
	}
	return ProfileDef{}, false
}

// EmotionalState looks up an emotional state by key.
func (rb *Rulebook) EmotionalState(key string) (EmotionDef, bool) {
	for _, e := range rb.EmotionalStates {
		if e.Key == key {
			return e, true
		}
	}
	return EmotionDef{}, false
}

// Mode looks up a communication mode by key.
func (rb *Rulebook) Mode(key string) (ModeDef, bool) {
	for _, m := range rb.CommunicationModes {
		if m.Key == key {
			return m, true
		}
	}
	return ModeDef{}, false
}

// Stage looks up a stage by key.
func (rb *Rulebook) Stage(key string) (StageDef, bool) {
	for _, s := range rb.Stages {
		if s.Key == key {
			return s, true
		}
	}
	return StageDef{}, false
}

// Scenario looks up a scenario by key.
func (rb *Rulebook) Scenario(key string) (ScenarioDef, bool) {
	for _, sc := range rb.Scenarios {
		if sc.Key == key {
			return sc, true
		}
	}
	return ScenarioDef{}, false
}

// Summary is a compact description of a loaded rulebook.
type Summary struct {
	Version         string `json:"version"`
	GoldenPatterns  int    `json:"golden_patterns"`
	GoldenPhrases   int    `json:"golden_phrases"`
	Signals         int    `json:"signals"`
	Profiles        int    `json:"profiles"`
	EmotionalStates int    `json:"emotional_states"`
	Stages          int    `json:"stages"`
	RedFlags        int    `json:"red_flags"`
	Scenarios       int    `json:"scenarios"`
	Tactics         int    `json:"tactics"`
	TacticRules     int    `json:"tactic_rules"`
	Branches        int    `json:"message_branches"`
}

// Summarize counts the rulebook's tables.
func (rb *Rulebook) Summarize() Summary {
	phrases := 0
	for _, c := range rb.GoldenPatterns {
		phrases += len(c.Phrases)
	}
	return Summary{
		Version:         rb.Version,
		GoldenPatterns:  len(rb.GoldenPatterns),
		GoldenPhrases:   phrases,
		Signals:         len(rb.Signals),
		Profiles:        len(rb.Profiles),
		EmotionalStates: len(rb.EmotionalStates),
		Stages:          len(rb.Stages),
		RedFlags:        len(rb.RedFlags),
		Scenarios:       len(rb.Scenarios),
		Tactics:         len(rb.Tactics),
		TacticRules:     len(rb.TacticRules),
		Branches:        len(rb.Branches),
	}
}
