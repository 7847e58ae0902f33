package models

import "time"

// Axis names a classification dimension.
type Axis string

const (
	AxisProfile           Axis = "profile"
	AxisEmotionalState    Axis = "emotional_state"
	AxisCommunicationMode Axis = "communication_mode"
	AxisStage             Axis = "stage"
)

// ProfileAssessment is one classifier's verdict.
type ProfileAssessment struct {
	Axis       Axis   `json:"axis"`
	Type       string `json:"type"`
	Label      string `json:"label,omitempty"`
	Score      int    `json:"score"`
	Confidence int    `json:"confidence"`

	// Explicit is set when the label came straight from subject context.
	Explicit bool `json:"explicit,omitempty"`

	Description        string   `json:"description,omitempty"`
	Traits             []string `json:"traits,omitempty"`
	CommunicationStyle string   `json:"communication_style,omitempty"`
	Approach           string   `json:"approach,omitempty"`
	Avoid              []string `json:"avoid,omitempty"`
}

// Diagnosis groups the four classifier outputs.
type Diagnosis struct {
	Profile           ProfileAssessment `json:"profile"`
	EmotionalState    ProfileAssessment `json:"emotional_state"`
	CommunicationMode ProfileAssessment `json:"communication_mode"`
	Stage             ProfileAssessment `json:"stage"`
	Reasoning         string            `json:"reasoning"`
}

// Red-flag origins.
const (
	OriginSelf        = "self"
	OriginOther       = "other"
	OriginSituational = "situational"
)

// Red-flag severities.
const (
	SeverityNone   = "none"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// FlagGroups buckets raised flags by who they concern.
type FlagGroups struct {
	Self        []string `json:"self"`
	Other       []string `json:"other"`
	Situational []string `json:"situational"`
}

// RedFlagReport is the outcome of the red-flag checker.
type RedFlagReport struct {
	HasFlags       bool       `json:"has_flags"`
	Flags          FlagGroups `json:"flags"`
	Severity       string     `json:"severity"`
	Recommendation string     `json:"recommendation"`
}

// ScenarioMatch is the situational blueprint an analysis fits best.
type ScenarioMatch struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	RiskLevel   string   `json:"risk_level"`
	Recommended []string `json:"recommended_actions"`
	Avoid       []string `json:"avoid"`

	// Matched lists the indicators that selected this scenario.
	Matched []string `json:"matched"`

	// Fallback is set when nothing overlapped and the default was used.
	Fallback bool `json:"fallback,omitempty"`
}

// Tactic is a named strategic response technique.
type Tactic struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	WhenToUse   string `json:"when_to_use,omitempty" yaml:"when_to_use,omitempty"`
	Psychology  string `json:"psychology,omitempty" yaml:"psychology,omitempty"`
}

// ComposedMessage is the templated reply suggestion.
type ComposedMessage struct {
	Primary    string   `json:"primary"`
	Alternates []string `json:"alternates"`
	Tone       string   `json:"tone"`
	Remark     string   `json:"remark"`
	Branch     string   `json:"branch"`
}

// Strategy is the recommended plan of action.
type Strategy struct {
	Goal       string          `json:"goal"`
	Tactics    []Tactic        `json:"tactics"`
	Message    ComposedMessage `json:"message"`
	Psychology string          `json:"psychology"`
	Confidence int             `json:"confidence"`
}

// BehavioralGuide tells the user how and when to reply.
type BehavioralGuide struct {
	Timing       string   `json:"timing"`
	TimingKey    string   `json:"timing_key"`
	Instructions []string `json:"instructions"`
}

// Prediction is the expected outcome of following the strategy.
type Prediction struct {
	SuccessIndicator string `json:"success_indicator"`
	FailState        string `json:"fail_state"`
	NextStep         string `json:"next_step"`
	Timeframe        string `json:"timeframe"`
}

// Metadata describes the rulebook and time of an analysis.
type Metadata struct {
	RulesVersion string    `json:"rules_version"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
}

// AnalysisResult is created fresh per call and owned by the caller.
// When Success is false only Error and FallbackAdvice are meaningful.
type AnalysisResult struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	FallbackAdvice string `json:"fallback_advice,omitempty"`

	Diagnosis  *Diagnosis       `json:"diagnosis,omitempty"`
	Signals    *SignalReport    `json:"signals,omitempty"`
	Golden     *GoldenAnalysis  `json:"golden,omitempty"`
	RedFlags   *RedFlagReport   `json:"red_flags,omitempty"`
	Scenario   *ScenarioMatch   `json:"scenario,omitempty"`
	Strategy   *Strategy        `json:"strategy,omitempty"`
	Guide      *BehavioralGuide `json:"guide,omitempty"`
	Prediction *Prediction      `json:"prediction,omitempty"`
	Metadata   Metadata         `json:"metadata"`
}

// TacticNames returns the selected tactic names in order.
func (r AnalysisResult) TacticNames() []string {
	if r.Strategy == nil {
		return nil
	}
	names := make([]string, len(r.Strategy.Tactics))
	for i, t := range r.Strategy.Tactics {
		names[i] = t.Name
	}
	return names
}
