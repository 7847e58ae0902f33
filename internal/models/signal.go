package models

// Polarity classifies a pattern category by the sign of its weight.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// PolarityOf returns the polarity implied by a weight.
func PolarityOf(weight float64) Polarity {
	switch {
	case weight > 0:
		return PolarityPositive
	case weight < 0:
		return PolarityNegative
	default:
		return PolarityNeutral
	}
}

// PatternCategory is a named, weighted group of trigger phrases.
// Categories are immutable once a rulebook is loaded.
type PatternCategory struct {
	Name           string   `json:"name" yaml:"name"`
	Tier           string   `json:"tier,omitempty" yaml:"tier,omitempty"`
	Weight         float64  `json:"weight" yaml:"weight"`
	Phrases        []string `json:"phrases" yaml:"phrases"`
	Interpretation string   `json:"interpretation,omitempty" yaml:"interpretation,omitempty"`
}

// Polarity returns the category polarity derived from its weight.
func (c PatternCategory) Polarity() Polarity {
	return PolarityOf(c.Weight)
}

// Detection records one trigger phrase found in scanned text.
type Detection struct {
	Category       string  `json:"category"`
	Phrase         string  `json:"phrase"`
	Weight         float64 `json:"weight"`
	Interpretation string  `json:"interpretation,omitempty"`

	// Source is "narrative" or "history".
	Source string `json:"source"`
}

// Detection sources.
const (
	SourceNarrative = "narrative"
	SourceHistory   = "history"
)

// ScoreResult is the tiered score for a detection list.
type ScoreResult struct {
	Total       float64 `json:"total"`
	MaxPossible float64 `json:"max_possible"`
	Percentile  int     `json:"percentile"`
	Level       string  `json:"level"`
	Message     string  `json:"message"`
	Confidence  string  `json:"confidence"`
	Action      string  `json:"action"`
}

// SignalReport is the flat interest analysis over named signals.
type SignalReport struct {
	Positive []string `json:"positive"`
	Neutral  []string `json:"neutral"`
	Negative []string `json:"negative"`

	// Interest is the flat 0..1 interest probability.
	Interest float64 `json:"interest"`

	// Score is Interest rendered on 0..100.
	Score int `json:"score"`

	// Confidence is |Interest-0.5|*2: 0 is uncertain, 1 is very confident.
	Confidence float64 `json:"confidence"`

	Interpretation string `json:"interpretation"`
	Band           string `json:"band"`
}

// Has reports whether a signal name was detected with any polarity.
func (r SignalReport) Has(name string) bool {
	for _, set := range [][]string{r.Positive, r.Neutral, r.Negative} {
		for _, s := range set {
			if s == name {
				return true
			}
		}
	}
	return false
}

// TrackVerdict answers whether the user is on the right track.
type TrackVerdict struct {
	// Status is "yes", "no", or "uncertain".
	Status    string `json:"status"`
	Message   string `json:"message"`
	Reasoning string `json:"reasoning"`
}

// Feedback lists strengths, concerns and next recommendations.
type Feedback struct {
	Strengths       []string `json:"strengths"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

// GoldenAnalysis is the tiered pattern-library analysis.
type GoldenAnalysis struct {
	Score         ScoreResult  `json:"score"`
	Detections    []Detection  `json:"detections"`
	Verdict       TrackVerdict `json:"verdict"`
	Feedback      Feedback     `json:"feedback"`
	NextMilestone string       `json:"next_milestone"`
}
