// Package constants provides named constants used throughout the wingman codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Tiered scoring constants
const (
	// DefaultMaxPossibleScore is the sum of the strongest positive tier weights.
	// It is a configured ceiling, not derived from the loaded library at runtime.
	DefaultMaxPossibleScore = 50

	// DefaultSmoothing is the constant added to both numerator and denominator
	// of the percentile so an empty detection list maps to a mid-low baseline.
	DefaultSmoothing = 10

	// StrongDetectionWeight is the minimum detection weight that counts as a
	// strong positive when assessing the track verdict.
	StrongDetectionWeight = 8
)

// Percentile level thresholds (inclusive lower bounds).
const (
	ExceptionalPercentile        = 80
	VeryPositivePercentile       = 60
	ModeratelyPositivePercentile = 40
	UnclearPercentile            = 25
)

// Flat interest scoring constants
const (
	// NeutralInterest is returned by the flat scorer when no weighted signal matched.
	NeutralInterest = 0.5

	// Interpretation band edges for the flat interest score (0..1).
	VeryPositiveInterest = 0.70
	PositiveInterest     = 0.55
	UnclearInterest      = 0.45
	ConcerningInterest   = 0.30

	// Interest band edges (inclusive lower bounds) for the human-facing label.
	StrongInterestBand   = 0.7
	ModerateInterestBand = 0.5
	WeakInterestBand     = 0.3
)

// Classifier constants
const (
	// ConfidencePerPoint converts a classifier score into a 0..100 confidence.
	ConfidencePerPoint = 10

	// MaxConfidence caps every classifier confidence.
	MaxConfidence = 100

	// PersonalityContextBonus is awarded when the subject context names a profile.
	PersonalityContextBonus = 10

	// EmotionRecentTurns is how many trailing history turns the emotional
	// classifier looks at when searching for the latest subject message.
	EmotionRecentTurns = 3

	// NarrativeCueScore is the score assigned to an emotional state declared
	// directly in the narrative ("she seems sad").
	NarrativeCueScore = 5

	// MinModeMessages is the number of subject messages required before the
	// communication mode is computed rather than defaulted.
	MinModeMessages = 2

	// ShortMessageLength and LongMessageLength bound the average subject
	// message length for the fast_short and slow_long modes.
	ShortMessageLength = 30
	LongMessageLength  = 100

	// InitiationRatio is the share of initiated subject messages above which
	// the subject is classified as initiating.
	InitiationRatio = 0.3

	// StageConfidencePerMessage scales inferred stage confidence by history size.
	StageConfidencePerMessage = 2
)

// Tactic selection constants
const (
	// DefaultMaxTactics caps the number of distinct tactics per analysis.
	DefaultMaxTactics = 4
)

// Strategy confidence constants
const (
	BaseStrategyConfidence    = 50
	PositiveSignalBonus       = 20
	NegativeSignalPenalty     = 10
	SignalCountThreshold      = 2
	ProfileConfidenceDivisor  = 10
	MinStrategyConfidence     = 30
	MaxStrategyConfidence     = 95
	EvaluationTimeframe       = "24-48 hours for response evaluation"
	DefaultFallbackAdvice     = "Be genuine, respectful, and authentic in your communication."
	DefaultFallbackStrategy   = "Be authentic and genuine in your approach"
	DefaultRulesVersion       = "1.0"
	DefaultAnalyzeRemarkLimit = 280
)

// Input limits enforced by the HTTP and MCP surfaces.
const (
	MaxNarrativeLength = 5000
	MaxHistoryMessages = 200
	MaxHistoryListSize = 100
)

// Sender values recognized in conversation history.
const (
	SenderUser    = "user"
	SenderSubject = "crush"
)
