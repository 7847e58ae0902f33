// Package engine runs a complete analysis: pattern detection, scoring,
// classification, red flags, tactic selection, reply composition and
// outcome prediction. The engine performs no I/O of its own; the rulebook
// is swapped atomically on reload and every Analyze call works against a
// single snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/nvandessel/wingman/internal/classify"
	"github.com/nvandessel/wingman/internal/compose"
	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/logging"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/outcome"
	"github.com/nvandessel/wingman/internal/patterns"
	"github.com/nvandessel/wingman/internal/redflags"
	"github.com/nvandessel/wingman/internal/rules"
	"github.com/nvandessel/wingman/internal/scoring"
	"github.com/nvandessel/wingman/internal/tactics"
)

// ErrNoRulebook is returned when an engine is built without rules.
var ErrNoRulebook = errors.New("engine: rulebook is required")

// Engine is safe for concurrent use.
type Engine struct {
	holder    *rules.Holder
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	now       func() time.Time
	run       func(*rules.Rulebook, models.AnalysisInput, time.Time) models.AnalysisResult
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDecisionLogger traces every analysis to a decision log.
func WithDecisionLogger(dl *logging.DecisionLogger) Option {
	return func(e *Engine) { e.decisions = dl }
}

// WithClock overrides the time source used for result metadata.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New validates rb and builds an engine around it.
func New(rb *rules.Rulebook, opts ...Option) (*Engine, error) {
	if rb == nil {
		return nil, ErrNoRulebook
	}
	holder, err := rules.NewHolder(rb)
	if err != nil {
		return nil, fmt.Errorf("initializing engine: %w", err)
	}
	e := &Engine{
		holder: holder,
		logger: logging.Discard(),
		now:    time.Now,
		run:    analyze,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewDefault builds an engine on the embedded rulebook.
func NewDefault(opts ...Option) (*Engine, error) {
	rb, err := rules.Default()
	if err != nil {
		return nil, err
	}
	return New(rb, opts...)
}

// NewFromFile builds an engine on a rulebook file.
func NewFromFile(path string, opts ...Option) (*Engine, error) {
	rb, err := rules.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(rb, opts...)
}

// Rulebook returns the rulebook currently in effect.
func (e *Engine) Rulebook() *rules.Rulebook {
	return e.holder.Load()
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Reload installs rb. An invalid rulebook is rejected and the current one kept.
func (e *Engine) Reload(rb *rules.Rulebook) error {
	if rb == nil {
		return ErrNoRulebook
	}
	prev, err := e.holder.Swap(rb)
	if err != nil {
		e.logger.Warn("rules reload rejected", "error", err)
		return err
	}
	e.logger.Info("rules reloaded", "from_version", prev.Version, "to_version", rb.Version)
	e.decisions.Log(map[string]any{
		"event":        "rules_reloaded",
		"from_version": prev.Version,
		"to_version":   rb.Version,
	})
	return nil
}

// ReloadFromFile loads, validates and installs a rulebook file.
func (e *Engine) ReloadFromFile(path string) error {
	rb, err := rules.LoadFile(path)
	if err != nil {
		e.logger.Warn("rules reload rejected", "path", path, "error", err)
		return err
	}
	return e.Reload(rb)
}

// Analyze runs one analysis. It never panics: an internal failure is
// returned as an unsuccessful result carrying fallback advice.
func (e *Engine) Analyze(in models.AnalysisInput) (result models.AnalysisResult) {
	rb := e.holder.Load()
	started := e.now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("analysis failed", "panic", r, "stack", string(debug.Stack()))
			e.decisions.Log(map[string]any{"event": "analysis_failed", "error": fmt.Sprint(r)})
			result = failure(rb, fmt.Errorf("analysis failed: %v", r), started)
		}
	}()

	result = e.run(rb, in, started)

	e.logger.Debug("analysis complete",
		"interpretation", result.Signals.Interpretation,
		"percentile", result.Golden.Score.Percentile,
		"profile", result.Diagnosis.Profile.Type,
		"emotional_state", result.Diagnosis.EmotionalState.Type,
		"stage", result.Diagnosis.Stage.Type,
		"severity", result.RedFlags.Severity,
	)
	e.logger.Log(context.Background(), logging.LevelTrace, "analysis detail",
		"narrative", in.Narrative,
		"remark", result.Strategy.Message.Remark,
		"reply", result.Strategy.Message.Primary,
	)
	if e.decisions == nil {
		return result
	}
	entry := map[string]any{
		"event":           "analysis",
		"rules_version":   rb.Version,
		"interpretation":  result.Signals.Interpretation,
		"interest":        result.Signals.Interest,
		"percentile":      result.Golden.Score.Percentile,
		"verdict":         result.Golden.Verdict.Status,
		"profile":         result.Diagnosis.Profile.Type,
		"emotional_state": result.Diagnosis.EmotionalState.Type,
		"mode":            result.Diagnosis.CommunicationMode.Type,
		"stage":           result.Diagnosis.Stage.Type,
		"severity":        result.RedFlags.Severity,
		"tactics":         result.TacticNames(),
		"branch":          result.Strategy.Message.Branch,
		"tactic_rules":    tactics.Fired(tactics.Explain(rb, tacticInput(result))),
	}
	if result.Scenario != nil {
		entry["scenario"] = result.Scenario.Key
		entry["scenario_matched"] = result.Scenario.Matched
	}
	e.decisions.Log(entry)
	return result
}

// tacticInput rebuilds the selector input from a successful result.
func tacticInput(res models.AnalysisResult) tactics.Input {
	return tactics.Input{
		Profile:           res.Diagnosis.Profile.Type,
		EmotionalState:    res.Diagnosis.EmotionalState.Type,
		Stage:             res.Diagnosis.Stage.Type,
		Interpretation:    res.Signals.Interpretation,
		CommunicationMode: res.Diagnosis.CommunicationMode.Type,
	}
}

func analyze(rb *rules.Rulebook, in models.AnalysisInput, at time.Time) models.AnalysisResult {
	ctx := in.SubjectContextOrEmpty()
	scanHistory := patterns.WithHistory(rb.Detection.ScanHistory)

	goldenHits := patterns.NewDetector(rb.GoldenPatterns, scanHistory).Detect(in.Narrative, in.History)
	signalHits := patterns.NewDetector(rb.Signals, scanHistory).Detect(in.Narrative, in.History)

	golden := scoring.Golden(goldenHits, rb.Scoring.MaxPossible, rb.Scoring.Smoothing)
	signals := scoring.Signals(signalHits)

	profile := classify.Profile(rb, ctx, in.History)
	state := classify.EmotionalState(rb, in.Narrative, in.History)
	mode := classify.CommunicationMode(rb, in.History)
	stage := classify.Stage(rb, ctx, in.History)

	flags := redflags.Check(rb, signals, ctx, in.Narrative)

	var scenario *models.ScenarioMatch
	if len(rb.Scenarios) > 0 {
		m := classify.Scenario(rb, classify.ScenarioIndicators(signals, goldenHits, flags, state.Type, stage.Type))
		scenario = &m
	}

	selected := tactics.Select(rb, tactics.Input{
		Profile:           profile.Type,
		EmotionalState:    state.Type,
		Stage:             stage.Type,
		Interpretation:    signals.Interpretation,
		CommunicationMode: mode.Type,
	})

	tone := compose.Tone(rb, profile.Type, state.Type)
	msg := compose.Compose(rb, compose.ExtractRemark(in.Narrative), tone, state.Type, signals)
	guide := compose.Guide(rb, profile.Type, state.Type, mode.Type, selected)
	prediction := outcome.Predict(signals.Interpretation, stage.Type)

	return models.AnalysisResult{
		Success: true,
		Diagnosis: &models.Diagnosis{
			Profile:           profile,
			EmotionalState:    state,
			CommunicationMode: mode,
			Stage:             stage,
			Reasoning:         outcome.Reasoning(profile, state, signals),
		},
		Signals:  &signals,
		Golden:   &golden,
		RedFlags: &flags,
		Scenario: scenario,
		Strategy: &models.Strategy{
			Goal:       outcome.StrategicGoal(signals.Interpretation, stage.Label),
			Tactics:    selected,
			Message:    msg,
			Psychology: outcome.ExplainPsychology(selected),
			Confidence: outcome.Confidence(signals, profile),
		},
		Guide:      &guide,
		Prediction: &prediction,
		Metadata:   models.Metadata{RulesVersion: rb.Version, AnalyzedAt: at},
	}
}

func failure(rb *rules.Rulebook, err error, at time.Time) models.AnalysisResult {
	advice := constants.DefaultFallbackAdvice
	version := ""
	if rb != nil {
		if rb.FallbackAdvice != "" {
			advice = rb.FallbackAdvice
		}
		version = rb.Version
	}
	return models.AnalysisResult{
		Success:        false,
		Error:          err.Error(),
		FallbackAdvice: advice,
		Metadata:       models.Metadata{RulesVersion: version, AnalyzedAt: at},
	}
}
