// Package service ties the analysis engine to its collaborators: input
// sanitization, the history store, and event publishing. The HTTP API, the
// MCP server and the CLI all go through it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nvandessel/wingman/internal/engine"
	"github.com/nvandessel/wingman/internal/events"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
	"github.com/nvandessel/wingman/internal/sanitize"
	"github.com/nvandessel/wingman/internal/store"
)

// ErrNoStore is returned by history operations when persistence is disabled.
var ErrNoStore = errors.New("history store is disabled")

// ErrNoRulesPath is returned by Reload when no rules file is configured.
var ErrNoRulesPath = errors.New("no rules file configured")

// Service runs analyses and records them.
type Service struct {
	engine    *engine.Engine
	store     store.HistoryStore
	publisher events.Publisher
	logger    *slog.Logger
	rulesPath string
}

// Option configures a Service.
type Option func(*Service)

// WithStore persists every analysis. Without it history is disabled.
func WithStore(s store.HistoryStore) Option {
	return func(svc *Service) { svc.store = s }
}

// WithPublisher announces analyses and reloads.
func WithPublisher(p events.Publisher) Option {
	return func(svc *Service) {
		if p != nil {
			svc.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithRulesPath sets the file Reload reads.
func WithRulesPath(path string) Option {
	return func(svc *Service) { svc.rulesPath = path }
}

// New wraps eng.
func New(eng *engine.Engine, opts ...Option) *Service {
	svc := &Service{
		engine:    eng,
		publisher: events.NopPublisher{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Outcome is a finished analysis and, when stored, its history ID.
type Outcome struct {
	Result   models.AnalysisResult `json:"result"`
	RecordID *uuid.UUID            `json:"record_id,omitempty"`
}

// Analyze sanitizes in, runs the engine, stores the result and publishes
// an event. Storage and publish failures are logged, never returned: the
// caller still gets its advice.
func (s *Service) Analyze(ctx context.Context, in models.AnalysisInput) Outcome {
	clean := sanitize.Input(in)
	out := Outcome{Result: s.engine.Analyze(clean)}

	var recordID string
	if s.store != nil {
		rec, err := store.NewRecord(clean, out.Result)
		if err == nil {
			err = s.store.Save(ctx, rec)
		}
		if err != nil {
			s.logger.Warn("saving analysis failed", "error", err)
		} else {
			out.RecordID = &rec.ID
			recordID = rec.ID.String()
		}
	}

	if out.Result.Success {
		ev := events.AnalysisCompleted{
			RecordID:       recordID,
			Interpretation: out.Result.Signals.Interpretation,
			Percentile:     out.Result.Golden.Score.Percentile,
			Severity:       out.Result.RedFlags.Severity,
			Tactics:        out.Result.TacticNames(),
			RulesVersion:   out.Result.Metadata.RulesVersion,
			AnalyzedAt:     out.Result.Metadata.AnalyzedAt,
		}
		if clean.Context != nil {
			ev.SubjectName = clean.Context.Name
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("publishing analysis event failed", "error", err)
		}
	}
	return out
}

// Validate rejects input the engine should not see: an empty narrative,
// one over the length cap, or too much history.
func Validate(req models.AnalysisInput) error {
	if strings.TrimSpace(req.Narrative) == "" {
		return errors.New("narrative is required")
	}
	if n := utf8.RuneCountInString(req.Narrative); n > sanitize.MaxNarrativeLength {
		return fmt.Errorf("narrative is %d characters, the limit is %d", n, sanitize.MaxNarrativeLength)
	}
	if len(req.History) > sanitize.MaxHistory {
		return fmt.Errorf("history has %d messages, the limit is %d", len(req.History), sanitize.MaxHistory)
	}
	for i, m := range req.History {
		if strings.TrimSpace(m.Sender) == "" {
			return fmt.Errorf("history[%d]: sender is required", i)
		}
	}
	return nil
}

// Reload re-reads the configured rules file. A rulebook that fails to
// load or validate leaves the current one active.
func (s *Service) Reload(ctx context.Context) (rules.Summary, error) {
	if s.rulesPath == "" {
		return rules.Summary{}, ErrNoRulesPath
	}
	if err := s.engine.ReloadFromFile(s.rulesPath); err != nil {
		return rules.Summary{}, fmt.Errorf("reloading rules: %w", err)
	}

	rb := s.engine.Rulebook()
	ev := events.RulesReloaded{
		Version:    rb.Version,
		Source:     s.rulesPath,
		ReloadedAt: s.engine.Now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publishing reload event failed", "error", err)
	}
	return rb.Summarize(), nil
}

// Rules summarizes the active rulebook.
func (s *Service) Rules() rules.Summary {
	return s.engine.Rulebook().Summarize()
}

// ScenarioTable is the active rulebook's scenario blueprints.
type ScenarioTable struct {
	Default   string              `json:"default"`
	Scenarios []rules.ScenarioDef `json:"scenarios"`
}

// Scenarios returns the active scenario blueprints.
func (s *Service) Scenarios() ScenarioTable {
	rb := s.engine.Rulebook()
	return ScenarioTable{Default: rb.DefaultScenario, Scenarios: rb.Scenarios}
}

// Profiles returns the active personality profiles.
func (s *Service) Profiles() []rules.ProfileDef {
	return s.engine.Rulebook().Profiles
}

// TacticNames lists the tactics the active rulebook can recommend.
func (s *Service) TacticNames() []string {
	rb := s.engine.Rulebook()
	names := make([]string, len(rb.Tactics))
	for i, t := range rb.Tactics {
		names[i] = t.Name
	}
	return names
}

// History lists stored analyses, newest first.
func (s *Service) History(ctx context.Context, opts store.ListOptions) ([]store.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List(ctx, opts)
}

// Record fetches one stored analysis.
func (s *Service) Record(ctx context.Context, id uuid.UUID) (*store.Record, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.Get(ctx, id)
}

// Close releases the store and the publisher.
func (s *Service) Close() error {
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	errs = append(errs, s.publisher.Close())
	return errors.Join(errs...)
}
