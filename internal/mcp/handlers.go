package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/ratelimit"
	"github.com/nvandessel/wingman/internal/service"
	"github.com/nvandessel/wingman/internal/store"
)

// RulesSummaryURI is the resource describing the active rulebook.
const RulesSummaryURI = "wingman://rules/summary"

// registerTools registers all wingman MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "wingman_analyze",
		Description: "Analyze what happened with someone you're interested in: scores interest signals, reads their profile and mood, checks red flags, and suggests a reply and next step",
	}, s.handleAnalyze)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "wingman_reload_rules",
		Description: "Reload the rulebook from the configured rules file; the current rules stay active if the file is invalid",
	}, s.handleReloadRules)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "wingman_history",
		Description: "List earlier analyses, optionally for one person, or fetch one analysis by ID",
	}, s.handleHistory)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         RulesSummaryURI,
		Name:        "wingman-rules-summary",
		Description: "The active rulebook: version, table sizes and the tactics it can recommend.",
		MIMEType:    "text/markdown",
	}, s.handleRulesResource)
}

func (s *Server) handleAnalyze(ctx context.Context, req *sdk.CallToolRequest, args AnalyzeInput) (_ *sdk.CallToolResult, _ AnalyzeOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("wingman_analyze", start, retErr, sanitizeToolParams(map[string]interface{}{
			"narrative": args.Narrative, "history_len": len(args.History), "has_context": args.Context != nil,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "wingman_analyze"); err != nil {
		return nil, AnalyzeOutput{}, err
	}

	in := models.AnalysisInput{Narrative: args.Narrative, History: args.History, Context: args.Context}
	if err := service.Validate(in); err != nil {
		return nil, AnalyzeOutput{}, err
	}

	out := s.svc.Analyze(ctx, in)
	if !out.Result.Success {
		return nil, AnalyzeOutput{}, fmt.Errorf("%s (%s)", out.Result.Error, out.Result.FallbackAdvice)
	}

	result := AnalyzeOutput{Result: out.Result, Summary: summarize(out.Result)}
	if out.RecordID != nil {
		result.RecordID = out.RecordID.String()
	}
	return nil, result, nil
}

func (s *Server) handleReloadRules(ctx context.Context, req *sdk.CallToolRequest, args ReloadRulesInput) (_ *sdk.CallToolResult, _ ReloadRulesOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("wingman_reload_rules", start, retErr, sanitizeToolParams(map[string]interface{}{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "wingman_reload_rules"); err != nil {
		return nil, ReloadRulesOutput{}, err
	}

	summary, err := s.svc.Reload(ctx)
	if err != nil {
		// Rejected rulebooks are a normal outcome, not a tool failure.
		return nil, ReloadRulesOutput{
			Success: false,
			Message: err.Error(),
			Rules:   s.svc.Rules(),
		}, nil
	}
	return nil, ReloadRulesOutput{
		Success: true,
		Message: fmt.Sprintf("Rules reloaded successfully (version %s)", summary.Version),
		Rules:   summary,
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("wingman_history", start, retErr, sanitizeToolParams(map[string]interface{}{
			"id": args.ID, "subject": args.Subject, "limit": args.Limit,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "wingman_history"); err != nil {
		return nil, HistoryOutput{}, err
	}

	if args.ID != "" {
		id, err := uuid.Parse(args.ID)
		if err != nil {
			return nil, HistoryOutput{}, fmt.Errorf("invalid id %q: %w", args.ID, err)
		}
		rec, err := s.svc.Record(ctx, id)
		if err != nil {
			return nil, HistoryOutput{}, historyErr(err)
		}
		res, err := rec.Decode()
		if err != nil {
			return nil, HistoryOutput{}, err
		}
		return nil, HistoryOutput{
			Records: []HistoryItem{toItem(*rec)},
			Count:   1,
			Result:  &res,
		}, nil
	}

	records, err := s.svc.History(ctx, store.ListOptions{SubjectName: args.Subject, Limit: args.Limit})
	if err != nil {
		return nil, HistoryOutput{}, historyErr(err)
	}
	items := make([]HistoryItem, len(records))
	for i, rec := range records {
		items[i] = toItem(rec)
	}
	return nil, HistoryOutput{Records: items, Count: len(items)}, nil
}

func historyErr(err error) error {
	switch {
	case errors.Is(err, service.ErrNoStore):
		return fmt.Errorf("history is disabled; configure store.driver to keep analyses")
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("no analysis with that id")
	default:
		return fmt.Errorf("reading history: %w", err)
	}
}

func toItem(rec store.Record) HistoryItem {
	return HistoryItem{
		ID:             rec.ID.String(),
		CreatedAt:      rec.CreatedAt,
		SubjectName:    rec.SubjectName,
		Narrative:      rec.Narrative,
		Interpretation: rec.Interpretation,
		Percentile:     rec.Percentile,
		Severity:       rec.Severity,
	}
}

// summarize renders the headline of an analysis for chat clients.
func summarize(res models.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Interest: %s (score %d, %d%% interest percentile). ",
		res.Signals.Interpretation, res.Signals.Score, res.Golden.Score.Percentile)
	fmt.Fprintf(&b, "%s. ", strings.TrimSuffix(res.Golden.Verdict.Message, "."))
	if res.RedFlags.HasFlags {
		fmt.Fprintf(&b, "Red flags (%s): %s. ", res.RedFlags.Severity, res.RedFlags.Recommendation)
	}
	if sc := res.Scenario; sc != nil && sc.Key != "" {
		fmt.Fprintf(&b, "Scenario: %s (%s risk). ", sc.Label, sc.RiskLevel)
	}
	fmt.Fprintf(&b, "Goal: %s. ", strings.TrimSuffix(res.Strategy.Goal, "."))
	fmt.Fprintf(&b, "Suggested reply: %q", res.Strategy.Message.Primary)
	return b.String()
}

// handleRulesResource describes the active rulebook.
func (s *Server) handleRulesResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	sum := s.svc.Rules()

	var b strings.Builder
	b.WriteString("# Wingman Rulebook\n\n")
	fmt.Fprintf(&b, "Version: %s\n\n", sum.Version)
	fmt.Fprintf(&b, "- Golden pattern categories: %d (%d phrases)\n", sum.GoldenPatterns, sum.GoldenPhrases)
	fmt.Fprintf(&b, "- Interest signals: %d\n", sum.Signals)
	fmt.Fprintf(&b, "- Profiles: %d, emotional states: %d, stages: %d\n", sum.Profiles, sum.EmotionalStates, sum.Stages)
	fmt.Fprintf(&b, "- Red-flag rules: %d\n", sum.RedFlags)
	fmt.Fprintf(&b, "- Scenarios: %d\n", sum.Scenarios)
	fmt.Fprintf(&b, "- Tactics: %d (%d selection rules)\n", sum.Tactics, sum.TacticRules)
	fmt.Fprintf(&b, "- Reply branches: %d\n", sum.Branches)

	if names := s.svc.TacticNames(); len(names) > 0 {
		b.WriteString("\n## Tactics\n\n")
		for _, n := range names {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      RulesSummaryURI,
				MIMEType: "text/markdown",
				Text:     b.String(),
			},
		},
	}, nil
}
