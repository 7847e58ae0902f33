package mcp

import (
	"time"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

// AnalyzeInput defines the input for the wingman_analyze tool.
type AnalyzeInput struct {
	Narrative string                 `json:"narrative" jsonschema:"What happened, in your own words (required, up to 5000 characters)"`
	History   []models.Message       `json:"history,omitempty" jsonschema:"Recent chat turns, oldest first. Use sender 'crush' for the other person and 'user' for yourself"`
	Context   *models.SubjectContext `json:"context,omitempty" jsonschema:"Optional facts about the person: name, personality, relationship status, current stage, behavioral patterns"`
}

// AnalyzeOutput defines the output for the wingman_analyze tool.
type AnalyzeOutput struct {
	RecordID string                `json:"record_id,omitempty" jsonschema:"History ID when the analysis was stored"`
	Result   models.AnalysisResult `json:"result" jsonschema:"Full analysis: diagnosis, signals, red flags, strategy, guide and prediction"`
	Summary  string                `json:"summary" jsonschema:"One-paragraph human-readable summary"`
}

// ReloadRulesInput defines the input for the wingman_reload_rules tool.
type ReloadRulesInput struct{}

// ReloadRulesOutput defines the output for the wingman_reload_rules tool.
type ReloadRulesOutput struct {
	Success bool          `json:"success" jsonschema:"Whether the new rulebook is active"`
	Message string        `json:"message" jsonschema:"Human-readable result message"`
	Rules   rules.Summary `json:"rules" jsonschema:"Counts for the active rulebook"`
}

// HistoryInput defines the input for the wingman_history tool.
type HistoryInput struct {
	ID      string `json:"id,omitempty" jsonschema:"Fetch one stored analysis by ID; other filters are ignored"`
	Subject string `json:"subject,omitempty" jsonschema:"Only analyses about this person (case-insensitive)"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of analyses (default 20, max 200)"`
}

// HistoryOutput defines the output for the wingman_history tool.
type HistoryOutput struct {
	Records []HistoryItem          `json:"records" jsonschema:"Stored analyses, newest first"`
	Count   int                    `json:"count" jsonschema:"Number of records"`
	Result  *models.AnalysisResult `json:"result,omitempty" jsonschema:"Full result when a single ID was requested"`
}

// HistoryItem is a list view of a stored analysis.
type HistoryItem struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	SubjectName    string    `json:"subject_name,omitempty"`
	Narrative      string    `json:"narrative"`
	Interpretation string    `json:"interpretation"`
	Percentile     int       `json:"percentile"`
	Severity       string    `json:"severity"`
}
