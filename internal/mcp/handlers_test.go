package mcp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/wingman/internal/engine"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/ratelimit"
	"github.com/nvandessel/wingman/internal/rules"
	"github.com/nvandessel/wingman/internal/service"
	"github.com/nvandessel/wingman/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a server with generous limits so tests are not
// throttled unless they ask to be.
func newTestServer(t *testing.T, opts ...service.Option) *Server {
	t.Helper()
	eng, err := engine.NewDefault(engine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewDefault() error = %v", err)
	}
	opts = append(opts, service.WithLogger(quietLogger()))
	s, err := NewServer(&Config{
		Name:     "wingman-test",
		Version:  "v0.0.0",
		AuditDir: t.TempDir(),
		Logger:   quietLogger(),
	}, service.New(eng, opts...))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	s.toolLimiters = ratelimit.ToolLimiters{}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHandleAnalyze(t *testing.T) {
	s := newTestServer(t, service.WithStore(store.NewMemoryHistoryStore()))
	ctx := context.Background()

	_, out, err := s.handleAnalyze(ctx, nil, AnalyzeInput{
		Narrative: "He texted me first and asked about my weekend",
		History: []models.Message{
			{Sender: "crush", Message: "hey!! how was the concert?", IsInitiation: true},
		},
		Context: &models.SubjectContext{Name: "Sam"},
	})
	if err != nil {
		t.Fatalf("handleAnalyze() error = %v", err)
	}
	if !out.Result.Success {
		t.Fatalf("Success = false: %s", out.Result.Error)
	}
	if out.RecordID == "" {
		t.Error("RecordID is empty with a store configured")
	}
	for _, want := range []string{"Interest:", "Goal:", "Suggested reply:"} {
		if !strings.Contains(out.Summary, want) {
			t.Errorf("Summary = %q, missing %q", out.Summary, want)
		}
	}

	_, hist, err := s.handleHistory(ctx, nil, HistoryInput{ID: out.RecordID})
	if err != nil {
		t.Fatalf("handleHistory(id) error = %v", err)
	}
	if hist.Count != 1 || hist.Result == nil || hist.Records[0].SubjectName != "Sam" {
		t.Errorf("history = %+v", hist)
	}
}

func TestHandleAnalyze_Validation(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		in   AnalyzeInput
		want string
	}{
		{"empty narrative", AnalyzeInput{}, "narrative is required"},
		{"too long", AnalyzeInput{Narrative: strings.Repeat("x", 5001)}, "limit is 5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.handleAnalyze(context.Background(), nil, tt.in)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("handleAnalyze() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestHandleAnalyze_RateLimited(t *testing.T) {
	s := newTestServer(t)
	s.toolLimiters = ratelimit.ToolLimiters{"wingman_analyze": ratelimit.NewLimiter(0, 1)}
	ctx := context.Background()

	if _, _, err := s.handleAnalyze(ctx, nil, AnalyzeInput{Narrative: "we talked"}); err != nil {
		t.Fatalf("first call error = %v", err)
	}
	_, _, err := s.handleAnalyze(ctx, nil, AnalyzeInput{Narrative: "we talked"})
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("second call error = %v, want rate limit error", err)
	}
}

func TestHandleReloadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	src := strings.Replace(string(rules.DefaultYAML()), `version: "1.0"`, `version: "1.2"`, 1)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, service.WithRulesPath(path))
	ctx := context.Background()

	_, out, err := s.handleReloadRules(ctx, nil, ReloadRulesInput{})
	if err != nil {
		t.Fatalf("handleReloadRules() error = %v", err)
	}
	if !out.Success || out.Rules.Version != "1.2" {
		t.Errorf("reload = %+v", out)
	}

	if err := os.WriteFile(path, []byte("baseline_tactic: nope\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, out, err = s.handleReloadRules(ctx, nil, ReloadRulesInput{})
	if err != nil {
		t.Fatalf("handleReloadRules() error = %v", err)
	}
	if out.Success || out.Rules.Version != "1.2" {
		t.Errorf("rejected reload = %+v, want failure with version 1.2 still active", out)
	}
}

func TestHandleHistory(t *testing.T) {
	ctx := context.Background()

	disabled := newTestServer(t)
	if _, _, err := disabled.handleHistory(ctx, nil, HistoryInput{}); err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("disabled store error = %v", err)
	}

	s := newTestServer(t, service.WithStore(store.NewMemoryHistoryStore()))
	for _, name := range []string{"Ana", "Ben", "ana"} {
		s.svc.Analyze(ctx, models.AnalysisInput{
			Narrative: "she laughed at my joke",
			Context:   &models.SubjectContext{Name: name},
		})
	}

	tests := []struct {
		name    string
		in      HistoryInput
		want    int
		wantErr string
	}{
		{"all", HistoryInput{}, 3, ""},
		{"by subject", HistoryInput{Subject: "ANA"}, 2, ""},
		{"limit", HistoryInput{Limit: 1}, 1, ""},
		{"bad id", HistoryInput{ID: "xyz"}, 0, "invalid id"},
		{"unknown id", HistoryInput{ID: "7d0b9c2e-34a1-4a5e-9d0e-0f6a1c2b3d4e"}, 0, "no analysis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleHistory(ctx, nil, tt.in)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("handleHistory() error = %v", err)
			}
			if out.Count != tt.want || len(out.Records) != tt.want {
				t.Errorf("Count = %d, want %d", out.Count, tt.want)
			}
		})
	}
}

func TestHandleRulesResource(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleRulesResource(context.Background(), &sdk.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleRulesResource() error = %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("len(Contents) = %d, want 1", len(res.Contents))
	}
	text := res.Contents[0].Text
	for _, want := range []string{"# Wingman Rulebook", "Version: 1.0", "## Tactics"} {
		if !strings.Contains(text, want) {
			t.Errorf("resource text missing %q:\n%s", want, text)
		}
	}
}

func TestSummarize_RedFlags(t *testing.T) {
	s := newTestServer(t)
	out := s.svc.Analyze(context.Background(), models.AnalysisInput{
		Narrative: "we flirt a lot",
		Context:   &models.SubjectContext{RelationshipStatus: "in a relationship"},
	})
	got := summarize(out.Result)
	if !strings.Contains(got, "Red flags (high)") {
		t.Errorf("summarize() = %q, want high-severity red flags", got)
	}
	if !strings.Contains(got, "Scenario: Unavailable (critical risk)") {
		t.Errorf("summarize() = %q, want the unavailable scenario", got)
	}
}
