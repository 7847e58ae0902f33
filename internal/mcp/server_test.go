package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// connect runs the server over in-memory transports and returns a client session.
func connect(t *testing.T, s *Server) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverT, clientT := sdk.NewInMemoryTransports()

	ss, err := s.server.Connect(ctx, serverT, nil)
	if err != nil {
		t.Fatalf("server Connect() error = %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client Connect() error = %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestServer_ListTools(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	got := map[string]bool{}
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, want := range []string{"wingman_analyze", "wingman_reload_rules", "wingman_history"} {
		if !got[want] {
			t.Errorf("tool %q not registered", want)
		}
	}
}

func TestServer_CallAnalyze(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      "wingman_analyze",
		Arguments: map[string]any{"narrative": "she said \"how are you\" and sent a smiley"},
	})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("CallTool() returned tool error: %+v", res.Content)
	}
	if res.StructuredContent == nil {
		t.Error("missing structured content")
	}
}

func TestServer_ToolErrorIsReported(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      "wingman_history",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !res.IsError {
		t.Error("history without a store should be a tool error")
	}
}

func TestServer_ReadRulesResource(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.ReadResource(context.Background(), &sdk.ReadResourceParams{URI: RulesSummaryURI})
	if err != nil {
		t.Fatalf("ReadResource() error = %v", err)
	}
	if len(res.Contents) == 0 || !strings.Contains(res.Contents[0].Text, "Wingman Rulebook") {
		t.Errorf("resource = %+v", res.Contents)
	}
}

func TestServer_AuditsToolCalls(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	s.auditLogger = NewAuditLogger(dir)

	s.handleAnalyze(context.Background(), nil, AnalyzeInput{Narrative: "private words"})
	s.Close()

	data, err := os.ReadFile(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"tool":"wingman_analyze"`) {
		t.Errorf("audit entry missing tool: %s", line)
	}
	if strings.Contains(line, "private words") {
		t.Errorf("audit log leaked narrative: %s", line)
	}
}
