package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/wingman/internal/engine"
	"github.com/nvandessel/wingman/internal/ratelimit"
	"github.com/nvandessel/wingman/internal/rules"
	"github.com/nvandessel/wingman/internal/service"
	"github.com/nvandessel/wingman/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, limiter ratelimit.Checker, opts ...service.Option) *Server {
	t.Helper()
	eng, err := engine.NewDefault(engine.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewDefault() error = %v", err)
	}
	opts = append(opts, service.WithLogger(quietLogger()))
	return NewServer(Config{Addr: ":0"}, service.New(eng, opts...), limiter, quietLogger())
}

func do(t *testing.T, srv *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	w := do(t, srv, "GET", "/health", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" || body["rules_version"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	if w := do(t, srv, "GET", "/nonexistent", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, service.WithStore(store.NewMemoryHistoryStore()))

	body := `{
		"narrative": "She texted me first and said \"how are you\" with a smile",
		"history": [{"sender": "crush", "message": "hey! how was your day?", "is_initiation": true}],
		"context": {"name": "Ana"}
	}`
	w := do(t, srv, "POST", "/api/v1/analyze", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var out service.Outcome
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Result.Success {
		t.Fatalf("Success = false: %s", out.Result.Error)
	}
	if out.RecordID == nil {
		t.Fatal("record_id missing")
	}
	if out.Result.Strategy == nil || out.Result.Strategy.Message.Primary == "" {
		t.Error("missing composed reply")
	}

	w = do(t, srv, "GET", "/api/v1/history/"+out.RecordID.String(), "")
	if w.Code != http.StatusOK {
		t.Fatalf("history get: expected 200, got %d", w.Code)
	}
	var rec store.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.SubjectName != "Ana" || len(rec.Result) == 0 {
		t.Errorf("record = %+v", rec)
	}

	w = do(t, srv, "GET", "/api/v1/history?subject=ana&limit=5", "")
	var list HistoryResponse
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 1 || list.Records[0].Result != nil {
		t.Errorf("list = %+v, want one summary without result", list)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	manyTurns := make([]map[string]string, 201)
	for i := range manyTurns {
		manyTurns[i] = map[string]string{"sender": "me", "message": "hi"}
	}
	tooMuchHistory, _ := json.Marshal(map[string]any{"narrative": "x", "history": manyTurns})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"narrative":`, "invalid JSON"},
		{"unknown field", `{"narrative":"x","mood":"good"}`, "unknown field"},
		{"missing narrative", `{"narrative":"   "}`, "narrative is required"},
		{"narrative too long", `{"narrative":"` + strings.Repeat("a", 5001) + `"}`, "limit is 5000"},
		{"history too long", string(tooMuchHistory), "limit is 200"},
		{"history without sender", `{"narrative":"x","history":[{"message":"hi"}]}`, "sender is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, "POST", "/api/v1/analyze", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body = %s, want it to mention %q", w.Body, tt.want)
			}
		})
	}
}

func TestRulesEndpoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	src := strings.Replace(string(rules.DefaultYAML()), `version: "1.0"`, `version: "1.1"`, 1)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, nil, service.WithRulesPath(path))

	w := do(t, srv, "GET", "/api/v1/rules", "")
	var summary rules.Summary
	json.NewDecoder(w.Body).Decode(&summary)
	if summary.Version != "1.0" {
		t.Errorf("initial version = %q, want 1.0", summary.Version)
	}

	w = do(t, srv, "POST", "/api/v1/rules/reload", "")
	var resp ReloadResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if w.Code != http.StatusOK || !resp.Success || resp.Rules.Version != "1.1" {
		t.Errorf("reload = %d %+v", w.Code, resp)
	}

	if err := os.WriteFile(path, []byte("max_tactics: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w = do(t, srv, "POST", "/api/v1/rules/reload", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid reload: expected 422, got %d", w.Code)
	}
}

func TestRulesTables(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(t, srv, "GET", "/api/v1/rules/scenarios", "")
	if w.Code != http.StatusOK {
		t.Fatalf("scenarios: expected 200, got %d", w.Code)
	}
	var table service.ScenarioTable
	if err := json.NewDecoder(w.Body).Decode(&table); err != nil {
		t.Fatalf("decoding scenarios: %v", err)
	}
	if table.Default != "early_stage" {
		t.Errorf("Default = %q, want early_stage", table.Default)
	}
	if len(table.Scenarios) == 0 || table.Scenarios[0].Key != "warm_signals" {
		t.Errorf("Scenarios = %+v, want warm_signals first", table.Scenarios)
	}
	if len(table.Scenarios[0].Recommended) == 0 || table.Scenarios[0].RiskLevel == "" {
		t.Errorf("Scenarios[0] = %+v, want actions and risk level", table.Scenarios[0])
	}

	w = do(t, srv, "GET", "/api/v1/rules/profiles", "")
	if w.Code != http.StatusOK {
		t.Fatalf("profiles: expected 200, got %d", w.Code)
	}
	var profiles struct {
		Profiles []rules.ProfileDef `json:"profiles"`
	}
	if err := json.NewDecoder(w.Body).Decode(&profiles); err != nil {
		t.Fatalf("decoding profiles: %v", err)
	}
	if len(profiles.Profiles) == 0 || profiles.Profiles[0].Key != "balanced" {
		t.Errorf("Profiles = %+v, want balanced first", profiles.Profiles)
	}
}

func TestReloadWithoutRulesPath(t *testing.T) {
	srv := newTestServer(t, nil)
	w := do(t, srv, "POST", "/api/v1/rules/reload", "")
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestHistoryErrors(t *testing.T) {
	disabled := newTestServer(t, nil)
	if w := do(t, disabled, "GET", "/api/v1/history", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("disabled store: expected 503, got %d", w.Code)
	}

	srv := newTestServer(t, nil, service.WithStore(store.NewMemoryHistoryStore()))
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/history/not-a-uuid", http.StatusBadRequest},
		{"/api/v1/history/" + uuid.NewString(), http.StatusNotFound},
		{"/api/v1/history?limit=abc", http.StatusBadRequest},
		{"/api/v1/history?limit=0", http.StatusBadRequest},
		{"/api/v1/history", http.StatusOK},
	}
	for _, tt := range tests {
		if w := do(t, srv, "GET", tt.path, ""); w.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, ratelimit.PerMinute(0, 2))

	for i := 0; i < 2; i++ {
		if w := do(t, srv, "GET", "/api/v1/rules", "", UserHeader, "alice"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w := do(t, srv, "GET", "/api/v1/rules", "", UserHeader, "alice")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	if w := do(t, srv, "GET", "/api/v1/rules", "", UserHeader, "bob"); w.Code != http.StatusOK {
		t.Errorf("bob: expected 200, got %d", w.Code)
	}
	if w := do(t, srv, "GET", "/health", "", UserHeader, "alice"); w.Code != http.StatusOK {
		t.Errorf("health is not rate limited, got %d", w.Code)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	broken := ratelimit.CheckFunc(func(context.Context, string) (bool, error) {
		return false, errors.New("redis down")
	})
	srv := newTestServer(t, broken)
	if w := do(t, srv, "GET", "/api/v1/rules", ""); w.Code != http.StatusOK {
		t.Errorf("expected 200 when limiter fails, got %d", w.Code)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		user   string
		want   string
	}{
		{"user header", "10.0.0.1:5555", "u-42", "user:u-42"},
		{"remote with port", "10.0.0.1:5555", "", "ip:10.0.0.1"},
		{"remote without port", "10.0.0.2", "", "ip:10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.user != "" {
				req.Header.Set(UserHeader, tt.user)
			}
			if got := clientKey(req); got != tt.want {
				t.Errorf("clientKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.cfg = Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
