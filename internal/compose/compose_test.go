package compose

import (
	"testing"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

func defaultRules(t *testing.T) *rules.Rulebook {
	t.Helper()
	rb, err := rules.Default()
	if err != nil {
		t.Fatalf("rules.Default() error = %v", err)
	}
	return rb
}

func TestExtractRemark(t *testing.T) {
	tests := []struct {
		name      string
		narrative string
		want      string
	}{
		{"double quotes", `She asked "how are you" after class`, "how are you"},
		{"first quote wins", `He said "hi" and then "bye"`, "hi"},
		{"curly quotes", "She texted “want to grab coffee?”", "want to grab coffee?"},
		{"said marker", "She said she had a rough day. Then left.", "she had a rough day"},
		{"texted marker with colon", "They texted: call me later!", "call me later"},
		{"whole narrative", "  we talked for hours  ", "we talked for hours"},
		{"empty quotes fall through", `She said "" nothing`, `"" nothing`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractRemark(tt.narrative); got != tt.want {
				t.Errorf("ExtractRemark(%q) = %q, want %q", tt.narrative, got, tt.want)
			}
		})
	}
}

func TestTone(t *testing.T) {
	rb := defaultRules(t)
	tests := []struct {
		profile, state string
		want           string
	}{
		{"logical", "sad", "intellectual"},
		{"balanced", "sad", "supportive"},
		{"playful", "stressed", "supportive"},
		{"playful", "happy", "playful"},
		{"playful", "neutral", "balanced"},
		{"balanced", "neutral", "balanced"},
	}
	for _, tt := range tests {
		if got := Tone(rb, tt.profile, tt.state); got != tt.want {
			t.Errorf("Tone(%q, %q) = %q, want %q", tt.profile, tt.state, got, tt.want)
		}
	}
}

func TestCompose_GreetingVerbatim(t *testing.T) {
	rb := defaultRules(t)
	remark := ExtractRemark(`She asked "how are you"`)

	tests := []struct {
		tone string
		want string
	}{
		{"supportive", "I'm doing well, thanks for asking! How are you holding up?"},
		{"playful", "I'm doing great! How about you? 😊"},
		{"balanced", "I'm good! How are you doing?"},
	}
	for _, tt := range tests {
		t.Run(tt.tone, func(t *testing.T) {
			got := Compose(rb, remark, tt.tone, "neutral", models.SignalReport{})
			if got.Primary != tt.want {
				t.Errorf("Compose(%q).Primary = %q, want %q", tt.tone, got.Primary, tt.want)
			}
			if got.Branch != "greeting" {
				t.Errorf("Compose(%q).Branch = %q, want greeting", tt.tone, got.Branch)
			}
		})
	}
}

func TestCompose_Branches(t *testing.T) {
	rb := defaultRules(t)
	initiated := models.SignalReport{Positive: []string{"initiates_conversations"}}

	tests := []struct {
		name    string
		remark  string
		tone    string
		state   string
		signals models.SignalReport
		want    string
	}{
		{"greeting beats initiated", "hey how's it going", "balanced", "neutral", initiated, "greeting"},
		{"initiated", "hey there", "playful", "happy", initiated, "initiated"},
		{"sad", "today was awful", "supportive", "sad", models.SignalReport{}, "sad"},
		{"stressed", "exams all week", "supportive", "stressed", models.SignalReport{}, "stressed"},
		{"fallback", "i watched a movie", "balanced", "neutral", models.SignalReport{}, "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compose(rb, tt.remark, tt.tone, tt.state, tt.signals)
			if got.Branch != tt.want {
				t.Errorf("Compose().Branch = %q, want %q", got.Branch, tt.want)
			}
		})
	}
}

func TestCompose_AlternatesDistinct(t *testing.T) {
	rb := defaultRules(t)
	for _, tone := range []string{"balanced", "playful", "supportive", "intellectual"} {
		for _, state := range []string{"neutral", "sad", "stressed", "happy"} {
			got := Compose(rb, "how are you", tone, state, models.SignalReport{})
			if len(got.Alternates) != 2 {
				t.Fatalf("Compose(%q, %q) alternates = %v, want 2", tone, state, got.Alternates)
			}
			seen := map[string]bool{got.Primary: true}
			for _, a := range got.Alternates {
				if seen[a] {
					t.Errorf("Compose(%q, %q) repeats %q", tone, state, a)
				}
				seen[a] = true
			}
		}
	}
}

func TestCompose_ToneWithoutRowUsesDefault(t *testing.T) {
	rb := defaultRules(t)
	got := Compose(rb, "rough day", "intellectual", "sad", models.SignalReport{})
	want := "I'm here if you want to talk about it. No pressure though."
	if got.Primary != want {
		t.Errorf("Compose().Primary = %q, want %q", got.Primary, want)
	}
	if got.Tone != "intellectual" {
		t.Errorf("Compose().Tone = %q, want intellectual", got.Tone)
	}
}

func TestGuide(t *testing.T) {
	rb := defaultRules(t)
	spaceRespect, _ := rb.Tactic("space_respect")
	mirroring, _ := rb.Tactic("mirroring")

	tests := []struct {
		name       string
		profile    string
		state      string
		mode       string
		tactics    []models.Tactic
		wantTiming string
		wantCount  int
	}{
		{"default timing", "balanced", "neutral", "consistent", nil, "moderate_reply", 0},
		{"stressed waits", "balanced", "stressed", "consistent", []models.Tactic{spaceRespect}, "delayed_reply", 2},
		{"happy replies fast", "playful", "happy", "fast_short", []models.Tactic{mirroring}, "fast_reply", 3},
		{"excited replies fast", "logical", "excited", "slow_long", nil, "fast_reply", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Guide(rb, tt.profile, tt.state, tt.mode, tt.tactics)
			if got.TimingKey != tt.wantTiming {
				t.Errorf("Guide().TimingKey = %q, want %q", got.TimingKey, tt.wantTiming)
			}
			if got.Timing == "" {
				t.Error("Guide().Timing is empty")
			}
			if len(got.Instructions) != tt.wantCount {
				t.Errorf("Guide().Instructions = %v, want %d entries", got.Instructions, tt.wantCount)
			}
		})
	}
}
