package tactics

import (
	"testing"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

func names(ts []models.Tactic) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelect(t *testing.T) {
	rb, err := rules.Default()
	if err != nil {
		t.Fatalf("rules.Default() error = %v", err)
	}

	tests := []struct {
		name string
		in   Input
		want []string
	}{
		{
			name: "neutral baseline",
			in:   Input{Profile: "balanced", EmotionalState: "neutral", Stage: "stranger", Interpretation: "neutral"},
			want: []string{"Active Listening", "Mirroring"},
		},
		{
			name: "stressed forces space respect",
			in:   Input{Profile: "balanced", EmotionalState: "stressed", Stage: "stranger", Interpretation: "neutral"},
			want: []string{"Active Listening", "Validation", "Empowerment", "Space Respect"},
		},
		{
			name: "duplicates removed, first wins",
			in:   Input{Profile: "emotional", EmotionalState: "sad", Stage: "stranger", Interpretation: "neutral"},
			want: []string{"Active Listening", "Validation", "Empowerment", "Vulnerability"},
		},
		{
			name: "cap preserves accumulation order",
			in:   Input{Profile: "confident", EmotionalState: "happy", Stage: "friendly", Interpretation: "very_positive"},
			want: []string{"Active Listening", "Respectful Challenge", "Healthy Scarcity", "Shared Identity"},
		},
		{
			name: "playful",
			in:   Input{Profile: "playful", EmotionalState: "happy", Stage: "acquaintance", Interpretation: "positive"},
			want: []string{"Active Listening", "Positive Association", "Mirroring"},
		},
		{
			name: "forced tactic displaces last non-forced entry",
			in:   Input{Profile: "confident", EmotionalState: "stressed", Stage: "close_friend", Interpretation: "very_positive"},
			want: []string{"Active Listening", "Validation", "Empowerment", "Space Respect"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(Select(rb, tt.in))
			if !equal(got, tt.want) {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelect_Properties(t *testing.T) {
	rb, err := rules.Default()
	if err != nil {
		t.Fatalf("rules.Default() error = %v", err)
	}

	profiles := []string{"balanced", "introvert", "extravert", "emotional", "logical", "playful", "confident"}
	states := []string{"neutral", "happy", "sad", "excited", "stressed"}
	stages := []string{"stranger", "acquaintance", "friendly", "close_friend", "dating"}
	interps := []string{"very_positive", "positive", "neutral", "unclear", "concerning"}

	for _, p := range profiles {
		for _, s := range states {
			for _, st := range stages {
				for _, i := range interps {
					in := Input{Profile: p, EmotionalState: s, Stage: st, Interpretation: i}
					got := Select(rb, in)

					if len(got) == 0 || len(got) > 4 {
						t.Fatalf("Select(%+v) returned %d tactics, want 1..4", in, len(got))
					}
					if got[0].Key != rb.BaselineTactic {
						t.Errorf("Select(%+v)[0] = %q, want baseline %q", in, got[0].Key, rb.BaselineTactic)
					}
					seen := map[string]bool{}
					for _, tc := range got {
						if seen[tc.Name] {
							t.Errorf("Select(%+v) repeats %q", in, tc.Name)
						}
						seen[tc.Name] = true
					}
					if s == "stressed" && !seen["Space Respect"] {
						t.Errorf("Select(%+v) = %v, want Space Respect for stressed", in, names(got))
					}
				}
			}
		}
	}
}

func TestSelect_UnknownKeyFallsBackToBaseline(t *testing.T) {
	rb := &rules.Rulebook{
		Tactics:        []models.Tactic{{Key: "listen", Name: "Listen"}},
		TacticRules:    []rules.TacticRule{{Add: []string{"missing"}}},
		BaselineTactic: "listen",
		MaxTactics:     4,
	}
	got := names(Select(rb, Input{}))
	if !equal(got, []string{"Listen"}) {
		t.Errorf("Select() = %v, want [Listen]", got)
	}
}

func TestInput_Facts(t *testing.T) {
	in := Input{Profile: "logical", EmotionalState: "sad"}
	facts := in.Facts()
	if v, ok := facts.Get("profile"); !ok || v != "logical" {
		t.Errorf("Facts().Get(profile) = %q, %v, want logical, true", v, ok)
	}
	if _, ok := facts.Get("stage"); ok {
		t.Error("Facts().Get(stage) should be absent for an empty stage")
	}
}

func TestExplain(t *testing.T) {
	rb, err := rules.Default()
	if err != nil {
		t.Fatalf("rules.Default() error = %v", err)
	}

	in := Input{Profile: "confident", EmotionalState: "stressed"}
	traces := Explain(rb, in)
	if len(traces) != len(rb.TacticRules) {
		t.Fatalf("len(Explain()) = %d, want %d", len(traces), len(rb.TacticRules))
	}

	ev := 0
	for i, tr := range traces {
		if tr.Index != i {
			t.Errorf("traces[%d].Index = %d", i, tr.Index)
		}
		if !equal(tr.Add, rb.TacticRules[i].Add) {
			t.Errorf("traces[%d].Add = %v, want %v", i, tr.Add, rb.TacticRules[i].Add)
		}
		if tr.Explanation.Fires {
			ev++
		}
	}

	fired := Fired(traces)
	if len(fired) != ev {
		t.Errorf("len(Fired()) = %d, want %d", len(fired), ev)
	}
	for _, tr := range fired {
		if !tr.Explanation.Fires {
			t.Errorf("Fired() kept rule %d which did not fire", tr.Index)
		}
	}

	// Every tactic Select returns comes from a rule that fired.
	added := map[string]bool{}
	for _, tr := range fired {
		for _, key := range tr.Add {
			if tc, ok := rb.Tactic(key); ok {
				added[tc.Name] = true
			}
		}
	}
	for _, n := range names(Select(rb, in)) {
		if !added[n] {
			t.Errorf("selected %q not added by any fired rule", n)
		}
	}
}
