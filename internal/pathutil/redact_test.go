package pathutil

import "testing"

func TestRedactPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"simple", "/home/user/.wingman/rules.yaml", ".../.wingman/rules.yaml"},
		{"deep", "/etc/wingman/rules/prod/rules.yaml", ".../prod/rules.yaml"},
		{"root file", "/rules.yaml", "rules.yaml"},
		{"relative", "conf/rules.yaml", ".../conf/rules.yaml"},
		{"just filename", "rules.yaml", "rules.yaml"},
		{"trailing slash cleaned", "/home/user/.wingman/", ".../user/.wingman"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactPath(tt.input)
			if got != tt.want {
				t.Errorf("RedactPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
