package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/pathutil"
	"gopkg.in/yaml.v3"
)

// DefaultTone is the template row used when a branch has no row for the
// selected tone.
const DefaultTone = "default"

//go:embed default_rules.yaml
var defaultRules []byte

// DefaultYAML returns the embedded default rulebook source.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Default parses and validates the embedded rulebook.
func Default() (*Rulebook, error) {
	rb, err := Parse(defaultRules)
	if err != nil {
		return nil, fmt.Errorf("loading embedded rules: %w", err)
	}
	return rb, nil
}

// LoadFile reads, parses and validates a rulebook file.
func LoadFile(path string) (*Rulebook, error) {
	// Errors reach HTTP and MCP clients, so they name the file without its full path.
	data, err := os.ReadFile(path)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		return nil, fmt.Errorf("reading rules file %s: %w", pathutil.RedactPath(path), err)
	}
	rb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading rules file %s: %w", pathutil.RedactPath(path), err)
	}
	return rb, nil
}

// Parse decodes YAML into a validated Rulebook. Unknown fields are rejected
// so typos in a rules file fail loudly instead of silently disabling a rule.
func Parse(data []byte) (*Rulebook, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty rules document", ErrInvalid)
	}

	rb := &Rulebook{
		Version: constants.DefaultRulesVersion,
		Scoring: ScoringRules{
			MaxPossible: constants.DefaultMaxPossibleScore,
			Smoothing:   constants.DefaultSmoothing,
		},
		MaxTactics:       constants.DefaultMaxTactics,
		FallbackAdvice:   constants.DefaultFallbackAdvice,
		FallbackStrategy: constants.DefaultFallbackStrategy,
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(rb); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing rules: %w", ErrInvalid, err)
	}

	rb.normalize()

	if err := rb.Validate(); err != nil {
		return nil, err
	}
	return rb, nil
}

// normalize lowercases every phrase the detector and classifiers match on.
func (rb *Rulebook) normalize() {
	for i := range rb.GoldenPatterns {
		rb.GoldenPatterns[i].Phrases = lowerAll(rb.GoldenPatterns[i].Phrases)
	}
	for i := range rb.Signals {
		rb.Signals[i].Phrases = lowerAll(rb.Signals[i].Phrases)
	}
	for i := range rb.Profiles {
		rb.Profiles[i].Indicators = lowerAll(rb.Profiles[i].Indicators)
		rb.Profiles[i].Aliases = lowerAll(rb.Profiles[i].Aliases)
	}
	for i := range rb.EmotionalStates {
		rb.EmotionalStates[i].Indicators = lowerAll(rb.EmotionalStates[i].Indicators)
	}
	for i := range rb.EmotionCues {
		rb.EmotionCues[i].Phrases = lowerAll(rb.EmotionCues[i].Phrases)
	}
	for i := range rb.RedFlags {
		rb.RedFlags[i].Phrases = lowerAll(rb.RedFlags[i].Phrases)
		rb.RedFlags[i].Statuses = lowerAll(rb.RedFlags[i].Statuses)
	}
	for i := range rb.Branches {
		rb.Branches[i].RemarkContains = lowerAll(rb.Branches[i].RemarkContains)
	}
}

func lowerAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
