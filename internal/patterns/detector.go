// Package patterns finds trigger phrases from a pattern library in free text.
//
// Matching is deliberately simple: a phrase matches when its normalized form
// (underscores become spaces, case folded) is a substring of the normalized
// text. There is no stemming or tokenization.
package patterns

import (
	"strings"

	"github.com/nvandessel/wingman/internal/models"
)

// Detector scans text against one pattern library.
type Detector struct {
	categories  []models.PatternCategory
	scanHistory bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithHistory also scans subject-authored history turns.
func WithHistory(enabled bool) Option {
	return func(d *Detector) {
		d.scanHistory = enabled
	}
}

// NewDetector creates a detector over categories. The slice is not copied;
// callers pass rulebook tables, which are immutable.
func NewDetector(categories []models.PatternCategory, opts ...Option) *Detector {
	d := &Detector{categories: categories}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns every phrase match in text, then in history when enabled.
// A category yields one detection per matching phrase.
func (d *Detector) Detect(text string, history []models.Message) []models.Detection {
	detections := d.scan(Normalize(text), models.SourceNarrative)

	if d.scanHistory {
		for _, m := range history {
			if !m.FromSubject() {
				continue
			}
			detections = append(detections, d.scan(Normalize(m.Message), models.SourceHistory)...)
		}
	}

	return detections
}

func (d *Detector) scan(normalized, source string) []models.Detection {
	if normalized == "" {
		return nil
	}
	var out []models.Detection
	for _, c := range d.categories {
		for _, phrase := range c.Phrases {
			if Contains(normalized, phrase) {
				out = append(out, models.Detection{
					Category:       c.Name,
					Phrase:         phrase,
					Weight:         c.Weight,
					Interpretation: c.Interpretation,
					Source:         source,
				})
			}
		}
	}
	return out
}

// Normalize folds case and replaces underscores with spaces.
func Normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}

// Contains reports whether phrase, once normalized, occurs in already
// normalized text. Empty phrases never match.
func Contains(normalizedText, phrase string) bool {
	p := Normalize(phrase)
	if p == "" {
		return false
	}
	return strings.Contains(normalizedText, p)
}

// ContainsAny reports whether any phrase occurs in already normalized text.
func ContainsAny(normalizedText string, phrases []string) bool {
	for _, p := range phrases {
		if Contains(normalizedText, p) {
			return true
		}
	}
	return false
}

// CountMatches counts the phrases that occur in already normalized text.
func CountMatches(normalizedText string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if Contains(normalizedText, p) {
			n++
		}
	}
	return n
}

// Partition splits detections by weight sign.
func Partition(detections []models.Detection) (positive, neutral, negative []models.Detection) {
	for _, det := range detections {
		switch models.PolarityOf(det.Weight) {
		case models.PolarityPositive:
			positive = append(positive, det)
		case models.PolarityNegative:
			negative = append(negative, det)
		default:
			neutral = append(neutral, det)
		}
	}
	return positive, neutral, negative
}
