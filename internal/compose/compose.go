// Package compose turns an analysis into a suggested reply: the tone, a
// primary message with two alternates, and a behavioral guide. Replies are
// literal templates picked by a fixed decision tree, never generated text.
package compose

import (
	"strings"

	"github.com/nvandessel/wingman/internal/activation"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/rules"
)

// Tone picks the reply tone from the ordered tone rules; the first match wins.
func Tone(rb *rules.Rulebook, profile, state string) string {
	ev := activation.NewEvaluator()
	facts := activation.Facts{
		activation.FactProfile:        profile,
		activation.FactEmotionalState: state,
	}
	for _, r := range rb.Tones.Rules {
		if ev.Fires(facts, r.When) {
			return r.Tone
		}
	}
	return rb.Tones.Default
}

// Compose walks the message branches in order and renders the first one
// that matches. The tone selects a template row, falling back to the
// branch's default row.
func Compose(rb *rules.Rulebook, remark, tone, state string, signals models.SignalReport) models.ComposedMessage {
	lower := strings.ToLower(remark)

	for _, b := range rb.Branches {
		if !branchMatches(b, lower, state, signals) {
			continue
		}
		row, ok := b.Templates[tone]
		if !ok {
			row = b.Templates[rules.DefaultTone]
		}
		msg := models.ComposedMessage{
			Tone:       tone,
			Remark:     remark,
			Branch:     b.Key,
			Alternates: []string{},
		}
		if len(row) > 0 {
			msg.Primary = row[0]
			msg.Alternates = append(msg.Alternates, row[1:]...)
		}
		return msg
	}

	return models.ComposedMessage{
		Tone:       tone,
		Remark:     remark,
		Primary:    rb.FallbackAdvice,
		Alternates: []string{},
	}
}

// branchMatches requires every predicate the branch sets.
func branchMatches(b rules.MessageBranch, remark, state string, signals models.SignalReport) bool {
	if len(b.RemarkContains) > 0 {
		found := false
		for _, p := range b.RemarkContains {
			if p != "" && strings.Contains(remark, p) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if b.Signal != "" && !signals.Has(b.Signal) {
		return false
	}
	if b.EmotionalState != "" && b.EmotionalState != state {
		return false
	}
	return true
}
