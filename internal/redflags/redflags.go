// Package redflags checks an analysis for disqualifying conditions.
package redflags

import (
	"strings"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/patterns"
	"github.com/nvandessel/wingman/internal/rules"
)

// Recommendation texts by severity.
const (
	RecommendClear    = "Clear to proceed"
	RecommendCaution  = "Proceed with caution or reconsider pursuing this"
	RecommendCritical = "Proceed with extreme caution: they appear to be unavailable. Respect their relationship."
)

// Check evaluates the rulebook's red-flag rules against the detected
// interest signals, the subject context and the raw narrative. Behavioral
// patterns recorded in the context count as signals when they name one and
// are scanned for phrases alongside the narrative; they never reach the
// scorers. A rule raises its flag at most once, when any of its triggers
// match.
// Severity is high when a situational flag is raised, medium for any
// other flag and none otherwise.
func Check(rb *rules.Rulebook, signals models.SignalReport, ctx models.SubjectContext, narrative string) models.RedFlagReport {
	groups := models.FlagGroups{
		Self:        []string{},
		Other:       []string{},
		Situational: []string{},
	}

	ev := evidence{
		signals:   signals,
		behaviors: behaviorKeys(ctx.BehavioralPatterns),
		status:    strings.ToLower(strings.TrimSpace(ctx.RelationshipStatus)),
		texts:     []string{patterns.Normalize(narrative)},
	}
	for _, b := range ctx.BehavioralPatterns {
		ev.texts = append(ev.texts, patterns.Normalize(b))
	}

	for _, r := range rb.RedFlags {
		if !ev.triggers(r) {
			continue
		}
		switch r.Origin {
		case models.OriginSelf:
			groups.Self = append(groups.Self, r.Flag)
		case models.OriginOther:
			groups.Other = append(groups.Other, r.Flag)
		case models.OriginSituational:
			groups.Situational = append(groups.Situational, r.Flag)
		}
	}

	report := models.RedFlagReport{
		Flags:          groups,
		Severity:       models.SeverityNone,
		Recommendation: RecommendClear,
	}
	switch {
	case len(groups.Situational) > 0:
		report.HasFlags = true
		report.Severity = models.SeverityHigh
		report.Recommendation = RecommendCritical
	case len(groups.Self) > 0 || len(groups.Other) > 0:
		report.HasFlags = true
		report.Severity = models.SeverityMedium
		report.Recommendation = RecommendCaution
	}
	return report
}

type evidence struct {
	signals   models.SignalReport
	behaviors map[string]bool
	status    string
	texts     []string
}

func (ev evidence) triggers(r rules.RedFlagRule) bool {
	for _, s := range r.Signals {
		if ev.signals.Has(s) || ev.behaviors[s] {
			return true
		}
	}
	if ev.status != "" {
		for _, s := range r.Statuses {
			if s == ev.status {
				return true
			}
		}
	}
	for _, text := range ev.texts {
		if text != "" && patterns.ContainsAny(text, r.Phrases) {
			return true
		}
	}
	return false
}

// behaviorKeys turns "Never initiates" and "never-initiates" into the
// signal key never_initiates.
func behaviorKeys(behaviors []string) map[string]bool {
	keys := make(map[string]bool, len(behaviors))
	for _, p := range behaviors {
		k := strings.ToLower(strings.TrimSpace(p))
		k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
		if k != "" {
			keys[k] = true
		}
	}
	return keys
}
