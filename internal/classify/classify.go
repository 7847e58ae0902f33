// Package classify assigns the subject a label on four axes: personality
// profile, emotional state, communication mode and relationship stage.
//
// Every classifier accumulates a score per label and picks the strictly
// highest; ties go to the label declared first in the rulebook. Confidence
// is min(100, score*10) and never negative.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/rules"
)

// pickBest returns the index of the strictly highest score, first on ties.
func pickBest(scores []int) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}

// confidence converts a score into 0..100.
func confidence(score int) int {
	c := score * constants.ConfidencePerPoint
	if c < 0 {
		return 0
	}
	if c > constants.MaxConfidence {
		return constants.MaxConfidence
	}
	return c
}

// heuristicFires reports whether every predicate set on h holds for a
// message. raw is the original text, lower its case-folded form.
// A heuristic with no predicates never fires.
func heuristicFires(h rules.Heuristic, raw, lower string) bool {
	length := utf8.RuneCountInString(raw)
	set := false

	if h.LongerThan > 0 {
		set = true
		if length <= h.LongerThan {
			return false
		}
	}
	if h.ShorterThan > 0 {
		set = true
		if length >= h.ShorterThan {
			return false
		}
	}
	if h.AnyOf != "" {
		set = true
		if !strings.ContainsAny(raw, h.AnyOf) {
			return false
		}
	}
	if h.Pattern != "" {
		set = true
		re := h.Regexp()
		if re == nil || !re.MatchString(lower) {
			return false
		}
	}
	if len(h.Keywords) > 0 {
		set = true
		found := false
		for _, k := range h.Keywords {
			if k != "" && strings.Contains(lower, strings.ToLower(k)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return set
}

// heuristicPoints sums the points of every heuristic that fires.
func heuristicPoints(hs []rules.Heuristic, raw, lower string) int {
	points := 0
	for _, h := range hs {
		if heuristicFires(h, raw, lower) {
			points += h.Points
		}
	}
	return points
}

// normalizeKey turns "Getting to Know" or "getting-to-know" into "getting_to_know".
func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}
