// Package sanitize cleans user-supplied narratives and chat history before
// they are analyzed, stored, or echoed back. It strips control characters,
// markup tags, and code fences while leaving the wording intact, since the
// pattern detector depends on the exact phrases people write.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nvandessel/wingman/internal/models"
)

const (
	// MaxNarrativeLength caps a narrative in runes.
	MaxNarrativeLength = 5000

	// MaxMessageLength caps a single history message in runes.
	MaxMessageLength = 1000

	// MaxNameLength caps a subject name in runes.
	MaxNameLength = 80

	// MaxHistory is the number of history turns kept.
	MaxHistory = 200
)

var (
	// reTag matches XML/HTML tags, with or without attributes, and processing instructions.
	reTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	reFence = regexp.MustCompile("```+")

	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)

	reSpaces = regexp.MustCompile(`[ \t]{2,}`)
)

// Narrative cleans free text. The pipeline is:
//  1. Strip ASCII control characters except \n and \t
//  2. Strip XML/HTML tags
//  3. Collapse code fences to a single backtick
//  4. Collapse 3+ newlines to 2
//  5. Trim surrounding whitespace
//  6. Truncate to MaxNarrativeLength runes
func Narrative(input string) string {
	return clean(input, MaxNarrativeLength)
}

// Message cleans one chat turn and flattens it to a single line.
func Message(input string) string {
	s := clean(input, MaxMessageLength)
	s = strings.ReplaceAll(s, "\n", " ")
	return reSpaces.ReplaceAllString(s, " ")
}

// Name keeps letters, digits, spaces, hyphens, apostrophes and periods.
func Name(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '\'' || r == '.' {
			b.WriteRune(r)
		}
	}
	s := strings.Join(strings.Fields(b.String()), " ")
	return truncate(s, MaxNameLength)
}

// Input returns a cleaned copy of in. History beyond MaxHistory keeps the
// most recent turns. The caller's slices are never modified.
func Input(in models.AnalysisInput) models.AnalysisInput {
	out := models.AnalysisInput{Narrative: Narrative(in.Narrative)}

	history := in.History
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}
	if len(history) > 0 {
		out.History = make([]models.Message, len(history))
		for i, m := range history {
			out.History[i] = models.Message{
				Sender:       strings.ToLower(strings.TrimSpace(m.Sender)),
				Message:      Message(m.Message),
				IsInitiation: m.IsInitiation,
			}
		}
	}

	if in.Context != nil {
		c := *in.Context
		c.Name = Name(c.Name)
		c.Personality = Message(c.Personality)
		c.RelationshipStatus = Message(c.RelationshipStatus)
		c.CurrentStage = Message(c.CurrentStage)
		c.BehavioralPatterns = cleanList(c.BehavioralPatterns)
		c.Interests = cleanList(c.Interests)
		out.Context = &c
	}
	return out
}

func cleanList(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = Message(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clean(input string, max int) string {
	if input == "" {
		return ""
	}
	s := stripControlChars(input)
	s = reTag.ReplaceAllString(s, "")
	s = reFence.ReplaceAllString(s, "`")
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)
	return truncate(s, max)
}

// truncate cuts s to at most max runes without splitting a character.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return strings.TrimSpace(s[:i])
		}
		n++
	}
	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F and DEL),
// keeping newline and tab.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
