package compose

import (
	"regexp"
	"strings"
)

var (
	quotedRe = regexp.MustCompile(`["“]([^"“”]+)["”]`)
	markerRe = regexp.MustCompile(`(?i)\b(?:she|he|they)\s+(?:said|texted|sent|asked)\b[:\s]*([^.!?]+)`)
)

// ExtractRemark pulls the subject's words out of a narrative: the first
// double-quoted substring, else the text following a "she said" style
// marker up to the end of the sentence, else the whole narrative.
func ExtractRemark(narrative string) string {
	if m := quotedRe.FindStringSubmatch(narrative); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	if m := markerRe.FindStringSubmatch(narrative); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	return strings.TrimSpace(narrative)
}
