package models

import "strings"

// Message is a single turn of prior conversation between the user and the subject.
type Message struct {
	// Sender is "user" or "crush"
	Sender string `json:"sender" yaml:"sender"`

	Message string `json:"message" yaml:"message"`

	// IsInitiation marks a turn that opened a new exchange.
	IsInitiation bool `json:"is_initiation,omitempty" yaml:"is_initiation,omitempty"`
}

// FromSubject reports whether the turn was authored by the subject.
func (m Message) FromSubject() bool {
	return strings.EqualFold(m.Sender, "crush")
}

// SubjectContext is what upstream collaborators know about the subject.
// Every field is optional.
type SubjectContext struct {
	Name               string   `json:"name,omitempty" yaml:"name,omitempty"`
	Personality        string   `json:"personality,omitempty" yaml:"personality,omitempty"`
	RelationshipStatus string   `json:"relationship_status,omitempty" yaml:"relationship_status,omitempty"`
	CurrentStage       string   `json:"current_stage,omitempty" yaml:"current_stage,omitempty"`
	BehavioralPatterns []string `json:"behavioral_patterns,omitempty" yaml:"behavioral_patterns,omitempty"`
	Interests          []string `json:"interests,omitempty" yaml:"interests,omitempty"`
}

// AnalysisInput is everything one analysis call consumes.
type AnalysisInput struct {
	Narrative string          `json:"narrative" yaml:"narrative"`
	History   []Message       `json:"history,omitempty" yaml:"history,omitempty"`
	Context   *SubjectContext `json:"context,omitempty" yaml:"context,omitempty"`
}

// SubjectContextOrEmpty never returns nil.
func (in AnalysisInput) SubjectContextOrEmpty() SubjectContext {
	if in.Context == nil {
		return SubjectContext{}
	}
	return *in.Context
}

// SubjectMessages filters history down to subject-authored turns, preserving order.
func SubjectMessages(history []Message) []Message {
	var out []Message
	for _, m := range history {
		if m.FromSubject() {
			out = append(out, m)
		}
	}
	return out
}

// CountInitiations counts subject-authored turns flagged as initiations.
func CountInitiations(history []Message) int {
	n := 0
	for _, m := range history {
		if m.FromSubject() && m.IsInitiation {
			n++
		}
	}
	return n
}
