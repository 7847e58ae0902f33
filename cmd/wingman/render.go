package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/service"
)

// printOutcome renders an analysis for a terminal.
func printOutcome(w io.Writer, out service.Outcome) {
	res := out.Result
	if !res.Success {
		fmt.Fprintf(w, "Analysis failed: %s\n", res.Error)
		if res.FallbackAdvice != "" {
			fmt.Fprintf(w, "\n%s\n", res.FallbackAdvice)
		}
		return
	}

	if d := res.Diagnosis; d != nil {
		fmt.Fprintln(w, "Diagnosis")
		printAssessment(w, "Profile", d.Profile)
		printAssessment(w, "Mood", d.EmotionalState)
		printAssessment(w, "Texting style", d.CommunicationMode)
		printAssessment(w, "Stage", d.Stage)
		fmt.Fprintln(w)
	}

	if s := res.Signals; s != nil {
		fmt.Fprintf(w, "Interest: %s (%d/100)\n", s.Interpretation, s.Score)
		printList(w, "  +", s.Positive)
		printList(w, "  -", s.Negative)
	}
	if g := res.Golden; g != nil {
		fmt.Fprintf(w, "On track: %s (%d%%, %s). %s\n", g.Verdict.Status, g.Score.Percentile, g.Score.Level, g.Verdict.Message)
		if g.Score.Action != "" {
			fmt.Fprintf(w, "  %s\n", g.Score.Action)
		}
		if g.NextMilestone != "" {
			fmt.Fprintf(w, "Next milestone: %s\n", g.NextMilestone)
		}
	}
	fmt.Fprintln(w)

	if rf := res.RedFlags; rf != nil && rf.HasFlags {
		fmt.Fprintf(w, "Red flags (%s severity)\n", rf.Severity)
		printList(w, "  you:", rf.Flags.Self)
		printList(w, "  them:", rf.Flags.Other)
		printList(w, "  situation:", rf.Flags.Situational)
		fmt.Fprintf(w, "  %s\n\n", rf.Recommendation)
	}

	if sc := res.Scenario; sc != nil && sc.Key != "" {
		fmt.Fprintf(w, "Scenario: %s (%s risk)\n", sc.Label, sc.RiskLevel)
		printList(w, "  do:", sc.Recommended)
		printList(w, "  avoid:", sc.Avoid)
		fmt.Fprintln(w)
	}

	if st := res.Strategy; st != nil {
		fmt.Fprintf(w, "Goal: %s\n", st.Goal)
		fmt.Fprintf(w, "Tactics: %s (confidence %d%%)\n", strings.Join(res.TacticNames(), ", "), st.Confidence)
		fmt.Fprintf(w, "Say: %q\n", st.Message.Primary)
		for _, alt := range st.Message.Alternates {
			fmt.Fprintf(w, "  or: %q\n", alt)
		}
		if st.Message.Remark != "" {
			fmt.Fprintf(w, "Tone: %s. %s\n", st.Message.Tone, st.Message.Remark)
		}
		fmt.Fprintln(w)
	}

	if g := res.Guide; g != nil {
		fmt.Fprintf(w, "When: %s\n", g.Timing)
		printList(w, "  *", g.Instructions)
	}
	if p := res.Prediction; p != nil {
		fmt.Fprintf(w, "Good sign: %s\n", p.SuccessIndicator)
		fmt.Fprintf(w, "Bad sign: %s\n", p.FailState)
		fmt.Fprintf(w, "Then: %s (%s)\n", p.NextStep, p.Timeframe)
	}

	if out.RecordID != nil {
		fmt.Fprintf(w, "\nSaved as %s\n", out.RecordID)
	}
}

func printAssessment(w io.Writer, title string, a models.ProfileAssessment) {
	label := a.Label
	if label == "" {
		label = a.Type
	}
	fmt.Fprintf(w, "  %-14s %s (confidence %d%%)\n", title+":", label, a.Confidence)
}

func printList(w io.Writer, prefix string, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "%s %s\n", prefix, item)
	}
}
