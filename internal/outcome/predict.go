// Package outcome predicts what following the strategy should lead to and
// explains the analysis in plain language.
package outcome

import (
	"fmt"
	"strings"

	"github.com/nvandessel/wingman/internal/constants"
	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/scoring"
)

// Predict returns the expected success and failure signs for an
// interpretation and the next step for the stage.
func Predict(interpretation, stage string) models.Prediction {
	p := models.Prediction{
		NextStep:  NextStep(interpretation, stage),
		Timeframe: constants.EvaluationTimeframe,
	}
	switch interpretation {
	case scoring.VeryPositive:
		p.SuccessIndicator = "They reply enthusiastically, continue the conversation, or make plans"
		p.FailState = "Sudden one-word reply or long delay (unlikely given current signals)"
	case scoring.Positive:
		p.SuccessIndicator = "Positive reply, asks questions back, maintains conversation"
		p.FailState = "Short/delayed response or topic change"
	default:
		p.SuccessIndicator = "Any engaged response or continued conversation"
		p.FailState = "No reply or very minimal engagement"
	}
	return p
}

// NextStep suggests how to move forward from a stage.
func NextStep(interpretation, stage string) string {
	switch {
	case stage == "acquaintance" && interpretation == scoring.Positive:
		return "If they respond well, increase interaction frequency and look for opportunities to connect"
	case stage == "friendly" && interpretation == scoring.VeryPositive:
		return "Consider moving toward deeper conversations and one-on-one time"
	default:
		return "Continue building connection at current pace"
	}
}

// StrategicGoal states what the recommended strategy is trying to achieve.
func StrategicGoal(interpretation, stageLabel string) string {
	switch interpretation {
	case scoring.VeryPositive:
		return "Maintain momentum and deepen connection"
	case scoring.Concerning:
		return "Re-establish positive rapport and gauge genuine interest"
	default:
		return fmt.Sprintf("Progress from %s to next relationship stage", stageLabel)
	}
}

// ExplainPsychology joins each tactic's rationale.
func ExplainPsychology(tactics []models.Tactic) string {
	parts := make([]string, 0, len(tactics))
	for _, t := range tactics {
		parts = append(parts, fmt.Sprintf("%s: %s", t.Name, t.Psychology))
	}
	return strings.Join(parts, "; ")
}

// Reasoning summarizes how the diagnosis was reached.
func Reasoning(profile, state models.ProfileAssessment, signals models.SignalReport) string {
	return strings.Join([]string{
		fmt.Sprintf("Profile detected as %s based on %d%% confidence match", profile.Label, profile.Confidence),
		fmt.Sprintf("Current emotional state appears to be %s", state.Label),
		fmt.Sprintf("Signals are %s (%d positive, %d negative)", signals.Interpretation, len(signals.Positive), len(signals.Negative)),
	}, ". ")
}

// Confidence rates how much to trust the strategy, clamped to 30..95.
func Confidence(signals models.SignalReport, profile models.ProfileAssessment) int {
	c := constants.BaseStrategyConfidence
	if len(signals.Positive) > constants.SignalCountThreshold {
		c += constants.PositiveSignalBonus
	}
	if len(signals.Negative) > constants.SignalCountThreshold {
		c -= constants.NegativeSignalPenalty
	}
	c += profile.Confidence / constants.ProfileConfidenceDivisor

	if c < constants.MinStrategyConfidence {
		return constants.MinStrategyConfidence
	}
	if c > constants.MaxStrategyConfidence {
		return constants.MaxStrategyConfidence
	}
	return c
}
