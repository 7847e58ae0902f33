package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wingman/internal/rules"
	"github.com/nvandessel/wingman/internal/tactics"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rulebooks",
		Long: `Inspect and validate rulebooks.

A rulebook is the YAML document holding every pattern, score, threshold,
tactic and reply template the analysis uses. Without --rules the embedded
default rulebook is used.

Examples:
  wingman rules show                       # Summarize the active rulebook
  wingman rules show --yaml > rules.yaml   # Export the default rulebook to edit
  wingman rules validate rules.yaml        # Check a rulebook before deploying it
  wingman rules scenarios                  # List scenario blueprints and their advice
  wingman rules explain --state stressed   # Show which tactic rules fire and why`,
	}

	cmd.AddCommand(
		newRulesValidateCmd(),
		newRulesShowCmd(),
		newRulesScenariosCmd(),
		newRulesExplainCmd(),
	)

	return cmd
}

// loadRulebook reads path, or the configured rulebook when path is empty.
func loadRulebook(cmd *cobra.Command, path string) (*rules.Rulebook, string, error) {
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, "", err
		}
		path = cfg.Rules.Path
	}
	if path == "" {
		rb, err := rules.Default()
		return rb, "(embedded)", err
	}
	rb, err := rules.LoadFile(path)
	return rb, path, err
}

func newRulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a rulebook file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			rb, source, err := loadRulebook(cmd, path)
			if err == nil {
				err = rb.Validate()
			}

			if jsonOut {
				result := map[string]interface{}{
					"source": source,
					"valid":  err == nil,
				}
				if err != nil {
					result["error"] = err.Error()
				} else {
					result["rules"] = rb.Summarize()
				}
				json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			} else if err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (version %s)\n", source, rb.Version)
			}

			if err != nil {
				return fmt.Errorf("rulebook %s is invalid: %w", source, err)
			}
			return nil
		},
	}
}

func newRulesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Summarize the active rulebook",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			dumpYAML, _ := cmd.Flags().GetBool("yaml")

			rb, source, err := loadRulebook(cmd, "")
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			if dumpYAML {
				if source == "(embedded)" {
					_, err = cmd.OutOrStdout().Write(rules.DefaultYAML())
					return err
				}
				data, err := os.ReadFile(source)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			sum := rb.Summarize()
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"source": source,
					"rules":  sum,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Rulebook %s (version %s)\n\n", source, sum.Version)
			fmt.Fprintf(w, "  golden patterns:   %d categories, %d phrases\n", sum.GoldenPatterns, sum.GoldenPhrases)
			fmt.Fprintf(w, "  interest signals:  %d\n", sum.Signals)
			fmt.Fprintf(w, "  profiles:          %d\n", sum.Profiles)
			fmt.Fprintf(w, "  emotional states:  %d\n", sum.EmotionalStates)
			fmt.Fprintf(w, "  stages:            %d\n", sum.Stages)
			fmt.Fprintf(w, "  red-flag rules:    %d\n", sum.RedFlags)
			fmt.Fprintf(w, "  scenarios:         %d\n", sum.Scenarios)
			fmt.Fprintf(w, "  tactics:           %d (%d selection rules)\n", sum.Tactics, sum.TacticRules)
			fmt.Fprintf(w, "  reply branches:    %d\n", sum.Branches)
			fmt.Fprintln(w, "\nTactics:")
			for _, t := range rb.Tactics {
				fmt.Fprintf(w, "  %-22s %s\n", t.Key, t.Name)
			}
			return nil
		},
	}

	cmd.Flags().Bool("yaml", false, "Print the rulebook source instead of a summary")
	return cmd
}

func newRulesScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List scenario blueprints with their risk and advice",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rb, _, err := loadRulebook(cmd, "")
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"default":   rb.DefaultScenario,
					"scenarios": rb.Scenarios,
				})
			}

			w := cmd.OutOrStdout()
			for _, sc := range rb.Scenarios {
				marker := ""
				if sc.Key == rb.DefaultScenario {
					marker = " (default)"
				}
				fmt.Fprintf(w, "%s [%s risk]%s\n", sc.Label, sc.RiskLevel, marker)
				if sc.Description != "" {
					fmt.Fprintf(w, "  %s\n", sc.Description)
				}
				printList(w, "  do:", sc.Recommended)
				printList(w, "  avoid:", sc.Avoid)
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}

func newRulesExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show which tactic rules fire for a set of labels",
		Long: `Show which tactic rules fire for a set of labels.

Each tactic rule is evaluated against the labels given by flags and
reported with the conditions that confirmed or blocked it. Unset labels
count as absent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rb, _, err := loadRulebook(cmd, "")
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}

			in := tactics.Input{}
			in.Profile, _ = cmd.Flags().GetString("profile")
			in.EmotionalState, _ = cmd.Flags().GetString("state")
			in.Stage, _ = cmd.Flags().GetString("stage")
			in.Interpretation, _ = cmd.Flags().GetString("interpretation")
			in.CommunicationMode, _ = cmd.Flags().GetString("mode")

			traces := tactics.Explain(rb, in)
			selected := tactics.Select(rb, in)

			if jsonOut {
				names := make([]string, len(selected))
				for i, t := range selected {
					names[i] = t.Name
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"rules":    traces,
					"selected": names,
				})
			}

			w := cmd.OutOrStdout()
			for _, tr := range traces {
				mark := "✗"
				if tr.Explanation.Fires {
					mark = "✓"
				}
				fmt.Fprintf(w, "%s rule %d add %v: %s\n", mark, tr.Index, tr.Add, tr.Explanation.Reason)
				for _, c := range tr.Explanation.Conditions {
					actual := c.Actual
					if actual == "" {
						actual = "(unset)"
					}
					fmt.Fprintf(w, "    %s = %s, want %v (%s)\n", c.Field, actual, c.Required, c.Status)
				}
			}
			fmt.Fprintln(w, "\nSelected:")
			for _, t := range selected {
				fmt.Fprintf(w, "  %s\n", t.Name)
			}
			return nil
		},
	}

	cmd.Flags().String("profile", "", "Profile key (e.g. confident, logical)")
	cmd.Flags().String("state", "", "Emotional state key (e.g. stressed)")
	cmd.Flags().String("stage", "", "Stage key (e.g. friendly)")
	cmd.Flags().String("interpretation", "", "Interest interpretation (e.g. very_positive)")
	cmd.Flags().String("mode", "", "Communication mode key (e.g. fast_short)")
	return cmd
}
