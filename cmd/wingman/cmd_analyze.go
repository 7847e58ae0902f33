package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/wingman/internal/models"
	"github.com/nvandessel/wingman/internal/service"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an interaction and recommend a next move",
		Long: `Analyze what happened with someone you're interested in.

The narrative comes from --narrative, from --file (use "-" for stdin), or
from a full input document passed with --input. Chat history is a YAML or
JSON list of {sender, message, is_initiation} turns, oldest first; use
sender "crush" for the other person and "user" for yourself.

Examples:
  wingman analyze --narrative "she replied fast and asked about my trip"
  wingman analyze --file story.txt --history chat.yaml --name Sam
  wingman analyze --input analysis.json --json
  echo "he left me on read" | wingman analyze --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			noStore, _ := cmd.Flags().GetBool("no-store")

			in, err := readAnalysisInput(cmd)
			if err != nil {
				return err
			}
			if err := service.Validate(in); err != nil {
				return fmt.Errorf("invalid input: %w", err)
			}

			a, err := newApp(cmd.Context(), cmd, appOptions{store: !noStore, events: !noStore})
			if err != nil {
				return err
			}
			defer a.Close()

			out := a.svc.Analyze(cmd.Context(), in)

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				printOutcome(cmd.OutOrStdout(), out)
			}

			if !out.Result.Success {
				return fmt.Errorf("analysis failed: %s", out.Result.Error)
			}
			return nil
		},
	}

	cmd.Flags().String("narrative", "", "What happened, in your own words")
	cmd.Flags().String("file", "", "Read the narrative from a file (\"-\" for stdin)")
	cmd.Flags().String("input", "", "Read a full analysis input (narrative, history, context) from a YAML or JSON file")
	cmd.Flags().String("history", "", "YAML or JSON file with recent chat turns")
	cmd.Flags().String("name", "", "Their name")
	cmd.Flags().String("personality", "", "How you'd describe their personality")
	cmd.Flags().String("status", "", "Their relationship status")
	cmd.Flags().String("stage", "", "Where things stand (e.g. first_contact, dating)")
	cmd.Flags().StringSlice("pattern", nil, "A behavior you've noticed (repeatable)")
	cmd.Flags().StringSlice("interest", nil, "Something they're into (repeatable)")
	cmd.Flags().Bool("no-store", false, "Don't save this analysis to history or publish events")

	return cmd
}

// readAnalysisInput assembles the input from flags. Flags override fields
// loaded with --input.
func readAnalysisInput(cmd *cobra.Command) (models.AnalysisInput, error) {
	var in models.AnalysisInput

	if path, _ := cmd.Flags().GetString("input"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return in, fmt.Errorf("failed to read input: %w", err)
		}
		if err := yaml.Unmarshal(data, &in); err != nil {
			return in, fmt.Errorf("failed to parse input %s: %w", path, err)
		}
	}

	narrative, _ := cmd.Flags().GetString("narrative")
	file, _ := cmd.Flags().GetString("file")
	switch {
	case narrative != "" && file != "":
		return in, fmt.Errorf("use either --narrative or --file, not both")
	case narrative != "":
		in.Narrative = narrative
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return in, fmt.Errorf("failed to read stdin: %w", err)
		}
		in.Narrative = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return in, fmt.Errorf("failed to read narrative: %w", err)
		}
		in.Narrative = string(data)
	}

	if path, _ := cmd.Flags().GetString("history"); path != "" {
		history, err := readHistory(path)
		if err != nil {
			return in, err
		}
		in.History = history
	}

	ctx := in.SubjectContextOrEmpty()
	set := false
	for flag, field := range map[string]*string{
		"name":        &ctx.Name,
		"personality": &ctx.Personality,
		"status":      &ctx.RelationshipStatus,
		"stage":       &ctx.CurrentStage,
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			*field = v
			set = true
		}
	}
	if v, _ := cmd.Flags().GetStringSlice("pattern"); len(v) > 0 {
		ctx.BehavioralPatterns = v
		set = true
	}
	if v, _ := cmd.Flags().GetStringSlice("interest"); len(v) > 0 {
		ctx.Interests = v
		set = true
	}
	if set || in.Context != nil {
		in.Context = &ctx
	}

	in.Narrative = strings.TrimSpace(in.Narrative)
	return in, nil
}

func readHistory(path string) ([]models.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	var history []models.Message
	if err := yaml.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", path, err)
	}
	return history, nil
}
