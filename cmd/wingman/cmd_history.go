package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nvandessel/wingman/internal/service"
	"github.com/nvandessel/wingman/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse stored analyses",
		Long: `Browse analyses saved to the history store.

Examples:
  wingman history list                  # Most recent analyses
  wingman history list --subject Sam    # Only analyses about Sam
  wingman history show <id>             # Full result of one analysis
  wingman history backup --keep 5       # Snapshot history to ~/.wingman/backups
  wingman history restore <file>        # Import a snapshot, skipping known IDs`,
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryBackupCmd(),
		newHistoryRestoreCmd(),
	)

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored analyses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			subject, _ := cmd.Flags().GetString("subject")
			limit, _ := cmd.Flags().GetInt("limit")

			a, err := newApp(cmd.Context(), cmd, appOptions{store: true})
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.svc.History(cmd.Context(), store.ListOptions{SubjectName: subject, Limit: limit})
			if err != nil {
				return historyError(err)
			}

			if jsonOut {
				for i := range records {
					records[i].Result = nil
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"records": records,
					"count":   len(records),
				})
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No analyses stored yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tWHO\tINTEREST\tON TRACK\tRED FLAGS")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
					r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"),
					valueOrDefault(r.SubjectName, "-"), r.Interpretation, r.Percentile, r.Severity)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().String("subject", "", "Only analyses about this person")
	cmd.Flags().Int("limit", store.DefaultListLimit, "Maximum number of analyses")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}

			a, err := newApp(cmd.Context(), cmd, appOptions{store: true})
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.svc.Record(cmd.Context(), id)
			if err != nil {
				return historyError(err)
			}
			res, err := rec.Decode()
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"record": rec,
					"result": res,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %s  %s\n", rec.ID, rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.SubjectName)
			fmt.Fprintf(w, "%s\n\n", rec.Narrative)
			printOutcome(w, service.Outcome{Result: res})
			return nil
		},
	}
}

func historyError(err error) error {
	switch {
	case errors.Is(err, service.ErrNoStore):
		return fmt.Errorf("history is disabled (store.driver is none)")
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("no analysis with that id")
	default:
		return fmt.Errorf("failed to read history: %w", err)
	}
}
