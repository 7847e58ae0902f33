package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wingman/internal/backup"
	"github.com/nvandessel/wingman/internal/config"
	"github.com/nvandessel/wingman/internal/service"
	"github.com/nvandessel/wingman/internal/store"
)

func newHistoryBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write all stored analyses to a checksummed backup file",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			keep, _ := cmd.Flags().GetInt("keep")

			a, err := newApp(cmd.Context(), cmd, appOptions{store: true})
			if err != nil {
				return err
			}
			defer a.Close()

			hs, err := historyStore(a)
			if err != nil {
				return err
			}

			dir := ""
			if output == "" {
				home, err := config.HomeDir()
				if err != nil {
					return err
				}
				dir = filepath.Join(home, "backups")
				output = backup.GeneratePath(dir, time.Now())
			}

			header, err := backup.Backup(cmd.Context(), hs, output, map[string]string{
				"driver":        a.cfg.Store.Driver,
				"rules_version": a.svc.Rules().Version,
			})
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			var removed []string
			if dir != "" && keep > 0 {
				removed, err = backup.Rotate(dir, keep)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":    output,
					"header":  header,
					"rotated": removed,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d analyses to %s\n", header.RecordCount, output)
			if len(removed) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d old backups\n", len(removed))
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Backup file (default ~/.wingman/backups/wingman-history-<time>.backup)")
	cmd.Flags().Int("keep", 10, "Backups to keep in the default directory (0 keeps all)")
	return cmd
}

func newHistoryRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Import analyses from a backup file",
		Long: `Import analyses from a backup file into the configured history store.

Analyses whose ID is already stored are skipped. Use --verify to only
check the file's checksum without importing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			verifyOnly, _ := cmd.Flags().GetBool("verify")
			path := args[0]

			if verifyOnly {
				header, err := backup.ReadHeader(path)
				if err != nil {
					return err
				}
				if err := backup.VerifyChecksum(path); err != nil {
					return err
				}
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
						"path":   path,
						"valid":  true,
						"header": header,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is intact (%d analyses, created %s)\n",
					path, header.RecordCount, header.CreatedAt.Local().Format("2006-01-02 15:04"))
				return nil
			}

			a, err := newApp(cmd.Context(), cmd, appOptions{store: true})
			if err != nil {
				return err
			}
			defer a.Close()

			hs, err := historyStore(a)
			if err != nil {
				return err
			}

			result, err := backup.Restore(cmd.Context(), hs, path)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d analyses (%d already present)\n", result.Restored, result.Skipped)
			return nil
		},
	}

	cmd.Flags().Bool("verify", false, "Only verify the file's checksum")
	return cmd
}

// historyStore returns the configured store, or an error when history is disabled.
func historyStore(a *app) (store.HistoryStore, error) {
	if a.history == nil {
		return nil, historyError(service.ErrNoStore)
	}
	return a.history, nil
}
