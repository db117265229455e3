package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cloudbudget/internal/storage"
)

var errNeedsConfirmation = errors.New("this replaces local data; rerun with --yes")

func newBackupCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up to and restore from the remote spreadsheet",
	}
	cmd.AddCommand(newBackupPushCmd(rt), newBackupPullCmd(rt), newBackupStatusCmd(rt), newBackupAutoCmd(rt))
	return cmd
}

func newBackupPushCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Write the local state to the backup now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := rt.backup.SyncToCloud(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backed up at %s\n", at.Format(storage.LastSyncLayout))
			return nil
		},
	}
}

func newBackupPullCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Replace the local state with the backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			rt.stopSync()
			snap, err := rt.backup.LoadFromCloud(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d accounts and %d transactions\n",
				len(snap.Accounts()), len(snap.Transactions()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm replacing local data")
	return cmd
}

func newBackupStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last backup time and the auto-sync setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			last, err := rt.backup.LastSync(ctx)
			if err != nil {
				return err
			}
			if last == "" {
				last = "never"
			}
			enabled, err := rt.app.Backend.Settings.AutoSyncEnabled(ctx)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Backend\t%s\n", rt.cfg.BackupBackend)
			fmt.Fprintf(tw, "Last sync\t%s\n", last)
			fmt.Fprintf(tw, "Auto-sync\t%t\n", enabled && rt.cfg.AutoSyncEnabled)
			return tw.Flush()
		},
	}
}

func newBackupAutoCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:       "auto on|off",
		Short:     "Turn automatic backups on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
			default:
				return fmt.Errorf("want on or off, got %q", args[0])
			}
			if err := rt.app.Backend.Settings.SetAutoSyncEnabled(cmd.Context(), enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auto-sync %s\n", args[0])
			return nil
		},
	}
}

func newExportCmd(rt *runtime) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "export json|csv",
		Short:     "Export everything as JSON, or the transactions as CSV",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"json", "csv"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			switch args[0] {
			case "json":
				return rt.backup.ExportJSON(cmd.Context(), w)
			case "csv":
				return rt.backup.ExportCSV(cmd.Context(), w)
			}
			return fmt.Errorf("unknown export format %q", args[0])
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newClearCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all local data; settings and the remote backup are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			rt.stopSync()
			ctx := cmd.Context()
			if err := rt.app.Backend.Clearer.ClearData(ctx); err != nil {
				return err
			}
			if err := rt.store().Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Local data cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting local data")
	return cmd
}
