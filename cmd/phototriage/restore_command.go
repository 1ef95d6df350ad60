package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"phototriage/internal/trash"
)

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "restore <dir>",
		Short: "Move trashed duplicates back to their original locations",
		Long: `Replay the trash manifest in reverse: every file recorded by a previous
dedupe run is moved from _duplicates_trash/ back to its original path.
Entries whose original path is now occupied by different content are left
in the trash and reported; re-running restore retries only those.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}

			runCtx, cancel := signalContext()
			defer cancel()

			report, err := trash.Restore(runCtx, args[0], logger)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, restoreReport{
					Restored:    report.Restored,
					AlreadyDone: report.AlreadyDone,
					Failed:      report.Failed,
				})
			}

			out := cmd.OutOrStdout()
			if len(report.Restored) == 0 && report.AlreadyDone == 0 && len(report.Failed) == 0 {
				fmt.Fprintln(out, "Nothing to restore")
				return nil
			}
			fmt.Fprintf(out, "Restored %s\n", plural(len(report.Restored), "file"))
			if report.AlreadyDone > 0 {
				fmt.Fprintf(out, "%s already back in place\n", plural(report.AlreadyDone, "file"))
			}
			for _, failure := range report.Failed {
				fmt.Fprintf(out, "  failed: %s (%s)\n", failure.Path, failure.Reason)
			}
			if len(report.Failed) > 0 {
				fmt.Fprintln(out, "Failed entries stay in the trash; resolve the conflicts and re-run restore")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

type restoreReport struct {
	Restored    []trash.MoveRecord `json:"restored,omitempty"`
	AlreadyDone int                `json:"already_done,omitempty"`
	Failed      []trash.Failure    `json:"failed,omitempty"`
}
