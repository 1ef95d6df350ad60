package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"phototriage/internal/organizer"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dest string
	var periodValue string
	var copyMode bool
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "organize <src>",
		Short: "Sort photos into date-named folders",
		Long: `Bucket the image files directly under a source directory into
<dest>/<bucket>/ folders named after each photo's EXIF capture date at the
chosen granularity. Photos without a usable date land in date_inconnue/.
Files are moved unless --copy is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("period") {
				periodValue = cfg.Organize.Period
			}
			period, err := organizer.ParsePeriod(periodValue)
			if err != nil {
				return err
			}
			mode := organizer.ModeMove
			if copyMode {
				mode = organizer.ModeCopy
			}

			runCtx, cancel := signalContext()
			defer cancel()

			progress := newProgressPrinter("Organizing")
			report, err := organizer.Run(runCtx, organizer.Options{
				Source:    args[0],
				Dest:      dest,
				Period:    period,
				Mode:      mode,
				Recognize: cfg.RecognizesExtension,
				DryRun:    dryRun,
				Progress:  progress.update,
				Logger:    logger,
			})
			progress.finish()
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			verb := "Moved"
			if mode == organizer.ModeCopy {
				verb = "Copied"
			}
			if dryRun {
				verb = "Would place"
			}
			fmt.Fprintf(out, "%s %s into %s buckets under %s\n",
				verb, plural(len(report.Placed), "file"), period, dest)
			if len(report.Skipped) > 0 {
				fmt.Fprintf(out, "Skipped %s\n", plural(len(report.Skipped), "file"))
			}
			for _, failure := range report.Failed {
				fmt.Fprintf(out, "  failed: %s (%s)\n", failure.Path, failure.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination root for the dated folders")
	cmd.Flags().StringVar(&periodValue, "period", "", "Bucket granularity: year, month, week, or day")
	cmd.Flags().BoolVar(&copyMode, "copy", false, "Copy files instead of moving them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print target paths without touching files")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}
