package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"phototriage/internal/cluster"
	"phototriage/internal/config"
	"phototriage/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Fingerprint a directory and list duplicate groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			flags.threshold = resolveThreshold(cfg, flags.threshold, cmd.Flags().Changed("threshold"))

			runCtx, cancel := signalContext()
			defer cancel()

			result, clusters, err := ctx.scanAndCluster(runCtx, logger, args[0], flags)
			if err != nil {
				return err
			}
			groups := cluster.Duplicates(clusters)

			if jsonOutput {
				return writeJSON(cmd, scanReport{
					Root:            result.Root,
					Threshold:       flags.threshold,
					Fingerprinted:   len(result.Records),
					Skipped:         result.Skipped,
					DuplicateGroups: groups,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %s: %s fingerprinted, %s skipped\n",
				result.Root, plural(len(result.Records), "file"), plural(len(result.Skipped), "file"))
			if len(groups) == 0 {
				fmt.Fprintf(out, "No duplicate groups at threshold %d\n", flags.threshold)
				return nil
			}
			fmt.Fprintf(out, "%s at threshold %d\n\n", plural(len(groups), "duplicate group"), flags.threshold)
			fmt.Fprintln(out, renderGroupTable(groups))
			return nil
		},
	}

	cmd.Flags().IntVarP(&flags.threshold, "threshold", "t", config.DefaultThreshold, "Maximum Hamming distance for grouping (0-20)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Fingerprinting workers (0 = one per CPU core)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Bypass the fingerprint cache")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

type scanReport struct {
	Root            string            `json:"root"`
	Threshold       int               `json:"threshold"`
	Fingerprinted   int               `json:"fingerprinted"`
	Skipped         []scan.Skip       `json:"skipped,omitempty"`
	DuplicateGroups []cluster.Cluster `json:"duplicate_groups"`
}

func renderGroupTable(groups []cluster.Cluster) string {
	columns := []column{
		{name: "Group", numeric: true},
		{name: "Member", numeric: true},
		{name: "Path"},
		{name: "Size", numeric: true},
		{name: "Dimensions", numeric: true},
		{name: "Captured"},
	}

	var rows [][]string
	for _, group := range groups {
		for i, member := range group.Members {
			captured := ""
			if member.CapturedAt != nil {
				captured = member.CapturedAt.Format("2006-01-02 15:04")
			}
			dims := ""
			if member.Width > 0 && member.Height > 0 {
				dims = fmt.Sprintf("%dx%d", member.Width, member.Height)
			}
			rows = append(rows, []string{
				strconv.Itoa(group.ID),
				strconv.Itoa(i),
				member.RelPath,
				formatBytes(member.Size),
				dims,
				captured,
			})
		}
	}
	return renderTable(columns, rows)
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
