package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"phototriage/internal/cluster"
	"phototriage/internal/config"
	"phototriage/internal/trash"
)

func newDedupeCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags
	var keepValue string
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "dedupe <dir>",
		Short: "Move non-kept duplicates into the trash directory",
		Long: `Scan a directory, group near-duplicate images, pick one keeper per group
with the --keep policy, and move everything else into _duplicates_trash/
inside the scanned directory. Every move is recorded in a manifest so
"phototriage restore" can reverse the whole operation.`,
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
			policy, err := parseKeepPolicy(keepValue)
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
			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				if jsonOutput {
					return writeJSON(cmd, dedupeReport{Root: result.Root, Threshold: flags.threshold})
				}
				fmt.Fprintf(out, "No duplicate groups at threshold %d; nothing to do\n", flags.threshold)
				return nil
			}

			if dryRun {
				return printDedupePlan(cmd, result.Root, flags.threshold, policy, groups, jsonOutput)
			}

			session, err := trash.NewSession(result.Root, logger)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Begin(clusters); err != nil {
				return err
			}
			for _, group := range session.Groups() {
				if err := session.Choose(group.ID, policy.pick(group)); err != nil {
					return err
				}
			}
			if err := session.Review(); err != nil {
				return err
			}
			report, err := session.Validate(runCtx)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, dedupeReport{
					Root:      result.Root,
					Threshold: flags.threshold,
					SessionID: report.SessionID,
					Groups:    len(groups),
					Moved:     report.Moved,
					Failed:    report.Failed,
				})
			}

			fmt.Fprintf(out, "Moved %s to %s\n", plural(len(report.Moved), "duplicate"), trash.Dir(result.Root))
			for _, failure := range report.Failed {
				fmt.Fprintf(out, "  failed: %s (%s)\n", failure.Path, failure.Reason)
			}
			fmt.Fprintf(out, "Run `phototriage restore %s` to undo\n", args[0])
			return nil
		},
	}

	cmd.Flags().IntVarP(&flags.threshold, "threshold", "t", config.DefaultThreshold, "Maximum Hamming distance for grouping (0-20)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Fingerprinting workers (0 = one per CPU core)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "Bypass the fingerprint cache")
	cmd.Flags().StringVar(&keepValue, "keep", "largest", "Keeper per group: first, largest, or newest")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without moving anything")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	return cmd
}

type dedupeReport struct {
	Root      string             `json:"root"`
	Threshold int                `json:"threshold"`
	SessionID string             `json:"session_id,omitempty"`
	Groups    int                `json:"groups"`
	Moved     []trash.MoveRecord `json:"moved,omitempty"`
	Failed    []trash.Failure    `json:"failed,omitempty"`
}

type dedupePlanEntry struct {
	Group  int      `json:"group"`
	Keep   string   `json:"keep"`
	Remove []string `json:"remove"`
}

func printDedupePlan(cmd *cobra.Command, root string, threshold int, policy keepPolicy, groups []cluster.Cluster, jsonOutput bool) error {
	var plan []dedupePlanEntry
	for _, group := range groups {
		keep := policy.pick(group)
		entry := dedupePlanEntry{Group: group.ID, Keep: group.Members[keep].RelPath}
		for i, member := range group.Members {
			if i != keep {
				entry.Remove = append(entry.Remove, member.RelPath)
			}
		}
		plan = append(plan, entry)
	}

	if jsonOutput {
		return writeJSON(cmd, struct {
			Root      string            `json:"root"`
			Threshold int               `json:"threshold"`
			Policy    string            `json:"policy"`
			Plan      []dedupePlanEntry `json:"plan"`
		}{Root: root, Threshold: threshold, Policy: policy.String(), Plan: plan})
	}

	columns := []column{{name: "Group", numeric: true}, {name: "Action"}, {name: "Path"}}
	var rows [][]string
	for _, entry := range plan {
		rows = append(rows, []string{strconv.Itoa(entry.Group), "keep", entry.Keep})
		for _, rel := range entry.Remove {
			rows = append(rows, []string{strconv.Itoa(entry.Group), "trash", rel})
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dry run: %s, keep policy %s\n\n", plural(len(plan), "duplicate group"), policy)
	fmt.Fprintln(out, renderTable(columns, rows))
	return nil
}
