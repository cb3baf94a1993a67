package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"filesort/internal/catalog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded organize runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *catalog.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					out := make([]runReport, 0, len(runs))
					for _, r := range runs {
						out = append(out, newRunReport(r))
					}
					return writeJSON(cmd, out)
				}

				w := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(w, "No organize runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						shortRunID(r.ID),
						r.StartedAt.Local().Format("2006-01-02 15:04:05"),
						string(r.Status),
						r.Source,
						r.Destination,
						strconv.Itoa(r.MovedCount),
						strconv.Itoa(r.SkippedCount),
						strconv.Itoa(r.ConflictCount),
					})
				}
				fmt.Fprintln(w, renderTable(
					[]string{"ID", "Started", "Status", "Source", "Destination", "Moved", "Skipped", "Conflicts"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	cmd.AddCommand(newRunsDeleteCommand(ctx))
	return cmd
}

func newRunsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Forget a recorded run (files are not touched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(store *catalog.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := store.DeleteRun(cmd.Context(), run.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.ID)
				return nil
			})
		},
	}
}

type runReport struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Moved       int       `json:"moved"`
	Skipped     int       `json:"skipped"`
	Conflicts   int       `json:"conflicts"`
}

func newRunReport(r catalog.Run) runReport {
	return runReport{
		ID:          r.ID,
		Status:      string(r.Status),
		Source:      r.Source,
		Destination: r.Destination,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Moved:       r.MovedCount,
		Skipped:     r.SkippedCount,
		Conflicts:   r.ConflictCount,
	}
}
