package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filesort/internal/buckets"
	"filesort/internal/catalog"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		runID      string
		limit      int
		plain      bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search [prefix]",
		Short: "Autocomplete filenames from an organize run",
		Long: `List every organized filename that starts with prefix, in lexicographic
order. Without a prefix every filename of the run is listed. Matching is
case-sensitive.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			return ctx.withCatalog(func(store *catalog.Store) error {
				snap, err := loadSnapshot(cmd.Context(), store, runID)
				if err != nil {
					return err
				}
				matches := snap.Index.SearchAutocomplete(prefix)
				total := len(matches)
				if limit > 0 && len(matches) > limit {
					matches = matches[:limit]
				}

				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"run_id":  snap.RunID,
						"prefix":  prefix,
						"total":   total,
						"matches": matches,
					})
				}

				out := cmd.OutOrStdout()
				if plain {
					for _, name := range matches {
						fmt.Fprintln(out, name)
					}
					return nil
				}
				if total == 0 {
					fmt.Fprintf(out, "No filenames start with %q\n", prefix)
					return nil
				}
				rows := make([][]string, 0, len(matches))
				for _, name := range matches {
					ext, _ := snap.Buckets.BucketOf(name)
					rows = append(rows, []string{name, displayExtension(ext)})
				}
				fmt.Fprintln(out, renderTable([]string{"Filename", "Extension"}, rows, nil))
				if total > len(matches) {
					fmt.Fprintf(out, "Showing %d of %d matches\n", len(matches), total)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id or prefix (defaults to the latest completed run)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of matches to show (0 for all)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print one filename per line")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func displayExtension(ext string) string {
	if ext == "" {
		return "(none)"
	}
	if buckets.IsImage(ext) {
		return ext + " (image)"
	}
	return ext
}
