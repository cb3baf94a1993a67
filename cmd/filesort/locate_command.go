package main

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"filesort/internal/catalog"
	"filesort/internal/locator"
	"filesort/internal/services"
)

const suggestionLimit = 5

func newLocateCommand(ctx *commandContext) *cobra.Command {
	var (
		runID      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "locate <filename>",
		Short: "Show where an organized file lives now",
		Long: `Resolve a filename from an organize run to its path under the destination.
Image locations are read from disk, so files moved between caption folders
after the run are still found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return ctx.withCatalog(func(store *catalog.Store) error {
				snap, err := loadSnapshot(cmd.Context(), store, runID)
				if err != nil {
					return err
				}
				fs := afero.NewOsFs()
				loc := locator.New(fs, snap.Destination, snap.Buckets, snap.NoExtensionFolder)
				res := loc.Locate(name)

				var suggestions []string
				if !res.Found {
					suggestions = loc.Suggest(name, suggestionLimit)
				}
				exists := false
				if res.Found {
					exists, _ = afero.Exists(fs, res.Path)
				}

				if jsonOutput {
					if err := writeJSON(cmd, map[string]any{
						"run_id":      snap.RunID,
						"filename":    res.Filename,
						"found":       res.Found,
						"extension":   res.Bucket,
						"path":        res.Path,
						"exists":      exists,
						"suggestions": suggestions,
					}); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					if res.Found {
						fmt.Fprintln(out, res.Path)
						if !exists {
							fmt.Fprintln(cmd.ErrOrStderr(), "warning: no file exists at that path any more")
						}
					} else if len(suggestions) > 0 {
						fmt.Fprintf(out, "%q was not part of run %s. Did you mean:\n", name, shortRunID(snap.RunID))
						for _, s := range suggestions {
							fmt.Fprintf(out, "  %s\n", s)
						}
					}
				}

				if !res.Found {
					return services.Wrap(services.ErrNotFound, "locate", "lookup", fmt.Sprintf("file %q not found in run %s", name, shortRunID(snap.RunID)), nil)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id or prefix (defaults to the latest completed run)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func shortRunID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
