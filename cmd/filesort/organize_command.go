package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"filesort/internal/buckets"
	"filesort/internal/catalog"
	"filesort/internal/config"
	"filesort/internal/logging"
	"filesort/internal/organizer"
	"filesort/internal/preflight"
	"filesort/internal/services"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var (
		source      string
		destination string
		noExtFolder string
		dryRun      bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Move source files into extension and caption folders",
		Long: `Move every regular file of the source directory into the destination tree.

Non-image files go to <dest>/<extension>/. Images (.jpg, .jpeg, .png) are
captioned and go to <dest>/images/<caption>/, or <dest>/images/others/ when no
caption is available. Existing destination files are never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			overrides := organizeOverrides{source: source, destination: destination}
			if cmd.Flags().Changed("no-ext-folder") {
				overrides.noExtFolder = &noExtFolder
			}
			if cmd.Flags().Changed("dry-run") {
				overrides.dryRun = &dryRun
			}
			req, err := buildRequest(cfg, overrides)
			if err != nil {
				return err
			}

			if err := runPreflight(cmd, cfg, req); err != nil {
				return err
			}

			var progress *progressReporter
			var progressFn organizer.ProgressFunc
			if !jsonOutput && isTerminal(cmd.ErrOrStderr()) {
				progress = newProgressReporter(cmd.ErrOrStderr())
				progressFn = progress.update
			}

			org := newOrganizer(cfg, logger, progressFn)
			res, runErr := org.Organize(cmd.Context(), req)
			if progress != nil {
				progress.finish()
			}

			if res != nil {
				if err := ctx.withCatalog(func(store *catalog.Store) error {
					return recordRun(context.WithoutCancel(cmd.Context()), store, req, res, runErr)
				}); err != nil {
					logger.Warn("failed to record organize run",
						logging.String(logging.FieldRunID, res.RunID),
						logging.Error(err),
					)
				}
			}
			if runErr != nil {
				return runErr
			}

			if jsonOutput {
				return writeJSON(cmd, newOrganizeReport(res))
			}
			printOrganizeSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source directory (overrides paths.source_dir)")
	cmd.Flags().StringVar(&destination, "dest", "", "Destination directory (overrides paths.destination_dir)")
	cmd.Flags().StringVar(&noExtFolder, "no-ext-folder", "", "Folder for files without an extension (empty keeps them in the destination root)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan placements without moving any file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runPreflight(cmd *cobra.Command, cfg *config.Config, req organizer.Request) error {
	checkCfg := *cfg
	checkCfg.Paths.SourceDir = req.Source
	checkCfg.Paths.DestinationDir = req.Destination

	failed := preflight.Blocking(preflight.RunAll(cmd.Context(), &checkCfg))
	if len(failed) == 0 {
		return nil
	}
	details := make([]string, 0, len(failed))
	for _, r := range failed {
		details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "organize", "preflight", strings.Join(details, "; "), nil)
}

type organizeReport struct {
	RunID       string         `json:"run_id"`
	Source      string         `json:"source"`
	Destination string         `json:"destination"`
	DryRun      bool           `json:"dry_run"`
	Moves       []moveReport   `json:"moves"`
	Skipped     []skipReport   `json:"skipped"`
	Conflicts   []skipReport   `json:"conflicts"`
	Folders     map[string]int `json:"folders"`
}

type moveReport struct {
	Filename string `json:"filename"`
	Folder   string `json:"folder"`
	Caption  string `json:"caption,omitempty"`
	Path     string `json:"path"`
}

type skipReport struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
	Error    string `json:"error,omitempty"`
}

func newOrganizeReport(res *organizer.Result) organizeReport {
	report := organizeReport{
		RunID:       res.RunID,
		Source:      res.Source,
		Destination: res.Destination,
		DryRun:      res.DryRun,
		Moves:       make([]moveReport, 0, len(res.Moves)),
		Skipped:     toSkipReports(res.Skipped),
		Conflicts:   toSkipReports(res.Conflicts),
		Folders:     map[string]int{},
	}
	for _, m := range res.Moves {
		folder := relativeFolder(res.Destination, m.To)
		report.Moves = append(report.Moves, moveReport{
			Filename: m.Filename,
			Folder:   folder,
			Caption:  m.Caption,
			Path:     m.To,
		})
		report.Folders[folder]++
	}
	return report
}

func toSkipReports(skips []organizer.Skip) []skipReport {
	out := make([]skipReport, 0, len(skips))
	for _, s := range skips {
		r := skipReport{Filename: s.Filename, Reason: s.Reason}
		if s.Err != nil {
			r.Error = s.Err.Error()
		}
		out = append(out, r)
	}
	return out
}

// relativeFolder returns the folder of target relative to destination, with
// "." for the destination root.
func relativeFolder(destination, target string) string {
	rel, err := filepath.Rel(destination, filepath.Dir(target))
	if err != nil {
		return filepath.Dir(target)
	}
	return filepath.ToSlash(rel)
}

func printOrganizeSummary(out io.Writer, res *organizer.Result) {
	report := newOrganizeReport(res)

	verb := "Moved"
	if res.DryRun {
		verb = "Planned"
		fmt.Fprintln(out, "Dry run: no files were moved")
	}
	fmt.Fprintf(out, "Run %s\n", res.RunID)
	fmt.Fprintf(out, "%s %d of %d files from %s to %s\n",
		verb, len(res.Moves), res.Index.Len(), res.Source, res.Destination)

	if res.DryRun && len(report.Moves) > 0 {
		rows := make([][]string, 0, len(report.Moves))
		for _, m := range report.Moves {
			rows = append(rows, []string{m.Filename, m.Folder, m.Caption})
		}
		fmt.Fprintln(out, renderTable([]string{"File", "Folder", "Caption"}, rows, nil))
	} else if len(report.Folders) > 0 {
		folders := make([]string, 0, len(report.Folders))
		for folder := range report.Folders {
			folders = append(folders, folder)
		}
		sort.Strings(folders)
		rows := make([][]string, 0, len(folders))
		for _, folder := range folders {
			rows = append(rows, []string{displayFolder(folder), strconv.Itoa(report.Folders[folder])})
		}
		fmt.Fprintln(out, renderTable([]string{"Folder", "Files"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	if len(report.Conflicts) > 0 {
		fmt.Fprintf(out, "Conflicts (%d), left in source:\n", len(report.Conflicts))
		for _, c := range report.Conflicts {
			fmt.Fprintf(out, "  - %s: %s\n", c.Filename, c.Reason)
		}
	}
	if len(report.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped (%d):\n", len(report.Skipped))
		for _, s := range report.Skipped {
			fmt.Fprintf(out, "  - %s: %s\n", s.Filename, s.Reason)
		}
	}
}

func displayFolder(folder string) string {
	switch {
	case folder == ".":
		return "(destination root)"
	case folder == buckets.ImagesFolder+"/"+buckets.OthersFolder:
		return folder + " (uncaptioned)"
	default:
		return folder
	}
}
