package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"filesort/internal/browse"
	"filesort/internal/catalog"
	"filesort/internal/logging"
	"filesort/internal/organizer"
	"filesort/internal/services"
	"filesort/internal/session"
)

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactively search, locate and re-organize",
		Long: `Open a full-screen view with live prefix search over the latest run.
Enter locates the selected file, ctrl+r starts a new organize pass in the
background and ctrl+x cancels it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) {
				return services.Wrap(services.ErrValidation, "browse", "start", "browse needs an interactive terminal", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// Console logs would corrupt the full-screen view, so only the
			// log file is written while browsing.
			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "filesort.log")},
			})
			if err != nil {
				return err
			}

			return ctx.withCatalog(func(store *catalog.Store) error {
				recorder := func(rctx context.Context, req organizer.Request, res *organizer.Result, runErr error) error {
					return recordRun(rctx, store, req, res, runErr)
				}
				sess := session.New(newOrganizer(cfg, logger, nil),
					session.WithLogger(logger),
					session.WithRecorder(recorder),
				)

				snap, err := loadSnapshot(cmd.Context(), store, runID)
				switch {
				case err == nil:
					sess.Load(snap)
				case errors.Is(err, services.ErrNotFound) && runID == "":
					logger.Info("no completed run recorded; starting with an empty index")
				default:
					return err
				}

				req, err := buildRequest(cfg, organizeOverrides{})
				if err != nil {
					return err
				}
				model := browse.New(cmd.Context(), sess, req)
				runErr := browse.Run(cmd.Context(), model)
				if task := model.PendingTask(); task != nil {
					task.Cancel()
					_, _ = task.Wait()
				}
				return runErr
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id or prefix to browse (defaults to the latest completed run)")
	return cmd
}
