package main

import (
	"context"
	"errors"
	"log/slog"

	"filesort/internal/caption"
	"filesort/internal/catalog"
	"filesort/internal/config"
	"filesort/internal/logging"
	"filesort/internal/organizer"
)

// organizeOverrides carries command-line values that replace the configured
// organize settings. Nil fields keep the config value.
type organizeOverrides struct {
	source      string
	destination string
	noExtFolder *string
	dryRun      *bool
}

func buildRequest(cfg *config.Config, o organizeOverrides) (organizer.Request, error) {
	req := organizer.Request{
		Source:            cfg.Paths.SourceDir,
		Destination:       cfg.Paths.DestinationDir,
		NoExtensionFolder: cfg.Organize.NoExtensionFolder,
		DryRun:            cfg.Organize.DryRun,
	}
	if o.source != "" {
		expanded, err := config.ExpandPath(o.source)
		if err != nil {
			return organizer.Request{}, err
		}
		req.Source = expanded
	}
	if o.destination != "" {
		expanded, err := config.ExpandPath(o.destination)
		if err != nil {
			return organizer.Request{}, err
		}
		req.Destination = expanded
	}
	if o.noExtFolder != nil {
		req.NoExtensionFolder = *o.noExtFolder
	}
	if o.dryRun != nil {
		req.DryRun = *o.dryRun
	}
	return req, nil
}

// newCaptioner returns the vision client when captioning is enabled and has
// credentials. Otherwise every image falls back to images/others.
func newCaptioner(cfg *config.Config, logger *slog.Logger) caption.Captioner {
	if !cfg.Caption.Enabled {
		return caption.Nop{}
	}
	if !cfg.CaptionConfigured() {
		logger.Warn("caption api key not set; images will be placed in images/others",
			logging.Alert("caption_disabled"),
		)
		return caption.Nop{}
	}
	return caption.NewClient(caption.Config{
		APIKey:            cfg.Caption.APIKey,
		BaseURL:           cfg.Caption.BaseURL,
		Model:             cfg.Caption.Model,
		Prompt:            cfg.Caption.Prompt,
		TimeoutSeconds:    cfg.Caption.TimeoutSeconds,
		MaxWidth:          cfg.Caption.MaxWidth,
		JPEGQuality:       cfg.Caption.JPEGQuality,
		RequestsPerMinute: cfg.Caption.RequestsPerMinute,
	}, caption.WithLogger(logger))
}

func newOrganizer(cfg *config.Config, logger *slog.Logger, progress organizer.ProgressFunc) *organizer.Organizer {
	opts := []organizer.Option{
		organizer.WithLogger(logger),
		organizer.WithCaptioner(newCaptioner(cfg, logger)),
		organizer.WithCaptionConcurrency(cfg.Caption.Concurrency),
	}
	if progress != nil {
		opts = append(opts, organizer.WithProgress(progress))
	}
	return organizer.New(opts...)
}

// recordRun persists res. Passes that failed before listing produce no
// result and are not recorded.
func recordRun(ctx context.Context, store *catalog.Store, req organizer.Request, res *organizer.Result, runErr error) error {
	if res == nil {
		return nil
	}
	var status catalog.Status
	switch {
	case runErr == nil:
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status = catalog.StatusCancelled
	default:
		status = catalog.StatusFailed
	}
	run, entries := catalog.FromResult(res, req.NoExtensionFolder, status)
	return store.SaveRun(ctx, run, entries)
}
