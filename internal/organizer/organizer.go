package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"filesort/internal/buckets"
	"filesort/internal/caption"
	"filesort/internal/fileutil"
	"filesort/internal/logging"
	"filesort/internal/prefixindex"
	"filesort/internal/services"
)

const defaultCaptionConcurrency = 1

// Organizer executes organize passes against a filesystem.
type Organizer struct {
	fs          afero.Fs
	captioner   caption.Captioner
	logger      *slog.Logger
	concurrency int
	progress    ProgressFunc
	now         func() time.Time
}

// Option customizes the organizer.
type Option func(*Organizer)

// WithFs overrides the filesystem (defaults to the OS filesystem).
func WithFs(fs afero.Fs) Option {
	return func(o *Organizer) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithCaptioner sets the image captioner (defaults to caption.Nop).
func WithCaptioner(c caption.Captioner) Option {
	return func(o *Organizer) {
		if c != nil {
			o.captioner = c
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Organizer) {
		o.logger = logger
	}
}

// WithCaptionConcurrency bounds the number of images captioned at once.
func WithCaptionConcurrency(n int) Option {
	return func(o *Organizer) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Organizer) {
		o.progress = fn
	}
}

// New constructs an organizer.
func New(opts ...Option) *Organizer {
	o := &Organizer{
		fs:          afero.NewOsFs(),
		captioner:   caption.Nop{},
		concurrency: defaultCaptionConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "organizer")
	return o
}

// Organize runs one pass. On success the returned Result carries a fresh
// prefix index and bucket map. When ctx is cancelled mid-pass the partial
// Result is returned together with the context error; files already moved
// stay moved.
func (o *Organizer) Organize(ctx context.Context, req Request) (*Result, error) {
	req.Source = strings.TrimSpace(req.Source)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, req.RunID)

	res := &Result{
		RunID:       req.RunID,
		Source:      req.Source,
		Destination: req.Destination,
		DryRun:      req.DryRun,
		StartedAt:   o.now().UTC(),
	}

	if err := o.checkSource(req.Source); err != nil {
		return nil, err
	}
	if req.Destination == "" {
		return nil, services.Wrap(services.ErrConfiguration, StageListing, "validate destination", "destination directory not set", nil)
	}
	if filepath.Clean(req.Source) == filepath.Clean(req.Destination) {
		return nil, services.Wrap(services.ErrConfiguration, StageListing, "validate destination", "source and destination must differ", nil)
	}

	if !req.DryRun {
		if err := o.fs.MkdirAll(req.Destination, 0o755); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, StageListing, "create destination", req.Destination, err)
		}
		release, err := acquireDestinationLock(o.fs, req.Destination)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	logger := logging.WithContext(services.WithStage(ctx, StageListing), o.logger)
	names, err := o.listFiles(req.Source)
	if err != nil {
		return nil, err
	}
	res.Buckets = buckets.Build(names)
	res.Index = prefixindex.FromNames(names)
	logger.Info("source listed",
		logging.String("source", req.Source),
		logging.Int("files", len(names)),
		logging.Int("buckets", len(res.Buckets.Keys())),
		logging.Bool("dry_run", req.DryRun),
	)

	if err := o.moveNonImages(ctx, req, res); err != nil {
		res.FinishedAt = o.now().UTC()
		return res, err
	}
	if err := o.moveImages(ctx, req, res); err != nil {
		res.FinishedAt = o.now().UTC()
		return res, err
	}

	res.FinishedAt = o.now().UTC()
	logging.WithContext(ctx, o.logger).Info("organize pass complete",
		logging.Int("moved", len(res.Moves)),
		logging.Int("skipped", len(res.Skipped)),
		logging.Int("conflicts", len(res.Conflicts)),
		logging.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
	)
	return res, nil
}

func (o *Organizer) checkSource(source string) error {
	if source == "" {
		return services.Wrap(services.ErrConfiguration, StageListing, "validate source", "source directory not set", nil)
	}
	info, err := o.fs.Stat(source)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, StageListing, "validate source", fmt.Sprintf("source directory %s is not accessible", source), err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, StageListing, "validate source", fmt.Sprintf("source %s is not a directory", source), nil)
	}
	return nil
}

// listFiles returns the regular files directly inside dir, sorted by name.
func (o *Organizer) listFiles(dir string) ([]string, error) {
	entries, err := afero.ReadDir(o.fs, dir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, StageListing, "read source", fmt.Sprintf("source directory %s is not readable", dir), err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (o *Organizer) moveNonImages(ctx context.Context, req Request, res *Result) error {
	ctx = services.WithStage(ctx, StageMoving)
	var pending []string
	for _, ext := range res.Buckets.Keys() {
		if !buckets.IsImage(ext) {
			pending = append(pending, res.Buckets.Files(ext)...)
		}
	}
	reserved := reservedFolders(req, res.Buckets)

	for i, name := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		ext, _ := res.Buckets.BucketOf(name)
		folder := buckets.FolderName(ext, req.NoExtensionFolder)
		if _, taken := reserved[name]; taken && folder == "" {
			target := filepath.Join(req.Destination, name)
			o.conflictWith(ctx, res, name, target, "name is needed for a destination folder", nil)
		} else {
			o.place(ctx, req, res, name, ext, "", filepath.Join(req.Destination, folder))
		}
		o.report(Progress{Stage: StageMoving, Filename: name, Done: i + 1, Total: len(pending)})
	}
	return nil
}

// reservedFolders lists the destination root entries this pass creates as
// folders. A file without an extension placed in the root must not take one
// of these names.
func reservedFolders(req Request, m *buckets.Map) map[string]struct{} {
	reserved := make(map[string]struct{})
	for _, ext := range m.Keys() {
		if buckets.IsImage(ext) {
			reserved[buckets.ImagesFolder] = struct{}{}
			continue
		}
		if folder := buckets.FolderName(ext, req.NoExtensionFolder); folder != "" {
			reserved[folder] = struct{}{}
		}
	}
	return reserved
}

func (o *Organizer) moveImages(ctx context.Context, req Request, res *Result) error {
	images := res.Buckets.ImageNames()
	if len(images) == 0 {
		return nil
	}
	imagesDir := filepath.Join(req.Destination, buckets.ImagesFolder)
	if !req.DryRun {
		if err := o.ensureDir(imagesDir); err != nil {
			// Something other than a folder holds the images path. Every
			// image stays in the source and the pass still completes.
			ctx = services.WithStage(ctx, StageImages)
			cause := services.Wrap(services.ErrConflict, StageImages, "create images folder", imagesDir, err)
			for _, name := range images {
				o.conflictWith(ctx, res, name, filepath.Join(imagesDir, name), "images folder could not be created", cause)
			}
			return nil
		}
	}

	labels, missing := o.captionAll(ctx, req.Source, images)
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = services.WithStage(ctx, StageImages)
	for i, name := range images {
		if err := ctx.Err(); err != nil {
			return err
		}
		ext, _ := res.Buckets.BucketOf(name)
		if _, gone := missing[name]; gone {
			o.skip(ctx, res, name, "source file vanished before captioning", nil)
			continue
		}
		label, ok := labels[name]
		folder := label
		if !ok {
			folder = buckets.OthersFolder
		}
		o.place(ctx, req, res, name, ext, label, filepath.Join(imagesDir, folder))
		o.report(Progress{Stage: StageImages, Filename: name, Done: i + 1, Total: len(images)})
	}
	return nil
}

// captionAll captions images on a bounded worker pool. Results are keyed by
// filename; completion order is irrelevant.
func (o *Organizer) captionAll(ctx context.Context, source string, images []string) (map[string]string, map[string]struct{}) {
	ctx = services.WithStage(ctx, StageCaptioning)
	var (
		mu      sync.Mutex
		labels  = make(map[string]string, len(images))
		missing = make(map[string]struct{})
		done    int
		wg      sync.WaitGroup
	)
	jobs := make(chan string)
	workers := min(o.concurrency, len(images))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				label, ok, vanished := o.captionOne(ctx, filepath.Join(source, name))
				mu.Lock()
				switch {
				case vanished:
					missing[name] = struct{}{}
				case ok:
					labels[name] = label
				}
				done++
				progress := Progress{Stage: StageCaptioning, Filename: name, Done: done, Total: len(images)}
				mu.Unlock()
				o.report(progress)
			}
		}()
	}

feed:
	for _, name := range images {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- name:
		}
	}
	close(jobs)
	wg.Wait()
	return labels, missing
}

func (o *Organizer) captionOne(ctx context.Context, path string) (label string, ok bool, vanished bool) {
	ctx = services.WithFilename(ctx, filepath.Base(path))
	data, err := afero.ReadFile(o.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, true
		}
		logging.WithContext(ctx, o.logger).Warn("image unreadable; captioning skipped", logging.Error(err))
		return "", false, false
	}
	label, ok = o.captioner.Caption(ctx, data)
	if ok {
		logging.WithContext(ctx, o.logger).Debug("image captioned", logging.String("caption", label))
	}
	return label, ok, false
}

// place moves name from the source into dir, recording the outcome on res.
func (o *Organizer) place(ctx context.Context, req Request, res *Result, name, ext, label, dir string) {
	ctx = services.WithFilename(ctx, name)
	logger := logging.WithContext(ctx, o.logger)
	from := filepath.Join(req.Source, name)
	to := filepath.Join(dir, name)
	move := Move{Filename: name, Bucket: ext, Caption: label, From: from, To: to}

	if req.DryRun {
		if _, err := o.fs.Stat(from); err != nil {
			o.skip(ctx, res, name, "source file vanished before move", err)
			return
		}
		if exists, _ := afero.Exists(o.fs, to); exists {
			o.conflict(ctx, res, name, to, fileutil.ErrDestinationExists)
			return
		}
		res.Moves = append(res.Moves, move)
		logger.Debug("planned move", logging.String("target", to))
		return
	}

	if err := o.ensureDir(dir); err != nil {
		o.skip(ctx, res, name, "could not create target folder", err)
		return
	}
	err := fileutil.MoveFile(o.fs, from, to)
	switch {
	case err == nil:
		res.Moves = append(res.Moves, move)
		logger.Debug("file moved", logging.String("target", to))
	case errors.Is(err, os.ErrNotExist):
		o.skip(ctx, res, name, "source file vanished before move", err)
	case errors.Is(err, fileutil.ErrDestinationExists):
		o.conflict(ctx, res, name, to, err)
	default:
		o.skip(ctx, res, name, "move failed", err)
	}
}

// ensureDir creates dir and its parents. Some filesystems report success when
// a regular file already holds the path, so the result is checked.
func (o *Organizer) ensureDir(dir string) error {
	if err := o.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	info, err := o.fs.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "mkdir", Path: dir, Err: syscall.ENOTDIR}
	}
	return nil
}

func (o *Organizer) skip(ctx context.Context, res *Result, name, reason string, err error) {
	res.Skipped = append(res.Skipped, Skip{Filename: name, Reason: reason, Err: err})
	attrs := []logging.Attr{logging.String("reason", reason)}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WithContext(services.WithFilename(ctx, name), o.logger).Warn("file skipped", logging.Args(attrs...)...)
}

func (o *Organizer) conflict(ctx context.Context, res *Result, name, target string, cause error) {
	err := services.Wrap(services.ErrConflict, StageMoving, "move", fmt.Sprintf("%s already exists", target), cause)
	o.conflictWith(ctx, res, name, target, "destination already holds a file with this name", err)
}

// conflictWith records name as left in the source. err defaults to an
// ErrConflict describing target.
func (o *Organizer) conflictWith(ctx context.Context, res *Result, name, target, reason string, err error) {
	if err == nil {
		err = services.Wrap(services.ErrConflict, StageMoving, "move", fmt.Sprintf("%s: %s", target, reason), nil)
	}
	res.Conflicts = append(res.Conflicts, Skip{Filename: name, Reason: reason, Err: err})
	logging.WithContext(services.WithFilename(ctx, name), o.logger).Warn("file left in source",
		logging.String("target", target),
		logging.String("reason", reason),
		logging.Alert("conflict"),
	)
}

func (o *Organizer) report(p Progress) {
	if o.progress != nil {
		o.progress(p)
	}
}
