package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"filesort/internal/buckets"
	"filesort/internal/locator"
	"filesort/internal/logging"
	"filesort/internal/organizer"
	"filesort/internal/prefixindex"
	"filesort/internal/services"
)

// Snapshot is the immutable searchable state of one completed pass.
type Snapshot struct {
	RunID             string
	Destination       string
	NoExtensionFolder string
	CompletedAt       time.Time
	Index             *prefixindex.Index
	Buckets           *buckets.Map
}

// Recorder persists the outcome of a pass. err is the pass error, if any.
type Recorder func(ctx context.Context, req organizer.Request, res *organizer.Result, err error) error

// Session coordinates organize passes and the snapshot they publish.
type Session struct {
	organizer *organizer.Organizer
	fs        afero.Fs
	logger    *slog.Logger
	recorder  Recorder

	current atomic.Pointer[Snapshot]

	mu      sync.Mutex
	running *Task
}

// Option customizes the session.
type Option func(*Session)

// WithFs sets the filesystem used for locate queries.
func WithFs(fs afero.Fs) Option {
	return func(s *Session) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRecorder registers a hook that persists every finished pass.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// New constructs a session driving org.
func New(org *organizer.Organizer, opts ...Option) *Session {
	s := &Session{organizer: org, fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(s)
	}
	if s.organizer == nil {
		s.organizer = organizer.New(organizer.WithFs(s.fs), organizer.WithLogger(s.logger))
	}
	s.logger = logging.NewComponentLogger(s.logger, "session")
	return s
}

// Start launches an organize pass in the background. Only one pass may run at
// a time; a second Start while one is running fails with ErrConflict.
func (s *Session) Start(ctx context.Context, req organizer.Request) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running != nil {
		select {
		case <-s.running.Done():
		default:
			return nil, services.Wrap(services.ErrConflict, "session", "start", "an organize pass is already running", nil)
		}
	}

	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	taskCtx, cancel := context.WithCancel(ctx)
	task := newTask(req.RunID, cancel)
	s.running = task

	go s.run(taskCtx, req, task)
	return task, nil
}

func (s *Session) run(ctx context.Context, req organizer.Request, task *Task) {
	res, err := s.organizer.Organize(ctx, req)
	logger := logging.WithContext(services.WithRunID(ctx, req.RunID), s.logger)

	if err == nil && !req.DryRun && res != nil {
		s.current.Store(&Snapshot{
			RunID:             res.RunID,
			Destination:       res.Destination,
			NoExtensionFolder: req.NoExtensionFolder,
			CompletedAt:       res.FinishedAt,
			Index:             res.Index,
			Buckets:           res.Buckets,
		})
		logger.Info("snapshot published", logging.Int("files", res.Index.Len()))
	} else if err != nil {
		logger.Warn("organize pass did not complete; keeping previous snapshot", logging.Error(err))
	}

	if s.recorder != nil && (res != nil || err != nil) {
		if recErr := s.recorder(context.WithoutCancel(ctx), req, res, err); recErr != nil {
			logger.Warn("failed to record organize run", logging.Error(recErr))
		}
	}
	task.finish(res, err)
}

// Load replaces the current snapshot, typically with one rebuilt from the
// catalog at startup.
func (s *Session) Load(snap *Snapshot) {
	s.current.Store(snap)
}

// Snapshot returns the current snapshot, or nil before any pass completed.
func (s *Session) Snapshot() *Snapshot {
	return s.current.Load()
}

// Search returns autocomplete matches from the current snapshot.
func (s *Session) Search(prefix string) []string {
	snap := s.current.Load()
	if snap == nil || snap.Index == nil {
		return []string{}
	}
	return snap.Index.SearchAutocomplete(prefix)
}

// Locate resolves filename against the current snapshot.
func (s *Session) Locate(filename string) locator.Result {
	snap := s.current.Load()
	if snap == nil {
		return locator.Result{Filename: filename}
	}
	return locator.New(s.fs, snap.Destination, snap.Buckets, snap.NoExtensionFolder).Locate(filename)
}

// Suggest returns fuzzy filename suggestions from the current snapshot.
func (s *Session) Suggest(query string, limit int) []string {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return locator.Suggest(snap.Buckets.Names(), query, limit)
}
