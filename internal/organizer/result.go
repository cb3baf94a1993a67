package organizer

import (
	"time"

	"filesort/internal/buckets"
	"filesort/internal/prefixindex"
)

// Request describes one organize pass.
type Request struct {
	Source      string
	Destination string
	// NoExtensionFolder receives files without an extension. Empty places
	// them directly in Destination.
	NoExtensionFolder string
	DryRun            bool
	// RunID identifies the pass; a UUID is generated when empty.
	RunID string
}

// Move records where a file was placed (or would be, in a dry run).
type Move struct {
	Filename string
	Bucket   string
	Caption  string
	From     string
	To       string
}

// Skip records a file that was not moved.
type Skip struct {
	Filename string
	Reason   string
	Err      error
}

// Result summarizes a completed pass.
type Result struct {
	RunID       string
	Source      string
	Destination string
	DryRun      bool
	StartedAt   time.Time
	FinishedAt  time.Time

	Index     *prefixindex.Index
	Buckets   *buckets.Map
	Moves     []Move
	Skipped   []Skip
	Conflicts []Skip
}

// Placement returns the recorded move for filename.
func (r *Result) Placement(filename string) (Move, bool) {
	if r == nil {
		return Move{}, false
	}
	for _, m := range r.Moves {
		if m.Filename == filename {
			return m, true
		}
	}
	return Move{}, false
}

// Stage names reported through progress callbacks and log context.
const (
	StageListing    = "listing"
	StageMoving     = "moving"
	StageCaptioning = "captioning"
	StageImages     = "moving images"
)

// Progress is emitted after each unit of work.
type Progress struct {
	Stage    string
	Filename string
	Done     int
	Total    int
}

// ProgressFunc receives progress updates. It is called from the organize
// goroutine and from caption workers, so implementations must be safe for
// concurrent use.
type ProgressFunc func(Progress)
