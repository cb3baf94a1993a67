package catalog

import (
	"time"

	"filesort/internal/buckets"
	"filesort/internal/prefixindex"
)

// Status describes how a run ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusDryRun    Status = "dry_run"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Outcome describes what happened to one file.
type Outcome string

const (
	OutcomeMoved    Outcome = "moved"
	OutcomePlanned  Outcome = "planned"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeConflict Outcome = "conflict"
	OutcomePending  Outcome = "pending"
)

// Run is one persisted organize pass.
type Run struct {
	ID                string
	Source            string
	Destination       string
	NoExtensionFolder string
	Status            Status
	StartedAt         time.Time
	FinishedAt        time.Time
	MovedCount        int
	SkippedCount      int
	ConflictCount     int
}

// Entry is one file listed by a run.
type Entry struct {
	Filename  string
	Extension string
	Outcome   Outcome
	Target    string
	Caption   string
	Detail    string
}

// Snapshot is the searchable state of a run.
type Snapshot struct {
	Run     Run
	Index   *prefixindex.Index
	Buckets *buckets.Map
}
