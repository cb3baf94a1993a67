package catalog

import "filesort/internal/organizer"

// FromResult converts an organize result into a run and its entries. status
// is derived from the result when empty: dry runs become StatusDryRun and
// everything else StatusCompleted.
func FromResult(res *organizer.Result, noExtFolder string, status Status) (Run, []Entry) {
	if status == "" {
		status = StatusCompleted
		if res.DryRun {
			status = StatusDryRun
		}
	}
	run := Run{
		ID:                res.RunID,
		Source:            res.Source,
		Destination:       res.Destination,
		NoExtensionFolder: noExtFolder,
		Status:            status,
		StartedAt:         res.StartedAt,
		FinishedAt:        res.FinishedAt,
		MovedCount:        len(res.Moves),
		SkippedCount:      len(res.Skipped),
		ConflictCount:     len(res.Conflicts),
	}

	moved := make(map[string]organizer.Move, len(res.Moves))
	for _, m := range res.Moves {
		moved[m.Filename] = m
	}
	skipped := make(map[string]organizer.Skip, len(res.Skipped))
	for _, s := range res.Skipped {
		skipped[s.Filename] = s
	}
	conflicts := make(map[string]organizer.Skip, len(res.Conflicts))
	for _, c := range res.Conflicts {
		conflicts[c.Filename] = c
	}

	names := res.Buckets.Names()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		ext, _ := res.Buckets.BucketOf(name)
		entry := Entry{Filename: name, Extension: ext, Outcome: OutcomePending}
		if m, ok := moved[name]; ok {
			entry.Outcome = OutcomeMoved
			if res.DryRun {
				entry.Outcome = OutcomePlanned
			}
			entry.Target = m.To
			entry.Caption = m.Caption
		} else if c, ok := conflicts[name]; ok {
			entry.Outcome = OutcomeConflict
			entry.Detail = skipDetail(c)
		} else if s, ok := skipped[name]; ok {
			entry.Outcome = OutcomeSkipped
			entry.Detail = skipDetail(s)
		}
		entries = append(entries, entry)
	}
	return run, entries
}

func skipDetail(s organizer.Skip) string {
	if s.Err == nil {
		return s.Reason
	}
	return s.Reason + ": " + s.Err.Error()
}
