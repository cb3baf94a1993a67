package logging

import "strings"

// FormatSubject builds the run/stage/file subject string used in console output.
func FormatSubject(runID, stage, filename string) string {
	runID = strings.TrimSpace(runID)
	stage = strings.TrimSpace(stage)
	filename = strings.TrimSpace(filename)
	parts := make([]string, 0, 3)
	switch {
	case runID != "" && stage != "":
		parts = append(parts, "Run "+shortRunID(runID)+" ("+stage+")")
	case runID != "":
		parts = append(parts, "Run "+shortRunID(runID))
	case stage != "":
		parts = append(parts, stage)
	}
	if filename != "" {
		parts = append(parts, filename)
	}
	return strings.Join(parts, " · ")
}

func shortRunID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}
