// Package fileutil holds filesystem helpers shared by the organizer: streamed
// copies with integrity checks and a move that never clobbers an existing
// file.
package fileutil
