// Package organizer runs one organize pass: it lists the source directory,
// builds the prefix index and extension bucket map, moves non-image files into
// per-extension folders, captions images and moves them into caption folders.
//
// A pass never overwrites an existing destination file; such files are
// reported as conflicts and stay in the source. Files that disappear between
// listing and moving are skipped. Captioning failures only demote an image to
// images/others. The destination is guarded by an advisory file lock so two
// passes cannot write the same tree concurrently.
//
// Callers get a Result carrying the index and bucket map only after the pass
// finishes; nothing is published while it runs.
package organizer
