// Package services defines shared utilities consumed by the organizer, the
// captioning client, and the command surface.
//
// Key responsibilities:
//   - Context helpers that stamp organize run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent exit codes and user-facing messages.
//
// Use these helpers when wiring new organize steps so operational behaviour
// (error handling, observability) stays uniform across the tool.
package services
