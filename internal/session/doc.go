// Package session owns the searchable state of the interactive surfaces.
//
// A Session starts organize passes as cancellable Tasks and publishes the
// resulting prefix index and bucket map as one immutable Snapshot through an
// atomic pointer swap once a pass succeeds. Readers always see either the
// previous snapshot or the new one in full, never a half-built index. Failed
// or cancelled passes leave the previous snapshot in place.
package session
