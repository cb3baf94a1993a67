// Package catalog persists organize runs in SQLite so search, locate and
// browse work across separate CLI invocations.
//
// Each run stores its source, destination and outcome plus one entry per
// listed file. Snapshot rebuilds the prefix index and extension bucket map of
// a run from those entries. Schema changes bump the version in schema.go;
// users delete the catalog to adopt a new schema.
package catalog
