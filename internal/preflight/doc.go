// Package preflight provides readiness checks for the paths and services an
// organize pass depends on.
//
// These checks run in two contexts:
//   - The organize command calls RunAll before touching any file and refuses
//     to start when a path check fails.
//   - "filesort config validate" prints every result as a readiness report.
//
// The caption endpoint check only runs when captioning is configured.
package preflight
