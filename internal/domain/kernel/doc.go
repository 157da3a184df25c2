// Package kernel holds the domain model of an upgrade run: the scraped
// version token, the deterministic package set derived from it, per-step
// results, the run log and the error taxonomy. The package is pure and does
// no I/O.
package kernel
