// Package upgrade orchestrates one kernel upgrade run: version resolution,
// package set derivation, downloads, privileged installs and reporting, in
// that strict order. There is no retry and no rollback; per-package failures
// are collected while fatal failures abort the run. The run log is persisted
// on every exit path.
package upgrade
