// Package fetcher downloads the derived package set from the mirror into
// run-scoped local storage, verifying files against the mirror's checksum
// manifest when one is published. Every package is attempted exactly once;
// per-package failures never abort the remaining downloads.
package fetcher
