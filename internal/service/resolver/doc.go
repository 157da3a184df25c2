// Package resolver fetches the upstream kernel page and extracts the latest
// stable version token. Failures are fatal to the run, there is no retry.
package resolver
