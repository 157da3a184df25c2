package kernel

import "fmt"

// ResolutionError indicates the latest stable version could not be determined:
// the upstream page was unreachable, answered with a non-success status, or no
// longer contains the expected marker. It is fatal to the run.
type ResolutionError struct {
	// URL is the page that was queried.
	URL string
	// StatusCode is the HTTP status, zero when the request never completed.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

func (e *ResolutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("resolve latest stable version from %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("resolve latest stable version from %s: %v", e.URL, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// DownloadError indicates one package failed to download. Sibling packages
// are still attempted.
type DownloadError struct {
	// Package is the package file name.
	Package string
	// Err is the underlying cause.
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.Package, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// InstallError indicates the privileged installer failed for one package.
// Sibling packages are still attempted.
type InstallError struct {
	// Package is the package file name.
	Package string
	// ExitCode is the installer's exit status, -1 when it never ran.
	ExitCode int
	// Err is the underlying cause.
	Err error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s: exit code %d: %v", e.Package, e.ExitCode, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}
