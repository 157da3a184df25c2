package resolver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/oshokin/kernel-upgrade/internal/domain/kernel"
	"github.com/oshokin/kernel-upgrade/internal/logger"
)

// latestStablePattern extracts the version token following the upstream
// page's "latest stable" marker. It matches both the canonical
// "Latest Stable: 5.1.6" form and kernel.org's longer phrasing. The upstream
// markup is owned by a third party; when it changes, resolution fails loudly
// instead of guessing at alternate markers.
var latestStablePattern = regexp.MustCompile(`(?is)latest\s+stable.*?(\d+(?:\.\d+)+)`)

var errMarkerNotFound = errors.New("latest stable marker not found on page")

// Resolver discovers the latest stable kernel version from an upstream page.
type Resolver struct {
	// pageURL is the page announcing the latest stable release.
	pageURL string
	// client performs the page fetch.
	client *http.Client
}

// New creates a resolver for the provided page URL.
func New(pageURL string) *Resolver {
	return &Resolver{
		pageURL: pageURL,
		client:  http.DefaultClient,
	}
}

// Resolve fetches the page and extracts the latest stable version token.
// Any failure is returned as a *kernel.ResolutionError and is fatal to the
// run: nothing downstream can proceed without a version.
func (r *Resolver) Resolve(ctx context.Context) (kernel.Version, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.pageURL, http.NoBody)
	if err != nil {
		return "", &kernel.ResolutionError{URL: r.pageURL, Err: err}
	}

	response, err := r.client.Do(req)
	if err != nil {
		return "", &kernel.ResolutionError{URL: r.pageURL, Err: err}
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", &kernel.ResolutionError{
			URL:        r.pageURL,
			StatusCode: response.StatusCode,
			Err:        errors.New(response.Status),
		}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", &kernel.ResolutionError{URL: r.pageURL, Err: err}
	}

	match := latestStablePattern.FindSubmatch(body)
	if match == nil {
		return "", &kernel.ResolutionError{URL: r.pageURL, Err: errMarkerNotFound}
	}

	version, err := kernel.ParseVersion(string(match[1]))
	if err != nil {
		return "", &kernel.ResolutionError{URL: r.pageURL, Err: err}
	}

	logger.Infof(ctx, "The latest stable Linux kernel version is v%s", version)

	return version, nil
}
