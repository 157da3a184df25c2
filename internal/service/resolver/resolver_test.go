package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/kernel-upgrade/internal/domain/kernel"
)

// TestResolve_CanonicalMarker extracts the token from the plain marker form.
func TestResolve_CanonicalMarker(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>... Latest Stable: 5.1.6 ...</body></html>"))
	}))
	t.Cleanup(server.Close)

	version, err := New(server.URL).Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.Version("5.1.6"), version)
}

// TestResolve_KernelOrgMarkup extracts the token from kernel.org-style markup.
func TestResolve_KernelOrgMarkup(t *testing.T) {
	t.Parallel()

	page := `<html><body>
		<p>The latest stable version of the Linux kernel is:</p>
		<td id="latest_link"><a href="https://cdn.kernel.org/">6.10.9</a></td>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	version, err := New(server.URL).Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, kernel.Version("6.10.9"), version)
}

// TestResolve_ServerError surfaces non-success statuses as ResolutionError.
func TestResolve_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	_, err := New(server.URL).Resolve(context.Background())
	require.Error(t, err)

	var resolutionErr *kernel.ResolutionError
	require.ErrorAs(t, err, &resolutionErr)
	require.Equal(t, http.StatusInternalServerError, resolutionErr.StatusCode)
}

// TestResolve_MarkerAbsent fails when the page no longer carries the marker.
func TestResolve_MarkerAbsent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>redesigned page, nothing useful</body></html>"))
	}))
	t.Cleanup(server.Close)

	_, err := New(server.URL).Resolve(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, errMarkerNotFound)
}

// TestResolve_Unreachable surfaces transport failures as ResolutionError.
func TestResolve_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close()

	_, err := New(server.URL).Resolve(context.Background())
	require.Error(t, err)

	var resolutionErr *kernel.ResolutionError
	require.True(t, errors.As(err, &resolutionErr))
	require.Zero(t, resolutionErr.StatusCode)
}
