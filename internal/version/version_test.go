package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFull verifies the formatted build info contains all components.
func TestFull(t *testing.T) {
	t.Parallel()

	full := Full()
	require.Contains(t, full, "version: "+Short())
	require.Contains(t, full, "commit: ")
	require.Contains(t, full, "built at: ")
}
