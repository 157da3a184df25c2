package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseVersion accepts well-formed tokens and rejects garbage.
func TestParseVersion(t *testing.T) {
	t.Parallel()

	v, err := ParseVersion(" 5.1.6 ")
	require.NoError(t, err)
	require.Equal(t, "5.1.6", v.String())

	v, err = ParseVersion("6.10")
	require.NoError(t, err)
	require.Equal(t, "6.10", v.String())

	_, err = ParseVersion("not-a-version")
	require.Error(t, err)

	_, err = ParseVersion("")
	require.Error(t, err)
}
