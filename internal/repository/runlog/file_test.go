package runlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/kernel-upgrade/internal/domain/kernel"
)

// TestFileRepository_Save ensures all lines land on disk in order.
func TestFileRepository_Save(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "run.log")
	repo := NewFileRepository(file)

	log := kernel.NewRunLog()
	log.Append("Beginning kernel upgrade")
	log.Append("Installation Success for linux-image-5.1.6-amd64.deb")

	require.NoError(t, repo.Save(context.Background(), log))

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(contents), "Beginning kernel upgrade")
	require.Contains(t, string(contents), "Installation Success for linux-image-5.1.6-amd64.deb")
}

// TestFileRepository_Save_Empty writes an empty file for an empty log.
func TestFileRepository_Save_Empty(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "run.log")
	repo := NewFileRepository(file)

	require.NoError(t, repo.Save(context.Background(), kernel.NewRunLog()))

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Empty(t, contents)
}
