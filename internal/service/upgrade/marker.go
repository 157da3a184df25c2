package upgrade

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/kernel-upgrade/internal/logger"
)

const (
	// MarkerFilename marks that an upgrade is running right now to avoid
	// parallel execution.
	MarkerFilename = "kernel-upgrade-marker.bin"

	// markerLifetime is the period after which a stale marker is ignored.
	// An upgrade downloading four packages can legitimately take a while.
	markerLifetime = 30 * time.Minute
)

// markerPath is where the run marker lives. A variable so tests can point it
// at a scratch directory.
var markerPath = filepath.Join(os.TempDir(), MarkerFilename)

// isUpgradeRunningNow checks presence of the run marker and cleans it up when
// it looks stale.
func isUpgradeRunningNow(ctx context.Context) bool {
	logger.Debug(ctx, "Checking for the presence of an upgrade marker")

	fileInfo, err := os.Stat(markerPath)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The upgrade marker is too old, attempting cleanup")

		// A stale marker with a live sibling process still wins. An upgrade
		// must never be killed mid-install, so the marker is only removed
		// when it was left behind by a dead run.
		if siblingUpgradeExists() {
			return true
		}

		if err = os.Remove(markerPath); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read upgrade marker: %v", err)

	return false
}

// siblingUpgradeExists scans the process table for another instance of this
// executable. An unreadable table counts as a live sibling.
// A variable so tests can script the outcome.
var siblingUpgradeExists = func() bool {
	executable, err := os.Executable()
	if err != nil {
		return true
	}

	processList, err := ps.Processes()
	if err != nil {
		return true
	}

	name := filepath.Base(executable)
	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() != thisProcessID && process.Executable() == name {
			return true
		}
	}

	return false
}

// createMarker writes the run marker.
func createMarker() error {
	marker, err := os.Create(markerPath)
	if err != nil {
		return err
	}

	return marker.Close()
}

// removeMarker deletes the run marker if present.
func removeMarker() {
	if _, err := os.Stat(markerPath); err == nil {
		_ = os.Remove(markerPath)
	}
}
