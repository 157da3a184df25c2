package runlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oshokin/kernel-upgrade/internal/config"
	"github.com/oshokin/kernel-upgrade/internal/domain/kernel"
)

// Repository defines persistence for the run log.
type Repository interface {
	Save(ctx context.Context, log *kernel.RunLog) error
}

// FileRepository persists the run log as plain text, one line per entry.
// The format is human-readable and never re-parsed by this program.
type FileRepository struct {
	// path is the filesystem location of the run log file.
	path string
	// mu protects concurrent access to the log file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that writes the log at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Save writes the full run log to disk, replacing any previous run's log.
func (r *FileRepository) Save(_ context.Context, log *kernel.RunLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := log.Lines()

	data := strings.Join(lines, "\n")
	if len(lines) > 0 {
		data += "\n"
	}

	if err := os.WriteFile(r.path, []byte(data), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}

	return nil
}
