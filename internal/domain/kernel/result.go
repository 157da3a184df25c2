package kernel

import (
	"fmt"
	"time"
)

// Stage names the pipeline step a result belongs to.
type Stage string

// Pipeline stages producing per-package results.
const (
	StageDownload Stage = "download"
	StageInstall  Stage = "install"
)

// StepResult records the outcome of one download or install attempt.
// It is ephemeral and consumed only by the run reporter.
type StepResult struct {
	// Package is the package file name the attempt was made for.
	Package string
	// Stage is the pipeline step that produced this result.
	Stage Stage
	// Succeeded reports whether the attempt completed.
	Succeeded bool
	// Message carries human-readable detail, usually the error text on failure.
	Message string
}

// RunLog is the append-only, ordered record of one upgrade run.
// It is created at process start and persisted at process end on every exit
// path. The run is single-threaded, so no locking is needed here.
type RunLog struct {
	started time.Time
	lines   []string
}

// NewRunLog creates an empty run log and starts the elapsed-time clock.
func NewRunLog() *RunLog {
	return &RunLog{
		started: time.Now(),
	}
}

// Append adds one timestamped line to the log.
func (l *RunLog) Append(line string) {
	l.lines = append(l.lines, time.Now().Format(time.RFC3339)+" "+line)
}

// Appendf adds one formatted timestamped line to the log.
func (l *RunLog) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Lines returns a copy of the recorded lines in order.
func (l *RunLog) Lines() []string {
	lines := make([]string, len(l.lines))
	copy(lines, l.lines)

	return lines
}

// Elapsed returns the wall-clock time since the log was created.
func (l *RunLog) Elapsed() time.Duration {
	return time.Since(l.started)
}
