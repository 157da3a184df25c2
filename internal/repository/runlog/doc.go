// Package runlog persists the human-readable record of an upgrade run to a
// local text file. The orchestrator saves the log on every exit path,
// including fatal early failures.
package runlog
