// Package installer hands downloaded packages to the privileged package
// manager in the mandatory headers-before-image order. Execution goes
// through a CommandRunner seam so the privileged tool can be faked in tests,
// and a process-table preflight refuses to race a running dpkg or apt.
package installer
