package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/kernel-upgrade/internal/domain/kernel"
	"github.com/oshokin/kernel-upgrade/internal/logger"
)

// maxOutputInMessage caps how much installer output is carried into a result.
const maxOutputInMessage = 300

var errPackageManagerBusy = errors.New("another package manager is running")

// conflictingProcesses are executables that hold the dpkg lock; attempting an
// install while one runs would fail every package anyway.
//
//nolint:gochecknoglobals // Static lookup table.
var conflictingProcesses = map[string]struct{}{
	"dpkg":            {},
	"apt":             {},
	"apt-get":         {},
	"aptd":            {},
	"unattended-upgr": {},
}

// Installer invokes the privileged package manager for downloaded packages.
type Installer struct {
	// runner executes the privileged tool.
	runner CommandRunner
	// sudoPassword is the elevation credential fed to sudo on stdin.
	// It must never appear in results, logs or error messages.
	sudoPassword string
	// listProcesses enumerates the process table; swapped in tests.
	listProcesses func() ([]ps.Process, error)
}

// New creates an installer using the provided runner and elevation credential.
func New(runner CommandRunner, sudoPassword string) *Installer {
	return &Installer{
		runner:        runner,
		sudoPassword:  sudoPassword,
		listProcesses: ps.Processes,
	}
}

// Install invokes `sudo -S dpkg -i` for every successfully downloaded package,
// in the order given, and returns a StepResult per attempted package. Packages
// whose download failed are never handed to the privileged tool. A failed
// install never aborts the remaining ones.
func (i *Installer) Install(ctx context.Context, specs []kernel.PackageSpec, downloaded map[string]bool) []kernel.StepResult {
	pending := make([]kernel.PackageSpec, 0, len(specs))
	for _, spec := range specs {
		if downloaded[spec.Name] {
			pending = append(pending, spec)
		}
	}

	if len(pending) == 0 {
		return nil
	}

	if name, busy := i.runningPackageManager(ctx); busy {
		logger.WarnKV(ctx, "Refusing to install, package manager is busy", "process", name)

		results := make([]kernel.StepResult, 0, len(pending))

		for _, spec := range pending {
			installErr := &kernel.InstallError{
				Package:  spec.Name,
				ExitCode: -1,
				Err:      fmt.Errorf("%w: %s", errPackageManagerBusy, name),
			}
			results = append(results, kernel.StepResult{
				Package: spec.Name,
				Stage:   kernel.StageInstall,
				Message: installErr.Error(),
			})
		}

		return results
	}

	results := make([]kernel.StepResult, 0, len(pending))
	for _, spec := range pending {
		results = append(results, i.installPackage(ctx, spec))
	}

	return results
}

// installPackage runs the privileged tool for one package.
func (i *Installer) installPackage(ctx context.Context, spec kernel.PackageSpec) kernel.StepResult {
	logger.Debugf(ctx, "Installation Start - (%s)", spec.Name)

	result := kernel.StepResult{
		Package: spec.Name,
		Stage:   kernel.StageInstall,
	}

	exitCode, output, err := i.runner.Run(ctx, i.sudoPassword+"\n", "sudo", "-S", "dpkg", "-i", spec.LocalPath)

	switch {
	case err != nil:
		installErr := &kernel.InstallError{Package: spec.Name, ExitCode: -1, Err: err}
		result.Message = installErr.Error()

		logger.ErrorKV(ctx, "Installation failed", "package", spec.Name, "error", err)
	case exitCode != 0:
		installErr := &kernel.InstallError{
			Package:  spec.Name,
			ExitCode: exitCode,
			Err:      errors.New(trimOutput(output)),
		}
		result.Message = installErr.Error()

		logger.WarnKV(ctx, "Installation may have failed",
			"package", spec.Name, "exit_code", exitCode)
	default:
		result.Succeeded = true
		result.Message = "installed"

		logger.Infof(ctx, "Installation Success for %s", spec.Name)
	}

	logger.Debugf(ctx, "Installation End - (%s)", spec.Name)

	return result
}

// runningPackageManager reports a conflicting package-manager process, if any.
// Enumeration failures are logged and treated as "not busy" so a broken
// process table never blocks an upgrade.
func (i *Installer) runningPackageManager(ctx context.Context) (string, bool) {
	processList, err := i.listProcesses()
	if err != nil {
		logger.Warnf(ctx, "Unable to read process table: %v", err)
		return "", false
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		name := process.Executable()
		if _, found := conflictingProcesses[name]; found {
			return name, true
		}
	}

	return "", false
}

// trimOutput compacts installer output for inclusion in a result message.
func trimOutput(output []byte) string {
	s := strings.TrimSpace(string(output))
	if len(s) > maxOutputInMessage {
		s = s[:maxOutputInMessage] + "..."
	}

	if s == "" {
		s = "no output"
	}

	return s
}
