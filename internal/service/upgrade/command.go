package upgrade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/oshokin/kernel-upgrade/internal/config"
	"github.com/oshokin/kernel-upgrade/internal/domain/kernel"
	"github.com/oshokin/kernel-upgrade/internal/logger"
	"github.com/oshokin/kernel-upgrade/internal/repository/runlog"
	"github.com/oshokin/kernel-upgrade/internal/service/fetcher"
	"github.com/oshokin/kernel-upgrade/internal/service/installer"
	"github.com/oshokin/kernel-upgrade/internal/service/resolver"
)

// Options are inputs accepted by the upgrade entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Architecture overrides the configured target architecture.
	Architecture string
	// SkipConfirmation starts immediately instead of pausing so the
	// operator can bail out.
	SkipConfirmation bool
	// Runner overrides how the privileged tool is executed; nil means os/exec.
	Runner installer.CommandRunner
}

// confirmationDelay is how long the operator has to abort before the first
// irreversible step.
const confirmationDelay = 15 * time.Second

var (
	errUpgradeAlreadyRunning = errors.New("an upgrade is already running")

	// ErrUpgradeIncomplete reports that at least one package failed to
	// download or install. The per-package details are in the run log.
	ErrUpgradeIncomplete = errors.New("one or more packages failed to download or install")
)

// Run executes one upgrade: resolve the latest stable version, derive the
// package set, download, install, report. The run log is persisted on every
// exit path once configuration is loaded.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "kernel-upgrade")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if opts.Architecture != "" {
		cfg.Architecture = opts.Architecture
	}

	runLog := kernel.NewRunLog()
	repository := runlog.NewFileRepository(cfg.RunLogFile)

	// Guaranteed write: persistence failures are logged, never returned.
	defer func() {
		if saveErr := repository.Save(ctx, runLog); saveErr != nil {
			logger.ErrorKV(ctx, "Unable to persist run log", "error", saveErr)
		}
	}()

	runLog.Appendf("Beginning kernel upgrade for %s", cfg.Architecture)
	logger.Infof(ctx, "Beginning kernel upgrade for %s", cfg.Architecture)

	if isUpgradeRunningNow(ctx) {
		runLog.Append("Aborted: an upgrade is already running")
		return errUpgradeAlreadyRunning
	}

	if err = createMarker(); err != nil {
		runLog.Appendf("Aborted: unable to create upgrade marker: %v", err)
		return fmt.Errorf("create upgrade marker: %w", err)
	}

	defer removeMarker()

	if !opts.SkipConfirmation {
		if err = confirm(ctx); err != nil {
			runLog.Append("Canceled by the operator before start")
			return err
		}
	}

	downloadDir, cleanup, err := prepareDownloadDir(cfg.DownloadDir)
	if err != nil {
		runLog.Appendf("Aborted: unable to prepare download directory: %v", err)
		return fmt.Errorf("prepare download directory: %w", err)
	}

	defer cleanup()

	version, err := resolver.New(cfg.KernelPageURL).Resolve(ctx)
	if err != nil {
		runLog.Appendf("Resolution failed: %v", err)
		return err
	}

	runLog.Appendf("The latest stable Linux kernel version is v%s", version)

	specs := kernel.BuildPackageSet(version, cfg.Architecture, cfg.MirrorURL, downloadDir)
	runLog.Appendf("%d packages queued for installation", len(specs))

	for i, spec := range specs {
		logger.Debugf(ctx, "%d. %s", i+1, spec.Name)
	}

	downloadResults := fetcher.New().Fetch(ctx, kernel.ChecksumsURL(cfg.MirrorURL, version), specs)

	downloaded := make(map[string]bool, len(downloadResults))
	for _, result := range downloadResults {
		downloaded[result.Package] = result.Succeeded

		if result.Succeeded {
			runLog.Appendf("Download Success for %s", result.Package)
		} else {
			runLog.Appendf("Download Failure for %s: %s", result.Package, result.Message)
		}
	}

	runner := opts.Runner
	if runner == nil {
		runner = installer.NewExecRunner()
	}

	installResults := installer.New(runner, cfg.SudoPassword).Install(ctx, specs, downloaded)

	installed := make(map[string]bool, len(installResults))
	for _, result := range installResults {
		installed[result.Package] = result.Succeeded

		if result.Succeeded {
			runLog.Appendf("Installation Success for %s", result.Package)
		} else {
			runLog.Appendf("Installation Failure for %s: %s", result.Package, result.Message)
		}
	}

	failures := 0

	for _, spec := range specs {
		if !downloaded[spec.Name] || !installed[spec.Name] {
			failures++
		}
	}

	if failures == 0 {
		runLog.Append("All package installations completed successfully")
		logger.Info(ctx, "Looks like all the installations completed successfully")
	} else {
		runLog.Appendf("%d of %d packages failed to download or install", failures, len(specs))
		logger.Warnf(ctx, "%d of %d packages failed to download or install", failures, len(specs))
	}

	runLog.Appendf("Total time elapsed: %.2f seconds", runLog.Elapsed().Seconds())

	if failures > 0 {
		return ErrUpgradeIncomplete
	}

	return nil
}

// confirm pauses so the operator can abort before the upgrade touches the
// system. Context cancellation (Ctrl+C) aborts the run.
func confirm(ctx context.Context) error {
	logger.Warn(ctx, "If you do not want to upgrade your kernel, hit Ctrl+C now")
	logger.Warnf(ctx, "Continuing in %s", confirmationDelay)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(confirmationDelay):
		return nil
	}
}

// prepareDownloadDir returns the directory packages are downloaded into and a
// cleanup function. An unset directory means run-scoped temporary storage.
func prepareDownloadDir(configured string) (string, func(), error) {
	if configured != "" {
		if err := os.MkdirAll(configured, 0o755); err != nil {
			return "", nil, err
		}

		return configured, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "kernel-upgrade-")
	if err != nil {
		return "", nil, err
	}

	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
