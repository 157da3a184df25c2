package installer

import (
	"context"
	"testing"

	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/kernel-upgrade/internal/domain/kernel"
)

// fakeRunner records invocations and returns scripted exit codes per path.
type fakeRunner struct {
	exitCodes map[string]int
	calls     []fakeCall
}

type fakeCall struct {
	stdin string
	name  string
	args  []string
}

func (f *fakeRunner) Run(_ context.Context, stdin, name string, args ...string) (int, []byte, error) {
	f.calls = append(f.calls, fakeCall{stdin: stdin, name: name, args: args})

	path := args[len(args)-1]

	return f.exitCodes[path], []byte("dpkg output"), nil
}

// fakeProcess implements ps.Process for preflight tests.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 0 }
func (p fakeProcess) Executable() string { return p.executable }

func testSpecs() []kernel.PackageSpec {
	return kernel.BuildPackageSet("5.1.6", "amd64", "https://mirror.local", "/tmp/run")
}

func allDownloaded(specs []kernel.PackageSpec) map[string]bool {
	downloaded := make(map[string]bool, len(specs))
	for _, spec := range specs {
		downloaded[spec.Name] = true
	}

	return downloaded
}

// emptyProcessTable makes the preflight see no conflicting processes.
func emptyProcessTable(inst *Installer) {
	inst.listProcesses = func() ([]ps.Process, error) {
		return nil, nil
	}
}

// TestInstall_AllSucceed runs every downloaded package in fixed order through sudo/dpkg.
func TestInstall_AllSucceed(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{exitCodes: map[string]int{}}
	inst := New(runner, "hunter2")
	emptyProcessTable(inst)

	specs := testSpecs()

	results := inst.Install(context.Background(), specs, allDownloaded(specs))
	require.Len(t, results, 4)

	for i, result := range results {
		require.True(t, result.Succeeded)
		require.Equal(t, kernel.StageInstall, result.Stage)
		require.Equal(t, specs[i].Name, result.Package)
	}

	// Fixed order, credential on stdin, dpkg invoked via sudo -S.
	require.Len(t, runner.calls, 4)

	for i, call := range runner.calls {
		require.Equal(t, "sudo", call.name)
		require.Equal(t, []string{"-S", "dpkg", "-i", specs[i].LocalPath}, call.args)
		require.Equal(t, "hunter2\n", call.stdin)
	}
}

// TestInstall_SkipsFailedDownloads never hands an undownloaded package to the
// privileged tool.
func TestInstall_SkipsFailedDownloads(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{exitCodes: map[string]int{}}
	inst := New(runner, "hunter2")
	emptyProcessTable(inst)

	specs := testSpecs()
	downloaded := allDownloaded(specs)
	downloaded[specs[3].Name] = false // the image package never downloaded

	results := inst.Install(context.Background(), specs, downloaded)
	require.Len(t, results, 3)
	require.Len(t, runner.calls, 3)

	for _, call := range runner.calls {
		require.NotEqual(t, specs[3].LocalPath, call.args[len(call.args)-1])
	}
}

// TestInstall_PartialFailure keeps installing siblings after one failure.
func TestInstall_PartialFailure(t *testing.T) {
	t.Parallel()

	specs := testSpecs()
	runner := &fakeRunner{exitCodes: map[string]int{
		specs[1].LocalPath: 1,
	}}
	inst := New(runner, "hunter2")
	emptyProcessTable(inst)

	results := inst.Install(context.Background(), specs, allDownloaded(specs))
	require.Len(t, results, 4)

	require.True(t, results[0].Succeeded)
	require.False(t, results[1].Succeeded)
	require.Contains(t, results[1].Message, "exit code 1")
	require.True(t, results[2].Succeeded)
	require.True(t, results[3].Succeeded)

	require.Len(t, runner.calls, 4)
}

// TestInstall_PackageManagerBusy refuses the whole stage when dpkg holds the lock.
func TestInstall_PackageManagerBusy(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{exitCodes: map[string]int{}}
	inst := New(runner, "hunter2")
	inst.listProcesses = func() ([]ps.Process, error) {
		return []ps.Process{fakeProcess{pid: 4242, executable: "dpkg"}}, nil
	}

	specs := testSpecs()

	results := inst.Install(context.Background(), specs, allDownloaded(specs))
	require.Len(t, results, 4)
	require.Empty(t, runner.calls)

	for _, result := range results {
		require.False(t, result.Succeeded)
		require.Contains(t, result.Message, "another package manager is running")
	}
}

// TestInstall_NothingDownloaded performs no invocations at all.
func TestInstall_NothingDownloaded(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{exitCodes: map[string]int{}}
	inst := New(runner, "hunter2")
	emptyProcessTable(inst)

	results := inst.Install(context.Background(), testSpecs(), map[string]bool{})
	require.Empty(t, results)
	require.Empty(t, runner.calls)
}

// TestInstall_CredentialNeverInMessages keeps the sudo password out of results.
func TestInstall_CredentialNeverInMessages(t *testing.T) {
	t.Parallel()

	specs := testSpecs()
	runner := &fakeRunner{exitCodes: map[string]int{
		specs[0].LocalPath: 2,
	}}
	inst := New(runner, "hunter2")
	emptyProcessTable(inst)

	results := inst.Install(context.Background(), specs, allDownloaded(specs))
	for _, result := range results {
		require.NotContains(t, result.Message, "hunter2")
	}
}
