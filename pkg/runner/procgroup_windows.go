//go:build windows

package runner

import (
	"os/exec"

	"github.com/kolesnikovae/go-winjob"
)

// windowsJobs tracks the job object backing each spawned command's
// process-group equivalent, keyed by pid, since Windows has no pgid.
var windowsJobs = map[int]*winjob.Job{}

// setNewProcessGroup is a no-op on Windows; the process tree is contained
// by a job object assigned after Start in processGroupID instead, since
// job assignment requires a live process handle.
func setNewProcessGroup(cmd *exec.Cmd) {}

// processGroupID assigns the started process to a new job object with
// kill-on-close semantics and returns the process's pid as its group
// identifier.
func processGroupID(cmd *exec.Cmd) (int, error) {
	job, err := winjob.Create(winjob.WithKillOnJobClose())
	if err != nil {
		return 0, err
	}
	if err := job.Assign(cmd.Process); err != nil {
		job.Close()
		return 0, err
	}
	windowsJobs[cmd.Process.Pid] = job
	return cmd.Process.Pid, nil
}

// signalGroup terminates every process in the job object associated with
// pgid (a pid, per processGroupID above). Windows job objects have no
// graceful-signal equivalent to SIGTERM, so both sigTerm and sigKill
// terminate the job; the supervisor's wait-then-escalate logic still
// applies uniformly across platforms.
func signalGroup(pgid int, sig groupSignal) error {
	job, ok := windowsJobs[pgid]
	if !ok {
		return nil
	}
	if err := job.Terminate(1); err != nil {
		return err
	}
	if sig == sigKill {
		delete(windowsJobs, pgid)
		job.Close()
	}
	return nil
}

const (
	sigTerm groupSignal = 1
	sigKill groupSignal = 2
)
