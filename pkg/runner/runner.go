// Package runner implements the process supervisor: it owns exactly one
// child process group per RunningModel, seeds and bounds its log output,
// probes its readiness over HTTP, and terminates the whole group on stop.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/model"
	"github.com/pkg/errors"
)

const (
	maxLogLines       = 100
	readinessTimeout  = 2 * time.Second
	stopGraceTimeout  = 5 * time.Second
	readerJoinTimeout = 1 * time.Second
)

// Spec is the input contract for Spawn: a fully-resolved argv, combined
// environment, and optional working directory. Runtime drivers are
// responsible for producing a Spec; RunningModel knows nothing about
// individual backends.
type Spec struct {
	Argv             []string
	Env              map[string]string
	WorkingDirectory string
	Listener         model.Listener
	HealthCheck      string
	HealthStatus     int
}

// RunningModel is the supervisor's record for one spawned backend. A
// RunningModel exclusively owns its child process group: no other
// component may signal it.
type RunningModel struct {
	log logging.Logger

	mu      sync.RWMutex
	cmd     *exec.Cmd
	pgid    int
	running bool

	listener     model.Listener
	healthCheck  string
	healthStatus int
	httpClient   *http.Client

	logs *logRing

	readerDone chan struct{}
	exitDone   chan struct{}
	stopOnce   sync.Once
}

// Spawn starts spec's process in a new process group, seeds the log
// ring with a command/environment banner, and begins draining its
// combined stdout/stderr in a background reader. It returns once the
// process has started; it does not wait for readiness.
func Spawn(spec Spec, log logging.Logger) (*RunningModel, error) {
	if log == nil {
		log = noopLogger{}
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.WorkingDirectory
	cmd.Env = mergedEnviron(spec.Env)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "runner: obtaining stdout pipe")
	}
	cmd.Stderr = cmd.Stdout // combined stream, matching stdout=PIPE/stderr=STDOUT

	setNewProcessGroup(cmd)

	rm := &RunningModel{
		log:          log,
		listener:     spec.Listener,
		healthCheck:  spec.HealthCheck,
		healthStatus: spec.HealthStatus,
		httpClient:   &http.Client{Timeout: readinessTimeout},
		logs:         newLogRing(maxLogLines),
		readerDone:   make(chan struct{}),
		exitDone:     make(chan struct{}),
	}
	rm.seedLogs(spec)

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "runner: starting process")
	}

	pgid, err := processGroupID(cmd)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, errors.Wrap(err, "runner: resolving process group")
	}

	rm.mu.Lock()
	rm.cmd = cmd
	rm.pgid = pgid
	rm.running = true
	rm.mu.Unlock()

	go rm.collectLogs(stdout)
	go rm.waitForExit()

	return rm, nil
}

// seedLogs writes the banner the source always prepends: the joined
// command line, then "Environment:" followed by each combined env var as
// "  KEY=VALUE", then a separator.
func (rm *RunningModel) seedLogs(spec Spec) {
	rm.logs.Append("Command: " + joinArgv(spec.Argv))
	rm.logs.Append("Environment:")
	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rm.logs.Append(fmt.Sprintf("  %s=%s", k, spec.Env[k]))
	}
	rm.logs.Append("---")
}

func joinArgv(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}

// mergedEnviron merges the host process's environment with the combined
// launch environment, later keys winning on overlap; this is distinct
// from EnvironmentSet's own comma-concat merge, which has already run by
// the time Env reaches Spawn.
func mergedEnviron(env map[string]string) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				merged[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	for k, v := range env {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

func (rm *RunningModel) collectLogs(stdout io.ReadCloser) {
	defer close(rm.readerDone)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		rm.logs.Append(scanner.Text())
	}
}

// waitForExit is the sole caller of cmd.Wait: os/exec forbids concurrent
// Wait calls, so Stop never calls it itself, instead selecting on
// exitDone below.
func (rm *RunningModel) waitForExit() {
	err := rm.cmd.Wait()
	rm.mu.Lock()
	rm.running = false
	rm.mu.Unlock()
	close(rm.exitDone)
	if err != nil {
		rm.log.WithError(err).Debug("runner: process exited")
	}
}

// Logs returns a snapshot copy of the bounded log ring.
func (rm *RunningModel) Logs() []string {
	return rm.logs.Snapshot()
}

// Listener returns the (protocol, host, port) this model is bound to.
func (rm *RunningModel) Listener() model.Listener {
	return rm.listener
}

// Status reports running/ready. running is true iff the child process
// has not been reaped; ready additionally requires a single HTTP probe
// to succeed, recomputed fresh on every call.
func (rm *RunningModel) Status(ctx context.Context) model.Status {
	rm.mu.RLock()
	running := rm.running
	rm.mu.RUnlock()

	if !running {
		return model.Status{Running: false, Ready: false}
	}
	return model.Status{Running: true, Ready: rm.isReady(ctx)}
}

func (rm *RunningModel) isReady(ctx context.Context) bool {
	if rm.healthCheck == "" {
		return false
	}
	url := fmt.Sprintf("http://%s:%d%s", readinessHost(rm.listener.Host), rm.listener.Port, rm.healthCheck)

	reqCtx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := rm.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == rm.healthStatus
}

// readinessHost rewrites a 0.0.0.0 bind address to 127.0.0.1 for
// loopback probing, matching the registry's local-federation host
// rewrite.
func readinessHost(host string) string {
	if host == "0.0.0.0" || host == "" {
		return "127.0.0.1"
	}
	return host
}

// Stop sends SIGTERM to the entire process group, waits up to 5 seconds
// for the root to exit, and escalates to SIGKILL on timeout. noWait
// skips both waits, firing SIGTERM and returning immediately (used during
// global shutdown). Stopping an already-dead group, or calling Stop
// twice, is not an error.
func (rm *RunningModel) Stop(noWait bool) error {
	var stopErr error
	rm.stopOnce.Do(func() {
		rm.mu.RLock()
		pgid := rm.pgid
		rm.mu.RUnlock()

		if pgid == 0 {
			return
		}

		if err := signalGroup(pgid, sigTerm); err != nil {
			stopErr = errors.Wrap(err, "runner: sending SIGTERM")
		}

		if noWait {
			return
		}

		// waitForExit owns the one cmd.Wait call; Stop only ever observes
		// it finish through exitDone, since os/exec forbids concurrent Wait.
		select {
		case <-rm.exitDone:
		case <-time.After(stopGraceTimeout):
			if err := signalGroup(pgid, sigKill); err != nil {
				stopErr = errors.Wrap(err, "runner: sending SIGKILL")
			}
			<-rm.exitDone
		}

		select {
		case <-rm.readerDone:
		case <-time.After(readerJoinTimeout):
		}

		rm.mu.Lock()
		rm.running = false
		rm.pgid = 0
		rm.mu.Unlock()
	})
	return stopErr
}

