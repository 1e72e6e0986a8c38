package speech

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Compile-time interface check.
var _ domain.ProcessSpawner = (*ExecSpawner)(nil)

// sendInterrupt is replaced in tests.
var sendInterrupt = interrupt

// ExecSpawner starts workers as OS processes.
type ExecSpawner struct {
	log *logger.Logger
}

// NewExecSpawner creates a spawner backed by os/exec.
func NewExecSpawner(log *logger.Logger) *ExecSpawner {
	return &ExecSpawner{log: log}
}

// CheckCommand reports whether the program of a command line can be found
// in PATH. A missing program is not fatal; speech is simply lost.
func CheckCommand(command []string) error {
	if len(command) == 0 {
		return errors.New("empty speech command")
	}
	if _, err := exec.LookPath(command[0]); err != nil {
		return fmt.Errorf("speech binary %q not found: %w", command[0], err)
	}
	return nil
}

// Spawn starts name with args and returns the worker plus its stdin.
func (s *ExecSpawner) Spawn(name string, args []string) (domain.Worker, io.WriteCloser, error) {
	cmd := exec.Command(name, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start: %w", err)
	}

	w := &execWorker{cmd: cmd, done: make(chan struct{})}
	go w.wait()

	s.log.Debug("speech: spawned %s (pid=%d)", name, cmd.Process.Pid)
	return w, stdin, nil
}

// execWorker reaps its process in a goroutine so Poll never blocks.
type execWorker struct {
	cmd  *exec.Cmd
	done chan struct{}
	code int
	err  error
}

func (w *execWorker) wait() {
	err := w.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = nil // reported through the exit code
	}
	if w.cmd.ProcessState != nil {
		w.code = w.cmd.ProcessState.ExitCode()
	}
	w.err = err
	close(w.done)
}

// Poll reports the exit status without blocking.
func (w *execWorker) Poll() (bool, int, error) {
	select {
	case <-w.done:
		return true, w.code, w.err
	default:
		return false, 0, nil
	}
}

// Terminate sends an interrupt and waits for the process to exit. A worker
// still alive after terminateGrace, or one that could not be interrupted,
// is killed. Terminate only returns once the process has been reaped.
func (w *execWorker) Terminate() error {
	select {
	case <-w.done:
		return nil
	default:
	}

	if err := sendInterrupt(w.cmd.Process); err == nil {
		select {
		case <-w.done:
			return nil
		case <-time.After(terminateGrace):
		}
	}

	if err := w.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", w.cmd.Process.Pid, err)
	}
	<-w.done
	return nil
}
