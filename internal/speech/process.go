// Package speech drives the external speech-synthesis worker. Exactly one
// worker runs at a time: a new request interrupts the previous one instead
// of queueing behind it.
package speech

import (
	"errors"
	"fmt"
	"io"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Process spawns, polls and replaces the speech worker. Failures are
// logged and never returned as fatal: losing speech must not stop the
// alarm. Not safe for concurrent use.
type Process struct {
	spawner domain.ProcessSpawner
	command []string
	log     *logger.Logger
	live    domain.Worker // most recently spawned worker, nil when idle
}

// NewProcess creates a speech process manager that runs command (program
// followed by arguments) for every utterance.
func NewProcess(spawner domain.ProcessSpawner, command []string, log *logger.Logger) *Process {
	return &Process{
		spawner: spawner,
		command: command,
		log:     log,
	}
}

// Speak interrupts any live worker, waits for it to exit, then starts a
// new one and writes text to its stdin.
func (p *Process) Speak(text string) (domain.Worker, error) {
	p.Stop()

	if len(p.command) == 0 {
		return nil, fmt.Errorf("%w: no speech command configured", domain.ErrSpeechFailure)
	}

	w, stdin, err := p.spawner.Spawn(p.command[0], p.command[1:])
	if err != nil {
		p.log.Error("speech: spawning %s: %v", p.command[0], err)
		return nil, fmt.Errorf("%w: spawn %s: %v", domain.ErrSpeechFailure, p.command[0], err)
	}
	p.live = w

	// Closing stdin is what tells the worker the utterance is complete.
	_, werr := io.WriteString(stdin, text+"\n")
	cerr := stdin.Close()
	if err := errors.Join(werr, cerr); err != nil {
		p.log.Error("speech: writing to worker: %v", err)
	}

	p.log.Debug("speech: speaking %q", truncate(text, 60))
	return w, nil
}

// Poll reports whether w is still running. A worker that exited non-zero
// or could not be polled is logged and reported as finished.
func (p *Process) Poll(w domain.Worker) domain.WorkerStatus {
	if w == nil {
		return domain.WorkerFinished
	}

	exited, code, err := w.Poll()
	switch {
	case err != nil:
		p.log.Error("speech: %v: %v", domain.ErrSpeechFailure, err)
	case !exited:
		return domain.WorkerRunning
	case code != 0:
		p.log.Warn("speech: worker exited with code %d", code)
	default:
		p.log.Debug("speech: worker finished")
	}

	if p.live == w {
		p.live = nil
	}
	return domain.WorkerFinished
}

// Stop interrupts the live worker, if any, and waits for it to exit.
func (p *Process) Stop() {
	if p.live == nil {
		return
	}
	if err := p.live.Terminate(); err != nil {
		p.log.Warn("speech: terminating previous worker: %v", err)
	}
	p.live = nil
}

// Busy reports whether a worker is live.
func (p *Process) Busy() bool {
	return p.live != nil
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
