package domain

import (
	"context"
	"io"
	"time"
)

// Playback plays the prepared sound for a channel. Implementations must
// treat Stop and SetVolume on an unknown or already-stopped handle as a
// silent no-op.
type Playback interface {
	PlayLooped(ch Channel) (SoundHandle, error)
	PlayOnce(ch Channel) (SoundHandle, error)
	Stop(h SoundHandle)
	SetVolume(h SoundHandle, volume float64)
	IsBusy(h SoundHandle) bool
}

// Worker is a running external process. Poll never blocks; Terminate
// delivers an interrupt and blocks until the process has exited.
type Worker interface {
	Poll() (exited bool, code int, err error)
	Terminate() error
}

// ProcessSpawner starts external worker processes with a writable stdin.
type ProcessSpawner interface {
	Spawn(name string, args []string) (Worker, io.WriteCloser, error)
}

// TickSource reports the monotonic tick used for fade scheduling.
type TickSource interface {
	Now() Tick
}

// WallClock reports wall-clock time for alarm matching.
type WallClock interface {
	Now() time.Time
}

// AlarmState is the persisted part of the alarm-time state machine.
type AlarmState struct {
	Armed        bool
	Hour         int
	Minute       int
	UseLocal     bool
	NextUseLocal bool
}

// AlarmStore persists the alarm state across restarts. Implementations
// can be file-based or in-memory.
type AlarmStore interface {
	Load(ctx context.Context) (AlarmState, error)
	Save(ctx context.Context, state AlarmState) error
}
