// Package clock provides the system implementations of the tick and
// wall-clock sources.
package clock

import (
	"time"

	"github.com/hammamikhairi/alarmclock/internal/domain"
)

// Compile-time interface checks.
var (
	_ domain.TickSource = (*Monotonic)(nil)
	_ domain.WallClock  = System{}
)

// Monotonic counts milliseconds since it was created. time.Since reads
// the monotonic clock, so wall-clock jumps (DST, NTP) do not disturb fades.
type Monotonic struct {
	origin time.Time
}

// NewMonotonic starts a tick counter at zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{origin: time.Now()}
}

// Now returns milliseconds elapsed since creation.
func (m *Monotonic) Now() domain.Tick {
	return domain.Tick(time.Since(m.origin).Milliseconds())
}

// System is the process wall clock.
type System struct{}

// Now returns the current wall-clock time.
func (System) Now() time.Time { return time.Now() }
