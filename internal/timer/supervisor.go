// Package timer runs the fixed-rate poll loop that drives the audio
// arbiter and the alarm trigger. The loop goroutine is the only owner of
// both; key events reach it over a channel.
package timer

import (
	"context"
	"errors"
	"time"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// ErrQuit is returned by Run when a key asked the program to quit.
var ErrQuit = errors.New("quit requested")

// Arbiter is the part of audio.Arbiter the loop drives.
type Arbiter interface {
	Tick(now domain.Tick)
	ScheduleAlarmRing()
	Snapshot() domain.AudioSnapshot
}

// Trigger is the part of trigger.Clock the loop queries.
type Trigger interface {
	ShouldRing(now time.Time) bool
	State() domain.AlarmState
	Pending() [4]int
}

// KeyHandler runs the action bound to a key and reports whether to quit.
type KeyHandler interface {
	HandleKey(ctx context.Context, r rune) (quit bool)
}

// Option configures the supervisor.
type Option func(*Supervisor)

// WithTickInterval sets how often the arbiter ticks.
func WithTickInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.tickInterval = d
	}
}

// WithStatusInterval sets how often status is published.
func WithStatusInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.statusInterval = d
	}
}

// WithStatus registers a status callback. It runs on the loop goroutine
// and must not block.
func WithStatus(fn func(domain.Status)) Option {
	return func(s *Supervisor) {
		s.publish = fn
	}
}

// WithKeys sets the channel key events arrive on.
func WithKeys(keys <-chan rune) Option {
	return func(s *Supervisor) {
		s.keys = keys
	}
}

// Supervisor is the poll loop. While ShouldRing is true the ring is
// requested on every tick; the arbiter ignores requests while one is
// already scheduled or playing.
type Supervisor struct {
	arbiter Arbiter
	trigger Trigger
	handler KeyHandler
	ticks   domain.TickSource
	wall    domain.WallClock
	log     *logger.Logger

	tickInterval   time.Duration
	statusInterval time.Duration
	keys           <-chan rune
	publish        func(domain.Status)

	ringing    bool
	lastStatus domain.Tick
	published  bool
}

// New creates a poll loop with the given dependencies and options.
func New(arbiter Arbiter, trigger Trigger, handler KeyHandler, ticks domain.TickSource, wall domain.WallClock, log *logger.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		arbiter:        arbiter,
		trigger:        trigger,
		handler:        handler,
		ticks:          ticks,
		wall:           wall,
		log:            log,
		tickInterval:   8 * time.Millisecond,
		statusInterval: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled or a key asks to quit, in which case
// it returns ErrQuit.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.log.Info("poll loop started (tick=%s)", s.tickInterval)
	defer s.log.Info("poll loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-s.keys:
			if !ok {
				s.log.Debug("key channel closed")
				s.keys = nil
				continue
			}
			if s.handler.HandleKey(ctx, r) {
				return ErrQuit
			}
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one cycle: arbiter first, then the trigger.
func (s *Supervisor) tick() {
	now := s.ticks.Now()
	s.arbiter.Tick(now)

	wall := s.wall.Now()
	ring := s.trigger.ShouldRing(wall)
	if ring {
		if !s.ringing {
			s.log.Info("alarm time reached at %s", wall.Format("15:04:05"))
		}
		// Idempotent while a ring is scheduled or playing, so a tone that
		// runs out inside the window is started again.
		s.arbiter.ScheduleAlarmRing()
	}
	s.ringing = ring

	if s.publish != nil && (!s.published || time.Duration(now-s.lastStatus)*time.Millisecond >= s.statusInterval) {
		s.published = true
		s.lastStatus = now
		s.publish(domain.Status{
			Now:     wall,
			Alarm:   s.trigger.State(),
			Pending: s.trigger.Pending(),
			Ringing: ring,
			Audio:   s.arbiter.Snapshot(),
		})
	}
}
