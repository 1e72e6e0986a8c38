// Package actions binds key events to operations on the alarm clock and
// the audio arbiter through a fixed action table.
package actions

import (
	"context"
	"time"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
	"github.com/hammamikhairi/alarmclock/internal/speech"
	"github.com/hammamikhairi/alarmclock/internal/trigger"
)

// DefaultVolumeStep is used when no option overrides it.
const DefaultVolumeStep = 0.1

// Clock is the subset of trigger.Clock the dispatcher drives.
type Clock interface {
	InputDigit(d int) error
	Confirm() string
	ConfirmHour() string
	Cancel() string
	Silence()
	ToggleTimeReference(explicit *bool) string
	Describe() string
	SpeakCurrentAndTarget(now time.Time) string
	State() domain.AlarmState
}

// Audio is the subset of audio.Arbiter the dispatcher drives.
type Audio interface {
	Speak(text string)
	TestRing(announcement string)
	StopRing() bool
	IsAlarmBusy() bool
	SetNoiseVolume(v float64)
	SetAlarmVolume(v float64)
	NoiseVolume() float64
	AlarmVolume() float64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithVolumeStep sets how far one volume key moves a ceiling.
func WithVolumeStep(step float64) Option {
	return func(d *Dispatcher) { d.step = step }
}

// WithStore persists the alarm state after every change.
func WithStore(store domain.AlarmStore) Option {
	return func(d *Dispatcher) { d.store = store }
}

// Dispatcher resolves keys to actions and runs them. Like the clock and
// arbiter it drives, it belongs to the poll loop goroutine.
type Dispatcher struct {
	clock  Clock
	audio  Audio
	wall   domain.WallClock
	keymap map[rune]domain.Action
	store  domain.AlarmStore
	step   float64
	log    *logger.Logger
}

// New creates a dispatcher over the given keymap.
func New(clock Clock, audio Audio, wall domain.WallClock, keymap map[rune]domain.Action, log *logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		clock:  clock,
		audio:  audio,
		wall:   wall,
		keymap: keymap,
		step:   DefaultVolumeStep,
		log:    log,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// HandleKey runs the action bound to r. It reports whether the action
// asks the program to quit. Unbound keys are ignored.
func (d *Dispatcher) HandleKey(ctx context.Context, r rune) (quit bool) {
	a, ok := d.keymap[r]
	if !ok {
		d.log.Debug("key %q not bound", r)
		return false
	}
	return d.Do(ctx, a)
}

// Do runs a single action.
func (d *Dispatcher) Do(ctx context.Context, a domain.Action) (quit bool) {
	d.log.Debug("action: %s", a)

	if digit, ok := a.Digit(); ok {
		if err := d.clock.InputDigit(digit); err != nil {
			d.log.Warn("digit %d: %v", digit, err)
			return false
		}
		d.audio.Speak(trigger.DigitWord(digit))
		return false
	}

	switch a {
	case domain.ActionConfirm:
		d.audio.Speak(d.clock.Confirm())
		d.persist(ctx)
	case domain.ActionConfirmHour:
		d.audio.Speak(d.clock.ConfirmHour())
		d.persist(ctx)
	case domain.ActionCancel:
		d.cancel(ctx)
	case domain.ActionToggleZone:
		d.audio.Speak(d.clock.ToggleTimeReference(nil))
		d.persist(ctx)
	case domain.ActionUseLocal:
		local := true
		d.audio.Speak(d.clock.ToggleTimeReference(&local))
		d.persist(ctx)
	case domain.ActionUseZulu:
		local := false
		d.audio.Speak(d.clock.ToggleTimeReference(&local))
		d.persist(ctx)
	case domain.ActionDescribe:
		d.audio.Speak(d.clock.Describe())
	case domain.ActionSayTime:
		d.audio.Speak(d.clock.SpeakCurrentAndTarget(d.wall.Now()))
	case domain.ActionVolumeUp:
		d.nudgeVolume(d.step)
	case domain.ActionVolumeDown:
		d.nudgeVolume(-d.step)
	case domain.ActionTestRing:
		d.audio.TestRing(speech.LineTestRing())
	case domain.ActionQuit:
		d.log.Info("quit requested")
		return true
	default:
		d.log.Warn("action %s has no handler", a)
	}
	return false
}

// cancel silences a ring first; only with nothing ringing does it disarm.
// A stopped ring stays quiet for the rest of its trigger window.
func (d *Dispatcher) cancel(ctx context.Context) {
	if d.audio.IsAlarmBusy() && d.audio.StopRing() {
		d.clock.Silence()
		d.audio.Speak(speech.LineAlarmStopped())
		return
	}
	d.audio.Speak(d.clock.Cancel())
	d.persist(ctx)
}

// nudgeVolume moves the alarm tone while it is busy, otherwise the noise.
// Changes are not announced: speech would duck the channel being tuned.
func (d *Dispatcher) nudgeVolume(delta float64) {
	if d.audio.IsAlarmBusy() {
		d.audio.SetAlarmVolume(d.audio.AlarmVolume() + delta)
		d.log.Info("alarm volume %.2f", d.audio.AlarmVolume())
		return
	}
	d.audio.SetNoiseVolume(d.audio.NoiseVolume() + delta)
	d.log.Info("noise volume %.2f", d.audio.NoiseVolume())
}

func (d *Dispatcher) persist(ctx context.Context) {
	if d.store == nil {
		return
	}
	if err := d.store.Save(ctx, d.clock.State()); err != nil {
		d.log.Error("saving alarm state: %v", err)
	}
}
