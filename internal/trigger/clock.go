// Package trigger implements the alarm-time state machine: digit entry,
// arming in local or zulu time, spoken descriptions, and the per-tick
// "should the alarm ring now" decision.
package trigger

import (
	"fmt"
	"time"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Time is an hour:minute pair. Values outside 00:00..23:59 are allowed
// to be stored; they are reported as invalid when described.
type Time struct {
	Hour   int
	Minute int
}

// Valid reports whether the pair is a real time of day.
func (t Time) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// String renders the zero-padded HH:MM form used for comparisons.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Option configures the Clock.
type Option func(*Clock)

// WithLocation sets the zone used for local-time alarms. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Clock) {
		c.local = loc
	}
}

// WithReference sets the zone used for zulu alarms. Defaults to UTC.
func WithReference(loc *time.Location) Option {
	return func(c *Clock) {
		c.zulu = loc
	}
}

// WithLocalTime sets whether alarms are armed against local time until
// the user toggles it.
func WithLocalTime(local bool) Option {
	return func(c *Clock) {
		c.useLocal = local
		c.nextUseLocal = local
	}
}

// Clock is the alarm-time state machine. It has two states, disarmed
// (target == nil) and armed. It holds no reference to the audio side and
// is not safe for concurrent use; the poll loop owns it.
type Clock struct {
	log   *logger.Logger
	local *time.Location
	zulu  *time.Location

	target       *Time
	useLocal     bool   // zone of the armed target
	nextUseLocal bool   // zone applied on the next confirm
	pending      [4]int // last four digits, oldest first

	firing   bool // ShouldRing was due on the previous call
	silenced bool // ring stopped by the user until the window ends
}

// New creates a disarmed clock.
func New(log *logger.Logger, opts ...Option) *Clock {
	c := &Clock{
		log:          log,
		local:        time.Local,
		zulu:         time.UTC,
		useLocal:     true,
		nextUseLocal: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InputDigit shifts d into the digit register, evicting the oldest digit.
func (c *Clock) InputDigit(d int) error {
	if d < 0 || d > 9 {
		return fmt.Errorf("%w: digit %d out of range", domain.ErrInvalidInput, d)
	}
	copy(c.pending[:], c.pending[1:])
	c.pending[3] = d
	return nil
}

// Pending returns the digit register, oldest first.
func (c *Clock) Pending() [4]int {
	return c.pending
}

// Confirm arms the alarm at the HHMM held in the digit register and
// returns the spoken description of the result.
func (c *Clock) Confirm() string {
	c.arm(Time{
		Hour:   c.pending[0]*10 + c.pending[1],
		Minute: c.pending[2]*10 + c.pending[3],
	})
	return c.Describe()
}

// ConfirmHour arms the alarm on the hour given by the last two digits.
func (c *Clock) ConfirmHour() string {
	c.arm(Time{Hour: c.pending[2]*10 + c.pending[3]})
	return c.Describe()
}

func (c *Clock) arm(t Time) {
	if t.Hour == 24 {
		t.Hour = 0
	}
	c.target = &t
	c.useLocal = c.nextUseLocal
	c.firing = false
	c.silenced = false
	c.log.Info("alarm armed for %s (%s)", t, c.zoneLabel(c.useLocal))
}

// Cancel disarms the alarm.
func (c *Clock) Cancel() string {
	c.target = nil
	c.log.Info("alarm cancelled")
	return lineCancelled
}

// ToggleTimeReference sets the zone used by the next confirm. With a nil
// argument the setting flips. The armed alarm, if any, is not affected.
func (c *Clock) ToggleTimeReference(explicit *bool) string {
	if explicit != nil {
		c.nextUseLocal = *explicit
	} else {
		c.nextUseLocal = !c.nextUseLocal
	}
	c.log.Debug("next alarm zone: %s", c.zoneLabel(c.nextUseLocal))
	return lineNextZone(c.zoneLabel(c.nextUseLocal))
}

// Target returns the armed time, if any.
func (c *Clock) Target() (Time, bool) {
	if c.target == nil {
		return Time{}, false
	}
	return *c.target, true
}

// Armed reports whether an alarm time is set.
func (c *Clock) Armed() bool { return c.target != nil }

// UseLocal reports the zone of the armed alarm.
func (c *Clock) UseLocal() bool { return c.useLocal }

// NextUseLocal reports the zone the next confirm will use.
func (c *Clock) NextUseLocal() bool { return c.nextUseLocal }

// State returns the persistable part of the clock.
func (c *Clock) State() domain.AlarmState {
	s := domain.AlarmState{
		UseLocal:     c.useLocal,
		NextUseLocal: c.nextUseLocal,
	}
	if c.target != nil {
		s.Armed = true
		s.Hour = c.target.Hour
		s.Minute = c.target.Minute
	}
	return s
}

// Restore replaces the clock state with a previously saved one. The
// digit register is left untouched.
func (c *Clock) Restore(s domain.AlarmState) {
	c.useLocal = s.UseLocal
	c.nextUseLocal = s.NextUseLocal
	c.target = nil
	c.firing = false
	c.silenced = false
	if s.Armed {
		c.target = &Time{Hour: s.Hour, Minute: s.Minute}
	}
	c.log.Debug("alarm state restored: armed=%v target=%02d:%02d local=%v", s.Armed, s.Hour, s.Minute, s.UseLocal)
}

// ShouldRing reports whether the alarm should be ringing at now. Callers
// must poll at least once per wall-clock minute to observe the exact match.
// It stays true for the whole trigger window unless Silence was called
// inside that window.
//
// Local-time alarms additionally recover from a spring-forward DST jump:
// if DST began within the last hour and the target fell inside the skipped
// wall-clock window, the alarm rings once the clock has passed it. The
// comparison is on zero-padded HH:MM strings and assumes the skipped
// window does not wrap midnight.
func (c *Clock) ShouldRing(now time.Time) bool {
	due, recovered := c.due(now)
	if !due {
		c.firing = false
		c.silenced = false
		return false
	}
	if !c.firing && recovered {
		c.log.Info("alarm %s skipped by DST change, ringing at %s", c.target, now.In(c.local).Format("15:04"))
	}
	c.firing = true
	return !c.silenced
}

// Silence stops ShouldRing from reporting the current trigger window. It
// has no effect outside a window; the next window rings normally.
func (c *Clock) Silence() {
	if !c.firing {
		return
	}
	c.silenced = true
	c.log.Info("alarm silenced until %s passes", c.target)
}

// due is the pure trigger test. recovered is set when only the DST branch
// matched.
func (c *Clock) due(now time.Time) (due, recovered bool) {
	if c.target == nil {
		return false, false
	}

	loc := c.zone(c.useLocal)
	wall := now.In(loc)
	nowHHMM := wall.Format("15:04")
	target := c.target.String()

	if nowHHMM == target {
		return true, false
	}
	if !c.useLocal {
		return false, false
	}

	hourAgo := now.Add(-time.Hour).In(loc)
	if !wall.IsDST() || hourAgo.IsDST() {
		return false, false
	}
	if !c.target.Valid() || !skipped(*c.target, wall) {
		return false, false
	}
	return target <= nowHHMM, true
}

// skipped reports whether t never occurs on the wall clock on day's date.
// time.Date normalizes a nonexistent wall time to a different one.
func skipped(t Time, day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
	return d.Hour() != t.Hour || d.Minute() != t.Minute
}

func (c *Clock) zone(local bool) *time.Location {
	if local {
		return c.local
	}
	return c.zulu
}

func (c *Clock) zoneLabel(local bool) string {
	if local {
		return "local"
	}
	return "zulu"
}
