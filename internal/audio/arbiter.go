// Package audio owns the three sound channels of the alarm clock and
// decides, every tick, how loud each one is.
//
// Priority is fixed: speech, then the alarm tone, then the noise bed. A
// higher-priority channel never cuts a lower one off; it fades it to zero
// before starting and lets it fade back in after finishing.
package audio

import (
	"time"

	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/fade"
	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Defaults used when no option overrides them.
const (
	DefaultSpeakFade      = 1500 * time.Millisecond
	DefaultNoiseAlarmFade = 10 * time.Second
	DefaultNoiseVolume    = 0.5
	DefaultAlarmVolume    = 1.0
	DefaultRetryInterval  = time.Second
)

// Speaker runs speech for the arbiter. speech.Process satisfies it.
type Speaker interface {
	Speak(text string) (domain.Worker, error)
	Poll(w domain.Worker) domain.WorkerStatus
	Stop()
}

// channel is the scheduling record of one sound source. start and ended
// are optional deadlines; a nil start means nothing is scheduled.
type channel struct {
	volume float64
	start  *domain.Tick
	ended  *domain.Tick
}

func (c *channel) schedule(at domain.Tick) { c.start = &at }
func (c *channel) finish(at domain.Tick) {
	c.start = nil
	c.ended = &at
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithSpeakFade sets how long the other channels take to fade out before
// speech and to recover after it.
func WithSpeakFade(d time.Duration) Option {
	return func(a *Arbiter) { a.speakFade = d.Milliseconds() }
}

// WithNoiseAlarmFade sets how long the noise bed takes to fade out before
// the alarm tone and to recover after it.
func WithNoiseAlarmFade(d time.Duration) Option {
	return func(a *Arbiter) { a.noiseAlarmFade = d.Milliseconds() }
}

// WithNoiseVolume sets the initial noise ceiling.
func WithNoiseVolume(v float64) Option {
	return func(a *Arbiter) { a.noise.volume = clamp(v) }
}

// WithAlarmVolume sets the initial alarm tone ceiling.
func WithAlarmVolume(v float64) Option {
	return func(a *Arbiter) { a.alarm.volume = clamp(v) }
}

// WithRetryInterval sets the minimum gap between attempts to start a
// noise loop or alarm tone that failed to start.
func WithRetryInterval(d time.Duration) Option {
	return func(a *Arbiter) { a.retry = d.Milliseconds() }
}

// Arbiter schedules speech, the alarm tone and the noise bed. It is not
// safe for concurrent use: one goroutine calls Tick and every mutator.
type Arbiter struct {
	playback domain.Playback
	speaker  Speaker
	ticks    domain.TickSource
	log      *logger.Logger

	speakFade      int64
	noiseAlarmFade int64
	retry          int64

	speech        channel
	pendingSpeech *string
	worker        domain.Worker
	lastSpoken    string

	alarm          channel
	alarmSound     *domain.SoundHandle // nil unless the tone is playing
	alarmAttempted *domain.Tick

	noise          channel
	noiseSound     *domain.SoundHandle // nil unless the loop is running
	noiseAttempted *domain.Tick

	noiseEffective float64
	alarmEffective float64
}

// New creates an Arbiter and starts the noise bed looping at volume 0.
func New(playback domain.Playback, speaker Speaker, ticks domain.TickSource, log *logger.Logger, opts ...Option) *Arbiter {
	a := &Arbiter{
		playback:       playback,
		speaker:        speaker,
		ticks:          ticks,
		log:            log,
		speakFade:      DefaultSpeakFade.Milliseconds(),
		noiseAlarmFade: DefaultNoiseAlarmFade.Milliseconds(),
		retry:          DefaultRetryInterval.Milliseconds(),
		noise:          channel{volume: DefaultNoiseVolume},
		alarm:          channel{volume: DefaultAlarmVolume},
	}
	for _, o := range opts {
		o(a)
	}

	a.startNoise(ticks.Now())
	return a
}

// ── Heartbeat ───────────────────────────────────────────────────

// Tick advances every channel to now and pushes the resulting volumes.
// Channel state is fully settled before volumes are computed.
func (a *Arbiter) Tick(now domain.Tick) {
	// 1. Speech worker.
	if a.worker != nil && a.speaker.Poll(a.worker) == domain.WorkerFinished {
		a.worker = nil
		if a.pendingSpeech == nil {
			a.speech.finish(now)
		}
	}

	// 2. Pending speech whose fade-out is complete.
	if a.pendingSpeech != nil && a.speech.start != nil && now >= *a.speech.start {
		a.dispatchSpeech(now)
	}

	// 3. Alarm tone that ran out or was stopped.
	if a.alarmPlaying() && !a.playback.IsBusy(*a.alarmSound) {
		a.alarmSound = nil
		a.alarm.finish(now)
		a.log.Info("alarm tone finished")
	}

	// 4. Alarm tone due to start.
	if a.alarm.start != nil && now >= *a.alarm.start && !a.alarmPlaying() && a.due(a.alarmAttempted, now) {
		a.startAlarm(now)
	}
	if a.noiseSound == nil && a.due(a.noiseAttempted, now) {
		a.startNoise(now)
	}

	// 5. Effective volumes.
	speechGain := a.speechGain(now)
	a.alarmEffective = a.alarm.volume * speechGain
	a.noiseEffective = a.noise.volume * speechGain * a.alarmGain(now)

	// 6. Push.
	if a.alarmPlaying() {
		a.playback.SetVolume(*a.alarmSound, a.alarmEffective)
	}
	if a.noiseSound != nil {
		a.playback.SetVolume(*a.noiseSound, a.noiseEffective)
	}
}

func (a *Arbiter) alarmPlaying() bool { return a.alarmSound != nil }

// due reports whether a failed start may be tried again at now.
func (a *Arbiter) due(attempted *domain.Tick, now domain.Tick) bool {
	return attempted == nil || int64(now-*attempted) >= a.retry
}

func (a *Arbiter) dispatchSpeech(now domain.Tick) {
	text := *a.pendingSpeech
	a.pendingSpeech = nil

	w, err := a.speaker.Speak(text)
	if err != nil {
		// Treated as speech that finished immediately.
		a.log.Error("speech: %v", err)
		a.worker = nil
		a.speech.finish(now)
		return
	}
	a.worker = w
	a.lastSpoken = text
}

func (a *Arbiter) startAlarm(now domain.Tick) {
	a.alarmAttempted = &now
	h, err := a.playback.PlayOnce(domain.ChannelAlarmTone)
	if err != nil {
		a.log.Error("starting alarm tone: %v", err)
		return
	}
	a.alarmSound = &h
	a.alarmAttempted = nil
	a.log.Info("alarm tone started")
}

func (a *Arbiter) startNoise(now domain.Tick) {
	a.noiseAttempted = &now
	h, err := a.playback.PlayLooped(domain.ChannelNoise)
	if err != nil {
		a.log.Error("starting noise loop: %v", err)
		return
	}
	a.noiseSound = &h
	a.playback.SetVolume(h, 0)
	a.log.Debug("noise loop started")
}

// speechGain is the factor applied to every non-speech channel.
func (a *Arbiter) speechGain(now domain.Tick) float64 {
	return fadeOut(now, a.speech.start, a.speakFade) * fadeIn(now, a.speech.ended, a.speakFade)
}

// alarmGain is the factor the alarm tone applies to the noise bed.
func (a *Arbiter) alarmGain(now domain.Tick) float64 {
	if a.alarmPlaying() && a.alarm.start == nil {
		// Stopped this tick; bookkeeping catches up on the next one.
		return 0
	}
	return fadeOut(now, a.alarm.start, a.noiseAlarmFade) * fadeIn(now, a.alarm.ended, a.noiseAlarmFade)
}

// fadeOut ramps from 1 at start-window down to 0 at start.
func fadeOut(now domain.Tick, start *domain.Tick, window int64) float64 {
	if start == nil {
		return 1
	}
	s := float64(*start)
	return fade.Fade(float64(now), s, s-float64(window))
}

// fadeIn ramps from 0 at ended up to 1 at ended+window.
func fadeIn(now domain.Tick, ended *domain.Tick, window int64) float64 {
	if ended == nil {
		return 1
	}
	e := float64(*ended)
	return fade.Fade(float64(now), e, e+float64(window))
}

// ── Requests ────────────────────────────────────────────────────

// Speak queues text for synthesis. Newer text replaces older pending text.
// The fade-out deadline is only armed when no speech is scheduled or
// running, so repeated requests never push it further out.
func (a *Arbiter) Speak(text string) {
	if text == "" {
		return
	}
	a.pendingSpeech = &text
	if a.speech.start == nil {
		a.speech.schedule(a.ticks.Now() + domain.Tick(a.speakFade))
	}
	a.log.Debug("speech queued: %q", text)
}

// ScheduleAlarmRing arms the alarm tone after the noise fade-out. It is a
// no-op while a ring is already scheduled or playing.
func (a *Arbiter) ScheduleAlarmRing() {
	if a.IsAlarmBusy() {
		return
	}
	a.alarm.schedule(a.ticks.Now() + domain.Tick(a.noiseAlarmFade))
	a.log.Info("alarm ring scheduled in %dms", a.noiseAlarmFade)
}

// TestRing announces a test and starts the tone on the next tick.
func (a *Arbiter) TestRing(announcement string) {
	a.Speak(announcement)
	if !a.alarmPlaying() {
		a.alarm.schedule(a.ticks.Now() + 1)
	}
}

// StopRing stops a playing tone or cancels one still waiting to start.
// It reports whether there was anything to stop.
func (a *Arbiter) StopRing() bool {
	switch {
	case a.alarmPlaying():
		a.playback.Stop(*a.alarmSound)
		a.alarm.start = nil
	case a.alarm.start != nil:
		a.alarm.finish(a.ticks.Now())
	default:
		return false
	}
	a.log.Info("alarm ring stopped")
	return true
}

// IsAlarmBusy reports whether a ring is scheduled or audibly playing.
func (a *Arbiter) IsAlarmBusy() bool {
	return a.alarm.start != nil || a.alarmPlaying()
}

// ── Volumes ─────────────────────────────────────────────────────

// SetNoiseVolume sets the noise ceiling, clamped to [0,1].
func (a *Arbiter) SetNoiseVolume(v float64) { a.noise.volume = clamp(v) }

// SetAlarmVolume sets the alarm tone ceiling, clamped to [0,1].
func (a *Arbiter) SetAlarmVolume(v float64) { a.alarm.volume = clamp(v) }

// NoiseVolume returns the noise ceiling.
func (a *Arbiter) NoiseVolume() float64 { return a.noise.volume }

// AlarmVolume returns the alarm tone ceiling.
func (a *Arbiter) AlarmVolume() float64 { return a.alarm.volume }

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// ── Status & shutdown ───────────────────────────────────────────

// Snapshot returns the state after the most recent tick.
func (a *Arbiter) Snapshot() domain.AudioSnapshot {
	return domain.AudioSnapshot{
		NoiseVolume:      a.noise.volume,
		AlarmVolume:      a.alarm.volume,
		NoiseEffective:   a.noiseEffective,
		AlarmEffective:   a.alarmEffective,
		Speaking:         a.worker != nil,
		SpeechPending:    a.pendingSpeech != nil,
		AlarmScheduled:   a.alarm.start != nil,
		AlarmPlaying:     a.alarmPlaying(),
		NoiseAvailable:   a.noiseSound != nil,
		LastAnnouncement: a.lastSpoken,
	}
}

// Close stops every channel and the speech worker.
func (a *Arbiter) Close() {
	a.speaker.Stop()
	a.worker = nil
	a.pendingSpeech = nil

	if a.alarmSound != nil {
		a.playback.Stop(*a.alarmSound)
		a.alarmSound = nil
	}
	if a.noiseSound != nil {
		a.playback.Stop(*a.noiseSound)
		a.noiseSound = nil
	}
	a.log.Debug("audio arbiter closed")
}
