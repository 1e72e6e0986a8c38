package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/alarmclock/internal/audio"
	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
	"github.com/hammamikhairi/alarmclock/internal/trigger"
)

// mockArbiter records ticks and ring requests.
type mockArbiter struct {
	mu        sync.Mutex
	ticks     []domain.Tick
	schedules int
}

func (m *mockArbiter) Tick(now domain.Tick) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, now)
}

func (m *mockArbiter) ScheduleAlarmRing() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules++
}

func (m *mockArbiter) Snapshot() domain.AudioSnapshot {
	return domain.AudioSnapshot{NoiseVolume: 0.5}
}

func (m *mockArbiter) tickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ticks)
}

// mockTrigger rings while ring is true.
type mockTrigger struct {
	ring    bool
	queries []time.Time
}

func (m *mockTrigger) ShouldRing(now time.Time) bool {
	m.queries = append(m.queries, now)
	return m.ring
}

func (m *mockTrigger) State() domain.AlarmState { return domain.AlarmState{Armed: true, Hour: 7} }
func (m *mockTrigger) Pending() [4]int { return [4]int{0, 7, 0, 0} }

// mockHandler quits on 'q' and records the rest.
type mockHandler struct {
	mu   sync.Mutex
	keys []rune
}

func (m *mockHandler) HandleKey(_ context.Context, r rune) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, r)
	return r == 'q'
}

func (m *mockHandler) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

type manualTicks struct{ now domain.Tick }

func (m *manualTicks) Now() domain.Tick { return m.now }

type manualWall struct{ now time.Time }

func (m *manualWall) Now() time.Time { return m.now }

func newTestSupervisor(opts ...Option) (*Supervisor, *mockArbiter, *mockTrigger, *manualTicks) {
	arb := &mockArbiter{}
	trig := &mockTrigger{}
	ticks := &manualTicks{}
	wall := &manualWall{now: time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)}
	s := New(arb, trig, &mockHandler{}, ticks, wall, logger.New(logger.LevelOff, nil), opts...)
	return s, arb, trig, ticks
}

func TestTickOrder(t *testing.T) {
	s, arb, trig, ticks := newTestSupervisor()
	ticks.now = 42
	s.tick()

	if len(arb.ticks) != 1 || arb.ticks[0] != 42 {
		t.Fatalf("arbiter ticks = %v", arb.ticks)
	}
	if len(trig.queries) != 1 {
		t.Fatalf("trigger queried %d times", len(trig.queries))
	}
}

func TestRingRequestedWhileDue(t *testing.T) {
	s, arb, trig, ticks := newTestSupervisor()

	step := func(ring bool) {
		trig.ring = ring
		ticks.now += 8
		s.tick()
	}

	step(false)
	step(true)
	step(true)
	step(true)
	if arb.schedules != 3 {
		t.Fatalf("schedules = %d, want one per due tick", arb.schedules)
	}

	step(false)
	step(false)
	if arb.schedules != 3 {
		t.Fatalf("schedules = %d after the window closed", arb.schedules)
	}
}

// tonePlayback plays every one-shot sound for toneLength ticks.
type tonePlayback struct {
	ticks      *manualTicks
	toneLength domain.Tick
	next       domain.SoundHandle
	ends       map[domain.SoundHandle]domain.Tick
	tones      int
}

func (p *tonePlayback) PlayLooped(domain.Channel) (domain.SoundHandle, error) {
	p.next++
	return p.next, nil
}

func (p *tonePlayback) PlayOnce(domain.Channel) (domain.SoundHandle, error) {
	p.next++
	p.tones++
	p.ends[p.next] = p.ticks.now + p.toneLength
	return p.next, nil
}

func (p *tonePlayback) Stop(h domain.SoundHandle) { delete(p.ends, h) }
func (p *tonePlayback) SetVolume(domain.SoundHandle, float64) {}
func (p *tonePlayback) IsBusy(h domain.SoundHandle) bool {
	end, ok := p.ends[h]
	return ok && p.ticks.now < end
}

type silentSpeaker struct{}

func (silentSpeaker) Speak(string) (domain.Worker, error) { return nil, errors.New("no speech") }
func (silentSpeaker) Poll(domain.Worker) domain.WorkerStatus { return domain.WorkerFinished }
func (silentSpeaker) Stop() {}

type alarmRig struct {
	loop  *Supervisor
	trig  *trigger.Clock
	arb   *audio.Arbiter
	play  *tonePlayback
	ticks *manualTicks
	wall  *manualWall
}

// newAlarmRig wires the real clock and arbiter with a 6s tone, a 07:30
// zulu alarm and the wall clock at 07:29:30.
func newAlarmRig(t *testing.T) *alarmRig {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	ticks := &manualTicks{}
	wall := &manualWall{now: time.Date(2024, 6, 1, 7, 29, 30, 0, time.UTC)}
	play := &tonePlayback{ticks: ticks, toneLength: 6000, ends: map[domain.SoundHandle]domain.Tick{}}

	arb := audio.New(play, silentSpeaker{}, ticks, log, audio.WithNoiseAlarmFade(2*time.Second))
	trig := trigger.New(log, trigger.WithLocalTime(false))
	for _, d := range []int{0, 7, 3, 0} {
		if err := trig.InputDigit(d); err != nil {
			t.Fatalf("InputDigit: %v", err)
		}
	}
	trig.Confirm()

	loop := New(arb, trig, &mockHandler{}, ticks, wall, log)
	return &alarmRig{loop: loop, trig: trig, arb: arb, play: play, ticks: ticks, wall: wall}
}

func (r *alarmRig) run(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += 8 * time.Millisecond {
		r.ticks.now += 8
		r.wall.now = r.wall.now.Add(8 * time.Millisecond)
		r.loop.tick()
	}
}

func TestAlarmKeepsRingingThroughTheMinute(t *testing.T) {
	r := newAlarmRig(t)
	r.run(100 * time.Second)

	// Tone 6s plus a 2s noise fade: several rings fit in the minute.
	if r.play.tones < 5 {
		t.Fatalf("tone started %d times across the armed minute, want at least 5", r.play.tones)
	}
	if r.arb.IsAlarmBusy() {
		t.Fatal("no ring should be pending once the minute and the last tone are over")
	}
}

func TestStoppedAlarmStaysQuietForTheMinute(t *testing.T) {
	r := newAlarmRig(t)
	r.run(40 * time.Second) // 07:30:10, first tone playing
	if !r.arb.IsAlarmBusy() {
		t.Fatal("expected the alarm to be ringing")
	}

	r.trig.Silence()
	r.arb.StopRing()
	started := r.play.tones
	r.run(50 * time.Second)

	if r.play.tones != started {
		t.Fatalf("tone restarted %d times after being stopped", r.play.tones-started)
	}
}

func TestStatusPublishing(t *testing.T) {
	var got []domain.Status
	s, _, _, ticks := newTestSupervisor(
		WithStatusInterval(100*time.Millisecond),
		WithStatus(func(st domain.Status) { got = append(got, st) }),
	)

	for ticks.now = 0; ticks.now <= 250; ticks.now += 10 {
		s.tick()
	}
	// Published at 0, 100 and 200.
	if len(got) != 3 {
		t.Fatalf("published %d times, want 3", len(got))
	}
	st := got[0]
	if !st.Alarm.Armed || st.Pending[1] != 7 || st.Audio.NoiseVolume != 0.5 {
		t.Fatalf("status = %+v", st)
	}
	if st.Now.Hour() != 7 {
		t.Fatalf("status time = %v", st.Now)
	}
}

func TestRunQuitsOnKey(t *testing.T) {
	keys := make(chan rune, 4)
	handler := &mockHandler{}
	arb := &mockArbiter{}
	s := New(arb, &mockTrigger{}, handler, &manualTicks{}, &manualWall{now: time.Now()},
		logger.New(logger.LevelOff, nil),
		WithTickInterval(time.Millisecond),
		WithKeys(keys),
	)

	keys <- '1'
	keys <- 'q'

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, ErrQuit) {
			t.Fatalf("expected ErrQuit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after quit key")
	}
	if handler.count() != 2 {
		t.Fatalf("handled %d keys, want 2", handler.count())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	keys := make(chan rune)
	close(keys)
	arb := &mockArbiter{}
	s := New(arb, &mockTrigger{}, &mockHandler{}, &manualTicks{}, &manualWall{now: time.Now()},
		logger.New(logger.LevelOff, nil),
		WithTickInterval(time.Millisecond),
		WithKeys(keys),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for arb.tickCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not tick")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
