package actions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hammamikhairi/alarmclock/internal/config"
	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/logger"
	"github.com/hammamikhairi/alarmclock/internal/storage"
	"github.com/hammamikhairi/alarmclock/internal/trigger"
)

// mockAudio records what the dispatcher asks of the arbiter.
type mockAudio struct {
	spoken      []string
	testRings   int
	stops       int
	busy        bool
	noiseVolume float64
	alarmVolume float64
}

func (m *mockAudio) Speak(text string) { m.spoken = append(m.spoken, text) }

func (m *mockAudio) TestRing(announcement string) {
	m.testRings++
	m.spoken = append(m.spoken, announcement)
}

func (m *mockAudio) StopRing() bool {
	if !m.busy {
		return false
	}
	m.stops++
	m.busy = false
	return true
}

func (m *mockAudio) IsAlarmBusy() bool { return m.busy }
func (m *mockAudio) SetNoiseVolume(v float64) { m.noiseVolume = clamp(v) }
func (m *mockAudio) SetAlarmVolume(v float64) { m.alarmVolume = clamp(v) }
func (m *mockAudio) NoiseVolume() float64 { return m.noiseVolume }
func (m *mockAudio) AlarmVolume() float64 { return m.alarmVolume }

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func (m *mockAudio) last() string {
	if len(m.spoken) == 0 {
		return ""
	}
	return m.spoken[len(m.spoken)-1]
}

type fixedWall struct{ t time.Time }

func (f fixedWall) Now() time.Time { return f.t }

type failingStore struct{}

func (failingStore) Load(context.Context) (domain.AlarmState, error) {
	return domain.AlarmState{}, domain.ErrNotFound
}

func (failingStore) Save(context.Context, domain.AlarmState) error {
	return errors.New("disk full")
}

type fixture struct {
	d     *Dispatcher
	clock *trigger.Clock
	audio *mockAudio
	store *storage.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	cfg := config.DefaultConfig()
	keymap, err := cfg.Keymap()
	if err != nil {
		t.Fatalf("keymap: %v", err)
	}

	f := &fixture{
		clock: trigger.New(log, trigger.WithLocation(time.UTC), trigger.WithReference(time.UTC)),
		audio: &mockAudio{noiseVolume: 0.5, alarmVolume: 0.5},
		store: storage.NewMemoryStore(log),
	}
	wall := fixedWall{time.Date(2024, 6, 1, 6, 15, 0, 0, time.UTC)}
	f.d = New(f.clock, f.audio, wall, keymap, log, WithStore(f.store), WithVolumeStep(0.25))
	return f
}

func (f *fixture) keys(t *testing.T, s string) {
	t.Helper()
	for _, r := range s {
		if f.d.HandleKey(context.Background(), r) {
			t.Fatalf("key %q asked to quit", r)
		}
	}
}

func TestSetAlarmFromKeys(t *testing.T) {
	f := newFixture(t)
	f.keys(t, "0730\n")

	if got := f.audio.last(); got != "Alarm set for zero seven three zero, local time." {
		t.Fatalf("announcement = %q", got)
	}
	// Each digit is echoed.
	if f.audio.spoken[0] != "zero" || f.audio.spoken[1] != "seven" {
		t.Fatalf("digit echo = %v", f.audio.spoken[:2])
	}

	saved, err := f.store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !saved.Armed || saved.Hour != 7 || saved.Minute != 30 {
		t.Fatalf("saved state = %+v", saved)
	}
}

func TestConfirmHourKey(t *testing.T) {
	f := newFixture(t)
	f.keys(t, "6h")
	if got := f.audio.last(); got != "Alarm set for zero six hundred, local time." {
		t.Fatalf("announcement = %q", got)
	}
}

func TestCancelStopsRingBeforeDisarming(t *testing.T) {
	f := newFixture(t)
	f.keys(t, "0730\n")
	f.audio.busy = true

	f.keys(t, "c")
	if f.audio.stops != 1 || f.audio.last() != "Alarm stopped." {
		t.Fatalf("stops=%d last=%q", f.audio.stops, f.audio.last())
	}
	if !f.clock.Armed() {
		t.Fatal("stopping a ring must keep the alarm armed")
	}

	f.keys(t, "c")
	if f.clock.Armed() || f.audio.last() != "Alarm cancelled." {
		t.Fatalf("armed=%v last=%q", f.clock.Armed(), f.audio.last())
	}
	saved, _ := f.store.Load(context.Background())
	if saved.Armed {
		t.Fatal("cancel not persisted")
	}
}

func TestStopKeepsRingQuietForTheMinute(t *testing.T) {
	f := newFixture(t)
	f.keys(t, "0730\n")

	now := time.Date(2024, 6, 1, 7, 30, 5, 0, time.UTC)
	if !f.clock.ShouldRing(now) {
		t.Fatal("expected the alarm to be due")
	}
	f.audio.busy = true
	f.keys(t, "c")

	if f.clock.ShouldRing(now.Add(20 * time.Second)) {
		t.Fatal("stopped alarm is due again in the same minute")
	}
	if !f.clock.Armed() {
		t.Fatal("stopping must not disarm")
	}
}

func TestZoneKeys(t *testing.T) {
	f := newFixture(t)

	f.keys(t, "u")
	if f.audio.last() != "Next alarm will use zulu time." {
		t.Fatalf("last = %q", f.audio.last())
	}
	f.keys(t, "z")
	if f.audio.last() != "Next alarm will use local time." {
		t.Fatalf("last = %q", f.audio.last())
	}
	f.keys(t, "u0615\n")
	if !strings.HasSuffix(f.audio.last(), "zulu time.") {
		t.Fatalf("last = %q", f.audio.last())
	}
	f.keys(t, "l")
	saved, _ := f.store.Load(context.Background())
	if saved.UseLocal || !saved.NextUseLocal {
		t.Fatalf("saved state = %+v", saved)
	}
}

func TestDescribeAndSayTime(t *testing.T) {
	f := newFixture(t)
	f.keys(t, "d")
	if f.audio.last() != "No alarm set." {
		t.Fatalf("last = %q", f.audio.last())
	}
	f.keys(t, "t")
	want := "Local time zero six one five. Zulu time zero six one five. No alarm set."
	if f.audio.last() != want {
		t.Fatalf("last = %q, want %q", f.audio.last(), want)
	}
}

func TestVolumeTargetsBusyChannel(t *testing.T) {
	f := newFixture(t)

	f.keys(t, "+")
	if f.audio.noiseVolume != 0.75 || f.audio.alarmVolume != 0.5 {
		t.Fatalf("noise=%v alarm=%v", f.audio.noiseVolume, f.audio.alarmVolume)
	}

	f.audio.busy = true
	f.keys(t, "--")
	if f.audio.alarmVolume != 0 || f.audio.noiseVolume != 0.75 {
		t.Fatalf("noise=%v alarm=%v", f.audio.noiseVolume, f.audio.alarmVolume)
	}
	if len(f.audio.spoken) != 0 {
		t.Fatalf("volume changes should be silent, spoke %v", f.audio.spoken)
	}
}

func TestTestRingAndQuit(t *testing.T) {
	f := newFixture(t)
	f.keys(t, "a")
	if f.audio.testRings != 1 || f.audio.last() != "Testing alarm." {
		t.Fatalf("testRings=%d last=%q", f.audio.testRings, f.audio.last())
	}
	if !f.d.HandleKey(context.Background(), 'q') {
		t.Fatal("q should quit")
	}
}

func TestUnboundKeyIgnored(t *testing.T) {
	f := newFixture(t)
	f.keys(t, "!")
	if len(f.audio.spoken) != 0 {
		t.Fatalf("spoke %v for an unbound key", f.audio.spoken)
	}
}

func TestStoreErrorIsNotFatal(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	clock := trigger.New(log, trigger.WithLocation(time.UTC))
	audio := &mockAudio{}
	d := New(clock, audio, fixedWall{time.Now()}, nil, log, WithStore(failingStore{}))

	for _, a := range []domain.Action{domain.ActionDigit1, domain.ActionDigit2, domain.ActionConfirmHour} {
		d.Do(context.Background(), a)
	}
	if !clock.Armed() {
		t.Fatal("alarm should arm even when saving fails")
	}
}
