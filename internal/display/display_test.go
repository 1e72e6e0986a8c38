package display

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/alarmclock/internal/domain"
)

func testKeymap() map[rune]domain.Action {
	return map[rune]domain.Action{
		'1':  domain.ActionDigit1,
		'2':  domain.ActionDigit2,
		'\n': domain.ActionConfirm,
		'c':  domain.ActionCancel,
		'q':  domain.ActionQuit,
	}
}

func TestKeyRune(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want rune
		ok   bool
	}{
		{"digit", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'7'}}, '7', true},
		{"enter", tea.KeyMsg{Type: tea.KeyEnter}, '\n', true},
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, '\b', true},
		{"alt combo", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}, Alt: true}, 0, false},
		{"paste", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1234")}, 0, false},
		{"arrow", tea.KeyMsg{Type: tea.KeyUp}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := keyRune(tt.msg)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("keyRune = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestUpdateForwardsKeys(t *testing.T) {
	keys := make(chan rune, 1)
	m := newModel(keys, newKeyMap(testKeymap()), time.UTC, make(chan struct{}))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	if r := <-keys; r != '1' {
		t.Fatalf("forwarded %q, want '1'", r)
	}

	// Full channel: the key is dropped, not blocked on.
	keys <- 'x'
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	if got := next.(model).dropped; got != 1 {
		t.Fatalf("dropped = %d, want 1", got)
	}
}

func TestUpdateHelpToggle(t *testing.T) {
	keys := make(chan rune, 1)
	m := newModel(keys, newKeyMap(testKeymap()), time.UTC, make(chan struct{}))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if !next.(model).help.ShowAll {
		t.Fatal("? should expand help")
	}
	if len(keys) != 0 {
		t.Fatal("? must not reach the action keys")
	}
}

func TestViewRendersStatus(t *testing.T) {
	m := newModel(make(chan rune, 1), newKeyMap(testKeymap()), time.UTC, make(chan struct{}))
	if !strings.Contains(m.View(), "starting") {
		t.Fatal("view before first status should say starting")
	}

	st := domain.Status{
		Now:     time.Date(2024, 6, 1, 6, 15, 30, 0, time.UTC),
		Alarm:   domain.AlarmState{Armed: true, Hour: 7, Minute: 30, UseLocal: true, NextUseLocal: false},
		Pending: [4]int{0, 7, 3, 0},
		Audio: domain.AudioSnapshot{
			NoiseVolume:      0.5,
			NoiseEffective:   0.25,
			NoiseAvailable:   true,
			AlarmVolume:      1,
			AlarmScheduled:   true,
			LastAnnouncement: "Alarm set for zero seven three zero, local time.",
		},
	}
	next, _ := m.Update(statusMsg(st))
	view := next.View()

	for _, want := range []string{"06:15:30", "07:30 local", "zulu", "07:30", "50%", "ring scheduled", "Alarm set for"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestPublishKeepsLatest(t *testing.T) {
	u := NewUI(make(chan rune, 1), testKeymap(), nil)
	u.Publish(domain.Status{Pending: [4]int{1}})
	u.Publish(domain.Status{Pending: [4]int{2}})

	select {
	case st := <-u.statusCh:
		if st.Pending[0] != 2 {
			t.Fatalf("got pending %v, want latest", st.Pending)
		}
	default:
		t.Fatal("no status queued")
	}
}

func TestKeyMapHelp(t *testing.T) {
	km := newKeyMap(testKeymap())
	short := km.ShortHelp()
	if short[0].Help().Key != "0-9" {
		t.Fatalf("first short binding = %q", short[0].Help().Key)
	}

	var labels []string
	for _, col := range km.FullHelp() {
		for _, b := range col {
			labels = append(labels, b.Help().Key+"="+b.Help().Desc)
		}
	}
	joined := strings.Join(labels, ",")
	for _, want := range []string{"enter=set alarm", "c=stop / cancel", "q=quit"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("full help %q missing %q", joined, want)
		}
	}
}
