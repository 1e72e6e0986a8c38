// Package display provides the terminal front-end using Bubble Tea.
//
// The [UI] renders the status the poll loop publishes and forwards key
// presses to it as runes. It never touches the clock or the arbiter
// directly.
package display

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/alarmclock/internal/domain"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	armedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	disarmedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	ringStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5")).
			Bold(true)

	speechStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))
)

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). [UI.Publish] may be called from
// any goroutine at any time.
type UI struct {
	program *tea.Program
	keys    chan<- rune
	keymap  keyMap
	zulu    *time.Location

	statusCh chan domain.Status
	readyCh  chan struct{}
	quitCh   chan struct{}
	done     atomic.Bool
}

// NewUI creates the display. Key presses are sent on keys without
// blocking; zulu is the reference zone shown next to local time.
func NewUI(keys chan<- rune, keymap map[rune]domain.Action, zulu *time.Location) *UI {
	if zulu == nil {
		zulu = time.UTC
	}
	return &UI{
		keys:     keys,
		keymap:   newKeyMap(keymap),
		zulu:     zulu,
		statusCh: make(chan domain.Status, 1),
		readyCh:  make(chan struct{}),
		quitCh:   make(chan struct{}),
	}
}

// Publish hands a status snapshot to the UI. Never blocks: when the UI is
// behind, the older pending snapshot is replaced.
func (u *UI) Publish(st domain.Status) {
	if u.done.Load() {
		return
	}
	for {
		select {
		case u.statusCh <- st:
			return
		default:
		}
		select {
		case <-u.statusCh:
		default:
		}
	}
}

// Run starts the Bubble Tea event loop. Blocks until the user quits or
// ctx is cancelled.
func (u *UI) Run(ctx context.Context) error {
	m := newModel(u.keys, u.keymap, u.zulu, u.readyCh)
	u.program = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go u.forward()

	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// forward moves published snapshots into the Bubble Tea loop.
func (u *UI) forward() {
	select {
	case <-u.readyCh:
	case <-u.quitCh:
		return
	}
	for {
		select {
		case <-u.quitCh:
			return
		case st := <-u.statusCh:
			u.program.Send(statusMsg(st))
		}
	}
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	keys    chan<- rune
	keymap  keyMap
	help    help.Model
	zulu    *time.Location
	readyCh chan struct{}

	status  domain.Status
	have    bool
	dropped int
	width   int
}

// Messages.
type statusMsg domain.Status

func newModel(keys chan<- rune, km keyMap, zulu *time.Location, readyCh chan struct{}) model {
	h := help.New()
	h.ShowAll = false
	return model{
		keys:    keys,
		keymap:  km,
		help:    h,
		zulu:    zulu,
		readyCh: readyCh,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("Alarm clock"),
		signalReady(m.readyCh),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		case msg.String() == "?":
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if r, ok := keyRune(msg); ok {
			select {
			case m.keys <- r:
			default:
				m.dropped++
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case statusMsg:
		m.status = domain.Status(msg)
		m.have = true
		return m, nil
	}
	return m, nil
}

// keyRune maps a Bubble Tea key to the rune the key bindings use.
func keyRune(msg tea.KeyMsg) (rune, bool) {
	switch msg.Type {
	case tea.KeyEnter:
		return '\n', true
	case tea.KeySpace:
		return ' ', true
	case tea.KeyTab:
		return '\t', true
	case tea.KeyBackspace:
		return '\b', true
	case tea.KeyEsc:
		return 0x1b, true
	case tea.KeyRunes:
		if len(msg.Runes) == 1 && !msg.Alt {
			return msg.Runes[0], true
		}
	}
	return 0, false
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.renderBar())
	b.WriteString("\n\n")

	if !m.have {
		b.WriteString(secondaryStyle.Render("  starting…"))
		b.WriteString("\n")
	} else {
		m.renderStatus(&b)
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	return b.String()
}

func (m model) renderBar() string {
	var parts []string
	if m.have {
		now := m.status.Now
		parts = append(parts,
			labelStyle.Render("local ")+clockStyle.Render(now.Format("15:04:05")),
			labelStyle.Render("zulu ")+clockStyle.Render(now.In(m.zulu).Format("15:04:05")),
		)
	} else {
		parts = append(parts, labelStyle.Render("alarm clock"))
	}
	content := " " + strings.Join(parts, sepStyle.Render("  │  ")) + " "

	w := m.width
	if w <= 0 {
		w = 80
	}
	return barBg.Width(w).Render(content)
}

func (m model) renderStatus(b *strings.Builder) {
	st := m.status

	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render("alarm  "), alarmLine(st.Alarm))
	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render("next   "), secondaryStyle.Render(zoneName(st.Alarm.NextUseLocal)))
	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render("digits "), clockStyle.Render(digits(st.Pending)))

	a := st.Audio
	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render("noise  "), volumeLine(a.NoiseVolume, a.NoiseEffective, a.NoiseAvailable))
	fmt.Fprintf(b, "  %s %s\n", labelStyle.Render("tone   "), volumeLine(a.AlarmVolume, a.AlarmEffective, true))

	switch {
	case a.AlarmPlaying:
		b.WriteString("  " + ringStyle.Render("RINGING") + "\n")
	case a.AlarmScheduled:
		b.WriteString("  " + ringStyle.Render("ring scheduled") + "\n")
	}
	if a.LastAnnouncement != "" {
		mark := " "
		if a.Speaking {
			mark = "▶"
		}
		b.WriteString("  " + speechStyle.Render(mark+" "+a.LastAnnouncement) + "\n")
	}
	if m.dropped > 0 {
		b.WriteString("  " + secondaryStyle.Render(fmt.Sprintf("%d key(s) dropped", m.dropped)) + "\n")
	}
}

// ── Helpers ──────────────────────────────────────────────────────

func alarmLine(s domain.AlarmState) string {
	if !s.Armed {
		return disarmedStyle.Render("off")
	}
	return armedStyle.Render(fmt.Sprintf("%02d:%02d %s", s.Hour, s.Minute, zoneName(s.UseLocal)))
}

func zoneName(local bool) string {
	if local {
		return "local"
	}
	return "zulu"
}

func digits(p [4]int) string {
	return fmt.Sprintf("%d%d:%d%d", p[0], p[1], p[2], p[3])
}

func volumeLine(ceiling, effective float64, available bool) string {
	if !available {
		return disarmedStyle.Render("unavailable")
	}
	return fmt.Sprintf("%3.0f%% %s", ceiling*100,
		secondaryStyle.Render(fmt.Sprintf("(now %3.0f%%)", effective*100)))
}
