package display

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/hammamikhairi/alarmclock/internal/config"
	"github.com/hammamikhairi/alarmclock/internal/domain"
)

// Help labels for the bindable actions. Digits are shown as one entry.
var actionHelp = map[domain.Action]string{
	domain.ActionConfirm:     "set alarm",
	domain.ActionConfirmHour: "set on the hour",
	domain.ActionCancel:      "stop / cancel",
	domain.ActionToggleZone:  "toggle zone",
	domain.ActionUseLocal:    "local time",
	domain.ActionUseZulu:     "zulu time",
	domain.ActionDescribe:    "describe alarm",
	domain.ActionSayTime:     "say time",
	domain.ActionVolumeUp:    "volume up",
	domain.ActionVolumeDown:  "volume down",
	domain.ActionTestRing:    "test alarm",
	domain.ActionQuit:        "quit",
}

// keyMap adapts the configured bindings to bubbles/help.
type keyMap struct {
	digits   key.Binding
	bindings []key.Binding
	toggle   key.Binding
}

func newKeyMap(keymap map[rune]domain.Action) keyMap {
	byAction := config.Bindings(keymap)

	var digitKeys []string
	for a := domain.ActionDigit0; a <= domain.ActionDigit9; a++ {
		digitKeys = append(digitKeys, byAction[a]...)
	}
	sort.Strings(digitKeys)

	km := keyMap{
		digits: key.NewBinding(key.WithKeys(digitKeys...), key.WithHelp("0-9", "digits")),
		toggle: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	}
	if len(digitKeys) == 0 {
		km.digits.SetEnabled(false)
	}

	for _, a := range domain.Actions() {
		label, ok := actionHelp[a]
		names := byAction[a]
		if !ok || len(names) == 0 {
			continue
		}
		km.bindings = append(km.bindings, key.NewBinding(
			key.WithKeys(names...),
			key.WithHelp(strings.Join(names, "/"), label),
		))
	}
	return km
}

// ShortHelp shows the first few bindings.
func (k keyMap) ShortHelp() []key.Binding {
	out := []key.Binding{k.digits}
	n := len(k.bindings)
	if n > 3 {
		n = 3
	}
	out = append(out, k.bindings[:n]...)
	return append(out, k.toggle)
}

// FullHelp shows every binding in columns of four.
func (k keyMap) FullHelp() [][]key.Binding {
	all := append([]key.Binding{k.digits}, k.bindings...)
	var cols [][]key.Binding
	for len(all) > 0 {
		n := len(all)
		if n > 4 {
			n = 4
		}
		cols = append(cols, all[:n])
		all = all[n:]
	}
	return cols
}
