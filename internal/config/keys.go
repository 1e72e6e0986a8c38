package config

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hammamikhairi/alarmclock/internal/domain"
)

// Named keys accepted in the keys section besides single characters.
var namedKeys = map[string]rune{
	"enter":     '\n',
	"space":     ' ',
	"tab":       '\t',
	"backspace": '\b',
	"esc":       0x1b,
}

// DefaultKeys returns the stock bindings: digits on the number row and
// letters for everything else.
func DefaultKeys() map[string]string {
	keys := map[string]string{
		"enter":     domain.ActionConfirm.String(),
		"h":         domain.ActionConfirmHour.String(),
		"backspace": domain.ActionCancel.String(),
		"c":         domain.ActionCancel.String(),
		"z":         domain.ActionToggleZone.String(),
		"l":         domain.ActionUseLocal.String(),
		"u":         domain.ActionUseZulu.String(),
		"d":         domain.ActionDescribe.String(),
		"t":         domain.ActionSayTime.String(),
		"+":         domain.ActionVolumeUp.String(),
		"=":         domain.ActionVolumeUp.String(),
		"-":         domain.ActionVolumeDown.String(),
		"a":         domain.ActionTestRing.String(),
		"q":         domain.ActionQuit.String(),
	}
	for d := 0; d <= 9; d++ {
		keys[fmt.Sprint(d)] = (domain.ActionDigit0 + domain.Action(d)).String()
	}
	return keys
}

// Keymap resolves the keys section into key runes. Keys bound to "none"
// are left out.
func (c *Config) Keymap() (map[rune]domain.Action, error) {
	out := make(map[rune]domain.Action, len(c.Keys))
	for name, action := range c.Keys {
		r, err := ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("keys: %w", err)
		}
		a, err := domain.ParseAction(action)
		if err != nil {
			return nil, fmt.Errorf("keys.%s: %w", name, err)
		}
		if a == domain.ActionNone {
			continue
		}
		out[r] = a
	}
	return out, nil
}

// ParseKey maps a key name from the config to the rune input sources
// deliver: either a single character or one of the named keys.
func ParseKey(name string) (rune, error) {
	if r, ok := namedKeys[strings.ToLower(name)]; ok {
		return r, nil
	}
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return r, nil
	}
	return 0, fmt.Errorf("%w: unknown key %q", domain.ErrInvalidInput, name)
}

// KeyName is the inverse of ParseKey, used for help text.
func KeyName(r rune) string {
	for name, nr := range namedKeys {
		if nr == r {
			return name
		}
	}
	return string(r)
}

// Bindings lists the key names bound to each action, sorted for stable
// help output.
func Bindings(keymap map[rune]domain.Action) map[domain.Action][]string {
	out := make(map[domain.Action][]string)
	for r, a := range keymap {
		out[a] = append(out[a], KeyName(r))
	}
	for a := range out {
		sort.Strings(out[a])
	}
	return out
}
