package domain

import (
	"fmt"
	"strings"
)

// Action is one entry in the closed set of operations a key can trigger.
type Action int

const (
	ActionNone Action = iota
	ActionDigit0
	ActionDigit1
	ActionDigit2
	ActionDigit3
	ActionDigit4
	ActionDigit5
	ActionDigit6
	ActionDigit7
	ActionDigit8
	ActionDigit9
	ActionConfirm      // arm HHMM from the last four digits
	ActionConfirmHour  // arm HH:00 from the last two digits
	ActionCancel       // stop a ringing alarm, otherwise disarm
	ActionToggleZone   // flip local/zulu for the next arm
	ActionUseLocal     // next arm uses local time
	ActionUseZulu      // next arm uses zulu time
	ActionDescribe     // speak the armed alarm
	ActionSayTime      // speak current local + zulu time and the alarm
	ActionVolumeUp     // alarm tone while busy, otherwise noise
	ActionVolumeDown   // alarm tone while busy, otherwise noise
	ActionTestRing     // announce and ring almost immediately
	ActionQuit
)

var actionNames = map[Action]string{
	ActionDigit0:      "digit_0",
	ActionDigit1:      "digit_1",
	ActionDigit2:      "digit_2",
	ActionDigit3:      "digit_3",
	ActionDigit4:      "digit_4",
	ActionDigit5:      "digit_5",
	ActionDigit6:      "digit_6",
	ActionDigit7:      "digit_7",
	ActionDigit8:      "digit_8",
	ActionDigit9:      "digit_9",
	ActionConfirm:     "set_alarm",
	ActionConfirmHour: "set_alarm_hour",
	ActionCancel:      "cancel",
	ActionToggleZone:  "toggle_zulu",
	ActionUseLocal:    "use_local",
	ActionUseZulu:     "use_zulu",
	ActionDescribe:    "describe_alarm",
	ActionSayTime:     "say_time",
	ActionVolumeUp:    "volume_up",
	ActionVolumeDown:  "volume_down",
	ActionTestRing:    "test_alarm",
	ActionQuit:        "quit",
}

// String returns the config name of the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// Digit reports the digit value for ActionDigit0..ActionDigit9.
func (a Action) Digit() (int, bool) {
	if a >= ActionDigit0 && a <= ActionDigit9 {
		return int(a - ActionDigit0), true
	}
	return 0, false
}

// Actions returns every bindable action in declaration order.
func Actions() []Action {
	out := make([]Action, 0, int(ActionQuit))
	for a := ActionDigit0; a <= ActionQuit; a++ {
		out = append(out, a)
	}
	return out
}

// ParseAction maps a config name back to its Action.
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "none" {
		return ActionNone, nil
	}
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}
