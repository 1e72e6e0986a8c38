// Package speech: lines.go centralises the spoken strings that are not
// alarm descriptions. Keep lines short; the alarm clock is usually heard
// by someone half asleep.
package speech

// ── Global ───────────────────────────────────────────────────────

func LineStartup() string {
	return "Alarm clock ready."
}

// ── Alarm tone ───────────────────────────────────────────────────

func LineTestRing() string {
	return "Testing alarm."
}

func LineAlarmStopped() string {
	return "Alarm stopped."
}
