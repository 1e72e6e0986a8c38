package trigger

import (
	"fmt"
	"strings"
	"time"
)

// Spoken lines. The appliance has no screen to fall back on, so every
// message is written to be read aloud.
const (
	lineNoAlarm      = "No alarm set."
	lineCancelled    = "Alarm cancelled."
	lineInvalidAlarm = "Alarm time appears invalid."
)

func lineNextZone(zone string) string {
	return fmt.Sprintf("Next alarm will use %s time.", zone)
}

var digitWords = [10]string{
	"zero", "one", "two", "three", "four",
	"five", "six", "seven", "eight", "nine",
}

// Describe renders the armed alarm for speech, e.g.
// "Alarm set for zero seven three zero, local time."
func (c *Clock) Describe() string {
	if c.target == nil {
		return lineNoAlarm
	}

	var b strings.Builder
	if !c.target.Valid() {
		b.WriteString(lineInvalidAlarm)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "Alarm set for %s, %s time.", SpokenTime(*c.target), c.zoneLabel(c.useLocal))
	return b.String()
}

// SpeakCurrentAndTarget renders the current local and zulu time followed
// by the alarm description, for a single announcement.
func (c *Clock) SpeakCurrentAndTarget(now time.Time) string {
	local := now.In(c.local)
	zulu := now.In(c.zulu)
	return fmt.Sprintf("Local time %s. Zulu time %s. %s",
		SpokenTime(Time{Hour: local.Hour(), Minute: local.Minute()}),
		SpokenTime(Time{Hour: zulu.Hour(), Minute: zulu.Minute()}),
		c.Describe())
}

// SpokenTime renders an hour:minute pair the way a clock reads it out:
// digit by digit, with ten, eleven and twelve as whole words for the hour
// and "hundred" for a zero minute.
func SpokenTime(t Time) string {
	return spokenHour(t.Hour) + " " + spokenMinute(t.Minute)
}

// DigitWord returns the spoken word for a single digit.
func DigitWord(d int) string {
	if d < 0 || d > 9 {
		return ""
	}
	return digitWords[d]
}

func spokenHour(h int) string {
	switch h {
	case 10:
		return "ten"
	case 11:
		return "eleven"
	case 12:
		return "twelve"
	}
	return spokenPair(h)
}

func spokenMinute(m int) string {
	if m == 0 {
		return "hundred"
	}
	return spokenPair(m)
}

func spokenPair(n int) string {
	if n < 0 {
		n = -n
	}
	return digitWords[(n/10)%10] + " " + digitWords[n%10]
}
