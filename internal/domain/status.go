package domain

import "time"

// Status is what the poll loop publishes to status surfaces.
type Status struct {
	Now     time.Time
	Alarm   AlarmState
	Pending [4]int // digit register, oldest first
	Ringing bool   // trigger minute is current
	Audio   AudioSnapshot
}
