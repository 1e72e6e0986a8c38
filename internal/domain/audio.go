package domain

// Tick is a monotonic millisecond counter since process start. It drives
// fade scheduling and is unrelated to the wall clock used for alarm times.
type Tick int64

// Channel identifies one of the three arbitrated audio sources.
type Channel int

const (
	ChannelSpeech Channel = iota
	ChannelAlarmTone
	ChannelNoise
)

// String returns a human-readable channel name.
func (c Channel) String() string {
	switch c {
	case ChannelSpeech:
		return "speech"
	case ChannelAlarmTone:
		return "alarm_tone"
	case ChannelNoise:
		return "noise"
	default:
		return "unknown"
	}
}

// SoundHandle refers to one playback started through Playback. Handles
// are opaque; zero is as valid as any other value.
type SoundHandle uint64

// WorkerStatus is the result of a non-blocking speech worker poll.
type WorkerStatus int

const (
	WorkerRunning WorkerStatus = iota
	WorkerFinished
)

// String returns a human-readable worker status.
func (s WorkerStatus) String() string {
	if s == WorkerFinished {
		return "finished"
	}
	return "running"
}

// AudioSnapshot is a read-only view of the arbiter after a tick, used by
// status surfaces.
type AudioSnapshot struct {
	NoiseVolume      float64 // user ceiling
	AlarmVolume      float64 // user ceiling
	NoiseEffective   float64 // last volume pushed to playback
	AlarmEffective   float64
	Speaking         bool
	SpeechPending    bool
	AlarmScheduled   bool
	AlarmPlaying     bool
	NoiseAvailable   bool
	LastAnnouncement string
}
