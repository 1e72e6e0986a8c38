// Package config loads the alarm clock's YAML configuration.
//
// Defaults and validation live here so the rest of the code can assume a
// well-formed config. Flags in main apply small overrides on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Config is the top-level YAML configuration.
type Config struct {
	Audio   AudioConfig       `yaml:"audio"`
	Speech  SpeechConfig      `yaml:"speech"`
	Loop    LoopConfig        `yaml:"loop"`
	Alarm   AlarmConfig       `yaml:"alarm"`
	Keys    map[string]string `yaml:"keys"` // key name -> action name
	Input   InputConfig       `yaml:"input"`
	Logging LoggingConfig     `yaml:"logging"`
}

type AudioConfig struct {
	SpeakFadeMS      int     `yaml:"speak_fade_ms"`
	NoiseAlarmFadeMS int     `yaml:"noise_alarm_fade_ms"`
	VolumeStep       float64 `yaml:"volume_step"`
	NoiseVolume      float64 `yaml:"noise_volume"`
	AlarmVolume      float64 `yaml:"alarm_volume"`
	NoiseFile        string  `yaml:"noise_file,omitempty"` // empty: generated brown noise
	AlarmFile        string  `yaml:"alarm_file,omitempty"` // empty: generated beeps
	SampleRate       int     `yaml:"sample_rate"`
}

type SpeechConfig struct {
	TTSCommand string `yaml:"tts_command"`
}

type LoopConfig struct {
	TickMS           int `yaml:"tick_ms"`
	StatusIntervalMS int `yaml:"status_interval_ms"`
}

type AlarmConfig struct {
	StateFile    string `yaml:"state_file,omitempty"` // empty: state is not persisted
	UseLocalTime bool   `yaml:"use_local_time"`
}

type InputConfig struct {
	KeypadDevice string `yaml:"keypad_device,omitempty"` // evdev path, empty: no keypad
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// DefaultConfig returns a fully-populated Config with defaults.
func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			SpeakFadeMS:      1500,
			NoiseAlarmFadeMS: 10000,
			VolumeStep:       0.1,
			NoiseVolume:      0.5,
			AlarmVolume:      1.0,
			SampleRate:       44100,
		},
		Speech: SpeechConfig{
			TTSCommand: "festival --tts",
		},
		Loop: LoopConfig{
			TickMS:           8,
			StatusIntervalMS: 250,
		},
		Alarm: AlarmConfig{
			StateFile:    "~/.local/state/alarmclock/alarm.yaml",
			UseLocalTime: true,
		},
		Keys: DefaultKeys(),
		Logging: LoggingConfig{
			Level: "info",
			File:  "~/.local/state/alarmclock/alarmclock.log",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of the
// defaults. Unknown fields are rejected to catch typos. Entries under
// keys are merged into the default bindings; bind a key to "none" to
// remove it.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return parse(b)
}

func parse(b []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Only whitespace and comments may follow the document.
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides carries command-line overrides. A nil pointer means the
// flag was not set.
type FlagOverrides struct {
	TTSCommand   *string
	StateFile    *string
	KeypadDevice *string
	LogLevel     *string
	LogFile      *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.TTSCommand != nil {
		cfg.Speech.TTSCommand = *o.TTSCommand
	}
	if o.StateFile != nil {
		cfg.Alarm.StateFile = *o.StateFile
	}
	if o.KeypadDevice != nil {
		cfg.Input.KeypadDevice = *o.KeypadDevice
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFile != nil {
		cfg.Logging.File = *o.LogFile
	}
}

// Validate checks config invariants and returns a user-friendly error.
func (c *Config) Validate() error {
	// Audio. A zero fade never mutes the lower channel before the higher
	// one starts.
	if c.Audio.SpeakFadeMS <= 0 {
		return errors.New("audio.speak_fade_ms must be > 0")
	}
	if c.Audio.NoiseAlarmFadeMS <= 0 {
		return errors.New("audio.noise_alarm_fade_ms must be > 0")
	}
	if c.Audio.VolumeStep <= 0 || c.Audio.VolumeStep > 1 {
		return errors.New("audio.volume_step must be in (0, 1]")
	}
	if c.Audio.NoiseVolume < 0 || c.Audio.NoiseVolume > 1 {
		return errors.New("audio.noise_volume must be between 0 and 1")
	}
	if c.Audio.AlarmVolume < 0 || c.Audio.AlarmVolume > 1 {
		return errors.New("audio.alarm_volume must be between 0 and 1")
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return errors.New("audio.sample_rate must be between 8000 and 192000")
	}

	// Speech
	if strings.TrimSpace(c.Speech.TTSCommand) == "" {
		return errors.New("speech.tts_command must not be empty")
	}

	// Loop
	if c.Loop.TickMS <= 0 || c.Loop.TickMS > 1000 {
		return errors.New("loop.tick_ms must be between 1 and 1000")
	}
	if c.Loop.StatusIntervalMS < c.Loop.TickMS {
		return errors.New("loop.status_interval_ms must be >= loop.tick_ms")
	}

	// Keys
	if _, err := c.Keymap(); err != nil {
		return err
	}

	// Logging
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// SpeakFade returns audio.speak_fade_ms as a duration.
func (c *Config) SpeakFade() time.Duration {
	return time.Duration(c.Audio.SpeakFadeMS) * time.Millisecond
}

// NoiseAlarmFade returns audio.noise_alarm_fade_ms as a duration.
func (c *Config) NoiseAlarmFade() time.Duration {
	return time.Duration(c.Audio.NoiseAlarmFadeMS) * time.Millisecond
}

// TickInterval returns loop.tick_ms as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Loop.TickMS) * time.Millisecond
}

// StatusInterval returns loop.status_interval_ms as a duration.
func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.Loop.StatusIntervalMS) * time.Millisecond
}

// ExpandPath expands a leading "~/" to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return p
		}
		if p == "~" {
			return home
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
