// Alarmclock: an audio-priority alarm clock for a small appliance.
//
// Usage:
//
//	alarmclock [-config file.yaml] [-verbose] [-quiet] [-headless]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/alarmclock/internal/actions"
	"github.com/hammamikhairi/alarmclock/internal/audio"
	"github.com/hammamikhairi/alarmclock/internal/clock"
	"github.com/hammamikhairi/alarmclock/internal/config"
	"github.com/hammamikhairi/alarmclock/internal/display"
	"github.com/hammamikhairi/alarmclock/internal/domain"
	"github.com/hammamikhairi/alarmclock/internal/input"
	"github.com/hammamikhairi/alarmclock/internal/logger"
	"github.com/hammamikhairi/alarmclock/internal/speech"
	"github.com/hammamikhairi/alarmclock/internal/storage"
	"github.com/hammamikhairi/alarmclock/internal/timer"
	"github.com/hammamikhairi/alarmclock/internal/trigger"
)

// Environment variables read after .env is loaded.
const (
	envConfig     = "ALARMCLOCK_CONFIG"
	envTTSCommand = "ALARMCLOCK_TTS_COMMAND"
)

// Compile-time wiring checks.
var (
	_ audio.Speaker    = (*speech.Process)(nil)
	_ actions.Clock    = (*trigger.Clock)(nil)
	_ actions.Audio    = (*audio.Arbiter)(nil)
	_ timer.Arbiter    = (*audio.Arbiter)(nil)
	_ timer.Trigger    = (*trigger.Clock)(nil)
	_ timer.KeyHandler = (*actions.Dispatcher)(nil)
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv(envConfig), "YAML config file (built-in defaults when empty)")
	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "", "file to write logs to (use \"stderr\" to log to console)")
	stateFile := flag.String("state-file", "", "where the armed alarm is saved (empty string keeps it in memory)")
	tts := flag.String("tts", "", "speech command; text is written to its stdin")
	keypad := flag.String("keypad", "", "evdev keypad device, e.g. /dev/input/event3")
	headless := flag.Bool("headless", false, "no terminal UI; keys are read from stdin")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}
	if v := os.Getenv(envTTSCommand); v != "" {
		cfg.Speech.TTSCommand = v
	}

	// Only flags given on the command line override the file.
	var overrides config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-file":
			overrides.LogFile = logFile
		case "state-file":
			overrides.StateFile = stateFile
		case "tts":
			overrides.TTSCommand = tts
		case "keypad":
			overrides.KeypadDevice = keypad
		}
	})
	if *verbose {
		level := "debug"
		overrides.LogLevel = &level
	}
	if *quiet {
		level := "off"
		overrides.LogLevel = &level
	}
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid config: %v\n", err)
		os.Exit(2)
	}

	if !*headless && !term.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprintln(os.Stderr, "stdin is not a terminal; running headless")
		*headless = true
	}

	logOut, closeLog := openLog(cfg.Logging.File)
	defer closeLog()

	// Route the standard log package to the same place so nothing writes
	// over the terminal UI.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	level, _ := logger.ParseLevel(cfg.Logging.Level)
	log := logger.New(level, logOut)

	if err := run(cfg, *headless, log); err != nil {
		log.Error("%v", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

// openLog opens the log destination. Logs go to a file by default because
// the terminal UI owns stdout.
func openLog(path string) (io.Writer, func()) {
	if path == "" || path == "stderr" {
		return os.Stderr, func() {}
	}
	path = config.ExpandPath(path)
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		return os.Stderr, func() {}
	}
	return f, func() { f.Close() }
}

func run(cfg config.Config, headless bool, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keymap, err := cfg.Keymap()
	if err != nil {
		return err
	}
	ticks := clock.NewMonotonic()
	wall := clock.System{}

	// Audio.
	sounds := audio.LoadSounds(audio.SoundFiles{
		Noise: config.ExpandPath(cfg.Audio.NoiseFile),
		Alarm: config.ExpandPath(cfg.Audio.AlarmFile),
	}, cfg.Audio.SampleRate, log)
	playback, err := audio.NewOtoPlayback(cfg.Audio.SampleRate, sounds, log)
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer playback.Close()

	command := speech.ParseCommand(cfg.Speech.TTSCommand)
	if err := speech.CheckCommand(command); err != nil {
		log.Warn("speech: %v; announcements will be silent", err)
	}
	speaker := speech.NewProcess(speech.NewExecSpawner(log), command, log)

	arbiter := audio.New(playback, speaker, ticks, log,
		audio.WithSpeakFade(cfg.SpeakFade()),
		audio.WithNoiseAlarmFade(cfg.NoiseAlarmFade()),
		audio.WithNoiseVolume(cfg.Audio.NoiseVolume),
		audio.WithAlarmVolume(cfg.Audio.AlarmVolume),
	)
	defer arbiter.Close()

	// Alarm time, restored from the last run.
	trig := trigger.New(log, trigger.WithLocalTime(cfg.Alarm.UseLocalTime))
	store := newStore(cfg, log)
	switch st, err := store.Load(ctx); {
	case err == nil:
		trig.Restore(st)
		log.Info("restored: %s", trig.Describe())
	case !errors.Is(err, domain.ErrNotFound):
		log.Warn("could not restore alarm state: %v", err)
	}

	dispatcher := actions.New(trig, arbiter, wall, keymap, log,
		actions.WithStore(store),
		actions.WithVolumeStep(cfg.Audio.VolumeStep),
	)

	keys := make(chan rune, 32)
	loopOpts := []timer.Option{
		timer.WithTickInterval(cfg.TickInterval()),
		timer.WithStatusInterval(cfg.StatusInterval()),
		timer.WithKeys(keys),
	}
	var ui *display.UI
	if !headless {
		ui = display.NewUI(keys, keymap, time.UTC)
		loopOpts = append(loopOpts, timer.WithStatus(ui.Publish))
	}
	loop := timer.New(arbiter, trig, dispatcher, ticks, wall, log, loopOpts...)

	arbiter.Speak(speech.LineStartup())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run(gctx)
	})

	if ui != nil {
		g.Go(func() error {
			// Closing the UI ends the program.
			defer cancel()
			if err := ui.Run(gctx); err != nil {
				return fmt.Errorf("display: %w", err)
			}
			return nil
		})
	} else {
		// Not part of the group: a blocked stdin read cannot be cancelled.
		go readStdin(gctx, keys, log)
	}

	if dev := cfg.Input.KeypadDevice; dev != "" {
		g.Go(func() error {
			if err := input.NewKeypad(dev, log).Run(gctx, keys); err != nil {
				log.Error("keypad: %v", err)
			}
			return nil
		})
	}

	log.Info("alarm clock running (headless=%v)", headless)
	err = g.Wait()
	if errors.Is(err, timer.ErrQuit) {
		return nil
	}
	return err
}

func newStore(cfg config.Config, log *logger.Logger) domain.AlarmStore {
	if cfg.Alarm.StateFile == "" {
		return storage.NewMemoryStore(log)
	}
	return storage.NewYAMLStore(afero.NewOsFs(), config.ExpandPath(cfg.Alarm.StateFile), log)
}

// readStdin feeds characters from stdin to the poll loop in headless mode.
func readStdin(ctx context.Context, keys chan<- rune, log *logger.Logger) {
	r := bufio.NewReader(os.Stdin)
	for {
		c, _, err := r.ReadRune()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("stdin: %v", err)
			}
			return
		}
		if c == '\r' {
			c = '\n'
		}
		select {
		case keys <- c:
		case <-ctx.Done():
			return
		}
	}
}
