//go:build !linux

package input

import (
	"context"
	"fmt"
	"os"

	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// Keypad reads one evdev-format event stream. Outside Linux this is only
// useful with a recorded stream or a pipe.
type Keypad struct {
	path string
	log  *logger.Logger
}

// NewKeypad creates a reader for the stream at path.
func NewKeypad(path string, log *logger.Logger) *Keypad {
	return &Keypad{path: path, log: log}
}

// Run sends key presses on out until ctx is done or the stream ends.
func (k *Keypad) Run(ctx context.Context, out chan<- rune) error {
	f, err := os.Open(k.path)
	if err != nil {
		return fmt.Errorf("open keypad %s: %w", k.path, err)
	}

	// Closing the file unblocks the read when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()
	defer f.Close()

	k.log.Info("keypad: reading %s", k.path)
	return Pump(ctx, f, out)
}
