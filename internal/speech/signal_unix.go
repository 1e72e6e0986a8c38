//go:build unix

package speech

import (
	"os"

	"golang.org/x/sys/unix"
)

// interrupt delivers SIGINT, the same signal a terminal Ctrl-C sends, so
// synthesizers get a chance to release the audio device cleanly.
func interrupt(p *os.Process) error {
	err := unix.Kill(p.Pid, unix.SIGINT)
	if err == unix.ESRCH {
		return nil // already gone
	}
	return err
}
