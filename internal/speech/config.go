package speech

import (
	"strings"
	"time"
)

// DefaultCommand is the synthesis worker used when the config names none.
// festival reads text from stdin with --tts and exits at EOF.
const DefaultCommand = "festival --tts"

// terminateGrace is how long Terminate waits after the interrupt before
// killing a worker that ignores it.
const terminateGrace = 2 * time.Second

// ParseCommand splits a command line into program and arguments on
// whitespace. Quoting is not supported.
func ParseCommand(line string) []string {
	return strings.Fields(line)
}
