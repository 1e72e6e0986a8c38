//go:build !unix

package speech

import "os"

// interrupt kills the process; there is no portable interrupt signal here.
func interrupt(p *os.Process) error {
	return p.Kill()
}
