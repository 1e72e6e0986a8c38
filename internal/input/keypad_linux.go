//go:build linux

package input

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/hammamikhairi/alarmclock/internal/logger"
)

// pollTimeoutMS bounds how long the reader waits before checking ctx.
const pollTimeoutMS = 250

// Keypad reads one evdev device.
type Keypad struct {
	path string
	log  *logger.Logger
}

// NewKeypad creates a reader for the device at path, e.g.
// /dev/input/by-id/usb-...-event-kbd.
func NewKeypad(path string, log *logger.Logger) *Keypad {
	return &Keypad{path: path, log: log}
}

// Run sends key presses on out until ctx is done or the device fails.
// The kernel wakes the reader through epoll only when data is ready.
func (k *Keypad) Run(ctx context.Context, out chan<- rune) error {
	f, err := os.OpenFile(k.path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open keypad %s: %w", k.path, err)
	}
	defer f.Close()

	// Fd puts the file in blocking mode; restore non-blocking for epoll.
	fd := int(f.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("keypad %s: set nonblock: %w", k.path, err)
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
	}

	k.log.Info("keypad: reading %s", k.path)

	events := make([]unix.EpollEvent, 1)
	buf := make([]byte, EventSize*16)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := unix.EpollWait(epfd, events, pollTimeoutMS)
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}
		if n == 0 {
			continue
		}
		if events[0].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			return fmt.Errorf("keypad %s: device error or hangup", k.path)
		}

		// evdev always returns whole events.
		m, err := unix.Read(fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				continue
			}
			return fmt.Errorf("read from %s: %w", k.path, err)
		}
		for off := 0; off+EventSize <= m; off += EventSize {
			if err := deliver(ctx, buf[off:off+EventSize], out); err != nil {
				return nil
			}
		}
	}
}
