//go:build !windows

package tui

import (
	"os"
	"os/signal"
	"syscall"
)

// NotifyResize relays terminal resize signals until stop is called.
func NotifyResize() (ch <-chan os.Signal, stop func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGWINCH)
	return c, func() { signal.Stop(c) }
}
