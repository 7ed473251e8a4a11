//go:build windows

package tui

import "os"

// NotifyResize returns a nil channel; the Windows console raises no resize signal.
func NotifyResize() (ch <-chan os.Signal, stop func()) {
	return nil, func() {}
}
