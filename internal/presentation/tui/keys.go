package tui

import (
	"io"
	"os"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/mrt/pkg/domain"
	"golang.org/x/term"
)

const (
	keyCtrlC  = 0x03
	keyCtrlL  = 0x0c
	keyEscape = 0x1b
)

// KeyInput reads single keystrokes, stamping each with the time it was read.
type KeyInput struct {
	r      io.Reader
	ch     chan domain.Input
	clock  func() time.Time
	resize <-chan os.Signal
}

// KeyOption configures a KeyInput.
type KeyOption func(*KeyInput)

// WithResize emits a redraw for every signal received on ch, typically SIGWINCH.
func WithResize(ch <-chan os.Signal) KeyOption {
	return func(k *KeyInput) {
		k.resize = ch
	}
}

// NewKeyInput starts reading keystrokes from r. The channel closes when r fails.
func NewKeyInput(r io.Reader, opts ...KeyOption) *KeyInput {
	k := &KeyInput{r: r, ch: make(chan domain.Input, 64), clock: time.Now}
	for _, opt := range opts {
		opt(k)
	}
	go k.pump()
	return k
}

// Inputs implements ports.InputSource.
func (k *KeyInput) Inputs() <-chan domain.Input {
	return k.ch
}

// pump is the only writer of k.ch.
func (k *KeyInput) pump() {
	defer close(k.ch)
	reads := make(chan []domain.Input)
	go k.read(reads)
	for {
		select {
		case ins, ok := <-reads:
			if !ok {
				return
			}
			for _, in := range ins {
				k.ch <- in
			}
		case <-k.resize:
			k.ch <- domain.Input{Kind: domain.InputRedraw, At: k.clock()}
		}
	}
}

func (k *KeyInput) read(out chan<- []domain.Input) {
	defer close(out)
	buf := make([]byte, 64)
	for {
		n, err := k.r.Read(buf)
		at := k.clock()
		if ins := DecodeKeys(buf[:n], at); len(ins) > 0 {
			out <- ins
		}
		if err != nil {
			return
		}
	}
}

// DecodeKeys maps one read from a raw terminal to inputs.
//
// Enter and space begin a block, Esc and Ctrl+C quit, Ctrl+L redraws and any
// other printable key is a response candidate. A read that starts with Esc and
// carries more bytes is an escape sequence (arrows, function keys) and is dropped.
func DecodeKeys(b []byte, at time.Time) []domain.Input {
	if len(b) > 1 && b[0] == keyEscape {
		return nil
	}
	var out []domain.Input
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		switch {
		case r == '\r' || r == '\n' || r == ' ':
			out = append(out, domain.Input{Kind: domain.InputBegin, At: at})
		case r == keyCtrlC || r == keyEscape:
			out = append(out, domain.Input{Kind: domain.InputQuit, At: at})
		case r == keyCtrlL:
			out = append(out, domain.Input{Kind: domain.InputRedraw, At: at})
		case r != utf8.RuneError && unicode.IsPrint(r):
			out = append(out, domain.Input{Kind: domain.InputAction, Value: string(r), At: at})
		}
	}
	return out
}

// MakeRaw switches f to raw mode when it is a terminal. The returned restore
// is always safe to call.
func MakeRaw(f *os.File) (restore func(), raw bool, err error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, false, nil
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, false, err
	}
	return func() { _ = term.Restore(fd, old) }, true, nil
}
