package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the MRT banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" __  __ ____ _____ ", "#818cf8"},
		{"|  \\/  |  _ \\_   _|", "#a78bfa"},
		{"| |\\/| | |_) || |  ", "#c084fc"},
		{"| |  | |  _ < | |  ", "#e879f9"},
		{"|_|  |_|_| \\_\\|_|  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("mental rotation task "+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
