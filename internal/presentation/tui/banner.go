package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the teiinfo banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Parchment to ink
	lines := []struct {
		text, color string
	}{
		{" _       _ _        __       ", "#d6b370"},
		{"| |_ ___(_|_)_ __  / _| ___  ", "#c79a52"},
		{"| __/ _ \\ | | '_ \\| |_ / _ \\ ", "#a9773a"},
		{"| ||  __/ | | | | |  _| (_) |", "#7c5427"},
		{" \\__\\___|_|_|_| |_|_|  \\___/ ", "#4a3318"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
