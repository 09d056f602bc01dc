package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the parsetrail banner in an indigo to rose gradient.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{"                         _             _ _ ", "#818cf8"},
		{"  _ __  __ _ _ _ ___ ___| |_ _ _ __ _(_) |", "#a78bfa"},
		{" | '_ \\/ _` | '_(_-</ -_)  _| '_/ _` | | |", "#c084fc"},
		{" | .__/\\__,_|_| /__/\\___|\\__|_| \\__,_|_|_|", "#f472b6"},
		{" |_|", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
