package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{" _                _  __ _               ", "#34d399"},
	{"| | ___ _ __   __| |/ _| | _____      __", "#2dd4bf"},
	{"| |/ _ \\ '_ \\ / _` | |_| |/ _ \\ \\ /\\ / /", "#22d3ee"},
	{"| |  __/ | | | (_| |  _| | (_) \\ V  V / ", "#38bdf8"},
	{"|_|\\___|_| |_|\\__,_|_| |_|\\___/ \\_/\\_/  ", "#60a5fa"},
}

// PrintBanner writes the lendflow banner to w, colored when the terminal supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  personal loan assistant v"+version).Faint())
	fmt.Fprintln(w)
}
