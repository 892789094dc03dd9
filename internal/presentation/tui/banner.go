package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"              _ _       _     _                         _ ",
	"  _____      _(_) |_ ___| |__ | |__   ___   __ _ _ __ __| |",
	" / __\\ \\ /\\ / / | __/ __| '_ \\| '_ \\ / _ \\ / _` | '__/ _` |",
	" \\__ \\\\ V  V /| | || (__| | | | |_) | (_) | (_| | | | (_| |",
	" |___/ \\_/\\_/ |_|\\__\\___|_| |_|_.__/ \\___/ \\__,_|_|  \\__,_|",
}

var bannerColors = []string{"#38bdf8", "#22d3ee", "#2dd4bf", "#34d399", "#4ade80"}

// PrintBanner writes the switchboard banner and a one-line session header to w.
func PrintBanner(w io.Writer, version, sessionID string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, out.String(fmt.Sprintf("  v%s  session %s  (type exit to quit)", version, sessionID)).Faint())
	fmt.Fprintln(w)
}
