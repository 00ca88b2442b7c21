package ui

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// Banner printed above interactive output
const Banner = `
  ┌─┐┬┌┐┌┌─┐┌─┐┬─┐┌─┐┌─┐┌─┐┬─┐
  ├─┘││││└─┐│  ├┬┘├─┤├─┘├┤ ├┬┘
  ┴  ┴┘└┘└─┘└─┘┴└─┴ ┴┴  └─┘┴└─
`

var (
	output       io.Writer = os.Stdout
	colorEnabled atomic.Bool
)

func init() {
	colorEnabled.Store(IsTerminal(os.Stdout))
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SetOutput redirects the Print helpers and recomputes whether colors are used
func SetOutput(w io.Writer) {
	output = w
	colorEnabled.Store(IsTerminal(w))
}

// SetColor forces colors on or off
func SetColor(enabled bool) {
	colorEnabled.Store(enabled)
}

// ColorEnabled reports whether ANSI colors are emitted
func ColorEnabled() bool {
	return colorEnabled.Load()
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled.Load() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintBanner prints the banner, only on a terminal
func PrintBanner() {
	if !colorEnabled.Load() {
		return
	}
	fmt.Fprint(output, Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(output, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(output, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(output, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(output, Magenta(msg))
}
