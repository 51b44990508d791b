package ui

import (
	"fmt"
	"io"
	"os"
)

// SGR sequences the built-in themes are made of.
const (
	sgrReset  = "\033[0m"
	sgrBold   = "\033[1m"
	sgrDim    = "\033[2m"
	sgrRed    = "\033[31m"
	sgrGreen  = "\033[32m"
	sgrYellow = "\033[33m"
	sgrBlue   = "\033[34m"
	sgrGray   = "\033[90m"
)

type colorMode int

const (
	colorAuto colorMode = iota // only when stdout is a terminal
	colorAlways
	colorNever
)

var mode = colorAuto

// SetColorForcing applies the -force-color and -no-color flags. disable wins.
func SetColorForcing(force, disable bool) {
	switch {
	case disable:
		mode = colorNever
	case force:
		mode = colorAlways
	default:
		mode = colorAuto
	}
}

func colorOn() bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	}
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Paint wraps s in color. Themes without a color for a role pass "".
func (t Theme) Paint(color, s string) string {
	if color == "" || !colorOn() {
		return s
	}
	return color + s + sgrReset
}

// OK, Warn and Fail print one status line with the theme's marker.
func (t Theme) OK(w io.Writer, msg string) {
	fmt.Fprintln(w, t.Paint(t.Success, t.SymOK+" "+msg))
}

func (t Theme) Warn(w io.Writer, msg string) {
	fmt.Fprintln(w, t.Paint(t.Busy, t.SymWarn+" "+msg))
}

func (t Theme) Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, t.Paint(t.Error, t.SymFail+" "+msg))
}

// C paints s with the current theme.
func C(color, s string) string { return current.Paint(color, s) }

func OK(msg string)   { current.OK(os.Stdout, msg) }
func Warn(msg string) { current.Warn(os.Stderr, msg) }
func Fail(msg string) { current.Fail(os.Stderr, msg) }
