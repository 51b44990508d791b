package ui

import "strings"

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Dim, Accent, Success, Error, Busy string
	CornerTL, CornerTR, CornerBL, CornerBR          string
	H, V                                            string
	SymRecord, SymPlay, SymOK, SymWarn, SymFail     string
}

var current Theme

func init() { SetTheme("classic") }

func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		current = Theme{
			Title: "\033[95m", // bright magenta
			Muted: sgrGray, Dim: sgrDim, Accent: "\033[96m",
			Success: sgrGreen, Error: sgrRed, Busy: "\033[93m",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymRecord: "♫", SymPlay: "▶",
			SymOK: "✔", SymWarn: "!", SymFail: "✖",
		}
	case "mono":
		// no colors at all, ASCII only
		current = Theme{
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymRecord: "*", SymPlay: ">",
			SymOK: "ok:", SymWarn: "warning:", SymFail: "error:",
		}
	default: // classic
		current = Theme{
			Title: sgrBold, Muted: sgrGray, Dim: sgrDim, Accent: sgrBlue,
			Success: sgrGreen, Error: sgrRed, Busy: sgrYellow,
			CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
			H: "─", V: "│",
			SymRecord: "♪", SymPlay: "▶",
			SymOK: "✔", SymWarn: "!", SymFail: "✖",
		}
	}
}

// Expose what renderers need
func Current() Theme { return current }
