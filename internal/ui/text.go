package ui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// CleanText strips terminal escape sequences and control characters from
// server-provided text. Newlines and tabs survive.
func CleanText(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SingleLine cleans s and collapses all whitespace runs into single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(CleanText(s)), " ")
}

// Truncate shortens s to at most width terminal cells, counting wide runes as two.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
