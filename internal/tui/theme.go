package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianknutsen/cuneiset/internal/clean"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
)

// Ayu theme colors for TUI contexts.
var (
	colorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorDim  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorText = lipgloss.AdaptiveColor{Light: "#5c6166", Dark: "#bfbdb6"}
	colorSel  = lipgloss.AdaptiveColor{Light: "#e8e8e8", Dark: "#1a1f29"}
)

var (
	styleTitle = lipgloss.NewStyle().Bold(true)

	styleSelected = lipgloss.NewStyle().
			Background(colorSel).
			Foreground(colorText)

	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleLabel   = lipgloss.NewStyle().Foreground(colorPass)
	styleUnknown = lipgloss.NewStyle().Foreground(colorFail)
	styleToken   = lipgloss.NewStyle().Foreground(colorWarn)

	styleBar = lipgloss.NewStyle().
			Background(colorSel).
			Foreground(colorDim).
			Padding(0, 1)

	styleFilterBar = lipgloss.NewStyle().Foreground(colorText)
)

var tokenHighlighter = strings.NewReplacer(
	glyphs.Unknown, styleUnknown.Render(glyphs.Unknown),
	clean.Missing, styleToken.Render(clean.Missing),
	clean.Surface, styleToken.Render(clean.Surface),
	clean.Column, styleToken.Render(clean.Column),
	clean.BlankSpace, styleToken.Render(clean.BlankSpace),
	clean.Ruling, styleToken.Render(clean.Ruling),
)

// highlightTokens colours unknown signs and structural tokens.
func highlightTokens(s string) string { return tokenHighlighter.Replace(s) }

// filterLabel renders an empty filter value as "all".
func filterLabel(v string) string {
	if v == "" {
		return "all"
	}
	return v
}
