// Package style provides consistent terminal styling for cuneiset output
// using Lipgloss with the Ayu palette.
package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorInfo = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
	colorSign = lipgloss.AdaptiveColor{Light: "#a37acc", Dark: "#d2a6ff"}
)

// Semantic icons
const (
	IconPass  = "✓"
	IconWarn  = "⚠"
	IconFail  = "✖"
	IconStage = "➜"
)

var (
	// Success marks completed stages and passing checks.
	Success lipgloss.Style
	// Warning marks skipped records and sanity-check findings.
	Warning lipgloss.Style
	// Error marks failures.
	Error lipgloss.Style
	// Info marks stage headings and paths.
	Info lipgloss.Style
	// Dim is for counts and secondary detail.
	Dim lipgloss.Style
	// Bold is for emphasis.
	Bold lipgloss.Style
	// Glyph renders Unicode cuneiform.
	Glyph lipgloss.Style
)

func init() { colored() }

func colored() {
	Success = lipgloss.NewStyle().Foreground(colorPass).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	Error = lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	Info = lipgloss.NewStyle().Foreground(colorInfo)
	Dim = lipgloss.NewStyle().Foreground(colorMute)
	Bold = lipgloss.NewStyle().Bold(true)
	Glyph = lipgloss.NewStyle().Foreground(colorSign)
}

func plain() {
	Success = lipgloss.NewStyle()
	Warning = lipgloss.NewStyle()
	Error = lipgloss.NewStyle()
	Info = lipgloss.NewStyle()
	Dim = lipgloss.NewStyle()
	Bold = lipgloss.NewStyle()
	Glyph = lipgloss.NewStyle()
}

// SetColorMode overrides style rendering based on --color flag or NO_COLOR env.
func SetColorMode(mode string) {
	switch mode {
	case "never":
		_ = os.Setenv("NO_COLOR", "1")
		plain()
	case "always":
		_ = os.Unsetenv("NO_COLOR")
		_ = os.Setenv("CLICOLOR_FORCE", "1")
		colored()
	}
}

// StatusIcon renders the icon for a check status: "pass", "warn" or "fail".
func StatusIcon(status string) string {
	switch status {
	case "pass":
		return Success.Render(IconPass)
	case "warn":
		return Warning.Render(IconWarn)
	default:
		return Error.Render(IconFail)
	}
}
