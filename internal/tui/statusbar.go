package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// statusBar renders the bottom bar showing the dataset name and key hints.
type statusBar struct {
	name  string
	width int
}

func newStatusBar(name string) statusBar {
	return statusBar{name: name}
}

func (s statusBar) render(hints string) string {
	left := styleDim.Render(s.name)
	right := styleDim.Render(hints)

	gap := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return styleBar.Width(s.width).Render(
		fmt.Sprintf("%s%*s%s", left, gap, "", right),
	)
}
