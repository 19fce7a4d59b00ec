package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
)

type detailModel struct {
	tablet   *dataset.Tablet
	viewport viewport.Model
	width    int
	height   int
}

func newDetailModel() detailModel {
	return detailModel{}
}

func (m *detailModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 2 // room for title + padding
	if m.tablet != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

func (m *detailModel) setTablet(t *dataset.Tablet) {
	m.tablet = t
	if t != nil {
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
	}
}

func (m detailModel) update(msg bubbletea.Msg) (detailModel, bubbletea.Cmd) {
	if msg, ok := msg.(bubbletea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Back):
			return m, func() bubbletea.Msg {
				return navigateMsg{view: viewBrowse}
			}
		case key.Matches(msg, keys.Quit):
			return m, bubbletea.Quit
		case key.Matches(msg, keys.Next):
			return m, func() bubbletea.Msg { return stepMsg{delta: 1} }
		case key.Matches(msg, keys.Prev):
			return m, func() bubbletea.Msg { return stepMsg{delta: -1} }
		}
	}

	var cmd bubbletea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m detailModel) view() string {
	if m.tablet == nil {
		return styleDim.Render("  No tablet selected.")
	}
	title := styleTitle.Render(m.tablet.ID)
	return title + "\n" + m.viewport.View()
}

func (m detailModel) renderContent() string {
	t := m.tablet
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n  Period:      %s\n", t.Period))
	b.WriteString(fmt.Sprintf("  Genre:       %s\n", t.Genre))
	b.WriteString(fmt.Sprintf("  Signs:       %d", glyphs.CountGlyphs(t.Glyphs)))
	if n := strings.Count(t.Glyphs, glyphs.Unknown); n > 0 {
		b.WriteString(styleUnknown.Render(fmt.Sprintf("  (%d unknown)", n)))
	}
	b.WriteByte('\n')

	section(&b, "Transliteration", t.Transliteration)
	section(&b, "Glyph names", t.GlyphNames)
	section(&b, "Glyphs", t.Glyphs)
	return b.String()
}

func section(b *strings.Builder, label, text string) {
	if text == "" {
		return
	}
	b.WriteString("\n  " + styleLabel.Render(label+":") + "\n")
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("    " + highlightTokens(strings.TrimSpace(line)) + "\n")
	}
}
