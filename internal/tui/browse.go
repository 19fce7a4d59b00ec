// Package tui provides an interactive terminal browser for dataset files.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
)

type browseModel struct {
	title      string
	all        []dataset.Tablet
	items      []dataset.Tablet // all, filtered
	periods    []string         // "" first, meaning any period
	genres     []string
	periodIdx  int
	genreIdx   int
	cursor     int
	searchMode bool
	search     textinput.Model
	width      int
	height     int
	loading    bool
	err        error
}

func newBrowseModel(title string) browseModel {
	ti := textinput.New()
	ti.Placeholder = "search id or transliteration..."
	ti.CharLimit = 64
	return browseModel{
		title:   title,
		periods: []string{""},
		genres:  []string{""},
		search:  ti,
		loading: true,
	}
}

func (m *browseModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *browseModel) setData(msg dataMsg) {
	m.loading = false
	m.err = msg.err
	m.all = msg.tablets
	m.periods = choices(m.all, func(t dataset.Tablet) string { return t.Period })
	m.genres = choices(m.all, func(t dataset.Tablet) string { return t.Genre })
	m.periodIdx, m.genreIdx = 0, 0
	m.applyFilter()
}

// choices lists the distinct values of a field, most frequent first,
// after a leading "" for no filter.
func choices(tablets []dataset.Tablet, field func(dataset.Tablet) string) []string {
	values := make([]string, len(tablets))
	for i, t := range tablets {
		values[i] = field(t)
	}
	out := []string{""}
	for _, c := range dataset.CountValues(values) {
		out = append(out, c.Value)
	}
	return out
}

func (m browseModel) period() string { return m.periods[m.periodIdx] }
func (m browseModel) genre() string  { return m.genres[m.genreIdx] }

func (m *browseModel) applyFilter() {
	period, genre := m.period(), m.genre()
	q := strings.ToLower(strings.TrimSpace(m.search.Value()))
	m.items = m.items[:0:0]
	for _, t := range m.all {
		if period != "" && t.Period != period {
			continue
		}
		if genre != "" && t.Genre != genre {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.ID), q) &&
			!strings.Contains(strings.ToLower(t.Transliteration), q) {
			continue
		}
		m.items = append(m.items, t)
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

// selected returns the tablet under the cursor, or nil.
func (m browseModel) selected() *dataset.Tablet {
	if m.cursor >= len(m.items) {
		return nil
	}
	t := m.items[m.cursor]
	return &t
}

func (m *browseModel) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.items)-1, 0))
}

func (m browseModel) pageSize() int {
	return max(m.listHeight()-1, 1)
}

func (m browseModel) update(msg bubbletea.Msg) (browseModel, bubbletea.Cmd) {
	if m.searchMode {
		return m.updateSearch(msg)
	}

	if msg, ok := msg.(bubbletea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Quit):
			return m, bubbletea.Quit

		case key.Matches(msg, keys.Up):
			m.move(-1)

		case key.Matches(msg, keys.Down):
			m.move(1)

		case key.Matches(msg, keys.PageUp):
			m.move(-m.pageSize())

		case key.Matches(msg, keys.PageDown):
			m.move(m.pageSize())

		case key.Matches(msg, keys.Enter):
			if t := m.selected(); t != nil {
				return m, func() bubbletea.Msg {
					return navigateMsg{view: viewDetail, tablet: t}
				}
			}

		case key.Matches(msg, keys.Search):
			m.searchMode = true
			m.search.Focus()
			return m, textinput.Blink

		case key.Matches(msg, keys.Period):
			m.periodIdx = (m.periodIdx + 1) % len(m.periods)
			m.cursor = 0
			m.applyFilter()

		case key.Matches(msg, keys.Genre):
			m.genreIdx = (m.genreIdx + 1) % len(m.genres)
			m.cursor = 0
			m.applyFilter()

		case key.Matches(msg, keys.Clear):
			m.periodIdx, m.genreIdx = 0, 0
			m.search.SetValue("")
			m.cursor = 0
			m.applyFilter()
		}
	}

	return m, nil
}

func (m browseModel) updateSearch(msg bubbletea.Msg) (browseModel, bubbletea.Cmd) {
	if msg, ok := msg.(bubbletea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			m.searchMode = false
			m.search.Blur()
			return m, nil
		case "esc":
			m.searchMode = false
			m.search.Blur()
			m.search.SetValue("")
			m.applyFilter()
			return m, nil
		}
	}

	var cmd bubbletea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m.applyFilter()
	return m, cmd
}

func (m browseModel) listHeight() int {
	headerLines := 6 // title + filter + colheader + sep + count + slack
	if m.searchMode {
		headerLines++
	}
	if h := m.height - headerLines; h >= 1 {
		return h
	}
	return 10
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func (m browseModel) view() string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(m.title))
	b.WriteByte('\n')

	filterLine := fmt.Sprintf("  [p] Period: %-16s  [g] Genre: %-14s",
		filterLabel(m.period()), filterLabel(m.genre()))
	if m.search.Value() != "" {
		filterLine += fmt.Sprintf("  Search: %q", m.search.Value())
	}
	b.WriteString(styleFilterBar.Render(filterLine))
	b.WriteByte('\n')

	if m.searchMode {
		b.WriteString("  Search: ")
		b.WriteString(m.search.View())
		b.WriteByte('\n')
	}

	colHeader := fmt.Sprintf("  %-10s %-16s %-14s %5s  %s",
		"ID", "PERIOD", "GENRE", "SIGNS", "TRANSLITERATION")
	b.WriteString(styleDim.Render(colHeader))
	b.WriteByte('\n')

	sep := strings.Repeat("─", max(min(m.width, lipgloss.Width(colHeader)+20), 0))
	b.WriteString(styleDim.Render(sep))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString(styleDim.Render("  Loading..."))
		return b.String()
	}

	if m.err != nil {
		b.WriteString(fmt.Sprintf("  Error: %v", m.err))
		return b.String()
	}

	if len(m.items) == 0 {
		b.WriteString(styleDim.Render("  No tablets match."))
		return b.String()
	}

	b.WriteString(styleDim.Render(fmt.Sprintf("  %d of %d tablets", len(m.items), len(m.all))))
	b.WriteByte('\n')

	listHeight := m.listHeight()
	startIdx := 0
	if m.cursor >= listHeight {
		startIdx = m.cursor - listHeight + 1
	}
	endIdx := min(startIdx+listHeight, len(m.items))

	textWidth := max(m.width-52, 20)
	for i := startIdx; i < endIdx; i++ {
		t := m.items[i]
		text := strings.ReplaceAll(t.Transliteration, "\n", " / ")
		line := fmt.Sprintf("  %-10s %-16s %-14s %5d  %s",
			t.ID, truncate(t.Period, 16), truncate(t.Genre, 14),
			glyphs.CountGlyphs(t.Glyphs), truncate(text, textWidth))

		if i == m.cursor {
			line = styleSelected.Width(m.width).Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}
