package tui

import (
	"fmt"
	"path/filepath"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianknutsen/cuneiset/internal/dataset"
)

// Config holds the parameters needed to launch the TUI.
type Config struct {
	Path string // dataset CSV with the final columns

	// Load reads the tablets; nil reads Path with ReadTablets.
	Load func(path string) ([]dataset.Tablet, error)
}

// Model is the root TUI model that routes between views.
type Model struct {
	cfg      Config
	active   activeView
	browse   browseModel
	detail   detailModel
	bar      statusBar
	width    int
	height   int
	quitting bool
}

// New creates a new root TUI model.
func New(cfg Config) Model {
	name := filepath.Base(cfg.Path)
	return Model{
		cfg:    cfg,
		active: viewBrowse,
		browse: newBrowseModel("cuneiset: " + name),
		detail: newDetailModel(),
		bar:    newStatusBar(name),
	}
}

// Init starts the dataset load.
func (m Model) Init() bubbletea.Cmd {
	return loadDataset(m.cfg)
}

// Update processes messages.
func (m Model) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, bubbletea.Quit
		}

	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.width = msg.Width
		m.browse.setSize(msg.Width, msg.Height-1) // -1 for statusbar
		m.detail.setSize(msg.Width, msg.Height-1)
		return m, nil

	case dataMsg:
		m.browse.setData(msg)
		return m, nil

	case navigateMsg:
		m.active = msg.view
		if msg.view == viewDetail {
			m.detail.setTablet(msg.tablet)
		}
		return m, nil

	case stepMsg:
		m.browse.move(msg.delta)
		m.detail.setTablet(m.browse.selected())
		return m, nil
	}

	var cmd bubbletea.Cmd
	switch m.active {
	case viewBrowse:
		m.browse, cmd = m.browse.update(msg)
	case viewDetail:
		m.detail, cmd = m.detail.update(msg)
	}
	return m, cmd
}

// View renders the current view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	var hints string

	switch m.active {
	case viewBrowse:
		content = m.browse.view()
		hints = "j/k: navigate  enter: open  p/g: filters  c: clear  /: search  q: quit"
	case viewDetail:
		content = m.detail.view()
		hints = "esc: back  j/k: scroll  n/N: next/prev  q: quit"
	}

	contentHeight := m.height - 1 // 1 for statusbar
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Render(content)

	return content + "\n" + m.bar.render(hints)
}

// Run starts the browser on the terminal and blocks until the user quits.
func Run(cfg Config) error {
	p := bubbletea.NewProgram(New(cfg), bubbletea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// --- async commands ---

func loadDataset(cfg Config) bubbletea.Cmd {
	return func() bubbletea.Msg {
		load := cfg.Load
		if load == nil {
			load = ReadTablets
		}
		tablets, err := load(cfg.Path)
		return dataMsg{tablets: tablets, err: err}
	}
}

// ReadTablets reads a CSV that carries the final dataset columns.
func ReadTablets(path string) ([]dataset.Tablet, error) {
	t, err := dataset.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return dataset.Tablets(t)
}
