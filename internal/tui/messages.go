package tui

import "github.com/julianknutsen/cuneiset/internal/dataset"

// activeView identifies which view is currently displayed.
type activeView int

const (
	viewBrowse activeView = iota
	viewDetail
)

// navigateMsg requests a view switch.
type navigateMsg struct {
	view   activeView
	tablet *dataset.Tablet // non-nil when navigating to detail
}

// stepMsg moves the detail view to a neighbouring tablet in the current
// browse list.
type stepMsg struct {
	delta int
}

// dataMsg carries the loaded dataset.
type dataMsg struct {
	tablets []dataset.Tablet
	err     error
}
