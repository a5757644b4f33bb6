package tui

import "charm.land/bubbles/v2/key"

// keyMap holds every dashboard binding.
type keyMap struct {
	quit        key.Binding
	refresh     key.Binding
	toggleHelp  key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	selectCard  key.Binding
	open        key.Binding
	back        key.Binding
	viewTrends  key.Binding
	focusTrends key.Binding
	copyID      key.Binding
	toggleGrid  key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "left")),
		moveRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "right")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		selectCard:  key.NewBinding(key.WithKeys("space", " "), key.WithHelp("space", "select area")),
		open:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drill in")),
		back:        key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		viewTrends:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trends (view)")),
		focusTrends: key.NewBinding(key.WithKeys("T", "shift+t"), key.WithHelp("T", "trends (focused)")),
		copyID:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy id")),
		toggleGrid:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle detail grid")),
	}
}

// ShortHelp returns the footer bindings.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.selectCard, k.open, k.back, k.viewTrends, k.refresh, k.toggleHelp, k.quit,
	}
}

// FullHelp returns the grouped bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.selectCard, k.open, k.back, k.toggleGrid, k.toggleHelp, k.quit},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.viewTrends, k.focusTrends, k.copyID, k.refresh},
	}
}
