package tui

import (
	"time"

	"github.com/atotto/clipboard"
)

type Option func(*Model)

// ClipboardWriter copies text to the system clipboard.
type ClipboardWriter func(string) error

func DefaultClipboardWriter() ClipboardWriter {
	return clipboard.WriteAll
}

func WithDoubleClickWindow(window time.Duration) Option {
	return func(m *Model) {
		if window > 0 {
			m.doubleClick = window
		}
	}
}

func WithDetailPanel(show bool) Option {
	return func(m *Model) {
		m.showDetailPanel = show
	}
}

func WithRefreshInterval(interval time.Duration) Option {
	return func(m *Model) {
		if interval > 0 {
			m.refreshEvery = interval
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

func WithClipboard(write ClipboardWriter) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}
