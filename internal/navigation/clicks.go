package navigation

import "time"

// DefaultDoubleClickWindow is the maximum gap between two clicks of a double click.
const DefaultDoubleClickWindow = 400 * time.Millisecond

// ClickTracker turns a stream of pointer clicks into single and double clicks.
type ClickTracker struct {
	window     time.Duration
	lastTarget string
	lastAt     time.Time
	armed      bool
}

// NewClickTracker constructs a tracker. A non-positive window uses DefaultDoubleClickWindow.
func NewClickTracker(window time.Duration) ClickTracker {
	if window <= 0 {
		window = DefaultDoubleClickWindow
	}
	return ClickTracker{window: window}
}

// Register records a click and reports whether it completes a double click on the same target.
func (c *ClickTracker) Register(target string, at time.Time) bool {
	if c.window <= 0 {
		c.window = DefaultDoubleClickWindow
	}
	if c.armed && target == c.lastTarget && !at.Before(c.lastAt) && at.Sub(c.lastAt) <= c.window {
		c.armed = false
		return true
	}
	c.lastTarget = target
	c.lastAt = at
	c.armed = true
	return false
}

// Reset forgets the pending click.
func (c *ClickTracker) Reset() {
	c.armed = false
	c.lastTarget = ""
}
