package export

import "sync"

// Chrome owns the visibility of the overlay UI (legend and layer switcher).
// The operator toggle and the export pipeline both go through it.
//
// While Hide's lease is held the overlay stays hidden. Toggles made during
// the lease change the visibility that restore will put back.
type Chrome struct {
	mu      sync.Mutex
	visible bool
	held    bool
	desired bool
}

func NewChrome(visible bool) *Chrome {
	return &Chrome{visible: visible}
}

// Visible reports what is drawn right now.
func (c *Chrome) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Toggle flips the operator's choice and returns it. During a lease the
// drawn state stays hidden and the choice applies on restore.
func (c *Chrome) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held {
		c.desired = !c.desired
		return c.desired
	}
	c.visible = !c.visible
	return c.visible
}

// Hide hides the overlay and reports whether it was visible. The returned
// restore ends the lease and shows the overlay if the operator's choice is
// visible; calling it more than once is a no-op. A Hide while another lease
// is held gets a no-op restore.
func (c *Chrome) Hide() (wasVisible bool, restore func()) {
	c.mu.Lock()
	if c.held {
		c.mu.Unlock()
		return false, func() {}
	}
	wasVisible = c.visible
	c.desired = c.visible
	c.visible = false
	c.held = true
	c.mu.Unlock()

	var once sync.Once
	return wasVisible, func() {
		once.Do(func() {
			c.mu.Lock()
			c.visible = c.desired
			c.held = false
			c.mu.Unlock()
		})
	}
}
