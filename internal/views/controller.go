package views

import "sync"

// Controller owns the active view. The zero value is not usable; call
// NewController.
type Controller struct {
	mu     sync.RWMutex
	active View
}

// NewController returns a controller showing Home
func NewController() *Controller {
	return &Controller{active: Home}
}

// Navigate makes v the active view unconditionally. Unknown views are ignored.
func (c *Controller) Navigate(v View) {
	if !v.Valid() {
		return
	}
	c.mu.Lock()
	c.active = v
	c.mu.Unlock()
}

// Active returns the current view
func (c *Controller) Active() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Cycle moves forward (or backward) one view and returns the new active view
func (c *Controller) Cycle(forward bool) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	if forward {
		c.active = c.active.Next()
	} else {
		c.active = c.active.Prev()
	}
	return c.active
}
