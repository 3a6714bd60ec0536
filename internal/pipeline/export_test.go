package pipeline

import (
	"time"

	"mintwatch/internal/scheduler"
)

// UseWindow replaces the debounce window so tests need not wait seconds.
func (c *Controller) UseWindow(window time.Duration) {
	c.scheduler.Stop()
	c.scheduler = scheduler.New(window, func(path string) { c.Dispatch(path) })
}
