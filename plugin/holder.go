package plugin

import (
	"sync"

	"github.com/livereload-universal/relay/reload"
)

// Holder owns the single live coordinator of a process. Installing a new
// one stops the previous first, so its port is free again.
type Holder struct {
	mu      sync.Mutex
	current *reload.Coordinator
}

func (h *Holder) Install(c *reload.Coordinator) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		h.current.Stop()
		h.current = nil
	}
	if err := c.Start(); err != nil {
		return err
	}
	h.current = c
	return nil
}

func (h *Holder) Current() *reload.Coordinator {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *Holder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		h.current.Stop()
		h.current = nil
	}
}
