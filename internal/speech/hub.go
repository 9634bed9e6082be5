package speech

import "sync"

// Hub tracks the controllers of every open connection per learner so that
// course changes can silence all of them.
type Hub struct {
	mu          sync.Mutex
	controllers map[string]map[*Controller]struct{}
}

func NewHub() *Hub {
	return &Hub{controllers: make(map[string]map[*Controller]struct{})}
}

// Register returns a func that removes c again.
func (h *Hub) Register(learnerID string, c *Controller) func() {
	h.mu.Lock()
	set, ok := h.controllers[learnerID]
	if !ok {
		set = make(map[*Controller]struct{})
		h.controllers[learnerID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.controllers[learnerID], c)
		if len(h.controllers[learnerID]) == 0 {
			delete(h.controllers, learnerID)
		}
	}
}

// StopAll stops audio on every connection of the learner.
func (h *Hub) StopAll(learnerID string) {
	h.mu.Lock()
	cs := make([]*Controller, 0, len(h.controllers[learnerID]))
	for c := range h.controllers[learnerID] {
		cs = append(cs, c)
	}
	h.mu.Unlock()

	for _, c := range cs {
		c.StopAll()
	}
}
