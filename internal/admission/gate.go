package admission

import (
	"fmt"
	"sync"
)

// Gate bounds the number of downloads in flight.
type Gate struct {
	mu       sync.Mutex
	depth    int
	capacity int
}

// NewGate creates a gate admitting at most capacity concurrent holders.
func NewGate(capacity int) (*Gate, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("gate capacity must be positive, got %d", capacity)
	}
	return &Gate{capacity: capacity}, nil
}

// TryEnter admits the caller when depth is below capacity. The returned slot
// must be released on every exit path; a nil slot means the gate is full.
func (g *Gate) TryEnter() (*Slot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.depth >= g.capacity {
		return nil, false
	}
	g.depth++
	return &Slot{gate: g}, true
}

// Depth reports the number of slots currently held.
func (g *Gate) Depth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth
}

// Capacity reports the configured maximum depth.
func (g *Gate) Capacity() int { return g.capacity }

func (g *Gate) leave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.depth > 0 {
		g.depth--
	}
}

// Slot is one admitted position in a Gate.
type Slot struct {
	gate *Gate
	once sync.Once
}

// Release returns the slot to the gate. Extra calls are no-ops.
func (s *Slot) Release() {
	if s == nil {
		return
	}
	s.once.Do(s.gate.leave)
}
