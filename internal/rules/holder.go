package rules

import (
	"fmt"
	"sync/atomic"
)

// Holder publishes the current rulebook. Readers get a complete snapshot;
// a swap replaces the whole rulebook and never mutates one in place.
type Holder struct {
	current atomic.Pointer[Rulebook]
}

// NewHolder validates rb and wraps it.
func NewHolder(rb *Rulebook) (*Holder, error) {
	if err := rb.Validate(); err != nil {
		return nil, err
	}
	h := &Holder{}
	h.current.Store(rb)
	return h, nil
}

// Load returns the current rulebook snapshot.
func (h *Holder) Load() *Rulebook {
	return h.current.Load()
}

// Swap validates next and installs it, returning the previous rulebook.
// On validation failure the current rulebook stays in place.
func (h *Holder) Swap(next *Rulebook) (*Rulebook, error) {
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("rejecting reload: %w", err)
	}
	return h.current.Swap(next), nil
}
