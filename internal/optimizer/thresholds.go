package optimizer

import (
	"sync"

	"github.com/jonathan/marketing-agent/internal/types"
)

// ThresholdStore holds the live thresholds. It is safe for concurrent use;
// readers get a consistent pair even while an update is in flight.
type ThresholdStore struct {
	mu sync.RWMutex
	t  types.Thresholds
}

// NewThresholdStore returns a store seeded with t.
func NewThresholdStore(t types.Thresholds) (*ThresholdStore, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &ThresholdStore{t: t}, nil
}

// Get returns a snapshot of the current thresholds.
func (s *ThresholdStore) Get() types.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t
}

// Update applies a partial update atomically and returns the result.
func (s *ThresholdStore) Update(u types.ThresholdsUpdate) (types.Thresholds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := u.Apply(s.t)
	if err := next.Validate(); err != nil {
		return s.t, err
	}
	s.t = next
	return next, nil
}
