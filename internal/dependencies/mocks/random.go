package mocks

import (
	"sync"

	"github.com/mcoot/golfclub/internal/dependencies/random"
)

// MockRandom returns queued values from Intn, then 0 once the queue is drained
type MockRandom struct {
	mu      sync.Mutex
	results []int
	calls   []int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, n)
	if len(r.results) == 0 {
		return 0
	}
	result := r.results[0]
	r.results = r.results[1:]
	return result
}

// QueueIntn adds values to the result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, values...)
}

// Calls returns the bound passed to each Intn call so far
func (r *MockRandom) Calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}
