package factory

import (
	"time"

	"github.com/mcoot/golfclub/internal/dependencies/mocks"
	"github.com/mcoot/golfclub/internal/metrics"
	"github.com/mcoot/golfclub/internal/storage"
	"github.com/mcoot/golfclub/internal/storage/memory"
	"github.com/mcoot/golfclub/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App on memory storage with a clock fixed at
// 2024-01-01 12:00 UTC
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New())
}

// NewTestAppWithStorage is NewTestApp over the given store
func NewTestAppWithStorage(store storage.Storage) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, metrics.New(), testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
