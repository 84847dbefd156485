package factory

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/competecore/competecore/internal/dependencies/mocks"
	"github.com/competecore/competecore/internal/events"
	"github.com/competecore/competecore/internal/services/auth"
	"github.com/competecore/competecore/internal/storage/memory"
	"github.com/competecore/competecore/internal/stream"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.MockIDs
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	authCfg := auth.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost

	hubManager := stream.NewHubManager(logger)
	app := newWithDependencies(store, mockClock, mockRandom, mockIDs, hubManager, events.NewLocal(hubManager), authCfg, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
	}
}
