package mock

import (
	"context"

	"github.com/openclerk/openclerk/ai"
)

// MockRecapGenerator is a test double for ai.RecapGenerator.
// It allows custom behavior injection via function fields.
type MockRecapGenerator struct {
	// GenerateRecapFunc is called by GenerateRecap if set.
	// If nil, returns a fixed recap derived from the title.
	GenerateRecapFunc func(ctx context.Context, title, transcript string) (*ai.Recap, error)

	callCount int
}

// NewMockRecapGenerator creates a mock recap generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockRecapper().
func NewMockRecapGenerator() *MockRecapGenerator {
	return &MockRecapGenerator{}
}

// GenerateRecap returns a canned recap mentioning the meeting title.
func (m *MockRecapGenerator) GenerateRecap(ctx context.Context, title, transcript string) (*ai.Recap, error) {
	m.callCount++

	if m.GenerateRecapFunc != nil {
		return m.GenerateRecapFunc(ctx, title, transcript)
	}

	return &ai.Recap{
		Summary:        "Recap of " + title,
		Article:        "The meeting titled " + title + " covered routine business.",
		Topics:         []string{"general business"},
		Decisions:      []string{"minutes approved"},
		PublicComments: []string{},
	}, nil
}

// CallCount returns the number of times GenerateRecap was called.
func (m *MockRecapGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockRecapGenerator) Reset() {
	m.callCount = 0
	m.GenerateRecapFunc = nil
}
