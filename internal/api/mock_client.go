package api

import (
	"context"
	"sync"

	"github.com/diogo/agi/internal/config"
	"github.com/diogo/agi/internal/models"
)

// MockCall records one Generate invocation
type MockCall struct {
	Prompt   string
	History  []models.Message
	Settings config.AppSettings
}

// MockGateway is a scriptable Gateway for tests
type MockGateway struct {
	// Mock return values
	Reply string
	Err   error

	// ReplyFunc, when set, takes precedence over Reply/Err
	ReplyFunc func(prompt string, history []models.Message, settings config.AppSettings) (string, error)

	// PanicWith makes Generate panic with this value
	PanicWith any

	// Block, when non-nil, holds every call until it is closed or ctx ends
	Block chan struct{}

	mu    sync.Mutex
	calls []MockCall
}

// Ensure MockGateway implements Gateway
var _ Gateway = (*MockGateway)(nil)

// Generate records the call and returns the scripted result
func (m *MockGateway) Generate(ctx context.Context, prompt string, history []models.Message, settings config.AppSettings) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		Prompt:   prompt,
		History:  models.CloneMessages(history),
		Settings: settings,
	})
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.PanicWith != nil {
		panic(m.PanicWith)
	}
	if m.ReplyFunc != nil {
		return m.ReplyFunc(prompt, history, settings)
	}
	return m.Reply, m.Err
}

// Calls returns a copy of the recorded calls
func (m *MockGateway) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Generate was called
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent call, or a zero MockCall
func (m *MockGateway) LastCall() MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return MockCall{}
	}
	return m.calls[len(m.calls)-1]
}
