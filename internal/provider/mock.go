package provider

import (
	"context"
	"sync"

	"github.com/hyperjump/chatnova/internal/models"
)

// Mock is a deterministic provider for tests and offline use.
type Mock struct {
	id       models.ProviderID
	fn       func(ctx context.Context, req Request) (string, error)
	mu       sync.Mutex
	calls    int
	requests []Request
}

// NewMock returns a provider that always answers response.
func NewMock(id models.ProviderID, response string) *Mock {
	return NewMockFunc(id, func(context.Context, Request) (string, error) {
		return response, nil
	})
}

// NewFailingMock returns a provider that always fails with err.
func NewFailingMock(id models.ProviderID, err error) *Mock {
	return NewMockFunc(id, func(context.Context, Request) (string, error) {
		return "", err
	})
}

// NewMockFunc returns a provider that delegates to fn.
func NewMockFunc(id models.ProviderID, fn func(ctx context.Context, req Request) (string, error)) *Mock {
	return &Mock{id: id, fn: fn}
}

func (m *Mock) ID() models.ProviderID { return m.id }

func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.fn(ctx, req)
}

// Calls returns how many times Generate was called.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request received, oldest first.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}
