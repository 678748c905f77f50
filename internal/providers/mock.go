package providers

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"
)

const MockLayoutName = "mock"

// MockLayoutProvider is a LayoutProvider for testing.
type MockLayoutProvider struct {
	// Configurable behavior
	Latency    time.Duration
	PingErr    error // returned by Ping
	AnalyzeErr error // returned by Analyze
	Structure  json.RawMessage
	Images     map[string][]byte

	// State
	pingCount    atomic.Int64
	analyzeCount atomic.Int64
}

// NewMockLayoutProvider creates a mock that returns an empty single-page document.
func NewMockLayoutProvider() *MockLayoutProvider {
	return &MockLayoutProvider{
		Structure: json.RawMessage(`{"pdf_info": [{"page_idx": 0, "para_blocks": []}]}`),
	}
}

// Name returns the provider identifier.
func (m *MockLayoutProvider) Name() string {
	return MockLayoutName
}

// Ping returns PingErr.
func (m *MockLayoutProvider) Ping(ctx context.Context) error {
	m.pingCount.Add(1)
	return m.PingErr
}

// Analyze returns the configured structure and images after Latency.
func (m *MockLayoutProvider) Analyze(ctx context.Context, req *LayoutRequest) (*LayoutResult, error) {
	m.analyzeCount.Add(1)
	start := time.Now()

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.AnalyzeErr != nil {
		return nil, m.AnalyzeErr
	}

	return &LayoutResult{
		Structure:     m.Structure,
		Images:        m.Images,
		ModelUsed:     MockLayoutName,
		ExecutionTime: time.Since(start),
	}, nil
}

// PingCount returns how many times Ping was called.
func (m *MockLayoutProvider) PingCount() int64 {
	return m.pingCount.Load()
}

// AnalyzeCount returns how many times Analyze was called.
func (m *MockLayoutProvider) AnalyzeCount() int64 {
	return m.analyzeCount.Load()
}

// Verify interface
var _ LayoutProvider = (*MockLayoutProvider)(nil)
