package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fablecraft/storyagent/core"
)

// MockModel is a lightweight scripted Model for tests. Responses are consumed
// in FIFO order per call kind; an empty queue yields a deterministic echo so
// unscripted calls never fail a test silently.
type MockModel struct {
	mu sync.Mutex

	info          Info
	completions   []string
	toolResponses []core.Message
	jsonResponses []any

	// Calls records every invocation for assertions.
	Calls []string
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel() *MockModel {
	return &MockModel{
		info: Info{Name: "mock", Provider: "mock", SupportsTools: true},
	}
}

// QueueCompletion schedules the next Complete reply.
func (m *MockModel) QueueCompletion(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, text)
	return m
}

// QueueToolResponse schedules the next GenerateWithTools reply.
func (m *MockModel) QueueToolResponse(msg core.Message) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolResponses = append(m.toolResponses, msg)
	return m
}

// QueueJSON schedules the next GenerateJSON reply; v is serialized into the
// caller's out value.
func (m *MockModel) QueueJSON(v any) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jsonResponses = append(m.jsonResponses, v)
	return m
}

// Complete implements Model.
func (m *MockModel) Complete(_ context.Context, msgs []core.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "complete")

	if len(m.completions) > 0 {
		out := m.completions[0]
		m.completions = m.completions[1:]
		return out, nil
	}
	return "Mock response to: " + lastText(msgs), nil
}

// GenerateWithTools implements Model.
func (m *MockModel) GenerateWithTools(_ context.Context, msgs []core.Message, _ []ToolDefinition) (core.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "tools")

	if len(m.toolResponses) > 0 {
		out := m.toolResponses[0]
		m.toolResponses = m.toolResponses[1:]
		return out, nil
	}
	return core.NewAIMessage("Mock response to: " + lastText(msgs)), nil
}

// GenerateJSON implements Model.
func (m *MockModel) GenerateJSON(_ context.Context, _ []core.Message, _ map[string]any, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "json")

	if len(m.jsonResponses) == 0 {
		return fmt.Errorf("mock model: no JSON response queued")
	}
	v := m.jsonResponses[0]
	m.jsonResponses = m.jsonResponses[1:]

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

func lastText(msgs []core.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Content != "" {
			return msgs[i].Content
		}
	}
	return ""
}
