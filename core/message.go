package core

import (
	"github.com/google/uuid"
)

// Role identifies the author of a conversational message.
type Role string

const (
	// RoleSystem is an instruction message injected by the orchestrator.
	RoleSystem Role = "system"
	// RoleHuman is a message authored by the end user.
	RoleHuman Role = "user"
	// RoleAI is a message authored by the model, optionally carrying tool calls.
	RoleAI Role = "assistant"
	// RoleTool is the recorded result of a single tool call.
	RoleTool Role = "tool"
)

// ToolCall is a model-issued request to invoke a named capability.
//
// Contract: every ToolCall emitted into a session history must receive exactly
// one RoleTool message with a matching ToolCallID before the next AI message is
// generated from the same context. The guard package enforces this invariant
// for histories that violate it.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry in a session's conversation history. The Role field
// selects the active variant: ToolCalls is only meaningful on AI messages and
// ToolCallID only on Tool messages.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// NewSystemMessage creates a system instruction message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewHumanMessage creates a user-authored text message.
func NewHumanMessage(text string) Message {
	return Message{Role: RoleHuman, Content: text}
}

// NewAIMessage creates a plain assistant text message.
func NewAIMessage(text string) Message {
	return Message{Role: RoleAI, Content: text}
}

// NewAIToolCallMessage creates an assistant message requesting one or more
// tool invocations.
func NewAIToolCallMessage(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAI, Content: text, ToolCalls: calls}
}

// NewToolMessage records the result of a previously emitted tool call.
func NewToolMessage(content, toolCallID string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// NewToolCallID generates a unique identifier for a tool call.
func NewToolCallID() string { return "t_" + uuid.NewString() }

// IsAIWithToolCalls reports whether the message is an assistant message
// carrying at least one pending tool call.
func (m Message) IsAIWithToolCalls() bool {
	return m.Role == RoleAI && len(m.ToolCalls) > 0
}

// Clone returns a deep copy of the message safe for independent mutation.
func (m Message) Clone() Message {
	c := m
	if len(m.ToolCalls) > 0 {
		c.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			c.ToolCalls[i] = tc.Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the tool call including its argument map.
func (tc ToolCall) Clone() ToolCall {
	c := tc
	if tc.Arguments != nil {
		c.Arguments = make(map[string]any, len(tc.Arguments))
		for k, v := range tc.Arguments {
			c.Arguments[k] = v
		}
	}
	return c
}
