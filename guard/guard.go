// Package guard protects session histories before they reach the model. The
// integrity guard repairs orphaned tool calls so the provider API never sees a
// call without a response; the recovery guard detects error loops and
// truncates the history so the agent can escape them.
package guard

import (
	"fmt"
	"strings"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/logging"
)

// Config tunes the recovery guard.
type Config struct {
	// Window is how many trailing messages are scanned for error patterns.
	Window int
	// MaxRetries is the error count that triggers truncation, and sizes the
	// number of message pairs removed.
	MaxRetries int
	// OperationToolName is the tool whose repeated calls indicate a loop.
	OperationToolName string

	Logger logging.Logger
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		Window:            10,
		MaxRetries:        3,
		OperationToolName: "execute_operation",
		Logger:            logging.NoOpLogger{},
	}
}

// EnsureToolCallIntegrity appends synthetic tool responses for any tool call
// that never received one. The synthetic body tells the model the call went
// unanswered so it can retry or move on.
func EnsureToolCallIntegrity(messages []core.Message, logger logging.Logger) []core.Message {
	if len(messages) == 0 {
		return messages
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	pending := map[string]string{} // call id -> tool name
	var order []string

	for _, msg := range messages {
		switch {
		case msg.IsAIWithToolCalls():
			for _, tc := range msg.ToolCalls {
				if tc.ID == "" {
					continue
				}
				if _, dup := pending[tc.ID]; !dup {
					order = append(order, tc.ID)
				}
				pending[tc.ID] = tc.Name
			}
		case msg.Role == core.RoleTool && msg.ToolCallID != "":
			delete(pending, msg.ToolCallID)
		}
	}

	if len(pending) == 0 {
		return messages
	}

	out := make([]core.Message, len(messages), len(messages)+len(pending))
	copy(out, messages)
	for _, id := range order {
		name, ok := pending[id]
		if !ok {
			continue
		}
		if name == "" {
			name = "unknown_tool"
		}
		logger.Warn("adding missing tool response", "tool_call_id", id, "tool", name)
		out = append(out, core.NewToolMessage(
			fmt.Sprintf("No response was provided for %s call", name), id,
		))
	}
	return out
}

// isErrorMarked reports whether a tool result looks like a failure.
func isErrorMarked(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "error") || strings.Contains(lower, "failed")
}

// TruncateFailureLoop drops the trailing portion of a history stuck in an
// error loop. Triggers:
//
//  1. the same operation was requested in the two most recent operation tool
//     calls and the result following the latest one is error-marked, or
//  2. at least MaxRetries error-marked tool results appear within the window.
//
// On trigger the history is cut to len-2*MaxRetries messages (floor 2), a
// trailing AI message with unanswered tool calls is dropped, and at least one
// message always survives.
func TruncateFailureLoop(messages []core.Message, cfg Config) []core.Message {
	if len(messages) < 4 {
		return messages
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NoOpLogger{}
	}

	windowStart := len(messages) - cfg.Window
	if windowStart < 0 {
		windowStart = 0
	}

	errorCount := 0
	var recentOps []string // most recent first
	for i := len(messages) - 1; i >= windowStart; i-- {
		msg := messages[i]
		if msg.Role == core.RoleTool && isErrorMarked(msg.Content) {
			errorCount++
		}
		if msg.IsAIWithToolCalls() {
			for _, tc := range msg.ToolCalls {
				if tc.Name != cfg.OperationToolName {
					continue
				}
				if name, ok := tc.Arguments["function_name"].(string); ok && name != "" {
					recentOps = append(recentOps, name)
				}
			}
		}
	}

	triggered := false
	if len(recentOps) >= 2 && recentOps[0] == recentOps[1] && latestOperationErrored(messages, cfg.OperationToolName, recentOps[0]) {
		cfg.Logger.Warn("repeated operation with recent error detected", "operation", recentOps[0])
		triggered = true
	}
	if errorCount >= cfg.MaxRetries {
		cfg.Logger.Warn("repeated tool errors detected", "count", errorCount)
		triggered = true
	}
	if !triggered {
		return messages
	}

	cut := len(messages) - cfg.MaxRetries*2
	if cut < 2 {
		cut = 2
	}
	if cut >= len(messages) {
		return messages
	}

	cfg.Logger.Warn("truncating history to recover from error loop", "from", len(messages), "to", cut)
	truncated := messages[:cut]

	// Never end on an AI message with unanswered tool calls.
	if len(truncated) > 0 && truncated[len(truncated)-1].IsAIWithToolCalls() {
		truncated = truncated[:len(truncated)-1]
	}
	if len(truncated) == 0 {
		return messages[:1]
	}
	return truncated
}

// latestOperationErrored finds the most recent AI message requesting the named
// operation and reports whether the tool result that follows it is
// error-marked.
func latestOperationErrored(messages []core.Message, toolName, operation string) bool {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if !msg.IsAIWithToolCalls() {
			continue
		}
		match := false
		for _, tc := range msg.ToolCalls {
			if tc.Name == toolName {
				if name, ok := tc.Arguments["function_name"].(string); ok && name == operation {
					match = true
					break
				}
			}
		}
		if !match {
			continue
		}
		if i+1 < len(messages) {
			next := messages[i+1]
			if next.Role == core.RoleTool && next.ToolCallID == msg.ToolCalls[0].ID && isErrorMarked(next.Content) {
				return true
			}
		}
		return false
	}
	return false
}
