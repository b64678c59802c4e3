package logging

import (
	"time"
)

// TurnLogger decorates a Logger with session identifiers and convenience
// helpers for the events every turn produces. It is cheap to copy via the
// With* methods.
type TurnLogger struct {
	base      Logger
	sessionID string
	projectID string
}

// NewTurnLogger wraps base; a nil base falls back to NoOpLogger.
func NewTurnLogger(base Logger) *TurnLogger {
	if base == nil {
		base = NoOpLogger{}
	}
	return &TurnLogger{base: base}
}

// WithSession attaches the session key to every entry.
func (t *TurnLogger) WithSession(sessionID string) *TurnLogger {
	nl := *t
	nl.sessionID = sessionID
	return &nl
}

// WithProject attaches the project identifier to every entry.
func (t *TurnLogger) WithProject(projectID string) *TurnLogger {
	nl := *t
	nl.projectID = projectID
	return &nl
}

func (t *TurnLogger) attrs(args []any) []any {
	out := make([]any, 0, len(args)+4)
	if t.sessionID != "" {
		out = append(out, "session_id", t.sessionID)
	}
	if t.projectID != "" {
		out = append(out, "project_id", t.projectID)
	}
	return append(out, args...)
}

// Debug logs at debug level with the session context attached.
func (t *TurnLogger) Debug(msg string, args ...any) { t.base.Debug(msg, t.attrs(args)...) }

// Info logs at info level with the session context attached.
func (t *TurnLogger) Info(msg string, args ...any) { t.base.Info(msg, t.attrs(args)...) }

// Warn logs at warn level with the session context attached.
func (t *TurnLogger) Warn(msg string, args ...any) { t.base.Warn(msg, t.attrs(args)...) }

// Error logs at error level with the session context attached.
func (t *TurnLogger) Error(msg string, args ...any) { t.base.Error(msg, t.attrs(args)...) }

// LogToolCall records a dispatched tool call and whether its result was
// error-marked.
func (t *TurnLogger) LogToolCall(tool string, dur time.Duration, errored bool) {
	if errored {
		t.Warn("tool call returned error result", "tool", tool, "duration", dur)
		return
	}
	t.Debug("tool call completed", "tool", tool, "duration", dur)
}

// LogModelCall records model call latency and outcome.
func (t *TurnLogger) LogModelCall(model string, dur time.Duration, err error) {
	if err != nil {
		t.Error("model call failed", "model", model, "duration", dur, "error", err)
		return
	}
	t.Info("model call completed", "model", model, "duration", dur)
}
