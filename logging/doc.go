// Package logging provides a minimal logging interface and adapters for
// storyagent.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the orchestrator, guards and executors use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping go.uber.org/zap for production deployments
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - TurnLogger with contextual helpers for sessions, tool calls and
//     model calls
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
