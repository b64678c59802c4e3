// Package core provides the foundational domain types and interfaces used by
// storyagent. It defines the core abstractions for:
//
//   - Messages (tagged conversational records with tool-call linkage)
//   - SessionState (the per-session checkpoint unit: history, intent,
//     confirmation status, correlation identifiers)
//   - Pluggable SessionStore backends for checkpoint persistence
//   - The structured ChatResponse / Suggestion reply surface
//
// The package intentionally keeps implementation concerns (model providers,
// database access, orchestration) out of scope, exposing small interfaces to
// enable custom backends and extensions.
package core
