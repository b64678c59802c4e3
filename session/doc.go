// Package session houses concrete implementations of core.SessionStore. The
// interface lives in core so higher level packages depend on the contract, not
// on a storage backend; only the wiring layer decides which implementation to
// instantiate. InMemoryStore serves tests and ephemeral demo servers, RedisStore
// serves production checkpointing.
package session
