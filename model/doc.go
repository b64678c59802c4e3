// Package model defines the call surface the orchestrator uses to drive
// language models: plain completion, tool-augmented generation, and
// schema-constrained JSON generation. Provider adapters live in the openai
// and anthropic subpackages; MockModel provides scripted doubles for tests.
package model
