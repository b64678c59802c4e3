package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/guard"
	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/tools"
)

// runToolLoop alternates between dispatching requested tool calls and
// tool-augmented model calls until the model produces plain text. Termination
// is guaranteed by the per-turn call budget on top of both history guards.
func (o *Orchestrator) runToolLoop(ctx context.Context, state *core.SessionState, log *logging.TurnLogger) {
	limiter := core.NewModelLimiter(o.opts.MaxModelCalls)

	for {
		if last, ok := state.LastMessage(); ok && last.IsAIWithToolCalls() {
			o.dispatchToolCalls(state, last, log)
			// A dispatched operation supersedes any pending confirmation.
			state.ClearPending()
		}

		state.Messages = guard.EnsureToolCallIntegrity(state.Messages, log)
		state.Messages = guard.TruncateFailureLoop(state.Messages, o.guardConfig(log))

		if err := limiter.Increment(); err != nil {
			log.Warn("model call budget exhausted", "calls", limiter.Count())
			return
		}

		start := time.Now()
		resp, err := o.model.GenerateWithTools(ctx, o.promptMessages(state), tools.Definitions())
		log.LogModelCall(o.model.Info().Name, time.Since(start), err)
		if err != nil {
			return
		}
		state.AppendMessage(resp)

		if !resp.IsAIWithToolCalls() {
			return
		}
	}
}

// dispatchToolCalls answers every tool call of msg with exactly one Tool
// message, updating the turn's BeFunction/DBUpdated flags for operations.
func (o *Orchestrator) dispatchToolCalls(state *core.SessionState, msg core.Message, log *logging.TurnLogger) {
	tctx := tools.Context{
		ProjectID:      state.ProjectID,
		CharacterID:    state.CharacterID,
		ActID:          state.ActID,
		ExtractedNames: state.ExtractedNames,
		Topic:          state.Topic,
	}

	for _, call := range msg.ToolCalls {
		start := time.Now()
		res := o.dispatcher.Execute(call, tctx)
		log.LogToolCall(call.Name, time.Since(start),
			strings.Contains(strings.ToLower(res.Content), "error"))
		state.AppendMessage(core.NewToolMessage(res.Content, call.ID))

		if res.Operation != "" {
			state.BeFunction = res.Operation
		}
		if res.Mutated {
			state.DBUpdated = true
		}
	}
}

// guardConfig attaches the turn-scoped logger to the recovery guard config.
func (o *Orchestrator) guardConfig(log *logging.TurnLogger) guard.Config {
	cfg := o.opts.Guard
	cfg.Logger = log
	return cfg
}

// promptMessages assembles the invocation history for a tool-augmented call.
// Steering prompts are injected per call and never persisted: the recovery
// instruction when the trailing tool result is an error, the general system
// prompt otherwise.
func (o *Orchestrator) promptMessages(state *core.SessionState) []core.Message {
	msgs := append([]core.Message(nil), state.Messages...)

	if last, ok := state.LastMessage(); ok && last.Role == core.RoleTool {
		if strings.Contains(strings.ToLower(last.Content), "error") {
			msgs = append(msgs, core.NewSystemMessage(recoverySystemPrompt))
		}
		return msgs
	}

	if len(msgs) > 0 && msgs[len(msgs)-1].Role == core.RoleHuman {
		out := make([]core.Message, 0, len(msgs)+1)
		out = append(out, msgs[:len(msgs)-1]...)
		out = append(out, core.NewSystemMessage(generalSystemPrompt), msgs[len(msgs)-1])
		return out
	}
	return append(msgs, core.NewSystemMessage(generalSystemPrompt))
}
