package orchestrator

import (
	"context"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/logging"
)

// confirmationDecision mirrors the JSON shape of the constrained
// interpretation call.
type confirmationDecision struct {
	Decision  string         `json:"decision"`
	Changes   map[string]any `json:"changes"`
	Reasoning string         `json:"reasoning"`
}

func confirmationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"decision": map[string]any{
				"type":        "string",
				"description": "User's decision: 'yes', 'no', or 'modify'.",
			},
			"changes": map[string]any{
				"type":        "object",
				"description": "If decision is 'modify', the parameters to change and their new values.",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "Brief reasoning for the decision or a message to relay if modification is complex.",
			},
		},
		"required": []string{"decision"},
	}
}

// handleConfirmation interprets the user's reply to a pending confirmation.
//
// Transitions: yes emits the operation tool call and clears the pending
// state; no cancels and clears; modify with changes merges them and re-asks;
// modify without changes, an unknown decision, or an interpretation failure
// all keep the session awaiting confirmation.
func (o *Orchestrator) handleConfirmation(ctx context.Context, state *core.SessionState, userResponse string, log *logging.TurnLogger) {
	pending := state.Pending
	if pending == nil {
		log.Error("confirmation state without pending operation")
		state.ClearPending()
		state.AppendMessage(core.NewAIMessage(
			"I seem to have lost track of what we were confirming. Could you please clarify?"))
		return
	}

	log.Info("interpreting confirmation reply", "operation", pending.Operation)

	var decision confirmationDecision
	err := o.model.GenerateJSON(ctx,
		[]core.Message{
			core.NewSystemMessage(confirmationInterpretationPrompt(pending, userResponse)),
			core.NewHumanMessage(userResponse),
		},
		confirmationSchema(),
		&decision,
	)
	if err != nil {
		log.Error("confirmation interpretation failed", "error", err)
		state.AppendMessage(core.NewAIMessage(
			"I had trouble understanding your response. Could you please clarify if you'd like to proceed, cancel, or change something?"))
		return
	}

	switch decision.Decision {
	case "yes":
		log.Info("user confirmed operation", "operation", pending.Operation)
		operation, params := pending.Operation, pending.Params
		state.ClearPending()
		state.ClearIntent()
		state.AppendMessage(core.NewAIToolCallMessage(
			"Alright, I will perform the action: "+operation+".",
			operationToolCall(operation, params),
		))
		o.runToolLoop(ctx, state, log)

	case "no":
		log.Info("user cancelled operation", "operation", pending.Operation)
		state.ClearPending()
		state.ClearIntent()
		text := decision.Reasoning
		if text == "" {
			text = "Okay, I've cancelled the operation."
		}
		state.AppendMessage(core.NewAIMessage(text))

	case "modify":
		if len(decision.Changes) > 0 {
			updated := make(map[string]any, len(pending.Params)+len(decision.Changes))
			for k, v := range pending.Params {
				updated[k] = v
			}
			for k, v := range decision.Changes {
				updated[k] = v
			}
			state.Pending = &core.PendingOperation{Operation: pending.Operation, Params: updated}
			log.Info("re-confirming with modified parameters", "operation", pending.Operation)
			state.AppendMessage(core.NewAIMessage(reconfirmationQuestion(pending.Operation, updated)))
			return
		}

		text := decision.Reasoning
		if text == "" {
			text = "I see you might want to change something regarding " + pending.Operation +
				". Could you please specify what you'd like to adjust?"
		}
		log.Info("modification unclear, asking for clarification", "operation", pending.Operation)
		state.AppendMessage(core.NewAIMessage(text))

	default:
		log.Warn("unexpected confirmation decision", "decision", decision.Decision)
		state.AppendMessage(core.NewAIMessage(
			"I'm a bit confused by the response regarding "+pending.Operation+
				". Could you please clarify if you want to proceed, cancel, or change details?"))
	}
}
