package orchestrator

import (
	"context"
	"fmt"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/guard"
	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/suggest"
)

// fallbackResponse is the canned apology when the structured final call fails.
const fallbackResponse = "I encountered an issue while formulating my response. Please try again."

func suggestionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"feature":       map[string]any{"type": "string"},
			"use_case":      map[string]any{"type": "string"},
			"initiator":     map[string]any{"type": "string"},
			"message":       map[string]any{"type": "string"},
			"be_function":   map[string]any{"type": "string"},
			"fe_navigation": map[string]any{"type": "string"},
			"topic":         map[string]any{"type": "string"},
			"doublecheck":   map[string]any{"type": "boolean"},
		},
		"required": []string{"feature", "use_case", "message"},
	}
}

func chatResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response": map[string]any{
				"type":        "string",
				"description": "The natural-language reply shown to the user.",
			},
			"suggestions": map[string]any{
				"type":        "array",
				"description": "Contextually relevant suggestions selected from the provided candidates.",
				"items":       suggestionSchema(),
			},
		},
		"required": []string{"response", "suggestions"},
	}
}

// finalize produces the structured ChatResponse for the completed turn. The
// history is guarded first; the model writes the reply text and picks the
// relevant suggestions. While awaiting confirmation the reply text is pinned
// to the confirmation question and the turn flags are suppressed.
func (o *Orchestrator) finalize(ctx context.Context, state *core.SessionState, log *logging.TurnLogger) core.ChatResponse {
	state.Messages = guard.EnsureToolCallIntegrity(state.Messages, log)
	state.Messages = guard.TruncateFailureLoop(state.Messages, o.guardConfig(log))

	topic := state.Topic
	entityBound := o.entityBound(state)

	var candidates []core.Suggestion
	if topic == core.TopicGeneral {
		candidates = suggest.Initial()
	} else {
		candidates = suggest.FromCatalogue(o.catalogue, topic, entityBound)
	}

	confirmText := ""
	var prompt []core.Message

	if state.AwaitingConfirmation {
		if last, ok := state.LastMessage(); ok && last.Role == core.RoleAI {
			confirmText = last.Content
		}
		pendingOp := "unknown operation"
		pendingParams := any("unknown")
		if state.Pending != nil {
			pendingOp = state.Pending.Operation
			pendingParams = state.Pending.Params
		}
		prompt = append(prompt, core.NewSystemMessage(fmt.Sprintf(
			"You are an assistant. The user is currently being asked for confirmation about an action. "+
				"Your primary goal is to provide helpful next-step suggestions. "+
				"The main response text is already determined. "+
				"Focus on generating relevant suggestions based on the pending action and conversation. "+
				"The pending action is: %s with parameters %v. "+
				"The user is being asked: %s", pendingOp, pendingParams, confirmText)))

		tail := state.Messages
		if len(tail) > 3 {
			tail = tail[len(tail)-3:]
		}
		prompt = append(prompt, tail...)
	} else {
		prompt = append(prompt, state.Messages...)
	}

	prompt = append(prompt, core.NewSystemMessage(suggest.PromptSection(topic, candidates, entityBound)))

	var resp core.ChatResponse
	if err := o.model.GenerateJSON(ctx, prompt, chatResponseSchema(), &resp); err != nil {
		log.Error("structured final response failed", "error", err)
		resp = core.ChatResponse{
			Response:    fallbackResponse,
			Suggestions: suggest.Fallback(topic, entityBound),
		}
	}

	if state.AwaitingConfirmation {
		if confirmText != "" {
			resp.Response = confirmText
		}
		resp.BeFunction = ""
		resp.DBUpdated = false
	} else {
		resp.BeFunction = state.BeFunction
		resp.DBUpdated = state.DBUpdated
	}

	if resp.Suggestions == nil {
		resp.Suggestions = []core.Suggestion{}
	}
	return resp
}

// entityBound reports whether the entity the current topic revolves around is
// already bound to the session.
func (o *Orchestrator) entityBound(state *core.SessionState) bool {
	switch state.Topic {
	case core.TopicCharacter:
		return state.CharacterID != nil
	case core.TopicStory:
		return state.ActID != nil
	default:
		return true
	}
}
