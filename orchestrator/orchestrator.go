// Package orchestrator wires the classifier, executor registry, tool
// dispatcher, guards and suggestion synthesizer into a deterministic per-turn
// state machine. ProcessTurn is the single entry point: it loads the session
// checkpoint, routes the message through confirmation handling, intent
// processing or general conversation, and always returns a structured
// ChatResponse.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/executor"
	"github.com/fablecraft/storyagent/guard"
	"github.com/fablecraft/storyagent/intent"
	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/model"
	"github.com/fablecraft/storyagent/refine"
	"github.com/fablecraft/storyagent/store"
	"github.com/fablecraft/storyagent/suggest"
	"github.com/fablecraft/storyagent/tools"
)

// DefaultMaxModelCalls bounds tool-augmented model calls within one turn.
const DefaultMaxModelCalls = 8

// Options configure the orchestrator.
type Options struct {
	// ConfidenceThreshold gates intent detection.
	ConfidenceThreshold float64
	// MaxModelCalls caps tool-loop model calls per turn.
	MaxModelCalls int
	// Guard tunes the history recovery guard.
	Guard guard.Config
	// Suggestions replaces the built-in catalogue, e.g. one loaded from a
	// file via suggest.Load. Nil keeps suggest.Catalogue().
	Suggestions []core.Suggestion

	Logger logging.Logger
}

// TurnRequest is one inbound user turn.
type TurnRequest struct {
	UserID         string
	ConversationID string

	ProjectID   uuid.UUID
	CharacterID *uuid.UUID
	ActID       *uuid.UUID

	// TopicHint seeds the session topic on first contact ("character",
	// "story", "faction"); unknown values fall back to general.
	TopicHint string

	Message string

	// BeFunction is set when the turn originates from a suggestion click; the
	// named operation is executed before the agent sees the message.
	BeFunction     string
	FunctionParams map[string]any
}

// Orchestrator processes turns for independent sessions. Turns for the same
// session key must be serialized by the caller.
type Orchestrator struct {
	model      model.Model
	store      *store.Store
	sessions   core.SessionStore
	registry   *executor.Registry
	dispatcher *tools.Dispatcher
	detector   *intent.Detector
	refiner    *refine.Refiner
	catalogue  []core.Suggestion
	opts       Options
}

// New builds an orchestrator over a model, domain store and session store.
func New(m model.Model, s *store.Store, sessions core.SessionStore, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		ConfidenceThreshold: intent.DefaultConfidenceThreshold,
		MaxModelCalls:       DefaultMaxModelCalls,
		Guard:               guard.DefaultConfig(),
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Guard.Logger == nil {
		opts.Guard.Logger = opts.Logger
	}

	registry := executor.NewRegistry(s, func(o *executor.Options) { o.Logger = opts.Logger })

	catalogue := opts.Suggestions
	if catalogue == nil {
		catalogue = suggest.Catalogue()
	}

	return &Orchestrator{
		model:      m,
		store:      s,
		sessions:   sessions,
		registry:   registry,
		dispatcher: tools.NewDispatcher(s, registry, func(o *tools.Options) { o.Logger = opts.Logger }),
		detector: intent.NewDetector(m, func(o *intent.Options) {
			o.ConfidenceThreshold = opts.ConfidenceThreshold
			o.Logger = opts.Logger
		}),
		refiner:   refine.NewRefiner(m, func(o *refine.Options) { o.Logger = opts.Logger }),
		catalogue: catalogue,
		opts:      opts,
	}
}

// ProcessTurn runs one user turn to completion and returns the structured
// reply. Only infrastructure failures (session store) surface as errors; model
// and executor failures degrade to an apologetic response.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) (*core.ChatResponse, error) {
	key := core.SessionKey(req.UserID, req.ConversationID)
	log := logging.NewTurnLogger(o.opts.Logger).WithSession(key).WithProject(req.ProjectID.String())

	state, err := o.sessions.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", key, err)
	}
	if state == nil {
		state = core.NewSessionState(req.ProjectID)
		switch req.TopicHint {
		case core.TopicCharacter, core.TopicStory, core.TopicFaction:
			state.Topic = req.TopicHint
		}
		state.AppendMessage(core.NewSystemMessage(topicSystemPrompt(state.Topic, req.ProjectID)))
	}

	if req.CharacterID != nil {
		state.CharacterID = req.CharacterID
	}
	if req.ActID != nil {
		state.ActID = req.ActID
	}

	// Turn-scoped flags start clean.
	state.BeFunction = ""
	state.DBUpdated = false
	state.FinalResponse = nil

	input := req.Message
	if req.BeFunction != "" {
		result := o.executeSuggestionClick(req, state, log)
		input = fmt.Sprintf("[Action Result: %s]\n\nUser message: %s", result, req.Message)
	}
	state.AppendMessage(core.NewHumanMessage(input))

	if state.AwaitingConfirmation {
		o.handleConfirmation(ctx, state, req.Message, log)
	} else {
		o.processMessage(ctx, state, req.Message, log)
	}

	if err := o.sessions.Save(ctx, key, state); err != nil {
		return nil, fmt.Errorf("save session %q: %w", key, err)
	}

	resp := o.finalize(ctx, state, log)

	state.FinalResponse = &resp
	state.AppendMessage(core.NewAIMessage(resp.Response))
	if err := o.sessions.Save(ctx, key, state); err != nil {
		return nil, fmt.Errorf("save session %q: %w", key, err)
	}

	return &resp, nil
}

// executeSuggestionClick runs the operation behind a clicked suggestion before
// the agent sees the message and reports the outcome as text.
func (o *Orchestrator) executeSuggestionClick(req TurnRequest, state *core.SessionState, log *logging.TurnLogger) string {
	log.Info("executing suggestion function", "function", req.BeFunction)

	if !o.registry.Has(req.BeFunction) {
		return fmt.Sprintf("Error: Backend function '%s' is not implemented.", req.BeFunction)
	}

	result, mutated := o.registry.Execute(req.BeFunction, o.env(state), req.FunctionParams)
	state.BeFunction = req.BeFunction
	if mutated {
		state.DBUpdated = true
	}
	return result
}

// processMessage classifies the message and routes to parameter collection,
// intent processing or general conversation.
func (o *Orchestrator) processMessage(ctx context.Context, state *core.SessionState, message string, log *logging.TurnLogger) {
	detection := o.detector.Detect(ctx, message, state.Topic)

	if state.Topic == core.TopicGeneral {
		switch detection.DetectedTopic {
		case core.TopicCharacter, core.TopicStory, core.TopicFaction:
			log.Info("topic detected for general session", "topic", detection.DetectedTopic)
			state.Topic = detection.DetectedTopic
		}
	}

	if state.Topic == core.TopicCharacter && state.CharacterID == nil {
		for _, name := range intent.ExtractNames(message) {
			if !containsString(state.ExtractedNames, name) {
				state.ExtractedNames = append(state.ExtractedNames, name)
			}
		}
	}

	if detection.Operation == "" || !o.registry.Has(detection.Operation) {
		state.ClearIntent()
		o.runToolLoop(ctx, state, log)
		return
	}

	state.OperationIntent = detection.Operation
	state.OperationParams = detection.Params
	state.MissingParams = detection.MissingParams

	if len(detection.MissingParams) > 0 {
		o.collectParameters(state, log)
		return
	}
	o.processIntent(ctx, state, message, log)
}

// collectParameters asks the user for the parameters the classifier could not
// extract. Intent state stays in the session for the next turn.
func (o *Orchestrator) collectParameters(state *core.SessionState, log *logging.TurnLogger) {
	missing := strings.Join(state.MissingParams, ", ")
	log.Info("collecting missing parameters",
		"operation", state.OperationIntent, "missing", missing)

	state.AppendMessage(core.NewAIMessage(fmt.Sprintf(
		"To proceed with '%s', I need some more information: %s. Could you please provide it?",
		state.OperationIntent, missing)))
}

// processIntent refines the collected parameters and either asks for
// confirmation or emits the operation tool call immediately.
func (o *Orchestrator) processIntent(ctx context.Context, state *core.SessionState, message string, log *logging.TurnLogger) {
	operation := state.OperationIntent
	params := o.refiner.Refine(ctx, operation, message, state.OperationParams)
	state.ClearIntent()

	if o.registry.RequiresConfirmation(operation) {
		state.Pending = &core.PendingOperation{Operation: operation, Params: params}
		state.AwaitingConfirmation = true
		question := confirmationQuestion(operation, params)
		log.Info("asking for confirmation", "operation", operation)
		state.AppendMessage(core.NewAIMessage(question))
		return
	}

	log.Info("executing operation without confirmation", "operation", operation)
	state.AppendMessage(core.NewAIToolCallMessage(
		fmt.Sprintf("Okay, I'll proceed with %s.", operation),
		operationToolCall(operation, params),
	))
	o.runToolLoop(ctx, state, log)
}

func (o *Orchestrator) env(state *core.SessionState) executor.Env {
	return executor.Env{
		ProjectID:   state.ProjectID,
		CharacterID: state.CharacterID,
		ActID:       state.ActID,
	}
}

// operationToolCall wraps an operation into an execute_operation tool call.
func operationToolCall(operation string, params map[string]any) core.ToolCall {
	return core.ToolCall{
		ID:   core.NewToolCallID(),
		Name: "execute_operation",
		Arguments: map[string]any{
			"function_name": operation,
			"params":        params,
		},
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
