package orchestrator

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/model"
	"github.com/fablecraft/storyagent/session"
	"github.com/fablecraft/storyagent/store"
	"github.com/fablecraft/storyagent/suggest"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *model.MockModel, *session.InMemoryStore, *store.Store, *store.Project) {
	t.Helper()

	s, err := store.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)

	p := &store.Project{Name: "Shadowfall", Overview: "A city of rival guilds."}
	require.NoError(t, s.CreateProject(p))

	m := model.NewMockModel()
	sessions := session.NewInMemoryStore()
	return New(m, s, sessions), m, sessions, s, p
}

func TestProcessTurnCharacterCreate(t *testing.T) {
	o, m, _, s, p := newTestOrchestrator(t)

	m.QueueJSON(map[string]any{
		"operation":  "character_create",
		"confidence": 0.92,
		"parameters": map[string]any{"target_char_name": "Zara"},
	})
	m.QueueJSON(core.ChatResponse{Response: "Zara has joined the story.", Suggestions: []core.Suggestion{}})

	resp, err := o.ProcessTurn(context.Background(), TurnRequest{
		UserID:    "u1",
		ProjectID: p.ID,
		TopicHint: core.TopicCharacter,
		Message:   "Create a character named Zara",
	})
	require.NoError(t, err)

	assert.Equal(t, "Zara has joined the story.", resp.Response)
	assert.True(t, resp.DBUpdated)
	assert.Equal(t, "character_create", resp.BeFunction)

	_, err = s.CharacterByName(p.ID, "Zara")
	assert.NoError(t, err)
}

func TestProcessTurnParameterCollection(t *testing.T) {
	o, m, sessions, _, p := newTestOrchestrator(t)
	ctx := context.Background()

	m.QueueJSON(map[string]any{
		"operation":    "scene_create",
		"confidence":   0.9,
		"parameters":   map[string]any{"scene_name": "Dark Alley"},
		"missing_info": []string{"scene_description"},
	})
	m.QueueJSON(core.ChatResponse{Response: "What should happen in the scene?", Suggestions: []core.Suggestion{}})

	resp, err := o.ProcessTurn(ctx, TurnRequest{
		UserID:    "u1",
		ProjectID: p.ID,
		TopicHint: core.TopicStory,
		Message:   "Create a scene called Dark Alley",
	})
	require.NoError(t, err)
	assert.False(t, resp.DBUpdated)

	// Intent and partial params persist into the next turn.
	state, err := sessions.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "scene_create", state.OperationIntent)
	assert.Equal(t, "Dark Alley", state.OperationParams["scene_name"])
	assert.Equal(t, []string{"scene_description"}, state.MissingParams)
	assert.False(t, state.AwaitingConfirmation)

	// Next turn supplies the description; scene_create requires confirmation.
	m.QueueJSON(map[string]any{
		"operation":  "scene_create",
		"confidence": 0.9,
		"parameters": map[string]any{
			"scene_name":        "Dark Alley",
			"scene_description": "The hero gets ambushed by masked figures.",
		},
	})

	resp, err = o.ProcessTurn(ctx, TurnRequest{
		UserID:    "u1",
		ProjectID: p.ID,
		Message:   "The hero gets ambushed by masked figures.",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Response, "Does that sound right?")
	assert.Contains(t, resp.Response, "Dark Alley")
	assert.Empty(t, resp.BeFunction)
	assert.False(t, resp.DBUpdated)

	state, err = sessions.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.AwaitingConfirmation)
	require.NotNil(t, state.Pending)
	assert.Equal(t, "scene_create", state.Pending.Operation)
}

func TestProcessTurnConfirmationFlow(t *testing.T) {
	o, m, sessions, s, p := newTestOrchestrator(t)
	ctx := context.Background()

	// Turn 1: fully parameterized scene_create asks for confirmation.
	m.QueueJSON(map[string]any{
		"operation":  "scene_create",
		"confidence": 0.95,
		"parameters": map[string]any{
			"scene_name":        "Dark Alley",
			"scene_description": "An ambush at midnight.",
		},
	})
	resp, err := o.ProcessTurn(ctx, TurnRequest{
		UserID:    "u1",
		ProjectID: p.ID,
		TopicHint: core.TopicStory,
		Message:   "Create the Dark Alley scene where an ambush happens at midnight",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "Does that sound right?")

	// Turn 2: the user modifies the scene name; confirmation is re-asked.
	m.QueueJSON(map[string]any{
		"decision": "modify",
		"changes":  map[string]any{"scene_name": "Market Square"},
	})
	resp, err = o.ProcessTurn(ctx, TurnRequest{
		UserID:    "u1",
		ProjectID: p.ID,
		Message:   "change the name to Market Square",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Response, "Market Square")
	assert.Contains(t, resp.Response, "Does this look correct now?")

	state, err := sessions.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.AwaitingConfirmation)
	require.NotNil(t, state.Pending)
	assert.Equal(t, "Market Square", state.Pending.Params["scene_name"])

	// Turn 3: the user confirms; the operation executes and state clears.
	m.QueueJSON(map[string]any{"decision": "yes"})
	m.QueueJSON(core.ChatResponse{Response: "Scene created!", Suggestions: []core.Suggestion{}})
	resp, err = o.ProcessTurn(ctx, TurnRequest{
		UserID:    "u1",
		ProjectID: p.ID,
		Message:   "yes",
	})
	require.NoError(t, err)

	assert.Equal(t, "Scene created!", resp.Response)
	assert.True(t, resp.DBUpdated)
	assert.Equal(t, "scene_create", resp.BeFunction)

	state, err = sessions.Load(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.AwaitingConfirmation)
	assert.Nil(t, state.Pending)

	var count int64
	require.NoError(t, s.DB().Model(&store.Scene{}).Where("project_id = ?", p.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProcessTurnConfirmationCancel(t *testing.T) {
	o, m, sessions, s, p := newTestOrchestrator(t)
	ctx := context.Background()

	m.QueueJSON(map[string]any{
		"operation":  "scene_create",
		"confidence": 0.95,
		"parameters": map[string]any{"scene_name": "Dark Alley", "scene_description": "An ambush."},
	})
	_, err := o.ProcessTurn(ctx, TurnRequest{
		UserID: "u1", ProjectID: p.ID, TopicHint: core.TopicStory,
		Message: "Create the Dark Alley scene",
	})
	require.NoError(t, err)

	m.QueueJSON(map[string]any{"decision": "no"})
	m.QueueJSON(core.ChatResponse{Response: "No problem, cancelled.", Suggestions: []core.Suggestion{}})
	resp, err := o.ProcessTurn(ctx, TurnRequest{
		UserID: "u1", ProjectID: p.ID, Message: "actually no",
	})
	require.NoError(t, err)
	assert.False(t, resp.DBUpdated)

	state, err := sessions.Load(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, state.AwaitingConfirmation)
	assert.Nil(t, state.Pending)

	// No scene was ever created.
	var count int64
	require.NoError(t, s.DB().Model(&store.Scene{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcessTurnRecoversFromErrorLoop(t *testing.T) {
	o, m, sessions, _, p := newTestOrchestrator(t)
	ctx := context.Background()

	// No operation detected; the general loop drives tool calls.
	m.QueueJSON(map[string]any{})

	failingCall := func() core.ToolCall {
		return core.ToolCall{
			ID:   core.NewToolCallID(),
			Name: "execute_operation",
			Arguments: map[string]any{
				"function_name": "summon_dragon",
				"params":        map[string]any{},
			},
		}
	}
	m.QueueToolResponse(core.NewAIToolCallMessage("", failingCall()))
	m.QueueToolResponse(core.NewAIToolCallMessage("", failingCall()))
	m.QueueToolResponse(core.NewAIMessage("I couldn't do that, but here's what we can try instead."))
	m.QueueJSON(core.ChatResponse{Response: "Let's try something else.", Suggestions: []core.Suggestion{}})

	resp, err := o.ProcessTurn(ctx, TurnRequest{
		UserID: "u1", ProjectID: p.ID, TopicHint: core.TopicStory,
		Message: "summon a dragon",
	})
	require.NoError(t, err)
	assert.Equal(t, "Let's try something else.", resp.Response)

	// The failure loop was truncated out of the persisted history.
	state, err := sessions.Load(ctx, "u1")
	require.NoError(t, err)
	for _, msg := range state.Messages {
		assert.NotEqual(t, core.RoleTool, msg.Role)
	}
}

func TestProcessTurnSuggestionClick(t *testing.T) {
	o, m, sessions, s, p := newTestOrchestrator(t)
	ctx := context.Background()

	m.QueueJSON(map[string]any{})
	m.QueueJSON(core.ChatResponse{Response: "Rook is ready for adventure.", Suggestions: []core.Suggestion{}})

	resp, err := o.ProcessTurn(ctx, TurnRequest{
		UserID:         "u1",
		ProjectID:      p.ID,
		TopicHint:      core.TopicCharacter,
		Message:        "Add Rook please",
		BeFunction:     "character_create",
		FunctionParams: map[string]any{"target_char_name": "Rook"},
	})
	require.NoError(t, err)

	assert.True(t, resp.DBUpdated)
	assert.Equal(t, "character_create", resp.BeFunction)

	_, err = s.CharacterByName(p.ID, "Rook")
	assert.NoError(t, err)

	// The agent saw the action result prefixed to the user message.
	state, err := sessions.Load(ctx, "u1")
	require.NoError(t, err)
	var humanContent string
	for _, msg := range state.Messages {
		if msg.Role == core.RoleHuman {
			humanContent = msg.Content
			break
		}
	}
	assert.Contains(t, humanContent, "[Action Result: Added new character 'Rook' to the project.]")
	assert.Contains(t, humanContent, "Add Rook please")
}

func TestProcessTurnNameExtraction(t *testing.T) {
	o, m, sessions, _, p := newTestOrchestrator(t)
	ctx := context.Background()

	m.QueueJSON(map[string]any{})
	m.QueueJSON(core.ChatResponse{Response: "Tell me more about Malak.", Suggestions: []core.Suggestion{}})

	_, err := o.ProcessTurn(ctx, TurnRequest{
		UserID: "u1", ProjectID: p.ID, TopicHint: core.TopicCharacter,
		Message: "Tell me about the character named Malak",
	})
	require.NoError(t, err)

	state, err := sessions.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, state.ExtractedNames, "Malak")
}

func TestProcessTurnTopicDetection(t *testing.T) {
	o, m, sessions, _, p := newTestOrchestrator(t)
	ctx := context.Background()

	m.QueueJSON(map[string]any{"detected_topic": "character"})
	m.QueueJSON(core.ChatResponse{Response: "Let's talk characters.", Suggestions: []core.Suggestion{}})

	_, err := o.ProcessTurn(ctx, TurnRequest{
		UserID: "u1", ProjectID: p.ID,
		Message: "I want to flesh out my protagonist",
	})
	require.NoError(t, err)

	state, err := sessions.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, core.TopicCharacter, state.Topic)
}

type logEntry struct {
	msg  string
	args []any
}

// recordLogger captures entries for assertions on log context.
type recordLogger struct {
	entries []logEntry
}

func (l *recordLogger) Debug(msg string, args ...any) { l.entries = append(l.entries, logEntry{msg, args}) }
func (l *recordLogger) Info(msg string, args ...any)  { l.entries = append(l.entries, logEntry{msg, args}) }
func (l *recordLogger) Warn(msg string, args ...any)  { l.entries = append(l.entries, logEntry{msg, args}) }
func (l *recordLogger) Error(msg string, args ...any) { l.entries = append(l.entries, logEntry{msg, args}) }

func (l *recordLogger) has(msg, key string, value any) bool {
	for _, e := range l.entries {
		if e.msg != msg {
			continue
		}
		for i := 0; i+1 < len(e.args); i += 2 {
			if e.args[i] == key && e.args[i+1] == value {
				return true
			}
		}
	}
	return false
}

func TestProcessTurnLogsSessionContext(t *testing.T) {
	s, err := store.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	p := &store.Project{Name: "Shadowfall"}
	require.NoError(t, s.CreateProject(p))

	m := model.NewMockModel()
	rec := &recordLogger{}
	o := New(m, s, session.NewInMemoryStore(), func(opt *Options) { opt.Logger = rec })

	m.QueueJSON(map[string]any{
		"operation":  "character_create",
		"confidence": 0.92,
		"parameters": map[string]any{"target_char_name": "Zara"},
	})
	m.QueueJSON(core.ChatResponse{Response: "Zara has joined the story.", Suggestions: []core.Suggestion{}})

	_, err = o.ProcessTurn(context.Background(), TurnRequest{
		UserID:         "u9",
		ConversationID: "c1",
		ProjectID:      p.ID,
		TopicHint:      core.TopicCharacter,
		Message:        "Create a character named Zara",
	})
	require.NoError(t, err)

	assert.True(t, rec.has("executing operation without confirmation", "session_id", "u9:c1"),
		"turn logs should carry the session key")
	assert.True(t, rec.has("tool call completed", "tool", "execute_operation"),
		"dispatched tool calls should be logged with their duration")
	assert.True(t, rec.has("model call completed", "session_id", "u9:c1"),
		"model call latency should be logged with the session key")
}

func TestNewCustomSuggestionCatalogue(t *testing.T) {
	_, m, sessions, s, _ := newTestOrchestrator(t)

	custom := []core.Suggestion{
		{Feature: "Plan a heist", BeFunction: "beat_create", Topic: core.TopicStory},
	}
	o := New(m, s, sessions, func(opt *Options) { opt.Suggestions = custom })
	assert.Equal(t, custom, o.catalogue)

	o = New(m, s, sessions)
	assert.Equal(t, suggest.Catalogue(), o.catalogue)
}
