package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablecraft/storyagent/core"
)

func opCall(id, function string) core.ToolCall {
	return core.ToolCall{
		ID:        id,
		Name:      "execute_operation",
		Arguments: map[string]any{"function_name": function},
	}
}

func TestEnsureToolCallIntegrityAddsMissingResponses(t *testing.T) {
	msgs := []core.Message{
		core.NewHumanMessage("look up Malak"),
		core.NewAIToolCallMessage("", core.ToolCall{ID: "t_1", Name: "character_lookup"}),
	}

	out := EnsureToolCallIntegrity(msgs, nil)
	require.Len(t, out, 3)

	last := out[2]
	assert.Equal(t, core.RoleTool, last.Role)
	assert.Equal(t, "t_1", last.ToolCallID)
	assert.Equal(t, "No response was provided for character_lookup call", last.Content)
}

func TestEnsureToolCallIntegrityNoChangeWhenComplete(t *testing.T) {
	msgs := []core.Message{
		core.NewHumanMessage("look up Malak"),
		core.NewAIToolCallMessage("", core.ToolCall{ID: "t_1", Name: "character_lookup"}),
		core.NewToolMessage("Character Details...", "t_1"),
		core.NewAIMessage("Malak is a brooding major character."),
	}

	out := EnsureToolCallIntegrity(msgs, nil)
	assert.Equal(t, msgs, out)
}

func TestEnsureToolCallIntegrityMultipleOrphans(t *testing.T) {
	msgs := []core.Message{
		core.NewHumanMessage("do things"),
		core.NewAIToolCallMessage("",
			core.ToolCall{ID: "t_1", Name: "story_lookup"},
			core.ToolCall{ID: "t_2", Name: "beat_lookup"},
		),
	}

	out := EnsureToolCallIntegrity(msgs, nil)
	require.Len(t, out, 4)
	assert.Equal(t, "t_1", out[2].ToolCallID)
	assert.Equal(t, "t_2", out[3].ToolCallID)
}

func errorLoopHistory() []core.Message {
	msgs := []core.Message{
		core.NewSystemMessage("You are a story assistant."),
		core.NewHumanMessage("create the scene"),
	}
	for i := 0; i < 3; i++ {
		id := core.NewToolCallID()
		msgs = append(msgs,
			core.NewAIToolCallMessage("", opCall(id, "scene_create")),
			core.NewToolMessage("Error: Failed to execute 'scene_create' due to a database issue.", id),
		)
	}
	return msgs
}

func TestTruncateFailureLoopOnRepeatedErrors(t *testing.T) {
	msgs := errorLoopHistory()
	require.Len(t, msgs, 8)

	out := TruncateFailureLoop(msgs, DefaultConfig())

	// 8 - 2*3 = 2: system + human survive.
	require.Len(t, out, 2)
	assert.Equal(t, core.RoleSystem, out[0].Role)
	assert.Equal(t, core.RoleHuman, out[1].Role)
}

func TestTruncateFailureLoopRepeatedOperation(t *testing.T) {
	id1, id2 := core.NewToolCallID(), core.NewToolCallID()
	msgs := []core.Message{
		core.NewSystemMessage("You are a story assistant."),
		core.NewHumanMessage("rename him"),
		core.NewAIToolCallMessage("", opCall(id1, "character_rename")),
		core.NewToolMessage("Renamed character to 'Mira'.", id1),
		core.NewAIToolCallMessage("", opCall(id2, "character_rename")),
		core.NewToolMessage("Error: Cannot rename character without a character ID.", id2),
	}

	out := TruncateFailureLoop(msgs, DefaultConfig())
	assert.Less(t, len(out), len(msgs))
}

func TestTruncateFailureLoopNoTriggerOnSuccess(t *testing.T) {
	id := core.NewToolCallID()
	msgs := []core.Message{
		core.NewSystemMessage("You are a story assistant."),
		core.NewHumanMessage("create Malak"),
		core.NewAIToolCallMessage("", opCall(id, "character_create")),
		core.NewToolMessage("Added new character 'Malak' to the project.", id),
		core.NewAIMessage("Done! Malak has joined the story."),
	}

	out := TruncateFailureLoop(msgs, DefaultConfig())
	assert.Equal(t, msgs, out)
}

func TestTruncateFailureLoopShortHistoryUntouched(t *testing.T) {
	msgs := []core.Message{
		core.NewHumanMessage("hi"),
		core.NewAIMessage("hello"),
	}
	out := TruncateFailureLoop(msgs, DefaultConfig())
	assert.Equal(t, msgs, out)
}

func TestTruncateFailureLoopDropsTrailingToolCallMessage(t *testing.T) {
	// Arrange the history so the cut lands directly after an AI message with
	// pending tool calls.
	idA, idB := core.NewToolCallID(), core.NewToolCallID()
	msgs := []core.Message{
		core.NewSystemMessage("sys"),
		core.NewHumanMessage("add the beat"),
		core.NewAIToolCallMessage("", opCall(idA, "beat_create")),
		core.NewToolMessage("Added new beat 'Opening' to the project.", idA),
		core.NewAIToolCallMessage("", opCall(idB, "beat_create")),
	}
	for i := 0; i < 3; i++ {
		id := core.NewToolCallID()
		msgs = append(msgs,
			core.NewAIToolCallMessage("", opCall(id, "beat_create")),
			core.NewToolMessage("Error: Failed to execute 'beat_create' due to a database issue.", id),
		)
	}

	// len 11, cut 5: the boundary message is the AI call without a response.
	out := TruncateFailureLoop(msgs, DefaultConfig())
	require.Len(t, out, 4)
	assert.False(t, out[len(out)-1].IsAIWithToolCalls())
}

func TestTruncateNeverEmpty(t *testing.T) {
	var msgs []core.Message
	for i := 0; i < 4; i++ {
		id := core.NewToolCallID()
		msgs = append(msgs,
			core.NewAIToolCallMessage("", opCall(id, "act_edit")),
			core.NewToolMessage("Error: Failed to execute 'act_edit' due to a database issue.", id),
		)
	}

	out := TruncateFailureLoop(msgs, DefaultConfig())
	assert.NotEmpty(t, out)
}
