package tools

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/executor"
	"github.com/fablecraft/storyagent/store"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *store.Store, *store.Project) {
	t.Helper()
	s, err := store.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)

	p := &store.Project{Name: "Shadowfall", Overview: "A city of rival guilds."}
	require.NoError(t, s.CreateProject(p))

	return NewDispatcher(s, executor.NewRegistry(s)), s, p
}

func TestCharacterLookupByExtractedName(t *testing.T) {
	d, s, p := newTestDispatcher(t)

	c := &store.Character{ProjectID: p.ID, Name: "Malak", Type: "major"}
	require.NoError(t, s.CreateCharacter(c))

	res := d.Execute(core.ToolCall{ID: "t_1", Name: "character_lookup", Arguments: map[string]any{}},
		Context{ProjectID: p.ID, ExtractedNames: []string{"Malak"}})

	assert.Contains(t, res.Content, "Character Details for 'Malak'")
	assert.Contains(t, res.Content, "Traits: None defined.")
	assert.False(t, res.Mutated)
}

func TestCharacterLookupWithoutIdentity(t *testing.T) {
	d, _, p := newTestDispatcher(t)

	res := d.Execute(core.ToolCall{ID: "t_1", Name: "character_lookup", Arguments: map[string]any{}},
		Context{ProjectID: p.ID})
	assert.Equal(t, "Error: Character lookup requires either character_id or character_name.", res.Content)
}

func TestStoryLookup(t *testing.T) {
	d, s, p := newTestDispatcher(t)
	require.NoError(t, s.CreateAct(&store.Act{ProjectID: p.ID, Name: "Opening", Order: 1, Description: "The city wakes."}))

	res := d.Execute(core.ToolCall{ID: "t_1", Name: "story_lookup"}, Context{ProjectID: p.ID})
	assert.Contains(t, res.Content, "Story Context for Project 'Shadowfall'")
	assert.Contains(t, res.Content, "Act 1 (Opening): The city wakes.")
}

func TestGapAnalysisCharacter(t *testing.T) {
	d, s, p := newTestDispatcher(t)

	c := &store.Character{ProjectID: p.ID, Name: "Malak", Type: "major"}
	require.NoError(t, s.CreateCharacter(c))
	require.NoError(t, s.CreateTrait(&store.CharacterTrait{CharacterID: c.ID, Type: "humor", Description: "Dry."}))

	res := d.Execute(core.ToolCall{ID: "t_1", Name: "gap_analysis", Arguments: map[string]any{"topic": "character"}},
		Context{ProjectID: p.ID, CharacterID: &c.ID})

	assert.Contains(t, res.Content, "missing the following important traits")
	assert.Contains(t, res.Content, "Knowledge trait")
	assert.NotContains(t, res.Content, "- Humor trait")
}

func TestGapAnalysisStory(t *testing.T) {
	d, s, p := newTestDispatcher(t)
	require.NoError(t, s.CreateAct(&store.Act{ProjectID: p.ID, Name: "Opening", Order: 1}))

	res := d.Execute(core.ToolCall{ID: "t_1", Name: "gap_analysis", Arguments: map[string]any{"topic": "story"}},
		Context{ProjectID: p.ID})
	assert.Contains(t, res.Content, "The following acts need descriptions")
	assert.Contains(t, res.Content, "Act 1: Opening")
}

func TestExecuteOperationDispatch(t *testing.T) {
	d, s, p := newTestDispatcher(t)

	res := d.Execute(core.ToolCall{
		ID:   "t_1",
		Name: "execute_operation",
		Arguments: map[string]any{
			"function_name": "character_create",
			"params":        map[string]any{"target_char_name": "Mira"},
		},
	}, Context{ProjectID: p.ID})

	assert.Equal(t, "Added new character 'Mira' to the project.", res.Content)
	assert.True(t, res.Mutated)
	assert.Equal(t, "character_create", res.Operation)

	_, err := s.CharacterByName(p.ID, "Mira")
	assert.NoError(t, err)
}

func TestExecuteOperationUnknownFunction(t *testing.T) {
	d, _, p := newTestDispatcher(t)

	res := d.Execute(core.ToolCall{
		ID:        "t_1",
		Name:      "execute_operation",
		Arguments: map[string]any{"function_name": "teleport"},
	}, Context{ProjectID: p.ID})

	assert.Equal(t, "Error: Backend function 'teleport' is not implemented.", res.Content)
	assert.False(t, res.Mutated)
}

func TestUnknownTool(t *testing.T) {
	d, _, p := newTestDispatcher(t)

	res := d.Execute(core.ToolCall{ID: "t_1", Name: "mystery"}, Context{ProjectID: p.ID})
	assert.Equal(t, "Error: Unknown tool 'mystery' called.", res.Content)
}

func TestDefinitionsCoverClosedSet(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 6)
	for _, def := range defs {
		_, ok := KindForName(def.Function.Name)
		assert.True(t, ok, def.Function.Name)
	}
}
