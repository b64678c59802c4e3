package suggest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablecraft/storyagent/core"
)

func TestForTopicCharacterUnbound(t *testing.T) {
	got := ForTopic(core.TopicCharacter, false)
	require.NotEmpty(t, got)

	var hasSelectEntity bool
	for _, s := range got {
		assert.Equal(t, core.TopicCharacter, s.Topic)
		if s.BeFunction == "select_character" {
			hasSelectEntity = true
		}
	}
	assert.True(t, hasSelectEntity, "unbound character topic should synthesize select_character")
}

func TestForTopicCatalogueSelectDoesNotSuppressSynthesized(t *testing.T) {
	got := ForTopic(core.TopicCharacter, false)

	var catalogueSelect, synthesized bool
	for _, s := range got {
		switch s.BeFunction {
		case "character_select":
			catalogueSelect = true
		case "select_character":
			synthesized = true
		}
	}
	assert.True(t, catalogueSelect, "catalogue select entry should survive")
	assert.True(t, synthesized, "frontend select entry must not replace select_character")
}

func TestFromCatalogue(t *testing.T) {
	catalogue := []core.Suggestion{
		{Feature: "Create character", BeFunction: "character_create", Topic: core.TopicCharacter},
		{Feature: "Create faction", BeFunction: "faction_create", Topic: core.TopicFaction},
	}

	got := FromCatalogue(catalogue, core.TopicCharacter, false)
	require.Len(t, got, 2)
	assert.Equal(t, "character_create", got[0].BeFunction)
	assert.Equal(t, "select_character", got[1].BeFunction)

	// An existing synthesized-form entry is not duplicated.
	catalogue = append(catalogue, core.Suggestion{BeFunction: "select_character", Topic: core.TopicCharacter})
	got = FromCatalogue(catalogue, core.TopicCharacter, false)
	require.Len(t, got, 2)
}

func TestForTopicCharacterBound(t *testing.T) {
	got := ForTopic(core.TopicCharacter, true)
	require.NotEmpty(t, got)
	for _, s := range got {
		assert.NotEqual(t, "select_character", s.BeFunction)
	}
}

func TestForTopicFaction(t *testing.T) {
	got := ForTopic(core.TopicFaction, false)
	require.NotEmpty(t, got)
	for _, s := range got {
		// Factions do not require a bound entity, so nothing is synthesized.
		assert.NotContains(t, s.BeFunction, "select_")
	}
}

func TestForTopicUnknown(t *testing.T) {
	assert.Empty(t, ForTopic("weather", false))
}

func TestFallback(t *testing.T) {
	got := Fallback(core.TopicStory, false)
	require.Len(t, got, 1)
	assert.Equal(t, "select_story", got[0].BeFunction)
	assert.Equal(t, "sidebar.stories", got[0].FeNavigation)

	assert.Empty(t, Fallback(core.TopicStory, true))
	assert.Empty(t, Fallback(core.TopicGeneral, false))
}

func TestPromptSection(t *testing.T) {
	candidates := ForTopic(core.TopicCharacter, false)
	prompt := PromptSection(core.TopicCharacter, candidates, false)

	assert.Contains(t, prompt, "Potential Suggestions:")
	assert.Contains(t, prompt, "select_character")
	assert.Contains(t, prompt, "'initiator' condition")
}

func TestPromptSectionNoCandidates(t *testing.T) {
	prompt := PromptSection(core.TopicCharacter, nil, false)
	assert.Contains(t, prompt, "You MUST include the following suggestion")

	prompt = PromptSection(core.TopicGeneral, nil, true)
	assert.Contains(t, prompt, "No specific suggestions available")
}

func TestLoadStripsComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suggestions.json")
	body := `[
  // catalogue entry
  {
    "feature": "Select character",
    "use_case": "Select a character",
    "message": "Pick one",
    "be_function": "character_select",
    "topic": "character"
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "character_select", got[0].BeFunction)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
