// Package tools implements the closed set of capabilities exposed to the
// model during a turn: read-only database lookups plus a single generic
// execute_operation entry point that dispatches into the executor registry.
// Every tool returns result text; failures are "Error: ..." strings the model
// can read, never Go errors.
package tools

import (
	"github.com/fablecraft/storyagent/internal/util"
	"github.com/fablecraft/storyagent/model"
)

// Kind enumerates the tools the model may call. The set is closed: dispatch
// is an exhaustive switch and unknown names produce an error result.
type Kind int

const (
	// KindCharacterLookup retrieves a character with traits and faction.
	KindCharacterLookup Kind = iota
	// KindStoryLookup retrieves the project overview and its acts.
	KindStoryLookup
	// KindBeatLookup retrieves story beats with completion status.
	KindBeatLookup
	// KindSceneLookup retrieves a single scene.
	KindSceneLookup
	// KindGapAnalysis reports missing traits or act descriptions.
	KindGapAnalysis
	// KindExecuteOperation dispatches a database operation through the
	// executor registry.
	KindExecuteOperation
)

const (
	nameCharacterLookup  = "character_lookup"
	nameStoryLookup      = "story_lookup"
	nameBeatLookup       = "beat_lookup"
	nameSceneLookup      = "scene_lookup"
	nameGapAnalysis      = "gap_analysis"
	nameExecuteOperation = "execute_operation"
)

// String returns the wire name of the tool.
func (k Kind) String() string {
	switch k {
	case KindCharacterLookup:
		return nameCharacterLookup
	case KindStoryLookup:
		return nameStoryLookup
	case KindBeatLookup:
		return nameBeatLookup
	case KindSceneLookup:
		return nameSceneLookup
	case KindGapAnalysis:
		return nameGapAnalysis
	case KindExecuteOperation:
		return nameExecuteOperation
	default:
		return "unknown"
	}
}

// KindForName resolves a wire name back to its Kind.
func KindForName(name string) (Kind, bool) {
	switch name {
	case nameCharacterLookup:
		return KindCharacterLookup, true
	case nameStoryLookup:
		return KindStoryLookup, true
	case nameBeatLookup:
		return KindBeatLookup, true
	case nameSceneLookup:
		return KindSceneLookup, true
	case nameGapAnalysis:
		return KindGapAnalysis, true
	case nameExecuteOperation:
		return KindExecuteOperation, true
	default:
		return 0, false
	}
}

// CharacterLookupArgs identify a character by id or name. With neither set the
// dispatcher falls back to the session's bound character or extracted names.
type CharacterLookupArgs struct {
	CharacterName string `json:"character_name,omitempty" description:"The name of the character to look up. Use if character_id is not known."`
	CharacterID   string `json:"character_id,omitempty" description:"The specific UUID of the character."`
}

// SceneLookupArgs identify a scene by id.
type SceneLookupArgs struct {
	SceneID string `json:"scene_id" description:"The ID of the scene to look up."`
}

// GapAnalysisArgs select what to analyze for gaps.
type GapAnalysisArgs struct {
	Topic string `json:"topic" description:"What to analyze: 'character' or 'story'."`
}

// ExecuteOperationArgs name a database operation and its parameters.
type ExecuteOperationArgs struct {
	FunctionName string         `json:"function_name" description:"The backend operation to execute."`
	Params       map[string]any `json:"params,omitempty" description:"Parameters for the operation."`
}

type emptyArgs struct{}

// Definitions returns the tool declarations handed to the model.
func Definitions() []model.ToolDefinition {
	return []model.ToolDefinition{
		model.NewToolDefinition(nameCharacterLookup,
			"Retrieves details for a specific character within the project, including traits and faction.",
			util.CreateSchema(CharacterLookupArgs{})),
		model.NewToolDefinition(nameStoryLookup,
			"Retrieves the project overview and act descriptions.",
			util.CreateSchema(emptyArgs{})),
		model.NewToolDefinition(nameBeatLookup,
			"Retrieves the story beats (objectives) and their completion status.",
			util.CreateSchema(emptyArgs{})),
		model.NewToolDefinition(nameSceneLookup,
			"Retrieves the details of a specific scene.",
			util.CreateSchema(SceneLookupArgs{})),
		model.NewToolDefinition(nameGapAnalysis,
			"Analyzes the current character or story structure for gaps worth improving.",
			util.CreateSchema(GapAnalysisArgs{})),
		model.NewToolDefinition(nameExecuteOperation,
			"Executes a database operation such as creating characters, acts, beats, scenes or factions.",
			util.CreateSchema(ExecuteOperationArgs{})),
	}
}
