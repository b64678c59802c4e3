// Package intent classifies user messages into database operations and
// extracts candidate entity names. Detection is a structured model call with a
// confidence threshold; low-confidence or absent intents fall through to
// general conversation.
package intent

import (
	"strings"
)

// Operation names recognized by the classifier. These are the only values the
// executor registry accepts.
const (
	OpCharacterCreate = "character_create"
	OpCharacterRename = "character_rename"
	OpTraitAdd        = "trait_add"
	OpRelationshipAdd = "relationship_add"
	OpFactionCreate   = "faction_create"
	OpFactionRename   = "faction_rename"
	OpActCreate       = "act_create"
	OpActEdit         = "act_edit"
	OpBeatCreate      = "beat_create"
	OpBeatEdit        = "beat_edit"
	OpSceneCreate     = "scene_create"
)

// Operations returns every operation name the assistant supports.
func Operations() []string {
	return []string{
		OpCharacterCreate,
		OpCharacterRename,
		OpTraitAdd,
		OpRelationshipAdd,
		OpFactionCreate,
		OpFactionRename,
		OpActCreate,
		OpActEdit,
		OpBeatCreate,
		OpBeatEdit,
		OpSceneCreate,
	}
}

// IsOperation reports whether name is a recognized operation.
func IsOperation(name string) bool {
	for _, op := range Operations() {
		if op == name {
			return true
		}
	}
	return false
}

const (
	characterOperations = `- character_create: Creates a new character (extract: target_char_name for the character's name, type if available - if not, use default value 'major')
- character_rename: Renames a character (extract: existing character reference, new name as target_char_name)
- trait_add: Adds a trait to a character (extract: trait type, trait description)
- relationship_add: Creates a relationship (extract: both character references, relationship type, description)
`

	storyOperations = `- act_create: Creates a new act (extract: act name, description)
- act_edit: Edits an existing act (extract: act reference, new description)
- beat_create: Creates a new beat (extract: beat name, description)
- beat_edit: Edits a beat (extract: beat reference, new description)
- scene_create: Creates a new scene (extract: scene_name, description). If description not provided, create engaging scene description based on the message context. If not act provided, use Act 1.
`

	factionOperations = `- faction_create: Creates a new faction (extract: faction name, description)
- faction_rename: Renames a faction (extract: faction reference, new name)
`
)

// operationsForTopic returns the operation listing shown to the classifier for
// a topic. The general topic sees everything.
func operationsForTopic(topic string) string {
	switch strings.ToLower(topic) {
	case "character":
		return characterOperations
	case "story":
		return storyOperations
	case "faction":
		return factionOperations
	default:
		return characterOperations + storyOperations + factionOperations
	}
}
