// Package suggest maintains the catalogue of follow-up actions offered to the
// user after each turn. The catalogue is static per topic; a "select entity"
// suggestion is synthesized whenever the topic needs an entity id that the
// session has not bound yet. The final responder hands the candidates to the
// model, which keeps only those whose initiator condition matches the
// conversation.
package suggest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fablecraft/storyagent/core"
)

// Initial returns the suggestions offered before any topic is established.
func Initial() []core.Suggestion {
	return []core.Suggestion{
		{
			Feature:      "Develop character",
			UseCase:      "Build the character look, personality, and the way it behaves and speaks.",
			Initiator:    "User wonders what they can do in the project.",
			Message:      "Let's develop a character together.",
			BeFunction:   "initial_character",
			FeNavigation: "center.char.list",
			Topic:        "initial",
		},
		{
			Feature:      "Write a story",
			UseCase:      "Build the story, its plot, and dialog lines.",
			Initiator:    "User wonders what they can do in the project.",
			Message:      "Let's outline the story.",
			BeFunction:   "initial_story",
			FeNavigation: "center.story",
			Topic:        "initial",
		},
	}
}

// Catalogue returns the full built-in suggestion set.
func Catalogue() []core.Suggestion {
	return []core.Suggestion{
		{
			Feature:      "Select character",
			UseCase:      "Select a character to gather more details about.",
			Initiator:    "User requires information about a character and we need to specify it to gather more details. Always suggest if the character is not specified.",
			Message:      "Character ID specified in the request params.",
			BeFunction:   "character_select",
			FeNavigation: "center.char.list",
			Topic:        core.TopicCharacter,
			Doublecheck:  true,
		},
		{
			Feature:      "Create character",
			UseCase:      "Create a new character in the project.",
			Initiator:    "User asks to create a new character, or mentions a character name not known to the project.",
			Message:      "Character name and type specified in the request params.",
			BeFunction:   "character_create",
			FeNavigation: "center.char.list",
			Topic:        core.TopicCharacter,
			Doublecheck:  true,
		},
		{
			Feature:      "Rename character",
			UseCase:      "Change the name of an existing character in the project.",
			Initiator:    "User asks to rename a character.",
			Message:      "Character name specified in the request params.",
			BeFunction:   "character_rename",
			FeNavigation: "center.char.list",
			Topic:        core.TopicCharacter,
			Doublecheck:  true,
		},
		{
			Feature:      "Edit character trait",
			UseCase:      "Add a detailed description about the character.",
			Initiator:    "User wants to add or edit a character trait covering behavior, humor, speech, or knowledge.",
			Message:      "Section and description specified in the request params.",
			BeFunction:   "trait_add",
			FeNavigation: "center.char.about",
			Topic:        core.TopicCharacter,
			Doublecheck:  true,
		},
		{
			Feature:      "Add relationship",
			UseCase:      "Create a relationship between two characters.",
			Initiator:    "User asks to create a relationship between two characters.",
			Message:      "Character ID and relationship type specified in the request params.",
			BeFunction:   "relationship_add",
			FeNavigation: "center.char.rel",
			Topic:        core.TopicCharacter,
			Doublecheck:  true,
		},
		{
			Feature:      "Describe an act",
			UseCase:      "Create or expand an act description.",
			Initiator:    "User works on the story structure and an act lacks a description.",
			Message:      "Act name and description specified in the request params.",
			BeFunction:   "act_edit",
			FeNavigation: "center.story",
			Topic:        core.TopicStory,
			Doublecheck:  true,
		},
		{
			Feature:      "Add a story beat",
			UseCase:      "Add a beat to the project's story outline.",
			Initiator:    "User asks to add a plot point or beat to the story.",
			Message:      "Beat name and description specified in the request params.",
			BeFunction:   "beat_create",
			FeNavigation: "center.story",
			Topic:        core.TopicStory,
			Doublecheck:  true,
		},
		{
			Feature:      "Create faction",
			UseCase:      "Create a new faction in the project.",
			Initiator:    "User asks to create a faction or mentions a group not known to the project.",
			Message:      "Faction name specified in the request params.",
			BeFunction:   "faction_create",
			FeNavigation: "center.factions",
			Topic:        core.TopicFaction,
			Doublecheck:  true,
		},
	}
}

// Load reads a suggestion catalogue from a JSON file, line comments stripped.
// Returns an error for anything other than a well-formed list.
func Load(path string) ([]core.Suggestion, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suggestions: %w", err)
	}

	var kept []string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}
		kept = append(kept, line)
	}

	var suggestions []core.Suggestion
	if err := json.Unmarshal([]byte(strings.Join(kept, "\n")), &suggestions); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}
	return suggestions, nil
}

// topicsNeedingEntity lists topics whose suggestions assume a bound entity id.
var topicsNeedingEntity = map[string]bool{
	core.TopicCharacter: true,
	core.TopicStory:     true,
}

// ForTopic returns the candidate suggestions for a topic from the built-in
// catalogue. When the topic expects an entity id and none is bound, the
// synthesized select suggestion is appended unless already present.
func ForTopic(topic string, entityBound bool) []core.Suggestion {
	return FromCatalogue(Catalogue(), topic, entityBound)
}

// FromCatalogue filters a catalogue down to one topic, appending the
// synthesized select suggestion for unbound entity topics.
func FromCatalogue(catalogue []core.Suggestion, topic string, entityBound bool) []core.Suggestion {
	topic = strings.ToLower(topic)

	var out []core.Suggestion
	for _, s := range catalogue {
		if strings.EqualFold(s.Topic, topic) {
			out = append(out, s)
		}
	}

	if topicsNeedingEntity[topic] && !entityBound && !hasSelect(out, topic) {
		out = append(out, SelectEntity(topic))
	}
	return out
}

// hasSelect reports whether the synthesized select function is already in the
// list. Catalogue entries like "character_select" route the selection through
// the frontend and do not replace it.
func hasSelect(suggestions []core.Suggestion, topic string) bool {
	for _, s := range suggestions {
		if s.BeFunction == "select_"+topic {
			return true
		}
	}
	return false
}

// SelectEntity synthesizes the "select <entity>" suggestion for a topic.
func SelectEntity(entityType string) core.Suggestion {
	entityType = strings.ToLower(entityType)

	nav := "sidebar.main"
	switch entityType {
	case core.TopicCharacter:
		nav = "sidebar.characters"
	case core.TopicStory:
		nav = "sidebar.stories"
	}

	return core.Suggestion{
		Feature:      "Select " + entityType,
		UseCase:      fmt.Sprintf("Select a %s to work with", entityType),
		Initiator:    fmt.Sprintf("Always suggest when the user discusses a %s without a specific %s selected", entityType, entityType),
		Message:      fmt.Sprintf("Please select a %s to work with", entityType),
		BeFunction:   "select_" + entityType,
		FeNavigation: nav,
		Topic:        entityType,
	}
}

// Fallback returns the suggestions attached to a canned apology when the final
// model call fails. Empty when the topic has no required selection pending.
func Fallback(topic string, entityBound bool) []core.Suggestion {
	topic = strings.ToLower(topic)
	if topicsNeedingEntity[topic] && !entityBound {
		return []core.Suggestion{SelectEntity(topic)}
	}
	return nil
}

// PromptSection renders the suggestion portion of the final responder prompt.
func PromptSection(topic string, candidates []core.Suggestion, entityBound bool) string {
	topic = strings.ToLower(topic)

	if len(candidates) > 0 {
		listing, err := json.MarshalIndent(candidates, "", "  ")
		if err != nil {
			return ""
		}
		return fmt.Sprintf("\n\nConsider the following potential suggestions for the user (topic: %s). "+
			"Evaluate if any are relevant based on their 'initiator' condition and the current conversation context. "+
			"Include relevant ones in the 'suggestions' list in your JSON output. Only include suggestions if their initiator condition is met by the current context.\n"+
			"You MUST include multiple suggestions in the list if they are all relevant to the conversation.\n"+
			"If the conversation is about %s but no specific %s ID is set, ALWAYS include the 'select_%s' suggestion.\n\n"+
			"Potential Suggestions:\n%s", topic, topic, topic, topic, listing)
	}

	if topicsNeedingEntity[topic] && !entityBound {
		listing, err := json.MarshalIndent([]core.Suggestion{SelectEntity(topic)}, "", "  ")
		if err != nil {
			return ""
		}
		return fmt.Sprintf("\n\nYou MUST include the following suggestion in your response:\n%s", listing)
	}
	return "\n\nNo specific suggestions available for this topic."
}
