package orchestrator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fablecraft/storyagent/core"
)

// generalSystemPrompt steers the tool-augmented model call. Injected once per
// invocation, never persisted into the session history.
const generalSystemPrompt = `While responding to the user, consider if their request implies a need to modify data in the system.
If their message suggests creating, updating, or managing characters, factions, story elements, etc.,
use the appropriate tool to perform that operation.
Available tools include: character_lookup, story_lookup, beat_lookup, scene_lookup, gap_analysis, execute_operation.
If you determine a database operation is needed (create, update, delete), first confirm with the user before calling the execute_operation tool, unless the operation is a simple lookup.`

// recoverySystemPrompt is appended when the trailing tool result is an error,
// steering the model away from repeating the same failing call.
const recoverySystemPrompt = `The previous operation resulted in an error. Please:
1. Acknowledge the error in your response
2. Explain what might have gone wrong in simple terms
3. Suggest an alternative approach or ask for more information
4. Do NOT attempt the exact same operation again without changes`

// topicSystemPrompt is installed as the first session message and frames the
// conversation for the hinted topic.
func topicSystemPrompt(topic string, projectID uuid.UUID) string {
	switch topic {
	case core.TopicCharacter:
		return fmt.Sprintf("The user wants to discuss a character within project %s. "+
			"Use the character_lookup tool if you need specific details about a character "+
			"(you might need to ask for the name or ID if not provided).", projectID)
	case core.TopicStory:
		return fmt.Sprintf("The user wants to discuss the overall story context (overview, acts) for project %s. "+
			"Use the story_lookup tool if you need the project overview or act details, "+
			"and the beat_lookup tool for the story beats and their completion status.", projectID)
	case core.TopicFaction:
		return fmt.Sprintf("The user wants to discuss factions within project %s. "+
			"You can look up character details (character_lookup) and story context (story_lookup) as needed.", projectID)
	default:
		return fmt.Sprintf("You are a helpful assistant discussing project %s. "+
			"You can look up character details (character_lookup), story overview/acts (story_lookup), "+
			"or story beats/objectives (beat_lookup) if needed.", projectID)
	}
}

// confirmationInterpretationPrompt frames the constrained yes/no/modify
// classification of a confirmation reply.
func confirmationInterpretationPrompt(pending *core.PendingOperation, userResponse string) string {
	return fmt.Sprintf(`You are an assistant interpreting a user's response to a confirmation request.
The user was asked to confirm the following operation:
Operation: %s
Parameters: %v

User's response: "%s"

Based on the user's response, decide if they mean 'yes' (confirm the operation as is),
'no' (cancel the operation), or 'modify' (want to change some parameters before proceeding).
If they want to 'modify', identify the parameters they want to change and their new values in the 'changes' field.
If the modification is too complex or unclear from the response, set decision to 'modify' and provide a clarifying question or statement in the 'reasoning' field.
Respond with a JSON object matching the requested schema.`,
		pending.Operation, pending.Params, userResponse)
}

// confirmationQuestion phrases the first confirmation request for an
// operation. scene_create gets a tailored question, everything else a generic
// one.
func confirmationQuestion(operation string, params map[string]any) string {
	if operation == "scene_create" {
		return fmt.Sprintf("I can create a scene named '%s' with the description: '%s' (Act: %s). Does that sound right?",
			stringParam(params, "scene_name", "Unnamed Scene"),
			stringParam(params, "scene_description", "[No description provided]"),
			stringParam(params, "act_id", "Default/First Act"))
	}
	return fmt.Sprintf("Okay, I'm ready to perform the operation: '%s' with the following details: %v. Shall I proceed?",
		operation, params)
}

// reconfirmationQuestion phrases the follow-up question after the user
// modified parameters mid-confirmation.
func reconfirmationQuestion(operation string, params map[string]any) string {
	if operation == "scene_create" {
		return fmt.Sprintf("Understood. I've updated the scene details. New name: '%s', new description: '%s' (Act: %s). Does this look correct now?",
			stringParam(params, "scene_name", "Unnamed Scene"),
			stringParam(params, "scene_description", "[No description provided]"),
			stringParam(params, "act_id", "Default/First Act"))
	}
	return fmt.Sprintf("Okay, I've updated the details for '%s'. New parameters are: %v. Shall I proceed with these changes?",
		operation, params)
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
