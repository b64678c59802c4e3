package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/executor"
	"github.com/fablecraft/storyagent/internal/util"
	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/store"
)

// Context carries the session scope a tool call runs against.
type Context struct {
	ProjectID      uuid.UUID
	CharacterID    *uuid.UUID
	ActID          *uuid.UUID
	ExtractedNames []string
	Topic          string
}

// Result is the outcome of one dispatched tool call.
type Result struct {
	Content string
	// Mutated is true when an operation changed the database.
	Mutated bool
	// Operation is the executed operation name for execute_operation calls.
	Operation string
}

// Options configure the dispatcher.
type Options struct {
	Logger logging.Logger
}

// Dispatcher routes tool calls to lookups or the executor registry.
type Dispatcher struct {
	store    *store.Store
	registry *executor.Registry
	opts     Options
}

// NewDispatcher builds a dispatcher over the domain store and registry.
func NewDispatcher(s *store.Store, registry *executor.Registry, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{store: s, registry: registry, opts: opts}
}

// Execute runs one tool call. The returned content is always usable as a Tool
// message body.
func (d *Dispatcher) Execute(call core.ToolCall, tctx Context) Result {
	kind, ok := KindForName(call.Name)
	if !ok {
		d.opts.Logger.Warn("unknown tool called", "tool", call.Name)
		return Result{Content: fmt.Sprintf("Error: Unknown tool '%s' called.", call.Name)}
	}

	switch kind {
	case KindCharacterLookup:
		return Result{Content: d.characterLookup(call.Arguments, tctx)}
	case KindStoryLookup:
		return Result{Content: d.storyLookup(tctx)}
	case KindBeatLookup:
		return Result{Content: d.beatLookup(tctx)}
	case KindSceneLookup:
		return Result{Content: d.sceneLookup(call.Arguments, tctx)}
	case KindGapAnalysis:
		return Result{Content: d.gapAnalysis(call.Arguments, tctx)}
	case KindExecuteOperation:
		return d.executeOperation(call.Arguments, tctx)
	default:
		return Result{Content: fmt.Sprintf("Error: Unknown tool '%s' called.", call.Name)}
	}
}

func (d *Dispatcher) characterLookup(args map[string]any, tctx Context) string {
	parsed, err := util.DecodeParams[CharacterLookupArgs](args)
	if err != nil {
		return fmt.Sprintf("Error: Invalid character lookup arguments: %v.", err)
	}

	var character *store.Character
	switch {
	case parsed.CharacterID != "":
		id, parseErr := uuid.Parse(parsed.CharacterID)
		if parseErr != nil {
			return "Error: Character lookup received an invalid character_id."
		}
		character, err = d.store.CharacterByID(tctx.ProjectID, id)
	case parsed.CharacterName != "":
		character, err = d.store.CharacterByName(tctx.ProjectID, parsed.CharacterName)
	case tctx.CharacterID != nil:
		character, err = d.store.CharacterByID(tctx.ProjectID, *tctx.CharacterID)
	case len(tctx.ExtractedNames) > 0:
		// Fall back to the first name extracted from the user's message.
		character, err = d.store.CharacterByName(tctx.ProjectID, tctx.ExtractedNames[0])
	default:
		return "Error: Character lookup requires either character_id or character_name."
	}

	if errors.Is(err, store.ErrNotFound) {
		return "Character not found in this project with the given ID/Name."
	}
	if err != nil {
		d.opts.Logger.Error("character lookup failed", "error", err)
		return "Error: Character lookup failed due to a database issue."
	}

	return formatCharacter(character)
}

func formatCharacter(c *store.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Character Details for '%s' (ID: %s):\n", c.Name, c.ID)
	fmt.Fprintf(&b, "- Type: %s\n", orNA(c.Type))
	fmt.Fprintf(&b, "- Description: %s\n", orNA(c.Description))
	fmt.Fprintf(&b, "- Voice: %s\n", orNA(c.Voice))
	if c.Faction != nil {
		fmt.Fprintf(&b, "- Faction: %s\n", c.Faction.Name)
	}
	if len(c.Traits) > 0 {
		b.WriteString("- Traits:\n")
		for _, trait := range c.Traits {
			label := trait.Label
			if label == "" {
				label = "General"
			}
			fmt.Fprintf(&b, "  - %s (%s): %s\n", trait.Type, label, trait.Description)
		}
	} else {
		b.WriteString("- Traits: None defined.\n")
	}
	return b.String()
}

func (d *Dispatcher) storyLookup(tctx Context) string {
	project, err := d.store.ProjectByID(tctx.ProjectID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Project with ID %s not found.", tctx.ProjectID)
	}
	if err != nil {
		d.opts.Logger.Error("story lookup failed", "error", err)
		return "Error: Story lookup failed due to a database issue."
	}

	acts, err := d.store.ActsByProject(tctx.ProjectID)
	if err != nil {
		d.opts.Logger.Error("story lookup failed", "error", err)
		return "Error: Story lookup failed due to a database issue."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Story Context for Project '%s' (ID: %s):\n", project.Name, project.ID)
	overview := project.Overview
	if overview == "" {
		overview = "No overview provided."
	}
	fmt.Fprintf(&b, "## Overview:\n%s\n", overview)

	if len(acts) == 0 {
		b.WriteString("\n## Acts:\nNo acts defined for this project yet.\n")
		return b.String()
	}
	b.WriteString("\n## Acts:\n")
	for _, act := range acts {
		description := act.Description
		if description == "" {
			description = "No description."
		}
		fmt.Fprintf(&b, "- Act %d (%s): %s\n", act.Order, act.Name, description)
	}
	return b.String()
}

func (d *Dispatcher) beatLookup(tctx Context) string {
	beats, err := d.store.BeatsByProject(tctx.ProjectID)
	if err != nil {
		d.opts.Logger.Error("beat lookup failed", "error", err)
		return "Error: Beat lookup failed due to a database issue."
	}
	if len(beats) == 0 {
		return "No story beats (objectives) found for this project."
	}

	var b strings.Builder
	b.WriteString("Story Beats/Objectives for this project:\n")
	for _, beat := range beats {
		status := "Not Completed"
		if beat.Completed {
			status = "Completed"
		}
		description := beat.Description
		if description == "" {
			description = "No description."
		}
		fmt.Fprintf(&b, "- %s: %s [%s]\n", beat.Name, description, status)
	}
	return b.String()
}

func (d *Dispatcher) sceneLookup(args map[string]any, tctx Context) string {
	parsed, err := util.DecodeParams[SceneLookupArgs](args)
	if err != nil || parsed.SceneID == "" {
		return "Error: Scene lookup requires a scene_id."
	}
	id, parseErr := uuid.Parse(parsed.SceneID)
	if parseErr != nil {
		return "Error: Scene lookup received an invalid scene_id."
	}

	scene, err := d.store.SceneByID(tctx.ProjectID, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Scene with ID %s not found.", id)
	}
	if err != nil {
		d.opts.Logger.Error("scene lookup failed", "error", err)
		return "Error: Scene lookup failed due to a database issue."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scene Details for Scene ID %s:\n", scene.ID)
	fmt.Fprintf(&b, "- Name: %s\n", scene.Name)
	description := scene.Description
	if description == "" {
		description = "No description provided."
	}
	fmt.Fprintf(&b, "- Description: %s\n", description)
	fmt.Fprintf(&b, "- Act: %d\n", scene.Act)
	return b.String()
}

// Essential trait types a developed character should carry.
var essentialTraitTypes = []string{"knowledge", "personality", "humor", "communication", "background"}

func (d *Dispatcher) gapAnalysis(args map[string]any, tctx Context) string {
	parsed, err := util.DecodeParams[GapAnalysisArgs](args)
	if err != nil {
		return fmt.Sprintf("Error: Invalid gap analysis arguments: %v.", err)
	}
	topic := strings.ToLower(parsed.Topic)
	if topic == "" {
		topic = strings.ToLower(tctx.Topic)
	}

	switch topic {
	case "character":
		return d.characterGaps(tctx)
	case "story":
		return d.storyGaps(tctx)
	default:
		return fmt.Sprintf("Gap analysis for topic '%s' is not currently supported. Supported topics are 'character' and 'story'.", parsed.Topic)
	}
}

func (d *Dispatcher) characterGaps(tctx Context) string {
	if tctx.CharacterID == nil {
		return "Cannot analyze character gaps without a character. Please specify a character."
	}
	character, err := d.store.CharacterByID(tctx.ProjectID, *tctx.CharacterID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Character with ID %s not found.", tctx.CharacterID)
	}
	if err != nil {
		d.opts.Logger.Error("gap analysis failed", "error", err)
		return "Error: Gap analysis failed due to a database issue."
	}

	existing := map[string]bool{}
	for _, trait := range character.Traits {
		existing[strings.ToLower(trait.Type)] = true
	}
	var missing []string
	for _, t := range essentialTraitTypes {
		if !existing[t] {
			missing = append(missing, t)
		}
	}

	var b strings.Builder
	b.WriteString("Gap Analysis for character:\n\n")
	if len(missing) > 0 {
		fmt.Fprintf(&b, "Character '%s' is missing the following important traits:\n", character.Name)
		for _, t := range missing {
			fmt.Fprintf(&b, "- %s trait\n", capitalize(t))
		}
		b.WriteString("\nDeveloping these traits will help create a more well-rounded character.")
	} else {
		fmt.Fprintf(&b, "Character '%s' has all essential trait types defined. Good job!\n", character.Name)
	}
	if len(character.Traits) > 0 {
		b.WriteString("\nExisting traits:\n")
		for _, trait := range character.Traits {
			label := trait.Label
			if label == "" {
				label = "No label"
			}
			fmt.Fprintf(&b, "- %s: %s - %s\n", trait.Type, label, trait.Description)
		}
	}
	return b.String()
}

func (d *Dispatcher) storyGaps(tctx Context) string {
	acts, err := d.store.ActsByProject(tctx.ProjectID)
	if err != nil {
		d.opts.Logger.Error("gap analysis failed", "error", err)
		return "Error: Gap analysis failed due to a database issue."
	}
	if len(acts) == 0 {
		return "No acts found for this project. Consider creating an act structure for your story."
	}

	var incomplete []store.Act
	for _, act := range acts {
		if act.Description == "" {
			incomplete = append(incomplete, act)
		}
	}

	var b strings.Builder
	b.WriteString("Gap Analysis for story:\n\n")
	if len(incomplete) > 0 {
		b.WriteString("The following acts need descriptions:\n")
		for _, act := range incomplete {
			fmt.Fprintf(&b, "- Act %d: %s\n", act.Order, act.Name)
		}
		b.WriteString("\nAdding descriptions to these acts will improve your story structure.")
	} else {
		b.WriteString("All acts in your project have descriptions. Great job on your story structure!\n")
	}
	fmt.Fprintf(&b, "\nYour project has %d acts in total.", len(acts))
	return b.String()
}

func (d *Dispatcher) executeOperation(args map[string]any, tctx Context) Result {
	parsed, err := util.DecodeParams[ExecuteOperationArgs](args)
	if err != nil || parsed.FunctionName == "" {
		return Result{Content: "Error: execute_operation requires a function_name."}
	}

	result, mutated := d.registry.Execute(parsed.FunctionName, executor.Env{
		ProjectID:   tctx.ProjectID,
		CharacterID: tctx.CharacterID,
		ActID:       tctx.ActID,
	}, parsed.Params)

	return Result{Content: result, Mutated: mutated, Operation: parsed.FunctionName}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
