package executor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fablecraft/storyagent/internal/util"
	"github.com/fablecraft/storyagent/store"
)

// Placeholder descriptions stored when the user has not provided one yet. The
// parameter refiner offers to replace them in a follow-up turn.
const (
	placeholderTrait        = "[Please describe the typical behavior]"
	placeholderRelationship = "[Please describe the relationship]"
)

// CharacterCreateParams name a new character.
type CharacterCreateParams struct {
	TargetCharName string `json:"target_char_name" description:"Name of the character"`
	TargetCharType string `json:"target_char_type,omitempty" description:"Type of the character, defaults to 'major'"`
}

// CharacterRenameParams rename the session's bound character.
type CharacterRenameParams struct {
	TargetCharName string `json:"target_char_name" description:"New name for the character"`
}

// TraitAddParams add or update a typed trait on the bound character.
type TraitAddParams struct {
	TraitType        string `json:"trait_type,omitempty" description:"Trait type: knowledge, personality, humor, communication or background"`
	TraitDescription string `json:"trait_description,omitempty" description:"Description of the trait"`
}

// RelationshipAddParams link the bound character to another one.
type RelationshipAddParams struct {
	SecondaryCharacterID    string `json:"secondary_character_id" description:"ID of the other character"`
	RelationshipType        string `json:"relationship_type,omitempty" description:"Type of relationship, defaults to 'friend'"`
	RelationshipDescription string `json:"relationship_description,omitempty" description:"Description of the relationship"`
}

func (r *Registry) registerCharacterOps() {
	r.register(&Operation{
		Name:        "character_create",
		Description: "Creates a new character in the project",
		Mutating:    true,
		Schema:      util.CreateSchema(CharacterCreateParams{}),
		handler:     characterCreate,
	})
	r.register(&Operation{
		Name:        "character_rename",
		Description: "Renames the currently discussed character",
		Mutating:    true,
		Schema:      util.CreateSchema(CharacterRenameParams{}),
		handler:     characterRename,
	})
	r.register(&Operation{
		Name:        "trait_add",
		Description: "Adds a trait to the currently discussed character",
		Mutating:    true,
		Schema:      util.CreateSchema(TraitAddParams{}),
		handler:     traitAdd,
	})
	r.register(&Operation{
		Name:        "relationship_add",
		Description: "Creates a relationship between two characters",
		Mutating:    true,
		Schema:      util.CreateSchema(RelationshipAddParams{}),
		handler:     relationshipAdd,
	})
}

func characterCreate(tx *store.Store, env Env, params map[string]any) (string, error) {
	p, err := util.DecodeParams[CharacterCreateParams](params)
	if err != nil {
		return "", err
	}
	charType := p.TargetCharType
	if charType == "" {
		charType = "major"
	}

	if _, err := tx.CharacterByName(env.ProjectID, p.TargetCharName); err == nil {
		return fmt.Sprintf("Error: Character name '%s' already exists in this project.", p.TargetCharName), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	c := &store.Character{
		ProjectID: env.ProjectID,
		Name:      p.TargetCharName,
		Type:      charType,
	}
	if err := tx.CreateCharacter(c); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added new character '%s' to the project.", p.TargetCharName), nil
}

func characterRename(tx *store.Store, env Env, params map[string]any) (string, error) {
	if env.CharacterID == nil {
		return "Error: Cannot rename character without a character ID.", nil
	}
	p, err := util.DecodeParams[CharacterRenameParams](params)
	if err != nil {
		return "", err
	}

	c, err := tx.CharacterByID(env.ProjectID, *env.CharacterID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Error: Character with ID %s not found in this project.", env.CharacterID), nil
	} else if err != nil {
		return "", err
	}

	c.Name = p.TargetCharName
	if err := tx.SaveCharacter(c); err != nil {
		return "", err
	}
	return fmt.Sprintf("Renamed character to '%s'.", p.TargetCharName), nil
}

func traitAdd(tx *store.Store, env Env, params map[string]any) (string, error) {
	if env.CharacterID == nil {
		return "Error: Cannot add trait without a character ID.", nil
	}
	p, err := util.DecodeParams[TraitAddParams](params)
	if err != nil {
		return "", err
	}
	traitType := p.TraitType
	if traitType == "" {
		traitType = "behavior"
	}
	description := p.TraitDescription
	if description == "" {
		description = placeholderTrait
	}

	c, err := tx.CharacterByID(env.ProjectID, *env.CharacterID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Error: Character with ID %s not found in this project.", env.CharacterID), nil
	} else if err != nil {
		return "", err
	}

	// An existing trait of the same type gets updated rather than duplicated.
	existing, err := tx.TraitByType(c.ID, traitType)
	if err == nil {
		existing.Description = description
		if err := tx.SaveTrait(existing); err != nil {
			return "", err
		}
		return fmt.Sprintf("Updated %s trait for character '%s'.", traitType, c.Name), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	if err := tx.CreateTrait(&store.CharacterTrait{
		CharacterID: c.ID,
		Type:        traitType,
		Description: description,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added a '%s' trait for character '%s'.", traitType, c.Name), nil
}

func relationshipAdd(tx *store.Store, env Env, params map[string]any) (string, error) {
	if env.CharacterID == nil {
		return "Error: Cannot add relationship without a character ID.", nil
	}
	p, err := util.DecodeParams[RelationshipAddParams](params)
	if err != nil {
		return "", err
	}

	primary, err := tx.CharacterByID(env.ProjectID, *env.CharacterID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Error: Primary character with ID %s not found in this project.", env.CharacterID), nil
	} else if err != nil {
		return "", err
	}

	secondaryID, err := uuid.Parse(p.SecondaryCharacterID)
	if err != nil {
		return "Error: Cannot add relationship without a valid secondary character ID.", nil
	}
	secondary, err := tx.CharacterByID(env.ProjectID, secondaryID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Error: Secondary character with ID %s not found in this project.", secondaryID), nil
	} else if err != nil {
		return "", err
	}

	relType := p.RelationshipType
	if relType == "" {
		relType = "friend"
	}
	description := p.RelationshipDescription
	if description == "" {
		description = placeholderRelationship
	}

	if err := tx.CreateRelationship(&store.CharacterRelationship{
		CharacterID:        primary.ID,
		RelatedCharacterID: secondary.ID,
		Type:               relType,
		Description:        description,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added a '%s' relationship between '%s' and '%s'.", relType, primary.Name, secondary.Name), nil
}
