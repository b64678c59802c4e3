package executor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fablecraft/storyagent/internal/util"
	"github.com/fablecraft/storyagent/store"
)

const placeholderFaction = "[Please describe the faction]"

// FactionCreateParams add a new faction to the project.
type FactionCreateParams struct {
	FactionName        string `json:"faction_name,omitempty" description:"Name of the faction, defaults to 'Unnamed Faction'"`
	FactionDescription string `json:"faction_description,omitempty" description:"Description of the faction"`
}

// FactionRenameParams rename an existing faction.
type FactionRenameParams struct {
	FactionID   string `json:"faction_id" description:"ID of the faction to rename"`
	FactionName string `json:"faction_name" description:"New name for the faction"`
}

func (r *Registry) registerFactionOps() {
	r.register(&Operation{
		Name:        "faction_create",
		Description: "Creates a new faction in the project",
		Mutating:    true,
		Schema:      util.CreateSchema(FactionCreateParams{}),
		handler:     factionCreate,
	})
	r.register(&Operation{
		Name:        "faction_rename",
		Description: "Renames an existing faction",
		Mutating:    true,
		Schema:      util.CreateSchema(FactionRenameParams{}),
		handler:     factionRename,
	})
}

func factionCreate(tx *store.Store, env Env, params map[string]any) (string, error) {
	p, err := util.DecodeParams[FactionCreateParams](params)
	if err != nil {
		return "", err
	}
	name := p.FactionName
	if name == "" {
		name = "Unnamed Faction"
	}
	description := p.FactionDescription
	if description == "" {
		description = placeholderFaction
	}

	if err := tx.CreateFaction(&store.Faction{
		ProjectID:   env.ProjectID,
		Name:        name,
		Description: description,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added new faction '%s' to the project.", name), nil
}

func factionRename(tx *store.Store, env Env, params map[string]any) (string, error) {
	p, err := util.DecodeParams[FactionRenameParams](params)
	if err != nil {
		return "", err
	}
	factionID, err := uuid.Parse(p.FactionID)
	if err != nil {
		return "Error: Cannot rename faction without a valid faction ID.", nil
	}

	faction, err := tx.FactionByID(env.ProjectID, factionID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Error: Faction with ID %s not found in this project.", factionID), nil
	} else if err != nil {
		return "", err
	}

	faction.Name = p.FactionName
	if err := tx.SaveFaction(faction); err != nil {
		return "", err
	}
	return fmt.Sprintf("Renamed faction to '%s'.", p.FactionName), nil
}
