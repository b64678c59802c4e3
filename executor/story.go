package executor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fablecraft/storyagent/internal/util"
	"github.com/fablecraft/storyagent/store"
)

const (
	placeholderAct  = "[Please describe the act]"
	placeholderBeat = "[Please describe the beat]"
)

// ActCreateParams add a new act to the project.
type ActCreateParams struct {
	ActName        string `json:"act_name,omitempty" description:"Name of the act, defaults to 'Unnamed Act'"`
	ActDescription string `json:"act_description,omitempty" description:"Description of the act"`
}

// ActEditParams replace an act's description.
type ActEditParams struct {
	ActID          string `json:"act_id" description:"ID of the act to edit"`
	ActDescription string `json:"act_description" description:"New description for the act"`
}

// BeatCreateParams add a new beat to the project.
type BeatCreateParams struct {
	BeatName        string `json:"beat_name,omitempty" description:"Name of the beat, defaults to 'Unnamed Beat'"`
	BeatDescription string `json:"beat_description,omitempty" description:"Description of the beat"`
}

// BeatEditParams replace a beat's description.
type BeatEditParams struct {
	BeatID          string `json:"beat_id" description:"ID of the beat to edit"`
	BeatDescription string `json:"beat_description" description:"New description for the beat"`
}

func (r *Registry) registerStoryOps() {
	r.register(&Operation{
		Name:        "act_create",
		Description: "Creates a new act in the project",
		Mutating:    true,
		Schema:      util.CreateSchema(ActCreateParams{}),
		handler:     actCreate,
	})
	r.register(&Operation{
		Name:        "act_edit",
		Description: "Edits an existing act's description",
		Mutating:    true,
		Schema:      util.CreateSchema(ActEditParams{}),
		handler:     actEdit,
	})
	r.register(&Operation{
		Name:        "beat_create",
		Description: "Creates a new beat in the project",
		Mutating:    true,
		Schema:      util.CreateSchema(BeatCreateParams{}),
		handler:     beatCreate,
	})
	r.register(&Operation{
		Name:        "beat_edit",
		Description: "Edits an existing beat's description",
		Mutating:    true,
		Schema:      util.CreateSchema(BeatEditParams{}),
		handler:     beatEdit,
	})
}

func actCreate(tx *store.Store, env Env, params map[string]any) (string, error) {
	p, err := util.DecodeParams[ActCreateParams](params)
	if err != nil {
		return "", err
	}
	name := p.ActName
	if name == "" {
		name = "Unnamed Act"
	}
	description := p.ActDescription
	if description == "" {
		description = placeholderAct
	}

	existing, err := tx.ActsByProject(env.ProjectID)
	if err != nil {
		return "", err
	}

	if err := tx.CreateAct(&store.Act{
		ProjectID:   env.ProjectID,
		Name:        name,
		Order:       len(existing) + 1,
		Description: description,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added new act '%s' to the project.", name), nil
}

func actEdit(tx *store.Store, env Env, params map[string]any) (string, error) {
	p, err := util.DecodeParams[ActEditParams](params)
	if err != nil {
		return "", err
	}
	actID, err := uuid.Parse(p.ActID)
	if err != nil {
		return "Error: Cannot edit act without a valid act ID.", nil
	}

	act, err := tx.ActByID(env.ProjectID, actID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Error: Act with ID %s not found in this project.", actID), nil
	} else if err != nil {
		return "", err
	}

	act.Description = p.ActDescription
	if err := tx.SaveAct(act); err != nil {
		return "", err
	}
	return fmt.Sprintf("Edited act '%s'.", act.Name), nil
}

func beatCreate(tx *store.Store, env Env, params map[string]any) (string, error) {
	p, err := util.DecodeParams[BeatCreateParams](params)
	if err != nil {
		return "", err
	}
	name := p.BeatName
	if name == "" {
		name = "Unnamed Beat"
	}
	description := p.BeatDescription
	if description == "" {
		description = placeholderBeat
	}

	existing, err := tx.BeatsByProject(env.ProjectID)
	if err != nil {
		return "", err
	}

	beat := &store.Beat{
		ProjectID:   env.ProjectID,
		ActID:       env.ActID,
		Name:        name,
		Order:       len(existing) + 1,
		Description: description,
	}
	if err := tx.CreateBeat(beat); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added new beat '%s' to the project.", name), nil
}

func beatEdit(tx *store.Store, env Env, params map[string]any) (string, error) {
	p, err := util.DecodeParams[BeatEditParams](params)
	if err != nil {
		return "", err
	}
	beatID, err := uuid.Parse(p.BeatID)
	if err != nil {
		return "Error: Cannot edit beat without a valid beat ID.", nil
	}

	beat, err := tx.BeatByID(env.ProjectID, beatID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Error: Beat with ID %s not found in this project.", beatID), nil
	} else if err != nil {
		return "", err
	}

	beat.Description = p.BeatDescription
	if err := tx.SaveBeat(beat); err != nil {
		return "", err
	}
	return fmt.Sprintf("Edited beat '%s'.", beat.Name), nil
}
