package executor

import (
	"fmt"

	"github.com/fablecraft/storyagent/internal/util"
	"github.com/fablecraft/storyagent/store"
)

// PlaceholderScene is stored when a scene is created without a description.
// The parameter refiner recognizes it and offers to write one.
const PlaceholderScene = "[Please describe the scene]"

// SceneCreateParams add a new scene to the project. Scene creation requires
// user confirmation before it runs.
type SceneCreateParams struct {
	SceneName        string `json:"scene_name" description:"Name of the scene"`
	SceneDescription string `json:"scene_description,omitempty" description:"What happens in the scene"`
	Act              int    `json:"act,omitempty" description:"Act number the scene belongs to, defaults to 1"`
}

func (r *Registry) registerSceneOps() {
	r.register(&Operation{
		Name:        "scene_create",
		Description: "Creates a new scene in the project",
		Mutating:    true,
		Confirm:     true,
		Schema:      util.CreateSchema(SceneCreateParams{}),
		handler:     sceneCreate,
	})
}

func sceneCreate(tx *store.Store, env Env, params map[string]any) (string, error) {
	p, err := util.DecodeParams[SceneCreateParams](params)
	if err != nil {
		return "", err
	}
	description := p.SceneDescription
	if description == "" {
		description = PlaceholderScene
	}
	act := p.Act
	if act == 0 {
		act = 1
	}

	var count int64
	if err := tx.DB().Model(&store.Scene{}).Where("project_id = ?", env.ProjectID).Count(&count).Error; err != nil {
		return "", err
	}

	if err := tx.CreateScene(&store.Scene{
		ProjectID:   env.ProjectID,
		Act:         act,
		Name:        p.SceneName,
		Order:       int(count) + 1,
		Description: description,
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added new scene '%s' to act %d.", p.SceneName, act), nil
}
