package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/model"
)

func TestDetectAboveThreshold(t *testing.T) {
	m := model.NewMockModel()
	m.QueueJSON(map[string]any{
		"operation":  "character_create",
		"confidence": 0.92,
		"parameters": map[string]any{"target_char_name": "Malak"},
	})

	d := NewDetector(m)
	got := d.Detect(context.Background(), "create a character named Malak", core.TopicCharacter)

	assert.Equal(t, OpCharacterCreate, got.Operation)
	assert.Equal(t, "Malak", got.Params["target_char_name"])
	assert.Empty(t, got.DetectedTopic)
}

func TestDetectBelowThreshold(t *testing.T) {
	m := model.NewMockModel()
	m.QueueJSON(map[string]any{
		"operation":  "character_create",
		"confidence": 0.4,
	})

	d := NewDetector(m)
	got := d.Detect(context.Background(), "maybe a character?", core.TopicCharacter)

	assert.Empty(t, got.Operation)
}

func TestDetectTopicFromGeneral(t *testing.T) {
	m := model.NewMockModel()
	m.QueueJSON(map[string]any{
		"operation":      nil,
		"confidence":     0,
		"detected_topic": "story",
	})

	d := NewDetector(m)
	got := d.Detect(context.Background(), "how should act two end?", core.TopicGeneral)

	assert.Empty(t, got.Operation)
	assert.Equal(t, core.TopicStory, got.DetectedTopic)
}

func TestDetectUnknownOperationRejected(t *testing.T) {
	m := model.NewMockModel()
	m.QueueJSON(map[string]any{
		"operation":  "delete_everything",
		"confidence": 0.99,
	})

	d := NewDetector(m)
	got := d.Detect(context.Background(), "delete everything", core.TopicGeneral)

	assert.Empty(t, got.Operation)
}

func TestDetectModelFailureDegrades(t *testing.T) {
	m := model.NewMockModel() // no queued JSON: GenerateJSON errors

	d := NewDetector(m)
	got := d.Detect(context.Background(), "anything", core.TopicGeneral)

	assert.Empty(t, got.Operation)
	assert.Empty(t, got.DetectedTopic)
}

func TestConfigurableThreshold(t *testing.T) {
	m := model.NewMockModel()
	m.QueueJSON(map[string]any{
		"operation":  "trait_add",
		"confidence": 0.5,
	})

	d := NewDetector(m, func(o *Options) { o.ConfidenceThreshold = 0.4 })
	got := d.Detect(context.Background(), "add a trait", core.TopicCharacter)

	require.Equal(t, OpTraitAdd, got.Operation)
	assert.NotNil(t, got.Params)
}
