package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	type result struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}

	tests := []struct {
		name    string
		content string
		wantErr bool
		want    result
	}{
		{
			name:    "bare object",
			content: `{"intent":"character_create","confidence":0.9}`,
			want:    result{Intent: "character_create", Confidence: 0.9},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"intent\":\"none\",\"confidence\":0.2}\n```",
			want:    result{Intent: "none", Confidence: 0.2},
		},
		{
			name:    "prose around object",
			content: "Here is the result: {\"intent\":\"trait_add\",\"confidence\":0.8} as requested.",
			want:    result{Intent: "trait_add", Confidence: 0.8},
		},
		{
			name:    "no object",
			content: "I could not produce JSON.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got result
			err := ParseJSON(tt.content, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMockModelQueues(t *testing.T) {
	m := NewMockModel()
	m.QueueCompletion("hello")

	ctx := context.Background()

	out, err := m.Complete(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	var decoded struct {
		Intent string `json:"intent"`
	}
	m.QueueJSON(map[string]any{"intent": "scene_create"})
	require.NoError(t, m.GenerateJSON(ctx, nil, nil, &decoded))
	assert.Equal(t, "scene_create", decoded.Intent)

	assert.Error(t, m.GenerateJSON(ctx, nil, nil, &decoded))
	assert.Equal(t, []string{"complete", "json", "json"}, m.Calls)
}
