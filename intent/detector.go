package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/model"
)

// DefaultConfidenceThreshold rejects detections the classifier itself is
// unsure about.
const DefaultConfidenceThreshold = 0.7

// Detection is the outcome of classifying one user message. Operation is
// empty when no operation cleared the threshold; DetectedTopic is only set
// when classifying from the general topic.
type Detection struct {
	Operation     string
	Params        map[string]any
	MissingParams []string
	DetectedTopic string
}

// Options configure the Detector.
type Options struct {
	ConfidenceThreshold float64
	Logger              logging.Logger
}

// Detector turns a free-form user message into an operation intent using a
// schema-constrained model call.
type Detector struct {
	model model.Model
	opts  Options
}

// NewDetector creates a Detector backed by m.
func NewDetector(m model.Model, optFns ...func(o *Options)) *Detector {
	opts := Options{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Detector{model: m, opts: opts}
}

// detectionPayload mirrors the JSON shape requested from the model.
type detectionPayload struct {
	Operation     string         `json:"operation"`
	Confidence    float64        `json:"confidence"`
	Parameters    map[string]any `json:"parameters"`
	MissingInfo   []string       `json:"missing_info"`
	DetectedTopic string         `json:"detected_topic"`
}

func detectionSchema(includeTopic bool) map[string]any {
	properties := map[string]any{
		"operation":  map[string]any{"type": "string", "description": "The detected operation name, or null if no operation is detected"},
		"confidence": map[string]any{"type": "number", "description": "Number between 0-1 indicating confidence in detection"},
		"parameters": map[string]any{"type": "object", "description": "Object containing extracted parameters needed for the operation"},
		"missing_info": map[string]any{
			"type":        "array",
			"description": "Array of parameters needed but not found in the user message",
		},
	}
	if includeTopic {
		properties["detected_topic"] = map[string]any{
			"type":        "string",
			"description": "The categorized topic ('character', 'story', 'faction', 'other', or null if not applicable)",
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   []string{"operation", "confidence"},
	}
}

func systemPrompt(topic string) string {
	if topic == core.TopicGeneral {
		return `You are an expert in parsing user requests for a story-telling assistant.
Analyze the user's message and determine:
1. If they're requesting a specific database operation.
2. What parameters they're providing for that operation.
3. Categorize the request into a general topic: 'character', 'story', 'faction', or 'other' if it doesn't fit.

Supported operations across all topics:
` + operationsForTopic(topic)
	}
	return fmt.Sprintf(`You are an expert in parsing user requests related to %s.
Analyze the user's message and determine:
1. If they're requesting a specific database operation
2. What parameters they're providing for that operation

Supported operations for %s context:
`, topic, topic) + operationsForTopic(topic)
}

// Detect classifies message in the context of topic. A detection failure is
// not an error for the caller: the turn degrades to general conversation, so
// Detect logs and returns an empty Detection instead of propagating.
func (d *Detector) Detect(ctx context.Context, message, topic string) Detection {
	general := topic == core.TopicGeneral

	var payload detectionPayload
	err := d.model.GenerateJSON(ctx,
		[]core.Message{
			core.NewSystemMessage(systemPrompt(topic)),
			core.NewHumanMessage(message),
		},
		detectionSchema(general),
		&payload,
	)
	if err != nil {
		d.opts.Logger.Error("intent detection failed", "error", err)
		return Detection{}
	}

	out := Detection{}
	if general {
		switch strings.ToLower(payload.DetectedTopic) {
		case core.TopicCharacter, core.TopicStory, core.TopicFaction, "other":
			out.DetectedTopic = strings.ToLower(payload.DetectedTopic)
		}
	}

	op := strings.ToLower(strings.TrimSpace(payload.Operation))
	if op == "" || op == "null" || payload.Confidence < d.opts.ConfidenceThreshold {
		return out
	}
	if !IsOperation(op) {
		d.opts.Logger.Warn("classifier returned unknown operation", "operation", op)
		return out
	}

	out.Operation = op
	out.Params = payload.Parameters
	if out.Params == nil {
		out.Params = map[string]any{}
	}
	out.MissingParams = payload.MissingInfo
	return out
}
