// Package refine improves operation parameters with a model call before
// execution. A rule binds one parameter of one operation to a prompt template
// and to trigger conditions: the refiner only runs when the value is still a
// placeholder or the user explicitly asked for improvement.
package refine

import (
	"context"
	"strings"

	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/internal/util"
	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/model"
)

// Rule describes the refinement of a single parameter.
type Rule struct {
	// Operation and Parameter select what this rule applies to.
	Operation string
	Parameter string

	// Template is a text/template body producing the refinement prompt.
	// Context variables come from ContextVars plus UserMessageVar.
	Template string

	// ContextVars maps template variable names to operation parameter keys.
	ContextVars map[string]string
	// Defaults fill template variables whose parameter is absent or empty.
	Defaults map[string]string
	// UserMessageVar names the template variable carrying the user's message.
	UserMessageVar string

	// TriggerValues fire the rule when the parameter currently equals one of
	// these placeholder strings.
	TriggerValues []string
	// TriggerPhrases fire the rule when the user message contains one of
	// these (case-insensitive).
	TriggerPhrases []string
}

const sceneDescriptionTemplate = `You are a creative assistant helping to write a scene description.
The user wants to create a scene named '{{.scene_name}}' for Act '{{.act_id}}'.
Their current idea for the description is: '{{.current_description}}'.
The user's original request or context was: '{{.user_request_context}}'

Please refine and elaborate on the scene description to make it more engaging, vivid, and suitable for the scene context in a maximum of 50 words.
Respond with only the new, improved scene description text. Keep it short yet descriptive.`

// DefaultRules returns the built-in refinement rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Operation: "scene_create",
			Parameter: "scene_description",
			Template:  sceneDescriptionTemplate,
			ContextVars: map[string]string{
				"scene_name":          "scene_name",
				"act_id":              "act_id",
				"current_description": "scene_description",
			},
			Defaults: map[string]string{
				"scene_name": "Unnamed Scene",
				"act_id":     "First Act",
			},
			UserMessageVar: "user_request_context",
			TriggerValues:  []string{"[Please describe the scene]"},
			TriggerPhrases: []string{
				"improve this description",
				"make it more",
				"elaborate on",
				"refine description",
			},
		},
	}
}

// Options configure the Refiner.
type Options struct {
	Rules  []Rule
	Logger logging.Logger
}

// Refiner applies refinement rules to collected parameters.
type Refiner struct {
	model model.Model
	opts  Options
}

// NewRefiner creates a Refiner with the default rules unless overridden.
func NewRefiner(m model.Model, optFns ...func(o *Options)) *Refiner {
	opts := Options{
		Rules:  DefaultRules(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Refiner{model: m, opts: opts}
}

// Refine returns params with every triggered rule applied. The input map is
// not modified; refinement failures keep the original value so the operation
// still runs.
func (r *Refiner) Refine(ctx context.Context, operation, userMessage string, params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}

	for _, rule := range r.opts.Rules {
		if rule.Operation != operation {
			continue
		}
		if !rule.triggered(userMessage, out) {
			continue
		}

		refined, err := r.apply(ctx, rule, userMessage, out)
		if err != nil {
			r.opts.Logger.Warn("parameter refinement failed",
				"operation", operation, "parameter", rule.Parameter, "error", err)
			continue
		}
		if refined != "" {
			r.opts.Logger.Debug("parameter refined", "operation", operation, "parameter", rule.Parameter)
			out[rule.Parameter] = refined
		}
	}

	return out
}

func (rule Rule) triggered(userMessage string, params map[string]any) bool {
	current, _ := params[rule.Parameter].(string)
	for _, v := range rule.TriggerValues {
		if current == v {
			return true
		}
	}
	lower := strings.ToLower(userMessage)
	for _, phrase := range rule.TriggerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func (r *Refiner) apply(ctx context.Context, rule Rule, userMessage string, params map[string]any) (string, error) {
	vars := map[string]any{}
	for templateVar, paramKey := range rule.ContextVars {
		if v, ok := params[paramKey].(string); ok && v != "" {
			vars[templateVar] = v
		} else if def, ok := rule.Defaults[templateVar]; ok {
			vars[templateVar] = def
		} else {
			vars[templateVar] = ""
		}
	}
	if rule.UserMessageVar != "" {
		vars[rule.UserMessageVar] = userMessage
	}

	prompt, err := util.RenderTemplate(rule.Template, vars)
	if err != nil {
		return "", err
	}

	reply, err := r.model.Complete(ctx, []core.Message{core.NewHumanMessage(prompt)})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
