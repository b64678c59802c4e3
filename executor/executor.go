// Package executor implements the registry of database operations the agent
// can perform on behalf of a user. Operations validate their arguments against
// a schema derived from typed parameter structs, run inside a transaction, and
// always return a user-facing result string: failures come back as "Error: ..."
// text rather than Go errors so the model can read and react to them.
package executor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fablecraft/storyagent/internal/util"
	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/store"
)

// OpError categorizes operation failures for logging. It never crosses the
// registry boundary: Execute converts every failure into result text.
type OpError struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	Code    string `json:"code"` // VALIDATION_ERROR or EXECUTION_ERROR
}

func (e *OpError) Error() string {
	return fmt.Sprintf("operation error [%s] in %s: %s", e.Code, e.Op, e.Message)
}

// Env carries the session context an operation runs against.
type Env struct {
	ProjectID   uuid.UUID
	CharacterID *uuid.UUID
	ActID       *uuid.UUID
}

// Handler is an operation implementation. It receives a transactional store
// handle and the raw parameter map; returning an error rolls the transaction
// back and surfaces generic failure text.
type Handler func(tx *store.Store, env Env, params map[string]any) (string, error)

// Operation describes one registered operation.
type Operation struct {
	Name        string
	Description string
	// Mutating marks operations that write to the database; their success
	// drives the db_updated flag on the turn response.
	Mutating bool
	// Confirm marks operations that must be confirmed by the user before
	// execution.
	Confirm bool
	Schema  map[string]any

	handler Handler
}

// Options configure the registry.
type Options struct {
	Logger logging.Logger
}

// Registry holds the operations and dispatches execution.
type Registry struct {
	store *store.Store
	ops   map[string]*Operation
	opts  Options
}

// NewRegistry builds a registry with every built-in operation registered.
func NewRegistry(s *store.Store, optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{store: s, ops: map[string]*Operation{}, opts: opts}
	r.registerCharacterOps()
	r.registerStoryOps()
	r.registerFactionOps()
	r.registerSceneOps()
	return r
}

func (r *Registry) register(op *Operation) {
	r.ops[op.Name] = op
}

// Has reports whether name is a registered operation.
func (r *Registry) Has(name string) bool {
	_, ok := r.ops[name]
	return ok
}

// IsMutating reports whether the named operation writes to the database.
func (r *Registry) IsMutating(name string) bool {
	op, ok := r.ops[name]
	return ok && op.Mutating
}

// RequiresConfirmation reports whether the named operation needs explicit user
// confirmation before executing.
func (r *Registry) RequiresConfirmation(name string) bool {
	op, ok := r.ops[name]
	return ok && op.Confirm
}

// Operations lists the registered operation names.
func (r *Registry) Operations() []string {
	out := make([]string, 0, len(r.ops))
	for name := range r.ops {
		out = append(out, name)
	}
	return out
}

// Execute runs the named operation and reports whether the database was
// changed. The result is always safe to hand to the model: unknown operations,
// validation failures, panics and database errors all become "Error: ..."
// strings and never propagate.
func (r *Registry) Execute(name string, env Env, params map[string]any) (result string, mutated bool) {
	op, ok := r.ops[name]
	if !ok {
		r.opts.Logger.Warn("unknown operation requested", "op", name)
		return fmt.Sprintf("Error: Backend function '%s' is not implemented.", name), false
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.opts.Logger.Error("operation panicked", "op", name, "panic", rec)
			result = fmt.Sprintf("Error: Failed to execute '%s' due to an internal issue.", name)
			mutated = false
		}
	}()

	if params == nil {
		params = map[string]any{}
	}
	if err := util.ValidateParameters(params, op.Schema); err != nil {
		opErr := &OpError{Op: name, Message: err.Error(), Code: "VALIDATION_ERROR"}
		r.opts.Logger.Warn("operation validation failed", "op", name, "error", opErr)
		return fmt.Sprintf("Error: Invalid parameters for '%s': %v.", name, err), false
	}

	var out string
	err := r.store.Transaction(func(tx *store.Store) error {
		var handlerErr error
		out, handlerErr = op.handler(tx, env, params)
		return handlerErr
	})
	if err != nil {
		opErr := &OpError{Op: name, Message: err.Error(), Code: "EXECUTION_ERROR"}
		r.opts.Logger.Error("operation failed", "op", name, "error", opErr)
		return fmt.Sprintf("Error: Failed to execute '%s' due to a database issue.", name), false
	}

	if isErrorResult(out) {
		return out, false
	}
	return out, op.Mutating
}

func isErrorResult(result string) bool {
	return len(result) >= 6 && result[:6] == "Error:"
}
