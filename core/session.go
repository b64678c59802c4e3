package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Topic values categorize what part of the project a session is currently
// discussing. TopicGeneral additionally asks the classifier to categorize the
// request; once a specific topic is detected it sticks for subsequent turns.
const (
	TopicGeneral   = "general"
	TopicCharacter = "character"
	TopicStory     = "story"
	TopicFaction   = "faction"
)

// PendingOperation captures an operation held back for explicit user
// confirmation together with its fully collected parameters.
type PendingOperation struct {
	Operation string         `json:"operation"`
	Params    map[string]any `json:"params"`
}

// SessionState is the unit of checkpoint persistence for one conversation.
//
// Invariants:
//   - Messages is append-only within a turn; the recovery guard may drop a
//     contiguous prefix-preserving tail but never reorders.
//   - AwaitingConfirmation is true only while Pending is non-nil.
//   - BeFunction / DBUpdated reflect the current turn only and are reset at
//     the start of each turn unless a mutation occurs.
type SessionState struct {
	Messages []Message `json:"messages"`

	ProjectID   uuid.UUID  `json:"project_id"`
	CharacterID *uuid.UUID `json:"character_id,omitempty"`
	ActID       *uuid.UUID `json:"act_id,omitempty"`

	Topic          string   `json:"topic"`
	ExtractedNames []string `json:"extracted_names,omitempty"`

	OperationIntent string            `json:"operation_intent,omitempty"`
	OperationParams map[string]any    `json:"operation_params,omitempty"`
	MissingParams   []string          `json:"missing_params,omitempty"`

	AwaitingConfirmation bool              `json:"awaiting_confirmation"`
	Pending              *PendingOperation `json:"pending_operation,omitempty"`

	BeFunction string `json:"be_function,omitempty"`
	DBUpdated  bool   `json:"db_updated"`

	FinalResponse *ChatResponse `json:"final_response,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// NewSessionState creates a fresh session for a project with topic "general".
func NewSessionState(projectID uuid.UUID) *SessionState {
	now := time.Now().UTC()
	return &SessionState{
		ProjectID: projectID,
		Topic:     TopicGeneral,
		Created:   now,
		Updated:   now,
	}
}

// AppendMessage appends a message to the history updating the Updated timestamp.
func (s *SessionState) AppendMessage(m Message) {
	s.Messages = append(s.Messages, m)
	s.Updated = time.Now().UTC()
}

// LastMessage returns the most recent message, or false when the history is empty.
func (s *SessionState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastHumanText returns the content of the most recent human message.
func (s *SessionState) LastHumanText() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleHuman {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}

// ClearIntent resets the detected operation intent and its parameter
// collection state. Called on every terminal intent branch.
func (s *SessionState) ClearIntent() {
	s.OperationIntent = ""
	s.OperationParams = nil
	s.MissingParams = nil
}

// ClearPending leaves the confirmation state. Paired with ClearIntent on the
// yes/no terminal branches.
func (s *SessionState) ClearPending() {
	s.AwaitingConfirmation = false
	s.Pending = nil
}

// Clone returns a deep copy of the session state safe for independent mutation.
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		c.Messages[i] = m.Clone()
	}
	if s.ExtractedNames != nil {
		c.ExtractedNames = append([]string(nil), s.ExtractedNames...)
	}
	if s.OperationParams != nil {
		c.OperationParams = make(map[string]any, len(s.OperationParams))
		for k, v := range s.OperationParams {
			c.OperationParams[k] = v
		}
	}
	if s.MissingParams != nil {
		c.MissingParams = append([]string(nil), s.MissingParams...)
	}
	if s.Pending != nil {
		p := PendingOperation{Operation: s.Pending.Operation, Params: map[string]any{}}
		for k, v := range s.Pending.Params {
			p.Params[k] = v
		}
		c.Pending = &p
	}
	if s.CharacterID != nil {
		id := *s.CharacterID
		c.CharacterID = &id
	}
	if s.ActID != nil {
		id := *s.ActID
		c.ActID = &id
	}
	if s.FinalResponse != nil {
		r := s.FinalResponse.Clone()
		c.FinalResponse = &r
	}
	return &c
}

// SessionKey derives the checkpoint key for a user and optional conversation.
func SessionKey(userID, conversationID string) string {
	if conversationID == "" {
		return userID
	}
	return userID + ":" + conversationID
}

// SessionStore persists session checkpoints. Load returns (nil, nil) when no
// checkpoint exists for the key. Implementations must be safe for concurrent
// use across distinct keys; turns for the same key are serialized by the
// caller.
type SessionStore interface {
	Load(ctx context.Context, sessionKey string) (*SessionState, error)
	Save(ctx context.Context, sessionKey string, state *SessionState) error
}
