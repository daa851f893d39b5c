package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

// NewSessionID generates a new UUID v4 SessionID
func NewSessionID() types.SessionID {
	return types.SessionID(uuid.New().String())
}

// Message is one utterance in a conversation
type Message struct {
	Role      types.Role `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
}

// AgentContext is the per-session conversation state fed to both agents.
// History is append-only within a session.
type AgentContext struct {
	ProfileID          string    `json:"profile_id"`
	ProfileDescription string    `json:"profile_description"`
	CurrentObjection   string    `json:"current_objection"`
	AllObjections      []string  `json:"all_objections"`
	RelatedObjections  []string  `json:"related_objections"`
	History            []Message `json:"conversation_history"`
}

// Append adds a message to the conversation history
func (c *AgentContext) Append(role types.Role, content string) {
	c.History = append(c.History, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// LastSalesmanMessage returns the most recent trainee utterance, or empty
// string if the trainee has not spoken yet
func (c *AgentContext) LastSalesmanMessage() string {
	for i := len(c.History) - 1; i >= 0; i-- {
		if c.History[i].Role == types.RoleSalesman {
			return c.History[i].Content
		}
	}
	return ""
}

// Clone returns a deep copy of the context
func (c *AgentContext) Clone() *AgentContext {
	if c == nil {
		return nil
	}
	copied := &AgentContext{
		ProfileID:          c.ProfileID,
		ProfileDescription: c.ProfileDescription,
		CurrentObjection:   c.CurrentObjection,
	}
	if c.AllObjections != nil {
		copied.AllObjections = append([]string{}, c.AllObjections...)
	}
	if c.RelatedObjections != nil {
		copied.RelatedObjections = append([]string{}, c.RelatedObjections...)
	}
	if c.History != nil {
		copied.History = append([]Message{}, c.History...)
	}
	return copied
}

// Session is the durable state of one simulated conversation. RoundCount
// increments once per completed turn. Version backs the optimistic check
// that keeps concurrent turns on the same session from interleaving.
type Session struct {
	ID         types.SessionID
	Context    AgentContext
	RoundCount int
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	return &Session{
		ID:         s.ID,
		Context:    *s.Context.Clone(),
		RoundCount: s.RoundCount,
		Version:    s.Version,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}
