package model

import (
	"github.com/google/uuid"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector.
// nomic-embed-text and Gemini text-embedding-004 both use 768 dimensions.
const EmbeddingDimension = 768

// NewEntityID generates a new UUID v4 external entity identifier
func NewEntityID() string {
	return uuid.New().String()
}

// Entity is a typed node in the knowledge graph. Description and Type are
// immutable after creation, so the embedding computed at creation time stays
// consistent with the description.
type Entity struct {
	ID          int64 // internal relational key
	EntityID    string
	Name        string
	Type        types.EntityType
	Description string
	Embedding   []float32
	Properties  map[string]any
}

// Clone returns a deep copy of the entity
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	copied := &Entity{
		ID:          e.ID,
		EntityID:    e.EntityID,
		Name:        e.Name,
		Type:        e.Type,
		Description: e.Description,
	}
	if e.Embedding != nil {
		copied.Embedding = make([]float32, len(e.Embedding))
		copy(copied.Embedding, e.Embedding)
	}
	if e.Properties != nil {
		copied.Properties = make(map[string]any, len(e.Properties))
		for k, v := range e.Properties {
			copied.Properties[k] = v
		}
	}
	return copied
}

// Relationship is a typed, directed edge between two entities. Relationships
// are immutable once written; only the graph builder creates them.
type Relationship struct {
	ID         int64
	SourceID   int64
	TargetID   int64
	Type       types.RelationshipType
	Properties map[string]any
}

// Clone returns a deep copy of the relationship
func (r *Relationship) Clone() *Relationship {
	if r == nil {
		return nil
	}
	copied := &Relationship{
		ID:       r.ID,
		SourceID: r.SourceID,
		TargetID: r.TargetID,
		Type:     r.Type,
	}
	if r.Properties != nil {
		copied.Properties = make(map[string]any, len(r.Properties))
		for k, v := range r.Properties {
			copied.Properties[k] = v
		}
	}
	return copied
}

// Neighbor pairs an adjacent entity with the edge that reaches it
type Neighbor struct {
	Entity *Entity
	Edge   *Relationship
}
