package interfaces

import (
	"context"

	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	Graph() GraphRepository
	Session() SessionRepository
	Close() error
}

// GraphRepository persists knowledge graph entities and relationships.
// The graph is read-mostly: writes happen only during offline ingestion,
// so reads require no coordination at conversation time.
type GraphRepository interface {
	// PutEntity stores a new entity and assigns its internal ID
	PutEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error)

	// PutRelationship stores a new edge between two existing entities
	PutRelationship(ctx context.Context, rel *model.Relationship) (*model.Relationship, error)

	// GetEntity retrieves an entity by internal ID
	GetEntity(ctx context.Context, id int64) (*model.Entity, error)

	// GetEntityByExternalID retrieves an entity by its stable external ID,
	// restricted to the given type
	GetEntityByExternalID(ctx context.Context, entityID string, entityType types.EntityType) (*model.Entity, error)

	// ListEntitiesByType retrieves all entities of the given type
	ListEntitiesByType(ctx context.Context, entityType types.EntityType) ([]*model.Entity, error)

	// Neighbors retrieves adjacent entities over edges of the given type,
	// ordered by edge creation, paired with the edge that reaches them
	Neighbors(ctx context.Context, entityID int64, relType types.RelationshipType, dir types.Direction) ([]*model.Neighbor, error)
}

// SessionRepository persists conversation sessions. Update applies an
// optimistic version check: a stale Version fails with ErrVersionConflict so
// two concurrent turns on the same session cannot interleave history appends.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) (*model.Session, error)
	Get(ctx context.Context, id types.SessionID) (*model.Session, error)
	Update(ctx context.Context, session *model.Session) (*model.Session, error)
}
