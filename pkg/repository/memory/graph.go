package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

type graphRepository struct {
	mu            sync.RWMutex
	nextEntityID  int64
	nextRelID     int64
	entities      map[int64]*model.Entity
	byExternalID  map[string]int64
	relationships map[int64]*model.Relationship
}

func newGraphRepository() *graphRepository {
	return &graphRepository{
		entities:      make(map[int64]*model.Entity),
		byExternalID:  make(map[string]int64),
		relationships: make(map[int64]*model.Relationship),
	}
}

func (r *graphRepository) PutEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entity.EntityID == "" {
		return nil, goerr.New("entity external ID is required")
	}
	if _, exists := r.byExternalID[entity.EntityID]; exists {
		return nil, goerr.New("entity external ID already exists", goerr.V("entity_id", entity.EntityID))
	}

	r.nextEntityID++
	created := entity.Clone()
	created.ID = r.nextEntityID

	r.entities[created.ID] = created
	r.byExternalID[created.EntityID] = created.ID
	return created.Clone(), nil
}

func (r *graphRepository) PutRelationship(ctx context.Context, rel *model.Relationship) (*model.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entities[rel.SourceID]; !ok {
		return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "unknown source entity", goerr.V("source_id", rel.SourceID))
	}
	if _, ok := r.entities[rel.TargetID]; !ok {
		return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "unknown target entity", goerr.V("target_id", rel.TargetID))
	}

	r.nextRelID++
	created := rel.Clone()
	created.ID = r.nextRelID

	r.relationships[created.ID] = created
	return created.Clone(), nil
}

func (r *graphRepository) GetEntity(ctx context.Context, id int64) (*model.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, ok := r.entities[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "entity not found", goerr.V("id", id))
	}
	return entity.Clone(), nil
}

func (r *graphRepository) GetEntityByExternalID(ctx context.Context, entityID string, entityType types.EntityType) (*model.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternalID[entityID]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "entity not found", goerr.V("entity_id", entityID))
	}
	entity := r.entities[id]
	if entity.Type != entityType {
		return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "entity type mismatch",
			goerr.V("entity_id", entityID),
			goerr.V("want", entityType),
			goerr.V("got", entity.Type),
		)
	}
	return entity.Clone(), nil
}

func (r *graphRepository) ListEntitiesByType(ctx context.Context, entityType types.EntityType) ([]*model.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Entity
	for _, e := range r.entities {
		if e.Type == entityType {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *graphRepository) Neighbors(ctx context.Context, entityID int64, relType types.RelationshipType, dir types.Direction) ([]*model.Neighbor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.entities[entityID]; !ok {
		return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "entity not found", goerr.V("id", entityID))
	}

	var edges []*model.Relationship
	for _, rel := range r.relationships {
		if rel.Type != relType {
			continue
		}
		switch dir {
		case types.DirectionOut:
			if rel.SourceID == entityID {
				edges = append(edges, rel)
			}
		case types.DirectionIn:
			if rel.TargetID == entityID {
				edges = append(edges, rel)
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	result := make([]*model.Neighbor, 0, len(edges))
	for _, edge := range edges {
		otherID := edge.TargetID
		if dir == types.DirectionIn {
			otherID = edge.SourceID
		}
		other, ok := r.entities[otherID]
		if !ok {
			continue
		}
		result = append(result, &model.Neighbor{
			Entity: other.Clone(),
			Edge:   edge.Clone(),
		})
	}
	return result, nil
}
