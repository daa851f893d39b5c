package graph

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

// Service exposes the knowledge graph operations. Entities get their
// embedding computed eagerly at creation. There is no update or delete;
// correcting the graph means re-running the builder.
type Service struct {
	repo      interfaces.GraphRepository
	llmClient gollem.LLMClient
}

// New creates a graph service on top of the given repository. The LLM
// client supplies description embeddings.
func New(repo interfaces.GraphRepository, llmClient gollem.LLMClient) (*Service, error) {
	if repo == nil {
		return nil, goerr.New("graph repository is required")
	}
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	return &Service{repo: repo, llmClient: llmClient}, nil
}

// CreateEntity stores a new typed entity with a fresh external ID and an
// eagerly computed description embedding
func (s *Service) CreateEntity(ctx context.Context, entityType types.EntityType, name, description string, properties map[string]any) (*model.Entity, error) {
	return s.CreateEntityWithID(ctx, model.NewEntityID(), entityType, name, description, properties)
}

// CreateEntityWithID is CreateEntity with a caller-chosen external ID, used
// by the builder to keep the stable IDs from the knowledge file
func (s *Service) CreateEntityWithID(ctx context.Context, entityID string, entityType types.EntityType, name, description string, properties map[string]any) (*model.Entity, error) {
	if !entityType.IsValid() {
		return nil, goerr.New("invalid entity type", goerr.V("type", entityType))
	}

	embedding, err := s.Embed(ctx, description)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed entity description", goerr.V("entity_id", entityID))
	}

	created, err := s.repo.PutEntity(ctx, &model.Entity{
		EntityID:    entityID,
		Name:        name,
		Type:        entityType,
		Description: description,
		Embedding:   embedding,
		Properties:  properties,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store entity", goerr.V("entity_id", entityID))
	}
	return created, nil
}

// CreateRelationship stores a directed edge between two existing entities.
// Unknown endpoints fail the write without touching the rest of the graph.
func (s *Service) CreateRelationship(ctx context.Context, sourceID, targetID int64, relType types.RelationshipType, properties map[string]any) (*model.Relationship, error) {
	if !relType.IsValid() {
		return nil, goerr.New("invalid relationship type", goerr.V("type", relType))
	}

	created, err := s.repo.PutRelationship(ctx, &model.Relationship{
		SourceID:   sourceID,
		TargetID:   targetID,
		Type:       relType,
		Properties: properties,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store relationship",
			goerr.V("source_id", sourceID),
			goerr.V("target_id", targetID),
		)
	}
	return created, nil
}

// EntityByExternalID retrieves an entity by its stable external ID and type
func (s *Service) EntityByExternalID(ctx context.Context, entityID string, entityType types.EntityType) (*model.Entity, error) {
	return s.repo.GetEntityByExternalID(ctx, entityID, entityType)
}

// EntitiesByType retrieves all entities of the given type
func (s *Service) EntitiesByType(ctx context.Context, entityType types.EntityType) ([]*model.Entity, error) {
	return s.repo.ListEntitiesByType(ctx, entityType)
}

// Neighbors walks edges of the given type from an entity
func (s *Service) Neighbors(ctx context.Context, entityID int64, relType types.RelationshipType, dir types.Direction) ([]*model.Neighbor, error) {
	return s.repo.Neighbors(ctx, entityID, relType, dir)
}

// Embed generates an embedding vector for the given text
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}
	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}
	return result, nil
}
