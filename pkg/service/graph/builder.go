package graph

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// ingestConcurrency bounds how many profiles are ingested in parallel.
// Each entity write issues one embedding call, so this also caps the
// embedding request rate.
const ingestConcurrency = 4

// BuildStats summarizes one ingestion run
type BuildStats struct {
	Entities      int
	Relationships int
}

// Ingest builds the knowledge graph from an extracted knowledge file:
// ClientProfile -[HAS_OBJECTION]-> Objection -[ADDRESSED_BY]-> Strategy
// -[USES]-> Technique -[RESULTS_IN]-> Outcome. Profiles are independent
// subgraphs and are loaded in parallel.
func (s *Service) Ingest(ctx context.Context, file *model.KnowledgeFile) (*BuildStats, error) {
	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid knowledge file")
	}

	stats := make([]BuildStats, len(file.Profiles))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(ingestConcurrency)

	for i, profile := range file.Profiles {
		eg.Go(func() error {
			st, err := s.ingestProfile(egCtx, &profile)
			if err != nil {
				return goerr.Wrap(err, "failed to ingest profile", goerr.V("profile_id", profile.ProfileID))
			}
			stats[i] = *st
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var total BuildStats
	for _, st := range stats {
		total.Entities += st.Entities
		total.Relationships += st.Relationships
	}

	logging.From(ctx).Info("knowledge graph built",
		"profiles", len(file.Profiles),
		"entities", total.Entities,
		"relationships", total.Relationships,
	)
	return &total, nil
}

func (s *Service) ingestProfile(ctx context.Context, profile *model.KnowledgeProfile) (*BuildStats, error) {
	var stats BuildStats

	addEntity := func(id string, entityType types.EntityType, name, desc string, props map[string]any) (*model.Entity, error) {
		entity, err := s.CreateEntityWithID(ctx, id, entityType, name, desc, props)
		if err != nil {
			return nil, err
		}
		stats.Entities++
		return entity, nil
	}
	addEdge := func(source, target *model.Entity, relType types.RelationshipType, props map[string]any) error {
		if _, err := s.CreateRelationship(ctx, source.ID, target.ID, relType, props); err != nil {
			return err
		}
		stats.Relationships++
		return nil
	}

	profileEntity, err := addEntity(profile.ProfileID, types.EntityClientProfile, profile.Name, profile.Description, profile.Properties)
	if err != nil {
		return nil, err
	}

	for _, obj := range profile.Objections {
		objEntity, err := addEntity(obj.ID, types.EntityObjection, "Objection: "+truncate(obj.Description, 50), obj.Description, obj.Properties)
		if err != nil {
			return nil, err
		}
		if err := addEdge(profileEntity, objEntity, types.RelHasObjection, map[string]any{"priority": obj.Priority}); err != nil {
			return nil, err
		}

		for _, strat := range obj.Strategies {
			stratEntity, err := addEntity(strat.ID, types.EntityStrategy, "Strategy: "+truncate(strat.Description, 50), strat.Description, strat.Properties)
			if err != nil {
				return nil, err
			}
			if err := addEdge(objEntity, stratEntity, types.RelAddressedBy, nil); err != nil {
				return nil, err
			}

			for _, techn := range strat.Techniques {
				technEntity, err := addEntity(techn.ID, types.EntityTechnique, "Technique: "+truncate(techn.Description, 50), techn.Description, techn.Properties)
				if err != nil {
					return nil, err
				}
				if err := addEdge(stratEntity, technEntity, types.RelUses, nil); err != nil {
					return nil, err
				}

				if techn.Outcome == nil {
					continue
				}
				outcomeEntity, err := addEntity(techn.Outcome.ID, types.EntityOutcome, "Outcome: "+truncate(techn.Outcome.Description, 50), techn.Outcome.Description, techn.Outcome.Properties)
				if err != nil {
					return nil, err
				}
				if err := addEdge(technEntity, outcomeEntity, types.RelResultsIn, nil); err != nil {
					return nil, err
				}
			}
		}
	}
	return &stats, nil
}

// truncate counts runes so a cut can never split a multi-byte character
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
