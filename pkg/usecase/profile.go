package usecase

import (
	"context"
	"errors"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

// ListClientProfiles returns all client profiles available for training
func (uc *UseCases) ListClientProfiles(ctx context.Context) ([]*model.Entity, error) {
	profiles, err := uc.graph.EntitiesByType(ctx, types.EntityClientProfile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list client profiles")
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].EntityID < profiles[j].EntityID })
	return profiles, nil
}

// GetClientProfile returns one client profile by its stable ID
func (uc *UseCases) GetClientProfile(ctx context.Context, profileID string) (*model.Entity, error) {
	profile, err := uc.graph.EntityByExternalID(ctx, profileID, types.EntityClientProfile)
	if err != nil {
		if errors.Is(err, interfaces.ErrEntityNotFound) {
			return nil, goerr.Wrap(ErrProfileNotFound, "client profile not found", goerr.V(ProfileIDKey, profileID))
		}
		return nil, goerr.Wrap(err, "failed to get client profile", goerr.V(ProfileIDKey, profileID))
	}
	return profile, nil
}

// profileObjections returns the profile's objection descriptions ordered by
// the priority recorded on the HAS_OBJECTION edge, lowest first.
func (uc *UseCases) profileObjections(ctx context.Context, profile *model.Entity) ([]string, error) {
	neighbors, err := uc.graph.Neighbors(ctx, profile.ID, types.RelHasObjection, types.DirectionOut)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list objections", goerr.V(ProfileIDKey, profile.EntityID))
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return edgePriority(neighbors[i].Edge) < edgePriority(neighbors[j].Edge)
	})

	descriptions := make([]string, len(neighbors))
	for i, n := range neighbors {
		descriptions[i] = n.Entity.Description
	}
	return descriptions, nil
}

// edgePriority reads the priority property of an edge. JSON decoding turns
// numbers into float64 while the in-memory backend keeps the original int.
func edgePriority(edge *model.Relationship) float64 {
	if edge == nil || edge.Properties == nil {
		return 0
	}
	switch v := edge.Properties["priority"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
