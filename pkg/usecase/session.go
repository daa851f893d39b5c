package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
)

// StartSession creates a conversation session against the given client
// profile. It loads the profile's objections ordered by priority, warms the
// context with related objections from the knowledge graph and lets the
// simulated client open the conversation with its first objection.
func (uc *UseCases) StartSession(ctx context.Context, profileID string) (*model.Session, error) {
	profile, err := uc.GetClientProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	objections, err := uc.profileObjections(ctx, profile)
	if err != nil {
		return nil, err
	}

	agentCtx := model.AgentContext{
		ProfileID:          profile.EntityID,
		ProfileDescription: profile.Description,
		AllObjections:      objections,
	}
	if len(objections) > 0 {
		agentCtx.CurrentObjection = objections[0]
	}

	agentCtx.RelatedObjections, err = uc.relatedObjections(ctx, objections)
	if err != nil {
		return nil, err
	}

	opening := uc.clientAgent.GenerateReply(ctx, &agentCtx)
	agentCtx.Append(types.RoleClient, opening)

	session, err := uc.repo.Session().Create(ctx, &model.Session{
		ID:      model.NewSessionID(),
		Context: agentCtx,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session", goerr.V(ProfileIDKey, profileID))
	}

	logging.From(ctx).Info("session started",
		"session_id", session.ID.String(),
		"profile_id", profileID,
		"objections", len(objections),
	)
	return session, nil
}

// relatedObjections searches the graph for objections similar to the
// profile's own, excluding the ones already on the list. They give the
// client agent material to escalate with.
func (uc *UseCases) relatedObjections(ctx context.Context, objections []string) ([]string, error) {
	if len(objections) == 0 {
		return nil, nil
	}

	results, err := uc.retriever.Search(ctx, strings.Join(objections, " "), types.EntityObjection, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search related objections")
	}

	own := make(map[string]bool, len(objections))
	for _, desc := range objections {
		own[desc] = true
	}

	var related []string
	for _, entity := range results {
		if own[entity.Description] {
			continue
		}
		related = append(related, entity.Description)
	}
	return related, nil
}
