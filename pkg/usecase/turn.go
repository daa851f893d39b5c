package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/agent/coach"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
)

// TurnResult is everything one completed turn produces
type TurnResult struct {
	Session     *model.Session
	ClientReply string
	Coach       *coach.Report
}

// SubmitTurn processes one trainee response: the coach reviews it, the
// simulated client answers it and the objection cursor advances. Only one
// turn may be in flight per session; a second concurrent submission fails
// with ErrSessionBusy instead of interleaving history appends.
func (uc *UseCases) SubmitTurn(ctx context.Context, sessionID types.SessionID, response string) (*TurnResult, error) {
	if strings.TrimSpace(response) == "" {
		return nil, goerr.Wrap(ErrInvalidRequest, "response must not be empty", goerr.V(SessionIDKey, sessionID.String()))
	}

	if _, inFlight := uc.turnGuard.LoadOrStore(sessionID, struct{}{}); inFlight {
		return nil, goerr.Wrap(ErrSessionBusy, "turn already in flight", goerr.V(SessionIDKey, sessionID.String()))
	}
	defer uc.turnGuard.Delete(sessionID)

	session, err := uc.repo.Session().Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrSessionNotFound) {
			return nil, goerr.Wrap(ErrSessionNotFound, "unknown session", goerr.V(SessionIDKey, sessionID.String()))
		}
		return nil, goerr.Wrap(err, "failed to load session", goerr.V(SessionIDKey, sessionID.String()))
	}

	session.Context.Append(types.RoleSalesman, response)

	report, err := uc.coachAgent.Analyze(ctx, &session.Context)
	if err != nil {
		return nil, goerr.Wrap(err, "coach analysis failed", goerr.V(SessionIDKey, sessionID.String()))
	}

	reply := uc.clientAgent.GenerateReply(ctx, &session.Context)
	session.Context.Append(types.RoleClient, reply)

	session.RoundCount++
	if len(session.Context.AllObjections) > 0 {
		index := NextObjectionIndex(len(session.Context.History), len(session.Context.AllObjections))
		session.Context.CurrentObjection = session.Context.AllObjections[index]
	}

	updated, err := uc.repo.Session().Update(ctx, session)
	if err != nil {
		if errors.Is(err, interfaces.ErrVersionConflict) {
			return nil, goerr.Wrap(ErrSessionBusy, "session changed concurrently", goerr.V(SessionIDKey, sessionID.String()))
		}
		return nil, goerr.Wrap(err, "failed to persist session", goerr.V(SessionIDKey, sessionID.String()))
	}

	logging.From(ctx).Info("turn completed",
		"session_id", sessionID.String(),
		"round", updated.RoundCount,
		"classification", report.Classification.String(),
		"solutions", len(report.Solutions),
	)

	return &TurnResult{
		Session:     updated,
		ClientReply: reply,
		Coach:       report,
	}, nil
}

// GetSession returns the current state of a session
func (uc *UseCases) GetSession(ctx context.Context, sessionID types.SessionID) (*model.Session, error) {
	session, err := uc.repo.Session().Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrSessionNotFound) {
			return nil, goerr.Wrap(ErrSessionNotFound, "unknown session", goerr.V(SessionIDKey, sessionID.String()))
		}
		return nil, goerr.Wrap(err, "failed to load session", goerr.V(SessionIDKey, sessionID.String()))
	}
	return session, nil
}
