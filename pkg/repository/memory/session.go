package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[types.SessionID]*model.Session
}

func newSessionRepository() *sessionRepository {
	return &sessionRepository{
		sessions: make(map[types.SessionID]*model.Session),
	}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := session.Clone()
	if created.ID == "" {
		created.ID = model.NewSessionID()
	}
	if _, exists := r.sessions[created.ID]; exists {
		return nil, goerr.New("session already exists", goerr.V("session_id", created.ID))
	}
	created.Version = 1
	created.CreatedAt = now
	created.UpdatedAt = now

	r.sessions[created.ID] = created
	return created.Clone(), nil
}

func (r *sessionRepository) Get(ctx context.Context, id types.SessionID) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrSessionNotFound, "session not found", goerr.V("session_id", id))
	}
	return session.Clone(), nil
}

func (r *sessionRepository) Update(ctx context.Context, session *model.Session) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[session.ID]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrSessionNotFound, "session not found", goerr.V("session_id", session.ID))
	}
	if current.Version != session.Version {
		return nil, goerr.Wrap(interfaces.ErrVersionConflict, "concurrent session update",
			goerr.V("session_id", session.ID),
			goerr.V("expected", session.Version),
			goerr.V("actual", current.Version),
		)
	}

	updated := session.Clone()
	updated.Version++
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.sessions[session.ID] = updated
	return updated.Clone(), nil
}
