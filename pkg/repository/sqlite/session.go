package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

type sessionRepository struct {
	db *sql.DB
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) (*model.Session, error) {
	created := session.Clone()
	if created.ID == "" {
		created.ID = model.NewSessionID()
	}
	now := time.Now().UTC()
	created.Version = 1
	created.CreatedAt = now
	created.UpdatedAt = now

	contextJSON, err := json.Marshal(created.Context)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal agent context")
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (guid, agent_context, round_count, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		created.ID.String(), string(contextJSON), created.RoundCount, created.Version,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	); err != nil {
		return nil, goerr.Wrap(err, "failed to insert session", goerr.V("session_id", created.ID))
	}
	return created, nil
}

func (r *sessionRepository) Get(ctx context.Context, id types.SessionID) (*model.Session, error) {
	var (
		session     model.Session
		guid        string
		contextJSON string
		createdAt   string
		updatedAt   string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT guid, agent_context, round_count, version, created_at, updated_at
		 FROM sessions WHERE guid = ?`, id.String(),
	).Scan(&guid, &contextJSON, &session.RoundCount, &session.Version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrSessionNotFound, "session not found", goerr.V("session_id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query session", goerr.V("session_id", id))
	}

	session.ID = types.SessionID(guid)
	if err := json.Unmarshal([]byte(contextJSON), &session.Context); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal agent context", goerr.V("session_id", id))
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, goerr.Wrap(err, "failed to parse created_at", goerr.V("session_id", id))
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, goerr.Wrap(err, "failed to parse updated_at", goerr.V("session_id", id))
	}
	return &session, nil
}

func (r *sessionRepository) Update(ctx context.Context, session *model.Session) (*model.Session, error) {
	contextJSON, err := json.Marshal(session.Context)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal agent context")
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET agent_context = ?, round_count = ?, version = version + 1, updated_at = ?
		 WHERE guid = ? AND version = ?`,
		string(contextJSON), session.RoundCount, now.Format(time.RFC3339Nano),
		session.ID.String(), session.Version,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update session", goerr.V("session_id", session.ID))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		// Either the session is gone or the version check lost a race
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sessions WHERE guid = ?`, session.ID.String(),
		).Scan(&exists); err != nil {
			return nil, goerr.Wrap(err, "failed to check session existence")
		}
		if exists == 0 {
			return nil, goerr.Wrap(interfaces.ErrSessionNotFound, "session not found", goerr.V("session_id", session.ID))
		}
		return nil, goerr.Wrap(interfaces.ErrVersionConflict, "concurrent session update",
			goerr.V("session_id", session.ID),
			goerr.V("version", session.Version),
		)
	}

	updated := session.Clone()
	updated.Version++
	updated.UpdatedAt = now
	return updated, nil
}
