package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
	"github.com/pitch-lab/pitchcoach/pkg/domain/model"
	"github.com/pitch-lab/pitchcoach/pkg/domain/types"
)

type graphRepository struct {
	db *sql.DB
}

const entityColumns = "id, entity_id, name, type, description, description_vec, properties"

func (r *graphRepository) PutEntity(ctx context.Context, entity *model.Entity) (*model.Entity, error) {
	if entity.EntityID == "" {
		return nil, goerr.New("entity external ID is required")
	}

	props, err := marshalProperties(entity.Properties)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entities (entity_id, name, type, description, description_vec, properties)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entity.EntityID, entity.Name, entity.Type.String(), entity.Description,
		encodeVector(entity.Embedding), props,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert entity", goerr.V("entity_id", entity.EntityID))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read inserted entity ID")
	}

	created := entity.Clone()
	created.ID = id
	return created, nil
}

func (r *graphRepository) PutRelationship(ctx context.Context, rel *model.Relationship) (*model.Relationship, error) {
	for _, endpoint := range []int64{rel.SourceID, rel.TargetID} {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entities WHERE id = ?`, endpoint,
		).Scan(&exists); err != nil {
			return nil, goerr.Wrap(err, "failed to check relationship endpoint")
		}
		if exists == 0 {
			return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "unknown relationship endpoint", goerr.V("id", endpoint))
		}
	}

	props, err := marshalProperties(rel.Properties)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO relationships (source_id, target_id, relationship_type, properties)
		 VALUES (?, ?, ?, ?)`,
		rel.SourceID, rel.TargetID, rel.Type.String(), props,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert relationship")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read inserted relationship ID")
	}

	created := rel.Clone()
	created.ID = id
	return created, nil
}

func (r *graphRepository) GetEntity(ctx context.Context, id int64) (*model.Entity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "entity not found", goerr.V("id", id))
	}
	return entity, err
}

func (r *graphRepository) GetEntityByExternalID(ctx context.Context, entityID string, entityType types.EntityType) (*model.Entity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE entity_id = ? AND type = ?`,
		entityID, entityType.String())

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrEntityNotFound, "entity not found",
			goerr.V("entity_id", entityID),
			goerr.V("type", entityType),
		)
	}
	return entity, err
}

func (r *graphRepository) ListEntitiesByType(ctx context.Context, entityType types.EntityType) ([]*model.Entity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entityColumns+` FROM entities WHERE type = ? ORDER BY id`,
		entityType.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list entities", goerr.V("type", entityType))
	}
	defer rows.Close()

	var result []*model.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}
	return result, rows.Err()
}

func (r *graphRepository) Neighbors(ctx context.Context, entityID int64, relType types.RelationshipType, dir types.Direction) ([]*model.Neighbor, error) {
	join := `r.source_id = ? AND e.id = r.target_id`
	if dir == types.DirectionIn {
		join = `r.target_id = ? AND e.id = r.source_id`
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.entity_id, e.name, e.type, e.description, e.description_vec, e.properties,
		        r.id, r.source_id, r.target_id, r.relationship_type, r.properties
		 FROM relationships r JOIN entities e ON `+join+`
		 WHERE r.relationship_type = ?
		 ORDER BY r.id`,
		entityID, relType.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query neighbors",
			goerr.V("id", entityID),
			goerr.V("relationship_type", relType),
		)
	}
	defer rows.Close()

	var result []*model.Neighbor
	for rows.Next() {
		var (
			entity    model.Entity
			edge      model.Relationship
			entType   string
			relTypeS  string
			vec       []byte
			entProps  sql.NullString
			edgeProps sql.NullString
		)
		if err := rows.Scan(
			&entity.ID, &entity.EntityID, &entity.Name, &entType, &entity.Description, &vec, &entProps,
			&edge.ID, &edge.SourceID, &edge.TargetID, &relTypeS, &edgeProps,
		); err != nil {
			return nil, goerr.Wrap(err, "failed to scan neighbor row")
		}
		entity.Type = types.EntityType(entType)
		entity.Embedding = decodeVector(vec)
		if entity.Properties, err = unmarshalProperties(entProps); err != nil {
			return nil, err
		}
		edge.Type = types.RelationshipType(relTypeS)
		if edge.Properties, err = unmarshalProperties(edgeProps); err != nil {
			return nil, err
		}
		result = append(result, &model.Neighbor{Entity: &entity, Edge: &edge})
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*model.Entity, error) {
	var (
		entity  model.Entity
		entType string
		vec     []byte
		props   sql.NullString
	)
	if err := row.Scan(&entity.ID, &entity.EntityID, &entity.Name, &entType, &entity.Description, &vec, &props); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, goerr.Wrap(err, "failed to scan entity row")
	}
	entity.Type = types.EntityType(entType)
	entity.Embedding = decodeVector(vec)

	var err error
	if entity.Properties, err = unmarshalProperties(props); err != nil {
		return nil, err
	}
	return &entity, nil
}

func marshalProperties(props map[string]any) (sql.NullString, error) {
	if props == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return sql.NullString{}, goerr.Wrap(err, "failed to marshal properties")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalProperties(props sql.NullString) (map[string]any, error) {
	if !props.Valid || props.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(props.String), &m); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal properties")
	}
	return m, nil
}
