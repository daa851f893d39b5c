package sqlite

import (
	"database/sql"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/pitch-lab/pitchcoach/pkg/domain/interfaces"
)

// Client is the SQLite-backed repository. The knowledge graph lives in the
// entities/relationships tables, sessions in their own table with a version
// column for optimistic concurrency.
type Client struct {
	db       *sql.DB
	graph    *graphRepository
	sessions *sessionRepository
}

var _ interfaces.Repository = &Client{}

// New opens or creates a SQLite database at the given path
func New(dbPath string) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", dbPath))
	}

	// WAL keeps readers unblocked during session writes
	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", dbPath))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	c := &Client{
		db:       db,
		graph:    &graphRepository{db: db},
		sessions: &sessionRepository{db: db},
	}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to migrate schema", goerr.V("path", dbPath))
	}
	return c, nil
}

func (c *Client) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_id       TEXT NOT NULL UNIQUE,
		name            TEXT,
		type            TEXT NOT NULL,
		description     TEXT,
		description_vec BLOB,
		properties      TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);

	CREATE TABLE IF NOT EXISTS relationships (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id         INTEGER NOT NULL REFERENCES entities(id),
		target_id         INTEGER NOT NULL REFERENCES entities(id),
		relationship_type TEXT NOT NULL,
		properties        TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id, relationship_type);
	CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id, relationship_type);

	CREATE TABLE IF NOT EXISTS sessions (
		guid          TEXT PRIMARY KEY,
		agent_context TEXT NOT NULL,
		round_count   INTEGER NOT NULL DEFAULT 0,
		version       INTEGER NOT NULL DEFAULT 1,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return goerr.Wrap(err, "failed to create schema")
	}
	return nil
}

func (c *Client) Graph() interfaces.GraphRepository {
	return c.graph
}

func (c *Client) Session() interfaces.SessionRepository {
	return c.sessions
}

func (c *Client) Close() error {
	return c.db.Close()
}

// encodeVector packs an embedding as little-endian float32 bytes
func encodeVector(vec []float32) []byte {
	if vec == nil {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks little-endian float32 bytes into an embedding
func decodeVector(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
