package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoGraph is returned when the database holds no graph snapshot yet.
var ErrNoGraph = errors.New("no graph has been imported")

// Store is the SQLite persistence layer for value graph snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  name            TEXT NOT NULL,
  settings        TEXT
);

CREATE TABLE IF NOT EXISTS targets (
  id              INTEGER PRIMARY KEY,
  project_id      INTEGER NOT NULL REFERENCES projects(id),
  ordinal         INTEGER NOT NULL,
  name            TEXT NOT NULL,
  platform        TEXT NOT NULL,
  product         TEXT NOT NULL,
  product_name    TEXT,
  bundle_id       TEXT,
  sources         TEXT,
  resources       TEXT,
  settings        TEXT,
  UNIQUE(project_id, name)
);

-- One row per dependency node. identity is model.Identity, a JSON array of
-- the kind and every field, so two nodes are the same row iff they are equal.
CREATE TABLE IF NOT EXISTS nodes (
  id              INTEGER PRIMARY KEY,
  identity        TEXT NOT NULL UNIQUE,
  kind            TEXT NOT NULL,
  name            TEXT,
  path            TEXT,
  binary_path     TEXT,
  dsym_path       TEXT,
  info_plist_path TEXT,
  public_headers  TEXT,
  swift_module_map TEXT,
  linking         TEXT,
  architectures   INTEGER DEFAULT 0,
  sdk_kind        TEXT,
  sdk_status      TEXT
);

CREATE TABLE IF NOT EXISTS edges (
  from_id         INTEGER NOT NULL REFERENCES nodes(id),
  to_id           INTEGER NOT NULL REFERENCES nodes(id),
  PRIMARY KEY (from_id, to_id)
);

CREATE INDEX IF NOT EXISTS idx_targets_project ON targets(project_id);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);
`
