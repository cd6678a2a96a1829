package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/jward/buildgraph/internal/model"
)

// Metadata keys.
const (
	metaName       = "name"
	metaEntryPath  = "entry_path"
	metaHash       = "graph_hash"
	metaImportedAt = "imported_at"
)

// GraphStats summarises the stored snapshot.
type GraphStats struct {
	Name       string    `json:"name"`
	EntryPath  string    `json:"entry_path"`
	Hash       string    `json:"hash"`
	ImportedAt time.Time `json:"imported_at"`
	Projects   int       `json:"projects"`
	Targets    int       `json:"targets"`
	Nodes      int       `json:"nodes"`
	Edges      int       `json:"edges"`
}

// SaveGraph replaces the stored snapshot with g in a single transaction.
func (s *Store) SaveGraph(g *model.Graph) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save graph: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"edges", "nodes", "targets", "projects", "metadata"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("save graph: clear %s: %w", table, err)
		}
	}

	for _, path := range g.ProjectPaths() {
		if err := insertProjectTx(tx, g, path); err != nil {
			return fmt.Errorf("save graph: project %s: %w", path, err)
		}
	}

	nodeIDs := make(map[model.Dependency]int64)
	nodes := g.Nodes()
	for _, d := range nodes {
		id, err := insertNodeTx(tx, d)
		if err != nil {
			return fmt.Errorf("save graph: node %s: %w", d, err)
		}
		nodeIDs[d] = id
	}
	for _, from := range nodes {
		for _, to := range g.Edges(from) {
			if _, err := tx.Exec("INSERT INTO edges (from_id, to_id) VALUES (?, ?)", nodeIDs[from], nodeIDs[to]); err != nil {
				return fmt.Errorf("save graph: edge %s -> %s: %w", from, to, err)
			}
		}
	}

	meta := map[string]string{
		metaName:       g.Name,
		metaEntryPath:  g.EntryPath,
		metaHash:       ComputeGraphHash(g),
		metaImportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT INTO metadata (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save graph: metadata %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save graph: commit: %w", err)
	}
	return nil
}

// orderedTargets returns the targets at path in project order, followed by
// any target only present in the targets map, by name.
func orderedTargets(g *model.Graph, path string) []model.Target {
	byName := g.Targets[path]
	out := make([]model.Target, 0, len(byName))
	seen := map[string]bool{}
	for _, t := range g.Projects[path].Targets {
		if cur, ok := byName[t.Name]; ok && !seen[t.Name] {
			out = append(out, cur)
			seen[t.Name] = true
		}
	}
	var rest []model.Target
	for name, t := range byName {
		if !seen[name] {
			rest = append(rest, t)
		}
	}
	model.SortTargets(rest)
	return append(out, rest...)
}

func insertProjectTx(tx *sql.Tx, g *model.Graph, path string) error {
	p, ok := g.Projects[path]
	if !ok {
		p = model.Project{Path: path, Name: filepath.Base(path)}
	}
	settings, err := marshalSettings(p.Settings)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	res, err := tx.Exec("INSERT INTO projects (path, name, settings) VALUES (?, ?, ?)", path, p.Name, settings)
	if err != nil {
		return err
	}
	projectID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, t := range orderedTargets(g, path) {
		settings, err := marshalSettings(t.Settings)
		if err != nil {
			return fmt.Errorf("target %s settings: %w", t.Name, err)
		}
		_, err = tx.Exec(
			`INSERT INTO targets (project_id, ordinal, name, platform, product, product_name, bundle_id, sources, resources, settings)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, i, t.Name, string(t.Platform), string(t.Product),
			nullable(t.ProductName), nullable(t.BundleID),
			marshalStrings(t.Sources), marshalStrings(t.Resources), settings,
		)
		if err != nil {
			return fmt.Errorf("target %s: %w", t.Name, err)
		}
	}
	return nil
}

// LoadGraph rebuilds the stored snapshot. It returns ErrNoGraph when
// nothing has been saved.
func (s *Store) LoadGraph() (*model.Graph, error) {
	meta, err := s.metadata()
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	if _, ok := meta[metaHash]; !ok {
		return nil, ErrNoGraph
	}
	g := model.NewGraph(meta[metaName], meta[metaEntryPath])

	if err := s.loadProjects(g); err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	nodes, err := s.loadNodes()
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}

	rows, err := s.db.Query("SELECT from_id, to_id FROM edges")
	if err != nil {
		return nil, fmt.Errorf("load graph: query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var from, to int64
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("load graph: scan edge: %w", err)
		}
		g.AddEdge(nodes[from], nodes[to])
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load graph: edges: %w", err)
	}
	return g, nil
}

func (s *Store) loadProjects(g *model.Graph) error {
	rows, err := s.db.Query("SELECT id, path, name, settings FROM projects ORDER BY path")
	if err != nil {
		return fmt.Errorf("query projects: %w", err)
	}
	projects := map[int64]*model.Project{}
	var order []int64
	for rows.Next() {
		var (
			id       int64
			p        model.Project
			settings sql.NullString
		)
		if err := rows.Scan(&id, &p.Path, &p.Name, &settings); err != nil {
			rows.Close()
			return fmt.Errorf("scan project: %w", err)
		}
		if p.Settings, err = unmarshalSettings(settings.String); err != nil {
			rows.Close()
			return fmt.Errorf("project %s settings: %w", p.Path, err)
		}
		projects[id] = &p
		order = append(order, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("projects: %w", err)
	}
	rows.Close()

	trows, err := s.db.Query(
		`SELECT project_id, name, platform, product, product_name, bundle_id, sources, resources, settings
		 FROM targets ORDER BY project_id, ordinal`)
	if err != nil {
		return fmt.Errorf("query targets: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var (
			projectID   int64
			t           model.Target
			platform    string
			product     string
			productName sql.NullString
			bundleID    sql.NullString
			sources     sql.NullString
			resources   sql.NullString
			settings    sql.NullString
		)
		if err := trows.Scan(&projectID, &t.Name, &platform, &product, &productName, &bundleID, &sources, &resources, &settings); err != nil {
			return fmt.Errorf("scan target: %w", err)
		}
		t.Platform = model.Platform(platform)
		t.Product = model.Product(product)
		t.ProductName = productName.String
		t.BundleID = bundleID.String
		t.Sources = unmarshalStrings(sources.String)
		t.Resources = unmarshalStrings(resources.String)
		if t.Settings, err = unmarshalSettings(settings.String); err != nil {
			return fmt.Errorf("target %s settings: %w", t.Name, err)
		}
		if p := projects[projectID]; p != nil {
			p.Targets = append(p.Targets, t)
		}
	}
	if err := trows.Err(); err != nil {
		return fmt.Errorf("targets: %w", err)
	}

	for _, id := range order {
		g.AddProject(*projects[id])
	}
	return nil
}

func (s *Store) metadata() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM metadata")
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()
	meta := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// GraphHash returns the content hash of the stored snapshot, or "" when
// nothing has been saved.
func (s *Store) GraphHash() (string, error) {
	var hash string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", metaHash).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("graph hash: %w", err)
	}
	return hash, nil
}

// Stats summarises the stored snapshot. It returns ErrNoGraph when nothing
// has been saved.
func (s *Store) Stats() (*GraphStats, error) {
	meta, err := s.metadata()
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if _, ok := meta[metaHash]; !ok {
		return nil, ErrNoGraph
	}
	st := &GraphStats{Name: meta[metaName], EntryPath: meta[metaEntryPath], Hash: meta[metaHash]}
	st.ImportedAt, _ = time.Parse(time.RFC3339, meta[metaImportedAt])

	counts := []struct {
		table string
		dst   *int
	}{
		{"projects", &st.Projects},
		{"targets", &st.Targets},
		{"nodes", &st.Nodes},
		{"edges", &st.Edges},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: count %s: %w", c.table, err)
		}
	}
	return st, nil
}

// ProjectPaths lists the stored project paths in order.
func (s *Store) ProjectPaths() ([]string, error) {
	rows, err := s.db.Query("SELECT path FROM projects ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("project paths: %w", err)
	}
	defer rows.Close()
	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("project paths: scan: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("project paths: %w", err)
	}
	return slices.Clip(paths), nil
}
