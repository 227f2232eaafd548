// Package relational implements the SQL dialect of the engine contract,
// grounded on the teacher's store_sqlite.go: a schema-as-const-string,
// database/sql, modernc.org/sqlite (pure Go, no cgo).
package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/graphd/graphd/internal/apierr"
	"github.com/graphd/graphd/internal/engine"
	"github.com/graphd/graphd/internal/graphmodel"
)

const schema = `
CREATE TABLE IF NOT EXISTS graphs (
    graph_id    TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT,
    graph_type  TEXT,
    node_count  INTEGER NOT NULL DEFAULT 0,
    edge_count  INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS graph_nodes (
    graph_id   TEXT NOT NULL REFERENCES graphs(graph_id) ON DELETE CASCADE,
    node_id    TEXT NOT NULL,
    label      TEXT,
    node_type  TEXT,
    properties TEXT,
    PRIMARY KEY (graph_id, node_id)
);

CREATE TABLE IF NOT EXISTS graph_edges (
    graph_id   TEXT NOT NULL REFERENCES graphs(graph_id) ON DELETE CASCADE,
    source_id  TEXT NOT NULL,
    target_id  TEXT NOT NULL,
    edge_type  TEXT,
    label      TEXT,
    properties TEXT,
    PRIMARY KEY (graph_id, source_id, target_id)
);

CREATE INDEX IF NOT EXISTS idx_graph_edges_source ON graph_edges(graph_id, source_id);
`

const writeBatchMaxParams = 2000

// Engine implements engine.Engine against a pure-Go SQLite database.
type Engine struct {
	name   string
	db     *sql.DB
	logger *slog.Logger
}

// NewEngine opens (creating if absent) the SQLite database at dbPath and
// applies the schema, matching the teacher's NewSQLiteStore DSN and pragma
// choices (foreign keys on, WAL journal mode).
func NewEngine(name, dbPath string, logger *slog.Logger) (*Engine, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("relational: creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("relational: opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("relational: applying schema: %w", err)
	}

	logger.Info("relational engine initialized", "engine", name, "path", dbPath)
	return &Engine{name: name, db: db, logger: logger}, nil
}

func (e *Engine) Name() string { return e.name }

func (e *Engine) Close() error { return e.db.Close() }

func (e *Engine) SupportsRawQuery() bool { return true }

// ListDatabases: the relational adapter has exactly one implicit database
// per configured instance — there is no multi-database concept at the SQL
// layer here, so it always reports a single namespace.
func (e *Engine) ListDatabases(ctx context.Context) ([]engine.DatabaseInfo, error) {
	var count int64
	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graphs`).Scan(&count); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: counting graphs")
	}
	return []engine.DatabaseInfo{{Name: "default", GraphCount: count}}, nil
}

func (e *Engine) ListGraphs(ctx context.Context, database string) ([]graphmodel.GraphSummary, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT graph_id, title, description, graph_type, node_count, edge_count, created_at
		FROM graphs ORDER BY created_at
	`)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: listing graphs")
	}
	defer rows.Close()

	var summaries []graphmodel.GraphSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, apierr.Wrapf(apierr.Internal, err, "relational: scanning graph row")
		}
		summaries = append(summaries, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: listing graphs")
	}
	return summaries, nil
}

func (e *Engine) getSummary(ctx context.Context, graphID string) (*graphmodel.GraphSummary, error) {
	row := e.db.QueryRowContext(ctx, `
		SELECT graph_id, title, description, graph_type, node_count, edge_count, created_at
		FROM graphs WHERE graph_id = ?
	`, graphID)
	s, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "relational: fetching graph %q", graphID)
	}
	return s, nil
}

func (e *Engine) GetGraph(ctx context.Context, database, graphID string) (*graphmodel.Graph, error) {
	summary, err := e.getSummary(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apierr.Newf(apierr.NotFound, "graph %q not found", graphID)
	}

	nodeRows, err := e.db.QueryContext(ctx, `
		SELECT node_id, label, node_type, properties FROM graph_nodes WHERE graph_id = ?
	`, graphID)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: fetching nodes of %q", graphID)
	}
	defer nodeRows.Close()

	var nodes []graphmodel.Node
	for nodeRows.Next() {
		n, err := scanNode(nodeRows)
		if err != nil {
			return nil, apierr.Wrapf(apierr.Internal, err, "relational: scanning node row")
		}
		nodes = append(nodes, *n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: fetching nodes of %q", graphID)
	}

	edgeRows, err := e.db.QueryContext(ctx, `
		SELECT source_id, target_id, edge_type, label, properties FROM graph_edges WHERE graph_id = ?
	`, graphID)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: fetching edges of %q", graphID)
	}
	defer edgeRows.Close()

	var edges []graphmodel.Edge
	for edgeRows.Next() {
		ed, err := scanEdge(edgeRows)
		if err != nil {
			return nil, apierr.Wrapf(apierr.Internal, err, "relational: scanning edge row")
		}
		edges = append(edges, *ed)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: fetching edges of %q", graphID)
	}

	return &graphmodel.Graph{Summary: *summary, Nodes: nodes, Edges: edges}, nil
}

func (e *Engine) GetGraphStats(ctx context.Context, database, graphID string) (*graphmodel.GraphStats, error) {
	summary, err := e.getSummary(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apierr.Newf(apierr.NotFound, "graph %q not found", graphID)
	}

	nodesByType, nodeCount, err := e.countBy(ctx, `SELECT node_type, COUNT(*) FROM graph_nodes WHERE graph_id = ? GROUP BY node_type`, graphID)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: stats for %q", graphID)
	}
	edgesByType, edgeCount, err := e.countBy(ctx, `SELECT edge_type, COUNT(*) FROM graph_edges WHERE graph_id = ? GROUP BY edge_type`, graphID)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: stats for %q", graphID)
	}

	var avgDegree float64
	if nodeCount > 0 {
		avgDegree = float64(2*edgeCount) / float64(nodeCount)
	}

	return &graphmodel.GraphStats{
		NodeCount:     nodeCount,
		EdgeCount:     edgeCount,
		NodesByType:   nodesByType,
		EdgesByType:   edgesByType,
		AverageDegree: avgDegree,
	}, nil
}

func (e *Engine) countBy(ctx context.Context, query, graphID string) (map[string]int64, int64, error) {
	rows, err := e.db.QueryContext(ctx, query, graphID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	var total int64
	for rows.Next() {
		var typ sql.NullString
		var c int64
		if err := rows.Scan(&typ, &c); err != nil {
			return nil, 0, err
		}
		counts[typ.String] = c
		total += c
	}
	return counts, total, rows.Err()
}

func (e *Engine) CreateGraph(ctx context.Context, database string, spec engine.CreateGraphSpec) (*graphmodel.GraphSummary, error) {
	nodes, edges, err := resolveSpec(spec)
	if err != nil {
		return nil, err
	}

	graphID := uuid.NewString()
	now := time.Now().UTC()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: beginning transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO graphs (graph_id, title, description, graph_type, node_count, edge_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, graphID, spec.Title, spec.Description, spec.GraphType, len(nodes), len(edges), now.Format(time.RFC3339)); err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "relational: creating graph record")
	}

	if err := writeNodesBatched(ctx, tx, graphID, nodes); err != nil {
		return nil, err
	}
	if err := writeEdgesBatched(ctx, tx, graphID, edges); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "relational: committing graph creation")
	}

	return &graphmodel.GraphSummary{
		GraphID:     graphID,
		Title:       spec.Title,
		Description: spec.Description,
		GraphType:   spec.GraphType,
		NodeCount:   int64(len(nodes)),
		EdgeCount:   int64(len(edges)),
		CreatedAt:   now,
	}, nil
}

// writeNodesBatched issues batched parametrized upserts, each batch bounded
// to writeBatchMaxParams bound parameters, grounded on the teacher's
// single-row ON CONFLICT upsert generalized into a multi-row VALUES list.
func writeNodesBatched(ctx context.Context, tx *sql.Tx, graphID string, nodes []graphmodel.Node) error {
	const paramsPerRow = 5
	rowsPerBatch := writeBatchMaxParams / paramsPerRow

	for start := 0; start < len(nodes); start += rowsPerBatch {
		end := min(start+rowsPerBatch, len(nodes))
		batch := nodes[start:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*paramsPerRow)
		for _, n := range batch {
			props, err := marshalProperties(n.Properties)
			if err != nil {
				return apierr.Wrapf(apierr.Invalid, err, "relational: marshaling properties of node %q", n.ID)
			}
			placeholders = append(placeholders, "(?, ?, ?, ?, ?)")
			args = append(args, graphID, n.ID, n.Label, n.NodeType, props)
		}

		query := fmt.Sprintf(`
			INSERT INTO graph_nodes (graph_id, node_id, label, node_type, properties)
			VALUES %s
			ON CONFLICT(graph_id, node_id) DO UPDATE SET
				label = excluded.label, node_type = excluded.node_type, properties = excluded.properties
		`, joinPlaceholders(placeholders))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apierr.Wrapf(apierr.Internal, err, "relational: writing node batch for %q", graphID)
		}
	}
	return nil
}

func writeEdgesBatched(ctx context.Context, tx *sql.Tx, graphID string, edges []graphmodel.Edge) error {
	const paramsPerRow = 6
	rowsPerBatch := writeBatchMaxParams / paramsPerRow

	for start := 0; start < len(edges); start += rowsPerBatch {
		end := min(start+rowsPerBatch, len(edges))
		batch := edges[start:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*paramsPerRow)
		for _, ed := range batch {
			props, err := marshalProperties(ed.Properties)
			if err != nil {
				return apierr.Wrapf(apierr.Invalid, err, "relational: marshaling properties of edge %q->%q", ed.SourceID, ed.TargetID)
			}
			placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?)")
			args = append(args, graphID, ed.SourceID, ed.TargetID, ed.EdgeType, ed.Label, props)
		}

		query := fmt.Sprintf(`
			INSERT INTO graph_edges (graph_id, source_id, target_id, edge_type, label, properties)
			VALUES %s
			ON CONFLICT(graph_id, source_id, target_id) DO UPDATE SET
				edge_type = excluded.edge_type, label = excluded.label, properties = excluded.properties
		`, joinPlaceholders(placeholders))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return apierr.Wrapf(apierr.Internal, err, "relational: writing edge batch for %q", graphID)
		}
	}
	return nil
}

func (e *Engine) DeleteGraph(ctx context.Context, database, graphID string) error {
	summary, err := e.getSummary(ctx, graphID)
	if err != nil {
		return err
	}
	if summary == nil {
		return apierr.Newf(apierr.NotFound, "graph %q not found", graphID)
	}

	// ON DELETE CASCADE drops graph_nodes/graph_edges rows structurally —
	// orphan edges are impossible, matching the Cypher adapter's
	// DETACH DELETE guarantee.
	if _, err := e.db.ExecContext(ctx, `DELETE FROM graphs WHERE graph_id = ?`, graphID); err != nil {
		return apierr.Wrapf(apierr.Internal, err, "relational: deleting graph %q", graphID)
	}
	return nil
}

func (e *Engine) GetNodeNeighbors(ctx context.Context, database, graphID, nodeID string, hops int) (*graphmodel.Graph, error) {
	if hops <= 0 {
		hops = 1
	}

	frontier := map[string]bool{nodeID: true}
	reached := map[string]bool{}

	for h := 0; h < hops; h++ {
		if len(frontier) == 0 {
			break
		}
		next, err := e.expandFrontier(ctx, graphID, frontier)
		if err != nil {
			return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: neighbors of %q in %q", nodeID, graphID)
		}
		newFrontier := map[string]bool{}
		for id := range next {
			if id != nodeID && !reached[id] {
				reached[id] = true
				newFrontier[id] = true
			}
		}
		frontier = newFrontier
	}

	ids := make([]string, 0, len(reached))
	for id := range reached {
		ids = append(ids, id)
	}
	nodes, err := e.fetchNodesByID(ctx, graphID, ids)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: fetching neighbor nodes of %q", nodeID)
	}

	edgeIDs := append(append([]string{}, ids...), nodeID)
	edges, err := e.fetchEdgesWithin(ctx, graphID, edgeIDs)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: fetching neighbor edges of %q", nodeID)
	}

	return &graphmodel.Graph{Nodes: nodes, Edges: edges}, nil
}

// fetchEdgesWithin returns every edge whose source and target both lie in
// ids, the edge set among a neighborhood returned by GetNodeNeighbors.
func (e *Engine) fetchEdgesWithin(ctx context.Context, graphID string, ids []string) ([]graphmodel.Edge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, idArgs := inClause(ids)
	args := make([]any, 0, 1+2*len(idArgs))
	args = append(args, graphID)
	args = append(args, idArgs...)
	args = append(args, idArgs...)

	query := fmt.Sprintf(`
		SELECT source_id, target_id, edge_type, label, properties FROM graph_edges
		WHERE graph_id = ? AND source_id IN (%s) AND target_id IN (%s)
	`, placeholders, placeholders)

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []graphmodel.Edge
	for rows.Next() {
		ed, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *ed)
	}
	return edges, rows.Err()
}

// expandFrontier returns every node adjacent (either direction) to any
// member of frontier, via one parametrized query per call.
func (e *Engine) expandFrontier(ctx context.Context, graphID string, frontier map[string]bool) (map[string]bool, error) {
	ids := make([]string, 0, len(frontier))
	for id := range frontier {
		ids = append(ids, id)
	}
	placeholders, idArgs := inClause(ids)
	args := make([]any, 0, 2+2*len(idArgs))
	args = append(args, graphID)
	args = append(args, idArgs...)
	args = append(args, graphID)
	args = append(args, idArgs...)

	query := fmt.Sprintf(`
		SELECT target_id FROM graph_edges WHERE graph_id = ? AND source_id IN (%s)
		UNION
		SELECT source_id FROM graph_edges WHERE graph_id = ? AND target_id IN (%s)
	`, placeholders, placeholders)

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// ComputeImpact runs a frontier-loop BFS: one parametrized query per depth
// level, never a flat recursive CTE (which explodes combinatorially on
// branching graphs via its implicit cross-product walk enumeration before
// the DISTINCT collapses it). Memory is bounded by reachable-node count,
// not total walk count.
func (e *Engine) ComputeImpact(ctx context.Context, database, graphID, sourceID string, depth int) (*graphmodel.ImpactResult, error) {
	visited := map[string]int{sourceID: 0}
	frontier := []string{sourceID}

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		next, err := e.expandForward(ctx, graphID, frontier)
		if err != nil {
			return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "relational: impact of %q in %q", sourceID, graphID)
		}

		var newFrontier []string
		for _, id := range next {
			if _, ok := visited[id]; !ok {
				visited[id] = level
				newFrontier = append(newFrontier, id)
			}
		}
		frontier = newFrontier
	}

	nodes := make([]graphmodel.ImpactLevelNode, 0, len(visited))
	for id, level := range visited {
		if id == sourceID {
			continue
		}
		nodes = append(nodes, graphmodel.ImpactLevelNode{NodeID: id, Level: level})
	}

	return &graphmodel.ImpactResult{SourceID: sourceID, Nodes: nodes}, nil
}

// expandForward returns the distinct set of nodes directly reachable via an
// outgoing edge from any node in frontier.
func (e *Engine) expandForward(ctx context.Context, graphID string, frontier []string) ([]string, error) {
	placeholders, args := inClause(frontier)
	args = append([]any{graphID}, args...)

	query := fmt.Sprintf(`
		SELECT DISTINCT target_id FROM graph_edges WHERE graph_id = ? AND source_id IN (%s)
	`, placeholders)

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (e *Engine) fetchNodesByID(ctx context.Context, graphID string, ids []string) ([]graphmodel.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(ids)
	args = append([]any{graphID}, args...)

	query := fmt.Sprintf(`
		SELECT node_id, label, node_type, properties FROM graph_nodes
		WHERE graph_id = ? AND node_id IN (%s)
	`, placeholders)

	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []graphmodel.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

func (e *Engine) RecountGraph(ctx context.Context, database, graphID string) (*graphmodel.GraphSummary, error) {
	summary, err := e.getSummary(ctx, graphID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apierr.Newf(apierr.NotFound, "graph %q not found", graphID)
	}

	var nodeCount, edgeCount int64
	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_nodes WHERE graph_id = ?`, graphID).Scan(&nodeCount); err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "relational: recounting nodes for %q", graphID)
	}
	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_edges WHERE graph_id = ?`, graphID).Scan(&edgeCount); err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "relational: recounting edges for %q", graphID)
	}

	if _, err := e.db.ExecContext(ctx, `UPDATE graphs SET node_count = ?, edge_count = ? WHERE graph_id = ?`, nodeCount, edgeCount, graphID); err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "relational: persisting recount for %q", graphID)
	}

	summary.NodeCount = nodeCount
	summary.EdgeCount = edgeCount
	return summary, nil
}

func (e *Engine) ExecuteRawQuery(ctx context.Context, database, query string) (*engine.RawQueryResult, error) {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apierr.Wrapf(apierr.Invalid, err, "relational: raw query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, apierr.Wrapf(apierr.Invalid, err, "relational: raw query columns")
	}

	out := &engine.RawQueryResult{Columns: cols}
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apierr.Wrapf(apierr.Invalid, err, "relational: raw query row scan")
		}
		out.Rows = append(out.Rows, dest)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.Invalid, err, "relational: raw query")
	}
	return out, nil
}

func resolveSpec(spec engine.CreateGraphSpec) ([]graphmodel.Node, []graphmodel.Edge, error) {
	return engine.ResolveSpec(spec)
}

func marshalProperties(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "", nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalProperties(s string) map[string]any {
	if s == "" {
		return nil
	}
	var m map[string]any
	_ = json.Unmarshal([]byte(s), &m)
	return m
}

func scanSummary(row interface{ Scan(dest ...any) error }) (*graphmodel.GraphSummary, error) {
	var s graphmodel.GraphSummary
	var description, graphType sql.NullString
	var createdAt string
	if err := row.Scan(&s.GraphID, &s.Title, &description, &graphType, &s.NodeCount, &s.EdgeCount, &createdAt); err != nil {
		return nil, err
	}
	s.Description = description.String
	s.GraphType = graphType.String
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func scanNode(row interface{ Scan(dest ...any) error }) (*graphmodel.Node, error) {
	var n graphmodel.Node
	var label, nodeType, properties sql.NullString
	if err := row.Scan(&n.ID, &label, &nodeType, &properties); err != nil {
		return nil, err
	}
	n.Label = label.String
	n.NodeType = nodeType.String
	n.Properties = unmarshalProperties(properties.String)
	return &n, nil
}

func scanEdge(row interface{ Scan(dest ...any) error }) (*graphmodel.Edge, error) {
	var e graphmodel.Edge
	var edgeType, label, properties sql.NullString
	if err := row.Scan(&e.SourceID, &e.TargetID, &edgeType, &label, &properties); err != nil {
		return nil, err
	}
	e.EdgeType = edgeType.String
	e.Label = label.String
	e.Properties = unmarshalProperties(properties.String)
	return &e, nil
}

// inClause builds a "?, ?, ..." placeholder string plus the matching args
// slice for a SQL IN clause.
func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return joinPlaceholders(placeholders), args
}

func joinPlaceholders(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
