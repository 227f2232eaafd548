// Package cypher implements the Cypher/Bolt dialect of the engine contract,
// shared by the native graph-database variant and the in-memory variant of
// the same family. Only the driver URI/auth and a multiDatabase dialect
// flag differ between the two; both are constructed through NewEngine.
package cypher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/graphd/graphd/internal/apierr"
	"github.com/graphd/graphd/internal/engine"
	"github.com/graphd/graphd/internal/graphmodel"
)

const writeBatchSize = 500

// Engine implements engine.Engine against any Bolt-speaking, Cypher-dialect
// store (Neo4j or the Neo4j-family in-memory variant).
type Engine struct {
	name          string
	driver        neo4j.DriverWithContext
	newSession    sessionFactory
	multiDatabase bool
	logger        *slog.Logger
}

// NewEngine dials uri, verifies connectivity within 5s, bootstraps the
// constraint/index schema, and returns a ready Engine. multiDatabase should
// be false for the in-memory variant, which does not support Neo4j's
// multi-database feature.
func NewEngine(name, uri, username, password string, multiDatabase bool, logger *slog.Logger) (*Engine, error) {
	auth := neo4j.NoAuth()
	if username != "" {
		auth = neo4j.BasicAuth(username, password, "")
	}

	driver, err := neo4j.NewDriverWithContext(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("cypher: creating driver for %q: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("cypher: %q connectivity check failed: %w", name, err)
	}

	if err := bootstrap(ctx, driver); err != nil {
		_ = driver.Close(context.Background())
		return nil, fmt.Errorf("cypher: %q bootstrap failed: %w", name, err)
	}

	logger.Info("cypher engine initialized", "engine", name, "uri", uri, "multi_database", multiDatabase)
	return &Engine{
		name:          name,
		driver:        driver,
		newSession:    newNeo4jSessionFactory(driver, multiDatabase),
		multiDatabase: multiDatabase,
		logger:        logger,
	}, nil
}

func (e *Engine) Name() string { return e.name }

func (e *Engine) Close() error { return e.driver.Close(context.Background()) }

func (e *Engine) SupportsRawQuery() bool { return true }

// ListDatabases reports the single implicit namespace when this variant
// does not support Neo4j's multi-database feature, degrading gracefully
// per spec's multi-database tolerance requirement.
func (e *Engine) ListDatabases(ctx context.Context) ([]engine.DatabaseInfo, error) {
	if !e.multiDatabase {
		return []engine.DatabaseInfo{{Name: "default"}}, nil
	}

	session := e.newSession(ctx, "system")
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, `SHOW DATABASES YIELD name`, nil)
	if err != nil {
		e.logger.Warn("SHOW DATABASES failed, degrading to single namespace", "engine", e.name, "error", err)
		return []engine.DatabaseInfo{{Name: "default"}}, nil
	}

	var dbs []engine.DatabaseInfo
	for result.Next(ctx) {
		name, _ := result.Record().Get("name")
		if s, ok := name.(string); ok {
			dbs = append(dbs, engine.DatabaseInfo{Name: s})
		}
	}
	if err := result.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: listing databases on %q", e.name)
	}
	return dbs, nil
}

func (e *Engine) ListGraphs(ctx context.Context, database string) ([]graphmodel.GraphSummary, error) {
	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, `
		MATCH (g:Graph)
		RETURN g.id AS id, g.title AS title, g.description AS description,
		       g.graph_type AS graph_type, g.node_count AS node_count,
		       g.edge_count AS edge_count, g.created_at AS created_at
		ORDER BY g.created_at
	`, nil)
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: listing graphs on %q", e.name)
	}

	var summaries []graphmodel.GraphSummary
	for result.Next(ctx) {
		summaries = append(summaries, recordToSummary(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: listing graphs on %q", e.name)
	}
	return summaries, nil
}

func (e *Engine) GetGraph(ctx context.Context, database, graphID string) (*graphmodel.Graph, error) {
	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	summary, err := e.getGraphSummary(ctx, session, graphID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apierr.Newf(apierr.NotFound, "graph %q not found", graphID)
	}

	nodesResult, err := session.Run(ctx, `
		MATCH (n:GraphNode {graph_id: $gid})
		RETURN n.node_id AS node_id, n.label AS label, n.node_type AS node_type, n.properties AS properties
	`, map[string]any{"gid": graphID})
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: fetching nodes of %q", graphID)
	}
	var nodes []graphmodel.Node
	for nodesResult.Next(ctx) {
		nodes = append(nodes, recordToNode(nodesResult.Record()))
	}
	if err := nodesResult.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: fetching nodes of %q", graphID)
	}

	edgesResult, err := session.Run(ctx, `
		MATCH (a:GraphNode {graph_id: $gid})-[r:CONNECTED_TO {graph_id: $gid}]->(b:GraphNode {graph_id: $gid})
		RETURN a.node_id AS source_id, b.node_id AS target_id, r.edge_type AS edge_type,
		       r.label AS label, r.properties AS properties
	`, map[string]any{"gid": graphID})
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: fetching edges of %q", graphID)
	}
	var edges []graphmodel.Edge
	for edgesResult.Next(ctx) {
		edges = append(edges, recordToEdge(edgesResult.Record()))
	}
	if err := edgesResult.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: fetching edges of %q", graphID)
	}

	return &graphmodel.Graph{Summary: *summary, Nodes: nodes, Edges: edges}, nil
}

func (e *Engine) GetGraphStats(ctx context.Context, database, graphID string) (*graphmodel.GraphStats, error) {
	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	nodeResult, err := session.Run(ctx, `
		MATCH (n:GraphNode {graph_id: $gid})
		RETURN n.node_type AS node_type, count(*) AS c
	`, map[string]any{"gid": graphID})
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: stats for %q", graphID)
	}
	nodesByType := make(map[string]int64)
	var nodeCount int64
	for nodeResult.Next(ctx) {
		rec := nodeResult.Record()
		typ, _ := rec.Get("node_type")
		c, _ := rec.Get("c")
		n := toInt64(c)
		nodesByType[toString(typ)] = n
		nodeCount += n
	}
	if err := nodeResult.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: stats for %q", graphID)
	}

	edgeResult, err := session.Run(ctx, `
		MATCH (:GraphNode {graph_id: $gid})-[r:CONNECTED_TO {graph_id: $gid}]->(:GraphNode {graph_id: $gid})
		RETURN r.edge_type AS edge_type, count(*) AS c
	`, map[string]any{"gid": graphID})
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: stats for %q", graphID)
	}
	edgesByType := make(map[string]int64)
	var edgeCount int64
	for edgeResult.Next(ctx) {
		rec := edgeResult.Record()
		typ, _ := rec.Get("edge_type")
		c, _ := rec.Get("c")
		n := toInt64(c)
		edgesByType[toString(typ)] = n
		edgeCount += n
	}
	if err := edgeResult.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: stats for %q", graphID)
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

func (e *Engine) CreateGraph(ctx context.Context, database string, spec engine.CreateGraphSpec) (*graphmodel.GraphSummary, error) {
	nodes, edges, err := resolveSpec(spec)
	if err != nil {
		return nil, err
	}

	graphID := uuid.NewString()
	now := time.Now().UTC()

	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	_, err = session.Run(ctx, `
		CREATE (g:Graph {id: $id, title: $title, description: $description,
		                 graph_type: $graph_type, node_count: $node_count,
		                 edge_count: $edge_count, created_at: $created_at})
	`, map[string]any{
		"id":          graphID,
		"title":       spec.Title,
		"description": spec.Description,
		"graph_type":  spec.GraphType,
		"node_count":  int64(len(nodes)),
		"edge_count":  int64(len(edges)),
		"created_at":  now.Format(time.RFC3339),
	})
	if err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "cypher: creating graph record")
	}

	if err := e.writeNodesBatched(ctx, session, graphID, nodes); err != nil {
		return nil, err
	}
	if err := e.writeEdgesBatched(ctx, session, graphID, edges); err != nil {
		return nil, err
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

// writeNodesBatched unfolds rows via UNWIND in batches of writeBatchSize,
// grounded on the teacher's SyncToMemgraph batching loop.
func (e *Engine) writeNodesBatched(ctx context.Context, session sessionRunner, graphID string, nodes []graphmodel.Node) error {
	for start := 0; start < len(nodes); start += writeBatchSize {
		end := min(start+writeBatchSize, len(nodes))
		rows := make([]map[string]any, 0, end-start)
		for _, n := range nodes[start:end] {
			props, err := marshalProperties(n.Properties)
			if err != nil {
				return apierr.Wrapf(apierr.Invalid, err, "cypher: marshaling properties of node %q", n.ID)
			}
			rows = append(rows, map[string]any{
				"node_id":   n.ID,
				"label":     n.Label,
				"node_type": n.NodeType,
				"properties": props,
			})
		}
		_, err := session.Run(ctx, `
			UNWIND $rows AS row
			CREATE (n:GraphNode {graph_id: $gid, node_id: row.node_id, label: row.label,
			                     node_type: row.node_type, properties: row.properties})
		`, map[string]any{"gid": graphID, "rows": rows})
		if err != nil {
			return apierr.Wrapf(apierr.Internal, err, "cypher: writing node batch for %q", graphID)
		}
	}
	return nil
}

func (e *Engine) writeEdgesBatched(ctx context.Context, session sessionRunner, graphID string, edges []graphmodel.Edge) error {
	for start := 0; start < len(edges); start += writeBatchSize {
		end := min(start+writeBatchSize, len(edges))
		rows := make([]map[string]any, 0, end-start)
		for _, ed := range edges[start:end] {
			props, err := marshalProperties(ed.Properties)
			if err != nil {
				return apierr.Wrapf(apierr.Invalid, err, "cypher: marshaling properties of edge %q->%q", ed.SourceID, ed.TargetID)
			}
			rows = append(rows, map[string]any{
				"source_id":  ed.SourceID,
				"target_id":  ed.TargetID,
				"edge_type":  ed.EdgeType,
				"label":      ed.Label,
				"properties": props,
			})
		}
		_, err := session.Run(ctx, `
			UNWIND $rows AS row
			MATCH (a:GraphNode {graph_id: $gid, node_id: row.source_id})
			MATCH (b:GraphNode {graph_id: $gid, node_id: row.target_id})
			MERGE (a)-[r:CONNECTED_TO]->(b)
			ON CREATE SET r.graph_id = $gid, r.edge_type = row.edge_type,
			              r.label = row.label, r.properties = row.properties
			ON MATCH SET r.edge_type = row.edge_type, r.label = row.label,
			             r.properties = row.properties
		`, map[string]any{"gid": graphID, "rows": rows})
		if err != nil {
			return apierr.Wrapf(apierr.Internal, err, "cypher: writing edge batch for %q", graphID)
		}
	}
	return nil
}

func (e *Engine) DeleteGraph(ctx context.Context, database, graphID string) error {
	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	summary, err := e.getGraphSummary(ctx, session, graphID)
	if err != nil {
		return err
	}
	if summary == nil {
		return apierr.Newf(apierr.NotFound, "graph %q not found", graphID)
	}

	if _, err := session.Run(ctx, `
		MATCH (n:GraphNode {graph_id: $gid}) DETACH DELETE n
	`, map[string]any{"gid": graphID}); err != nil {
		return apierr.Wrapf(apierr.Internal, err, "cypher: deleting nodes of %q", graphID)
	}
	if _, err := session.Run(ctx, `
		MATCH (g:Graph {id: $gid}) DELETE g
	`, map[string]any{"gid": graphID}); err != nil {
		return apierr.Wrapf(apierr.Internal, err, "cypher: deleting graph record %q", graphID)
	}
	return nil
}

func (e *Engine) GetNodeNeighbors(ctx context.Context, database, graphID, nodeID string, hops int) (*graphmodel.Graph, error) {
	if hops <= 0 {
		hops = 1
	}
	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	cypher := fmt.Sprintf(`
		MATCH (src:GraphNode {graph_id: $gid, node_id: $nid})-[:CONNECTED_TO*1..%d]-(n:GraphNode {graph_id: $gid})
		WITH DISTINCT n
		RETURN n.node_id AS node_id, n.label AS label, n.node_type AS node_type, n.properties AS properties
	`, hops)

	result, err := session.Run(ctx, cypher, map[string]any{"gid": graphID, "nid": nodeID})
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: neighbors of %q in %q", nodeID, graphID)
	}

	var nodes []graphmodel.Node
	ids := []string{nodeID}
	for result.Next(ctx) {
		n := recordToNode(result.Record())
		nodes = append(nodes, n)
		ids = append(ids, n.ID)
	}
	if err := result.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: neighbors of %q in %q", nodeID, graphID)
	}

	edgesResult, err := session.Run(ctx, `
		MATCH (a:GraphNode {graph_id: $gid})-[r:CONNECTED_TO]->(b:GraphNode {graph_id: $gid})
		WHERE a.node_id IN $ids AND b.node_id IN $ids
		RETURN a.node_id AS source_id, b.node_id AS target_id, r.edge_type AS edge_type,
		       r.label AS label, r.properties AS properties
	`, map[string]any{"gid": graphID, "ids": ids})
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: neighbor edges of %q in %q", nodeID, graphID)
	}
	var edges []graphmodel.Edge
	for edgesResult.Next(ctx) {
		edges = append(edges, recordToEdge(edgesResult.Record()))
	}
	if err := edgesResult.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: neighbor edges of %q in %q", nodeID, graphID)
	}

	return &graphmodel.Graph{Nodes: nodes, Edges: edges}, nil
}

// ComputeImpact runs one Cypher call using variable-length path matching,
// aggregated in Cypher to the minimum path length per reached node — the
// Cypher-native analogue of the relational adapter's frontier-loop BFS.
func (e *Engine) ComputeImpact(ctx context.Context, database, graphID, sourceID string, depth int) (*graphmodel.ImpactResult, error) {
	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	cypher := fmt.Sprintf(`
		MATCH path = (src:GraphNode {graph_id: $gid, node_id: $sid})-[:CONNECTED_TO*1..%d]->(n:GraphNode {graph_id: $gid})
		WHERE n.node_id <> $sid
		WITH n, min(length(path)) AS level
		RETURN n.node_id AS node_id, level AS level
	`, depth)

	result, err := session.Run(ctx, cypher, map[string]any{"gid": graphID, "sid": sourceID})
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: impact of %q in %q", sourceID, graphID)
	}

	var nodes []graphmodel.ImpactLevelNode
	for result.Next(ctx) {
		rec := result.Record()
		nodeID, _ := rec.Get("node_id")
		level, _ := rec.Get("level")
		nodes = append(nodes, graphmodel.ImpactLevelNode{NodeID: toString(nodeID), Level: int(toInt64(level))})
	}
	if err := result.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: impact of %q in %q", sourceID, graphID)
	}

	return &graphmodel.ImpactResult{SourceID: sourceID, Nodes: nodes}, nil
}

func (e *Engine) RecountGraph(ctx context.Context, database, graphID string) (*graphmodel.GraphSummary, error) {
	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	summary, err := e.getGraphSummary(ctx, session, graphID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, apierr.Newf(apierr.NotFound, "graph %q not found", graphID)
	}

	countResult, err := session.Run(ctx, `
		MATCH (n:GraphNode {graph_id: $gid})
		OPTIONAL MATCH (n)-[r:CONNECTED_TO {graph_id: $gid}]->(:GraphNode {graph_id: $gid})
		RETURN count(DISTINCT n) AS node_count, count(r) AS edge_count
	`, map[string]any{"gid": graphID})
	if err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "cypher: recounting %q", graphID)
	}
	var nodeCount, edgeCount int64
	if countResult.Next(ctx) {
		rec := countResult.Record()
		nc, _ := rec.Get("node_count")
		ec, _ := rec.Get("edge_count")
		nodeCount = toInt64(nc)
		edgeCount = toInt64(ec)
	}
	if err := countResult.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "cypher: recounting %q", graphID)
	}

	if _, err := session.Run(ctx, `
		MATCH (g:Graph {id: $gid}) SET g.node_count = $node_count, g.edge_count = $edge_count
	`, map[string]any{"gid": graphID, "node_count": nodeCount, "edge_count": edgeCount}); err != nil {
		return nil, apierr.Wrapf(apierr.Internal, err, "cypher: persisting recount for %q", graphID)
	}

	summary.NodeCount = nodeCount
	summary.EdgeCount = edgeCount
	return summary, nil
}

func (e *Engine) ExecuteRawQuery(ctx context.Context, database, query string) (*engine.RawQueryResult, error) {
	session := e.newSession(ctx, database)
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apierr.Wrapf(apierr.Invalid, err, "cypher: raw query")
	}

	out := &engine.RawQueryResult{}
	for result.Next(ctx) {
		rec := result.Record()
		if out.Columns == nil {
			out.Columns = rec.Keys
		}
		out.Rows = append(out.Rows, rec.Values)
	}
	if err := result.Err(); err != nil {
		return nil, apierr.Wrapf(apierr.Invalid, err, "cypher: raw query")
	}
	return out, nil
}

func (e *Engine) getGraphSummary(ctx context.Context, session sessionRunner, graphID string) (*graphmodel.GraphSummary, error) {
	result, err := session.Run(ctx, `
		MATCH (g:Graph {id: $id})
		RETURN g.id AS id, g.title AS title, g.description AS description,
		       g.graph_type AS graph_type, g.node_count AS node_count,
		       g.edge_count AS edge_count, g.created_at AS created_at
	`, map[string]any{"id": graphID})
	if err != nil {
		return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: fetching graph %q", graphID)
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, apierr.Wrapf(apierr.StoreUnavailable, err, "cypher: fetching graph %q", graphID)
		}
		return nil, nil
	}
	s := recordToSummary(result.Record())
	return &s, nil
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

func recordToSummary(record *neo4j.Record) graphmodel.GraphSummary {
	createdAt := toString(getValue(record, "created_at"))
	var ts time.Time
	if createdAt != "" {
		ts, _ = time.Parse(time.RFC3339, createdAt)
	}
	return graphmodel.GraphSummary{
		GraphID:     toString(getValue(record, "id")),
		Title:       toString(getValue(record, "title")),
		Description: toString(getValue(record, "description")),
		GraphType:   toString(getValue(record, "graph_type")),
		NodeCount:   toInt64(getValue(record, "node_count")),
		EdgeCount:   toInt64(getValue(record, "edge_count")),
		CreatedAt:   ts,
	}
}

func recordToNode(record *neo4j.Record) graphmodel.Node {
	return graphmodel.Node{
		ID:         toString(getValue(record, "node_id")),
		Label:      toString(getValue(record, "label")),
		NodeType:   toString(getValue(record, "node_type")),
		Properties: unmarshalProperties(toString(getValue(record, "properties"))),
	}
}

func recordToEdge(record *neo4j.Record) graphmodel.Edge {
	return graphmodel.Edge{
		SourceID:   toString(getValue(record, "source_id")),
		TargetID:   toString(getValue(record, "target_id")),
		EdgeType:   toString(getValue(record, "edge_type")),
		Label:      toString(getValue(record, "label")),
		Properties: unmarshalProperties(toString(getValue(record, "properties"))),
	}
}

func getValue(record *neo4j.Record, key string) any {
	v, ok := record.Get(key)
	if !ok {
		return nil
	}
	return v
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
