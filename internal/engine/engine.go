// Package engine defines the storage-engine contract every adapter
// (Cypher-family, relational) implements, plus the registry that selects
// among configured engines at request time.
package engine

import (
	"context"

	"github.com/graphd/graphd/internal/graphmodel"
)

// DatabaseInfo describes one database/namespace an engine exposes.
type DatabaseInfo struct {
	Name       string `json:"name"`
	GraphCount int64  `json:"graph_count"`
}

// CreateGraphSpec carries the two mutually-exclusive ways a client may seed
// a new graph: Mermaid source text, or an explicit node/edge payload.
type CreateGraphSpec struct {
	Title       string
	Description string
	GraphType   string
	MermaidCode string
	Nodes       []graphmodel.Node
	Edges       []graphmodel.Edge
}

// RawQueryResult is the untyped passthrough result of an operator-issued
// raw query against an engine that supports one.
type RawQueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Engine is the storage-engine contract. Every adapter — native Cypher,
// in-memory Cypher, relational — implements this same set of verbs so the
// HTTP surface and the impact engine never need to know which back-end is
// serving a given request.
type Engine interface {
	// Name returns the engine's registered identifier (e.g. "native",
	// "memory", "relational").
	Name() string

	ListDatabases(ctx context.Context) ([]DatabaseInfo, error)
	ListGraphs(ctx context.Context, database string) ([]graphmodel.GraphSummary, error)
	GetGraph(ctx context.Context, database, graphID string) (*graphmodel.Graph, error)
	GetGraphStats(ctx context.Context, database, graphID string) (*graphmodel.GraphStats, error)
	CreateGraph(ctx context.Context, database string, spec CreateGraphSpec) (*graphmodel.GraphSummary, error)
	DeleteGraph(ctx context.Context, database, graphID string) error
	GetNodeNeighbors(ctx context.Context, database, graphID, nodeID string, hops int) (*graphmodel.Graph, error)
	ComputeImpact(ctx context.Context, database, graphID, sourceID string, depth int) (*graphmodel.ImpactResult, error)
	RecountGraph(ctx context.Context, database, graphID string) (*graphmodel.GraphSummary, error)

	ExecuteRawQuery(ctx context.Context, database, query string) (*RawQueryResult, error)
	SupportsRawQuery() bool

	Close() error
}
