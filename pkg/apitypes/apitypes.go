// Package apitypes holds the JSON wire shapes the HTTP surface accepts and
// returns, separate from the internal domain types so the API contract can
// evolve independently of storage-layer structs.
package apitypes

import "github.com/graphd/graphd/internal/graphmodel"

// CreateGraphRequest is the JSON body for POST /api/graphs.
type CreateGraphRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	GraphType   string            `json:"graph_type,omitempty"`
	MermaidCode string            `json:"mermaid_code,omitempty"`
	Nodes       []graphmodel.Node `json:"nodes,omitempty"`
	Edges       []graphmodel.Edge `json:"edges,omitempty"`
}

// ImpactRequest is the JSON body for POST /api/graphs/{id}/impact.
type ImpactRequest struct {
	SourceID string `json:"source_id"`
	Depth    int    `json:"depth"`
}

// RawQueryRequest is the JSON body for POST /api/query.
type RawQueryRequest struct {
	Engine   string `json:"engine,omitempty"`
	Database string `json:"database,omitempty"`
	Query    string `json:"query"`
}

// EngineInfo describes one configured engine as reported by GET /api/engines.
type EngineInfo struct {
	Name             string `json:"name"`
	SupportsRawQuery bool   `json:"supports_raw_query"`
	Default          bool   `json:"default"`
}

// ErrorResponse is the JSON body every failed request returns.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
