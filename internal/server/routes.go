package server

import "net/http"

// RegisterRoutes registers every route spec.md's §6 route table names,
// using Go 1.22+ method+wildcard ServeMux patterns exactly as the teacher's
// RegisterRoutes does.
func RegisterRoutes(mux *http.ServeMux, s *Server) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/engines", s.handleListEngines)
	mux.HandleFunc("GET /api/databases", s.handleListDatabases)
	mux.HandleFunc("GET /api/graphs", s.handleListGraphs)
	mux.HandleFunc("GET /api/graphs/{id}", s.handleGetGraph)
	mux.HandleFunc("GET /api/graphs/{id}/stats", s.handleGetGraphStats)
	mux.HandleFunc("GET /api/graphs/{id}/neighbors/{nodeId}", s.handleGetNodeNeighbors)
	mux.HandleFunc("POST /api/graphs/{id}/impact", s.handleComputeImpact)
	mux.HandleFunc("POST /api/query", s.handleRawQuery)
	mux.HandleFunc("GET /optim/cache/stats", s.handleCacheStats)

	if !s.readOnly {
		mux.HandleFunc("POST /api/graphs", s.handleCreateGraph)
		mux.HandleFunc("DELETE /api/graphs/{id}", s.handleDeleteGraph)
		mux.HandleFunc("POST /api/graphs/{id}/recount", s.handleRecountGraph)
	}
}
