package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/graphd/graphd/internal/apierr"
	"github.com/graphd/graphd/internal/cache"
	"github.com/graphd/graphd/internal/engine"
	"github.com/graphd/graphd/internal/impact"
	"github.com/graphd/graphd/pkg/apitypes"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, apitypes.ErrorResponse{Error: msg, Kind: kind})
}

// writeAPIErr maps err's apierr.Kind to a status code and writes the
// response, logging anything that surfaces as an internal error.
func (s *Server) writeAPIErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := apierr.KindOf(err)
	status := apierr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error(), string(kind))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListEngines(w http.ResponseWriter, r *http.Request) {
	defaultName := s.registry.Default()
	infos := make([]apitypes.EngineInfo, 0, len(s.registry.Names()))
	for _, name := range s.registry.Names() {
		eng, err := s.registry.Resolve(name)
		if err != nil {
			continue
		}
		infos = append(infos, apitypes.EngineInfo{
			Name:             name,
			SupportsRawQuery: eng.SupportsRawQuery(),
			Default:          name == defaultName,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eng, err := s.registry.Resolve(r.URL.Query().Get("engine"))
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	w.Header().Set("X-Engine", eng.Name())

	dbs, err := eng.ListDatabases(ctx)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dbs)
}

func (s *Server) handleListGraphs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	engineName := r.URL.Query().Get("engine")
	database := r.URL.Query().Get("database")

	eng, err := s.registry.Resolve(engineName)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	w.Header().Set("X-Engine", eng.Name())

	graphs, err := eng.ListGraphs(ctx, database)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graphs)
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	s.cachedGraphRead(w, r, "get_graph", func(eng engine.Engine, database, graphID string) (any, error) {
		return eng.GetGraph(r.Context(), database, graphID)
	})
}

func (s *Server) handleGetGraphStats(w http.ResponseWriter, r *http.Request) {
	s.cachedGraphRead(w, r, "get_graph_stats", func(eng engine.Engine, database, graphID string) (any, error) {
		return eng.GetGraphStats(r.Context(), database, graphID)
	})
}

func (s *Server) handleGetNodeNeighbors(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("nodeId")
	hops := 1
	if v := r.URL.Query().Get("hops"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "hops must be a positive integer", string(apierr.Invalid))
			return
		}
		hops = n
	}

	s.cachedGraphRead(w, r, "get_node_neighbors", func(eng engine.Engine, database, graphID string) (any, error) {
		return eng.GetNodeNeighbors(r.Context(), database, graphID, nodeID, hops)
	})
}

// cachedGraphRead wires the common cache-fingerprint-then-load shape shared
// by every read-only graph endpoint: resolve the engine, build a
// fingerprint, check ?nocache=true, and marshal whatever load returns.
func (s *Server) cachedGraphRead(w http.ResponseWriter, r *http.Request, operation string, load func(eng engine.Engine, database, graphID string) (any, error)) {
	ctx := r.Context()
	engineName := r.URL.Query().Get("engine")
	database := r.URL.Query().Get("database")
	graphID := r.PathValue("id")

	eng, err := s.registry.Resolve(engineName)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	w.Header().Set("X-Engine", eng.Name())

	fp := cache.Fingerprint{
		Engine:    eng.Name(),
		Database:  database,
		GraphID:   graphID,
		Operation: operation,
		Params:    map[string]any{"node_id": r.PathValue("nodeId"), "hops": r.URL.Query().Get("hops")},
	}

	loadFn := func() ([]byte, bool, error) {
		v, err := load(eng, database, graphID)
		if err != nil {
			return nil, apierr.Cacheable(apierr.KindOf(err)), err
		}
		snap, merr := json.Marshal(v)
		if merr != nil {
			return nil, false, merr
		}
		return snap, true, nil
	}

	var snap []byte
	var hit bool
	if r.URL.Query().Get("nocache") == "true" || !s.cacheEnabled() {
		w.Header().Set("X-Cache", "BYPASS")
		snap, err = s.cache.Bypass(ctx, fp, loadFn)
	} else {
		snap, hit, err = s.cache.GetOrLoad(ctx, fp, loadFn)
		if hit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
	}
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap)
}

func (s *Server) cacheEnabled() bool {
	return s.cache != nil
}

func (s *Server) handleComputeImpact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	graphID := r.PathValue("id")
	engineName := r.URL.Query().Get("engine")
	database := r.URL.Query().Get("database")

	var req apitypes.ImpactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", string(apierr.Invalid))
		return
	}
	if req.Depth == 0 {
		req.Depth = 3
	}
	if req.SourceID == "" {
		writeError(w, http.StatusBadRequest, "source_id is required", string(apierr.Invalid))
		return
	}

	eng, err := s.registry.Resolve(engineName)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	w.Header().Set("X-Engine", eng.Name())

	fp := cache.Fingerprint{
		Engine:    eng.Name(),
		Database:  database,
		GraphID:   graphID,
		Operation: "compute_impact",
		Params:    map[string]any{"source_id": req.SourceID, "depth": req.Depth},
	}

	loadFn := func() ([]byte, bool, error) {
		result, err := impact.Compute(ctx, s.registry, eng.Name(), database, graphID, req.SourceID, req.Depth)
		if err != nil {
			return nil, apierr.Cacheable(apierr.KindOf(err)), err
		}
		snap, merr := json.Marshal(result)
		if merr != nil {
			return nil, false, merr
		}
		return snap, true, nil
	}

	var snap []byte
	var hit bool
	if r.URL.Query().Get("nocache") == "true" || !s.cacheEnabled() {
		w.Header().Set("X-Cache", "BYPASS")
		snap, err = s.cache.Bypass(ctx, fp, loadFn)
	} else {
		snap, hit, err = s.cache.GetOrLoad(ctx, fp, loadFn)
		if hit {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
	}
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(snap)
}

func (s *Server) handleRawQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req apitypes.RawQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", string(apierr.Invalid))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required", string(apierr.Invalid))
		return
	}

	eng, err := s.registry.Resolve(req.Engine)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	w.Header().Set("X-Engine", eng.Name())

	if !eng.SupportsRawQuery() {
		s.writeAPIErr(w, r, apierr.Newf(apierr.NotSupported, "engine %q does not support raw queries", eng.Name()))
		return
	}

	result, err := eng.ExecuteRawQuery(ctx, req.Database, req.Query)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCreateGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	engineName := r.URL.Query().Get("engine")
	database := r.URL.Query().Get("database")

	var req apitypes.CreateGraphRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", string(apierr.Invalid))
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required", string(apierr.Invalid))
		return
	}

	eng, err := s.registry.Resolve(engineName)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	w.Header().Set("X-Engine", eng.Name())

	summary, err := eng.CreateGraph(ctx, database, toSpec(req))
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	s.cache.InvalidatePrefix(eng.Name(), database, summary.GraphID)
	writeJSON(w, http.StatusCreated, summary)
}

func (s *Server) handleDeleteGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	engineName := r.URL.Query().Get("engine")
	database := r.URL.Query().Get("database")
	graphID := r.PathValue("id")

	eng, err := s.registry.Resolve(engineName)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	w.Header().Set("X-Engine", eng.Name())

	if err := eng.DeleteGraph(ctx, database, graphID); err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	s.cache.InvalidatePrefix(eng.Name(), database, graphID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecountGraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	engineName := r.URL.Query().Get("engine")
	database := r.URL.Query().Get("database")
	graphID := r.PathValue("id")

	eng, err := s.registry.Resolve(engineName)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	w.Header().Set("X-Engine", eng.Name())

	summary, err := eng.RecountGraph(ctx, database, graphID)
	if err != nil {
		s.writeAPIErr(w, r, err)
		return
	}
	s.cache.InvalidatePrefix(eng.Name(), database, graphID)
	writeJSON(w, http.StatusOK, summary)
}

func toSpec(req apitypes.CreateGraphRequest) engine.CreateGraphSpec {
	return engine.CreateGraphSpec{
		Title:       req.Title,
		Description: req.Description,
		GraphType:   req.GraphType,
		MermaidCode: req.MermaidCode,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
	}
}
