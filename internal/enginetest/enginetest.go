// Package enginetest provides a conformance test suite run against every
// engine.Engine implementation, so the native Cypher, in-memory Cypher, and
// relational adapters are all held to the identical set of behavioral
// guarantees the contract promises.
//
// Call enginetest.Run from each adapter's own test file:
//
//	func TestConformance(t *testing.T) {
//		eng := newTestEngine(t)
//		enginetest.Run(t, eng)
//	}
package enginetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphd/graphd/internal/apierr"
	"github.com/graphd/graphd/internal/engine"
	"github.com/graphd/graphd/internal/graphmodel"
)

// Run executes the shared conformance battery against eng. Cases run in
// order on the same engine instance; each case creates the graph it checks,
// so no case depends on state another case left behind.
func Run(t *testing.T, eng engine.Engine) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateAndGetGraph", func(t *testing.T) { testCreateAndGetGraph(ctx, t, eng) })
	t.Run("ParallelEdgesCollapseBySourceTarget", func(t *testing.T) { testParallelEdgesCollapseBySourceTarget(ctx, t, eng) })
	t.Run("GetGraphNotFound", func(t *testing.T) { testGetGraphNotFound(ctx, t, eng) })
	t.Run("GetGraphStats", func(t *testing.T) { testGetGraphStats(ctx, t, eng) })
	t.Run("ComputeImpactRespectsDepth", func(t *testing.T) { testComputeImpactRespectsDepth(ctx, t, eng) })
	t.Run("GetNodeNeighbors", func(t *testing.T) { testGetNodeNeighbors(ctx, t, eng) })
	t.Run("RecountGraph", func(t *testing.T) { testRecountGraph(ctx, t, eng) })
	t.Run("CreateGraphFromMermaidCode", func(t *testing.T) { testCreateGraphFromMermaidCode(ctx, t, eng) })
	t.Run("DeleteGraphRemovesIt", func(t *testing.T) { testDeleteGraphRemovesIt(ctx, t, eng) })
}

func testCreateAndGetGraph(ctx context.Context, t *testing.T, eng engine.Engine) {
	summary, err := eng.CreateGraph(ctx, "", engine.CreateGraphSpec{
		Title: "conformance-basic",
		Nodes: []graphmodel.Node{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Beta"}},
		Edges: []graphmodel.Edge{{SourceID: "a", TargetID: "b", EdgeType: "CONNECTED_TO"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.NodeCount)
	assert.Equal(t, int64(1), summary.EdgeCount)
	assert.NotEmpty(t, summary.GraphID)

	graph, err := eng.GetGraph(ctx, "", summary.GraphID)
	require.NoError(t, err)
	assert.Len(t, graph.Nodes, 2)
	assert.Len(t, graph.Edges, 1)
}

// testParallelEdgesCollapseBySourceTarget asserts the write path's uniqueness
// key is (source_id, target_id) alone: a second edge between the same pair,
// even with a different edge_type, updates the existing row rather than
// coexisting as a parallel edge.
func testParallelEdgesCollapseBySourceTarget(ctx context.Context, t *testing.T, eng engine.Engine) {
	summary, err := eng.CreateGraph(ctx, "", engine.CreateGraphSpec{
		Title: "conformance-parallel-edges",
		Nodes: []graphmodel.Node{{ID: "a"}, {ID: "b"}},
		Edges: []graphmodel.Edge{
			{SourceID: "a", TargetID: "b", EdgeType: "CALLS"},
			{SourceID: "a", TargetID: "b", EdgeType: "DEPENDS_ON"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.EdgeCount)

	graph, err := eng.GetGraph(ctx, "", summary.GraphID)
	require.NoError(t, err)
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, "DEPENDS_ON", graph.Edges[0].EdgeType)
}

func testGetGraphNotFound(ctx context.Context, t *testing.T, eng engine.Engine) {
	_, err := eng.GetGraph(ctx, "", "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, apierr.NotFound, apierr.KindOf(err))
}

func testGetGraphStats(ctx context.Context, t *testing.T, eng engine.Engine) {
	summary, err := eng.CreateGraph(ctx, "", engine.CreateGraphSpec{
		Title: "conformance-stats",
		Nodes: []graphmodel.Node{
			{ID: "s1", NodeType: "service"},
			{ID: "s2", NodeType: "service"},
			{ID: "d1", NodeType: "database"},
		},
		Edges: []graphmodel.Edge{
			{SourceID: "s1", TargetID: "d1", EdgeType: "READS_FROM"},
			{SourceID: "s2", TargetID: "d1", EdgeType: "READS_FROM"},
		},
	})
	require.NoError(t, err)

	stats, err := eng.GetGraphStats(ctx, "", summary.GraphID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.NodeCount)
	assert.Equal(t, int64(2), stats.EdgeCount)
	assert.Equal(t, int64(2), stats.NodesByType["service"])
	assert.Equal(t, int64(1), stats.NodesByType["database"])
}

func testComputeImpactRespectsDepth(ctx context.Context, t *testing.T, eng engine.Engine) {
	summary, err := eng.CreateGraph(ctx, "", engine.CreateGraphSpec{
		Title: "conformance-impact",
		Nodes: []graphmodel.Node{{ID: "x1"}, {ID: "x2"}, {ID: "x3"}, {ID: "x4"}},
		Edges: []graphmodel.Edge{
			{SourceID: "x1", TargetID: "x2"},
			{SourceID: "x2", TargetID: "x3"},
			{SourceID: "x3", TargetID: "x4"},
		},
	})
	require.NoError(t, err)

	result, err := eng.ComputeImpact(ctx, "", summary.GraphID, "x1", 2)
	require.NoError(t, err)

	byID := map[string]int{}
	for _, n := range result.Nodes {
		byID[n.NodeID] = n.Level
	}
	assert.Equal(t, map[string]int{"x2": 1, "x3": 2}, byID)
	assert.NotContains(t, byID, "x1")
	assert.NotContains(t, byID, "x4")
}

func testGetNodeNeighbors(ctx context.Context, t *testing.T, eng engine.Engine) {
	summary, err := eng.CreateGraph(ctx, "", engine.CreateGraphSpec{
		Title: "conformance-neighbors",
		Nodes: []graphmodel.Node{{ID: "center"}, {ID: "up"}, {ID: "down"}},
		Edges: []graphmodel.Edge{
			{SourceID: "up", TargetID: "center"},
			{SourceID: "center", TargetID: "down"},
		},
	})
	require.NoError(t, err)

	neighbors, err := eng.GetNodeNeighbors(ctx, "", summary.GraphID, "center", 1)
	require.NoError(t, err)

	ids := make([]string, 0, len(neighbors.Nodes))
	for _, n := range neighbors.Nodes {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"up", "down"}, ids)

	type pair struct{ source, target string }
	pairs := make([]pair, 0, len(neighbors.Edges))
	for _, e := range neighbors.Edges {
		pairs = append(pairs, pair{e.SourceID, e.TargetID})
	}
	assert.ElementsMatch(t, []pair{{"up", "center"}, {"center", "down"}}, pairs)
}

func testRecountGraph(ctx context.Context, t *testing.T, eng engine.Engine) {
	summary, err := eng.CreateGraph(ctx, "", engine.CreateGraphSpec{
		Title: "conformance-recount",
		Nodes: []graphmodel.Node{{ID: "only"}},
	})
	require.NoError(t, err)

	recounted, err := eng.RecountGraph(ctx, "", summary.GraphID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), recounted.NodeCount)
	assert.Equal(t, int64(0), recounted.EdgeCount)
}

func testCreateGraphFromMermaidCode(ctx context.Context, t *testing.T, eng engine.Engine) {
	summary, err := eng.CreateGraph(ctx, "", engine.CreateGraphSpec{
		Title:       "conformance-mermaid",
		MermaidCode: "graph TD\n  svc --> db\n  svc --> cache\n",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.NodeCount)
	assert.Equal(t, int64(2), summary.EdgeCount)
}

func testDeleteGraphRemovesIt(ctx context.Context, t *testing.T, eng engine.Engine) {
	summary, err := eng.CreateGraph(ctx, "", engine.CreateGraphSpec{
		Title: "conformance-delete",
		Nodes: []graphmodel.Node{{ID: "solo"}},
	})
	require.NoError(t, err)

	require.NoError(t, eng.DeleteGraph(ctx, "", summary.GraphID))

	_, err = eng.GetGraph(ctx, "", summary.GraphID)
	require.Error(t, err)
	assert.Equal(t, apierr.NotFound, apierr.KindOf(err))
}
