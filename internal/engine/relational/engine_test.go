package relational

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphd/graphd/internal/apierr"
	"github.com/graphd/graphd/internal/engine"
	"github.com/graphd/graphd/internal/enginetest"
	"github.com/graphd/graphd/internal/graphmodel"
)

func TestConformance(t *testing.T) {
	enginetest.Run(t, newTestEngine(t))
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphd.db")
	e, err := NewEngine("test", path, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestCreateAndGetGraphRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	summary, err := e.CreateGraph(ctx, "default", engine.CreateGraphSpec{
		Title: "deps",
		Nodes: []graphmodel.Node{{ID: "a"}, {ID: "b"}},
		Edges: []graphmodel.Edge{{SourceID: "a", TargetID: "b", EdgeType: "CONNECTED_TO"}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.NodeCount)
	require.Equal(t, int64(1), summary.EdgeCount)

	graph, err := e.GetGraph(ctx, "default", summary.GraphID)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)
	require.Len(t, graph.Edges, 1)
}

func TestGetGraphNotFound(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.GetGraph(context.Background(), "default", "missing")
	require.Error(t, err)
	require.Equal(t, apierr.NotFound, apierr.KindOf(err))
}

func TestCreateGraphFromMermaidCode(t *testing.T) {
	e := newTestEngine(t)
	summary, err := e.CreateGraph(context.Background(), "default", engine.CreateGraphSpec{
		Title:       "mermaid-seeded",
		MermaidCode: "graph TD\n  a --> b\n  b --> c\n",
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), summary.NodeCount)
	require.Equal(t, int64(2), summary.EdgeCount)
}

func TestComputeImpactFollowsFrontierAcrossLevels(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	summary, err := e.CreateGraph(ctx, "default", engine.CreateGraphSpec{
		Title: "chain",
		Nodes: []graphmodel.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
		Edges: []graphmodel.Edge{
			{SourceID: "a", TargetID: "b"},
			{SourceID: "b", TargetID: "c"},
			{SourceID: "c", TargetID: "d"},
		},
	})
	require.NoError(t, err)

	result, err := e.ComputeImpact(ctx, "default", summary.GraphID, "a", 2)
	require.NoError(t, err)

	levels := map[string]int{}
	for _, n := range result.Nodes {
		levels[n.NodeID] = n.Level
	}
	require.Equal(t, map[string]int{"b": 1, "c": 2}, levels)
}

func TestComputeImpactStopsAtDepthLimit(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	summary, err := e.CreateGraph(ctx, "default", engine.CreateGraphSpec{
		Title: "chain",
		Nodes: []graphmodel.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		Edges: []graphmodel.Edge{
			{SourceID: "a", TargetID: "b"},
			{SourceID: "b", TargetID: "c"},
		},
	})
	require.NoError(t, err)

	result, err := e.ComputeImpact(ctx, "default", summary.GraphID, "a", 1)
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	require.Equal(t, "b", result.Nodes[0].NodeID)
}

func TestDeleteGraphCascadesNodesAndEdges(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	summary, err := e.CreateGraph(ctx, "default", engine.CreateGraphSpec{
		Title: "disposable",
		Nodes: []graphmodel.Node{{ID: "a"}, {ID: "b"}},
		Edges: []graphmodel.Edge{{SourceID: "a", TargetID: "b"}},
	})
	require.NoError(t, err)

	require.NoError(t, e.DeleteGraph(ctx, "default", summary.GraphID))

	_, err = e.GetGraph(ctx, "default", summary.GraphID)
	require.Error(t, err)
	require.Equal(t, apierr.NotFound, apierr.KindOf(err))

	var nodeRows, edgeRows int
	require.NoError(t, e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_nodes WHERE graph_id = ?`, summary.GraphID).Scan(&nodeRows))
	require.NoError(t, e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_edges WHERE graph_id = ?`, summary.GraphID).Scan(&edgeRows))
	require.Equal(t, 0, nodeRows)
	require.Equal(t, 0, edgeRows)
}

func TestRecountGraphReflectsCurrentRows(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	summary, err := e.CreateGraph(ctx, "default", engine.CreateGraphSpec{
		Title: "growable",
		Nodes: []graphmodel.Node{{ID: "a"}},
	})
	require.NoError(t, err)

	recounted, err := e.RecountGraph(ctx, "default", summary.GraphID)
	require.NoError(t, err)
	require.Equal(t, int64(1), recounted.NodeCount)
	require.Equal(t, int64(0), recounted.EdgeCount)
}

func TestGetNodeNeighborsExpandsBothDirections(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	summary, err := e.CreateGraph(ctx, "default", engine.CreateGraphSpec{
		Title: "star",
		Nodes: []graphmodel.Node{{ID: "center"}, {ID: "in"}, {ID: "out"}},
		Edges: []graphmodel.Edge{
			{SourceID: "in", TargetID: "center"},
			{SourceID: "center", TargetID: "out"},
		},
	})
	require.NoError(t, err)

	neighbors, err := e.GetNodeNeighbors(ctx, "default", summary.GraphID, "center", 1)
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, n := range neighbors.Nodes {
		ids[n.ID] = true
	}
	require.Equal(t, map[string]bool{"in": true, "out": true}, ids)

	type pair struct{ source, target string }
	pairs := map[pair]bool{}
	for _, e := range neighbors.Edges {
		pairs[pair{e.SourceID, e.TargetID}] = true
	}
	require.Equal(t, map[pair]bool{{"in", "center"}: true, {"center", "out"}: true}, pairs)
}

func TestExecuteRawQueryReturnsColumnsAndRows(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateGraph(ctx, "default", engine.CreateGraphSpec{
		Title: "raw",
		Nodes: []graphmodel.Node{{ID: "a", Label: "A"}},
	})
	require.NoError(t, err)

	out, err := e.ExecuteRawQuery(ctx, "default", "SELECT node_id, label FROM graph_nodes")
	require.NoError(t, err)
	require.Equal(t, []string{"node_id", "label"}, out.Columns)
	require.Len(t, out.Rows, 1)
}

func TestWriteNodesBatchedSplitsAcrossMultipleBatches(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	nodes := make([]graphmodel.Node, 900)
	for i := range nodes {
		nodes[i] = graphmodel.Node{ID: fmt.Sprintf("n%d", i)}
	}

	summary, err := e.CreateGraph(ctx, "default", engine.CreateGraphSpec{Title: "bulk", Nodes: nodes})
	require.NoError(t, err)
	require.Equal(t, int64(len(nodes)), summary.NodeCount)
}
