package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphd/graphd/internal/apierr"
	"github.com/graphd/graphd/internal/graphmodel"
)

type stubEngine struct {
	name   string
	closed bool
}

func (s *stubEngine) Name() string { return s.name }
func (s *stubEngine) ListDatabases(ctx context.Context) ([]DatabaseInfo, error) { return nil, nil }
func (s *stubEngine) ListGraphs(ctx context.Context, database string) ([]graphmodel.GraphSummary, error) {
	return nil, nil
}
func (s *stubEngine) GetGraph(ctx context.Context, database, graphID string) (*graphmodel.Graph, error) {
	return nil, nil
}
func (s *stubEngine) GetGraphStats(ctx context.Context, database, graphID string) (*graphmodel.GraphStats, error) {
	return nil, nil
}
func (s *stubEngine) CreateGraph(ctx context.Context, database string, spec CreateGraphSpec) (*graphmodel.GraphSummary, error) {
	return nil, nil
}
func (s *stubEngine) DeleteGraph(ctx context.Context, database, graphID string) error { return nil }
func (s *stubEngine) GetNodeNeighbors(ctx context.Context, database, graphID, nodeID string, hops int) (*graphmodel.Graph, error) {
	return nil, nil
}
func (s *stubEngine) ComputeImpact(ctx context.Context, database, graphID, sourceID string, depth int) (*graphmodel.ImpactResult, error) {
	return nil, nil
}
func (s *stubEngine) RecountGraph(ctx context.Context, database, graphID string) (*graphmodel.GraphSummary, error) {
	return nil, nil
}
func (s *stubEngine) ExecuteRawQuery(ctx context.Context, database, query string) (*RawQueryResult, error) {
	return nil, nil
}
func (s *stubEngine) SupportsRawQuery() bool { return false }
func (s *stubEngine) Close() error           { s.closed = true; return nil }

func TestRegistryResolveDefault(t *testing.T) {
	native := &stubEngine{name: "native"}
	reg := NewRegistry(map[string]Engine{"native": native}, "native")

	e, err := reg.Resolve("")
	require.NoError(t, err)
	assert.Same(t, native, e)
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := NewRegistry(map[string]Engine{}, "native")

	_, err := reg.Resolve("memory")
	require.Error(t, err)
	assert.Equal(t, apierr.EngineNotAvailable, apierr.KindOf(err))
}

func TestRegistryHasDefault(t *testing.T) {
	reg := NewRegistry(map[string]Engine{"native": &stubEngine{}}, "memory")
	assert.False(t, reg.HasDefault())

	reg2 := NewRegistry(map[string]Engine{"memory": &stubEngine{}}, "memory")
	assert.True(t, reg2.HasDefault())
}

func TestRegistryCloseClosesAll(t *testing.T) {
	a := &stubEngine{name: "a"}
	b := &stubEngine{name: "b"}
	reg := NewRegistry(map[string]Engine{"a": a, "b": b}, "a")

	require.NoError(t, reg.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}
