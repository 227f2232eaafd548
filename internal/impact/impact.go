// Package impact orchestrates bounded-depth forward-reachability impact
// analysis: it validates the request, delegates the actual graph walk to
// whichever engine is selected, then times and post-processes the result.
// The traversal itself lives in each engine adapter (internal/engine/cypher,
// internal/engine/relational) — this package never touches a driver.
package impact

import (
	"context"
	"sort"
	"time"

	"github.com/graphd/graphd/internal/apierr"
	"github.com/graphd/graphd/internal/engine"
	"github.com/graphd/graphd/internal/graphmodel"
)

// Result and LevelNode are aliases for the graphmodel types that the engine
// contract itself returns, kept under this package's name so call sites can
// write impact.Result the way SPEC_FULL.md's component table names it.
type Result = graphmodel.ImpactResult
type LevelNode = graphmodel.ImpactLevelNode

const (
	minDepth = 1
	maxDepth = 20
)

// Compute validates depth, resolves the engine, runs the traversal, and
// post-processes the outcome: sort by (level, nodeID), drop the source
// node, and re-assert uniqueness as a defensive check on top of whatever
// dedupe the adapter already did.
func Compute(ctx context.Context, registry *engine.Registry, engineName, database, graphID, sourceID string, depth int) (*Result, error) {
	if depth < minDepth || depth > maxDepth {
		return nil, apierr.Newf(apierr.DepthLimitExceeded, "depth must be between %d and %d, got %d", minDepth, maxDepth, depth)
	}

	eng, err := registry.Resolve(engineName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := eng.ComputeImpact(ctx, database, graphID, sourceID, depth)
	if err != nil {
		return nil, err
	}

	result.Nodes = postProcess(result.Nodes, sourceID)
	result.ElapsedMS = time.Since(start).Milliseconds()
	result.Engine = eng.Name()
	result.Depth = depth
	result.SourceID = sourceID
	return result, nil
}

func postProcess(nodes []LevelNode, sourceID string) []LevelNode {
	seen := make(map[string]int, len(nodes))
	out := make([]LevelNode, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeID == sourceID {
			continue
		}
		if prevLevel, ok := seen[n.NodeID]; ok {
			if n.Level < prevLevel {
				for i := range out {
					if out[i].NodeID == n.NodeID {
						out[i].Level = n.Level
						seen[n.NodeID] = n.Level
						break
					}
				}
			}
			continue
		}
		seen[n.NodeID] = n.Level
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out
}
