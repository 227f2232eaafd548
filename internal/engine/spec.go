package engine

import (
	"github.com/graphd/graphd/internal/apierr"
	"github.com/graphd/graphd/internal/graphmodel"
	"github.com/graphd/graphd/internal/mermaid"
)

// ResolveSpec turns a CreateGraphSpec into the concrete node/edge list an
// adapter should write. When MermaidCode is set and no explicit nodes/edges
// were supplied, it parses the Mermaid source; otherwise the explicit
// payload is used as given. In both cases parallel edges are collapsed by
// dedupeEdges before returning. Both adapters share this so "mermaid
// source vs. explicit payload" is resolved identically regardless of which
// storage engine receives the graph.
func ResolveSpec(spec CreateGraphSpec) ([]graphmodel.Node, []graphmodel.Edge, error) {
	if spec.MermaidCode == "" || len(spec.Nodes) > 0 || len(spec.Edges) > 0 {
		return spec.Nodes, dedupeEdges(spec.Edges), nil
	}

	parsed, syntaxErr := mermaid.Parse(spec.MermaidCode)
	if syntaxErr != nil {
		return nil, nil, apierr.Newf(apierr.Invalid, "mermaid_code: %s", syntaxErr.Error())
	}
	return parsed.Nodes, dedupeEdges(parsed.Edges), nil
}

// dedupeEdges collapses parallel edges sharing a (source_id, target_id) pair
// into one, keeping the last occurrence — the same last-write-wins outcome
// the adapters' ON CONFLICT/MERGE upserts produce for edges submitted across
// separate CreateGraph calls. Edge uniqueness is (source_id, target_id)
// alone; edge_type does not distinguish parallel edges.
func dedupeEdges(edges []graphmodel.Edge) []graphmodel.Edge {
	if len(edges) == 0 {
		return edges
	}
	type key struct{ source, target string }
	index := make(map[key]int, len(edges))
	out := make([]graphmodel.Edge, 0, len(edges))
	for _, e := range edges {
		k := key{e.SourceID, e.TargetID}
		if i, ok := index[k]; ok {
			out[i] = e
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}
