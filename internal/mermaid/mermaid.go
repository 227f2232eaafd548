// Package mermaid converts Mermaid flowchart source text into the neutral
// {nodes, edges} shape every engine adapter accepts. It is a hand-rolled
// line-based state machine — no parser-combinator or lexer-generator
// library, matching how the rest of the corpus parses semi-structured text
// (internal/parser/compose, internal/parser/ansible in the teacher).
package mermaid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/graphd/graphd/internal/graphmodel"
)

// SyntaxError is returned, never panicked, on malformed input. The caller
// must discard any partially built graph — Parse never returns a non-nil
// *ParsedGraph alongside a non-nil *SyntaxError.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("mermaid: line %d: %s", e.Line, e.Message)
}

// ParsedGraph is the neutral representation produced by Parse. It feeds the
// same CreateGraph path as an explicit {nodes, edges} JSON payload.
type ParsedGraph struct {
	Nodes []graphmodel.Node
	Edges []graphmodel.Edge
}

var (
	directiveRe = regexp.MustCompile(`^(graph|flowchart)\s+(TD|TB|BT|RL|LR)\s*$`)
	edgeRe      = regexp.MustCompile(`^(.+?)\s*(-->|-\.->|==>|---)\s*(?:\|([^|]*)\|\s*)?(.+)$`)
	nodeRe      = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.-]*)\s*(?:(\[(.*)\])|(\(\((.*)\)\))|(\{(.*)\})|(\((.*)\)))?$`)
)

var arrowEdgeType = map[string]string{
	"-->":  "arrow",
	"---":  "line",
	"==>":  "thick_arrow",
	"-.->": "dotted_arrow",
}

// Parse scans src line by line and builds a ParsedGraph. It is pure and
// total: it never panics, and any malformed line yields a *SyntaxError
// instead of a partial graph.
func Parse(src string) (*ParsedGraph, *SyntaxError) {
	g := &ParsedGraph{}
	seen := make(map[string]int) // node id -> index into g.Nodes

	lines := strings.Split(src, "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}
		if directiveRe.MatchString(line) {
			continue
		}

		if m := edgeRe.FindStringSubmatch(line); m != nil {
			fromPart, arrow, label, toPart := m[1], m[2], m[3], m[4]
			fromID, err := declareNode(g, seen, strings.TrimSpace(fromPart), lineNo)
			if err != nil {
				return nil, err
			}
			toID, err := declareNode(g, seen, strings.TrimSpace(toPart), lineNo)
			if err != nil {
				return nil, err
			}
			g.Edges = append(g.Edges, graphmodel.Edge{
				SourceID: fromID,
				TargetID: toID,
				EdgeType: arrowEdgeType[arrow],
				Label:    strings.TrimSpace(label),
			})
			continue
		}

		if nodeRe.MatchString(line) {
			if _, err := declareNode(g, seen, line, lineNo); err != nil {
				return nil, err
			}
			continue
		}

		return nil, &SyntaxError{Line: lineNo, Message: "unrecognized syntax: " + strconv.Quote(line)}
	}

	return g, nil
}

// declareNode parses one node reference (id plus an optional shape
// delimiter) and registers it in g if not already present, returning its
// ID. Re-declaring the same ID with a different shape updates the existing
// node's label/type rather than creating a duplicate.
func declareNode(g *ParsedGraph, seen map[string]int, ref string, lineNo int) (string, *SyntaxError) {
	m := nodeRe.FindStringSubmatch(ref)
	if m == nil {
		return "", &SyntaxError{Line: lineNo, Message: "invalid node reference: " + strconv.Quote(ref)}
	}

	id := m[1]
	label, nodeType := id, "node"
	switch {
	case m[2] != "": // [label]
		label, nodeType = m[3], "process"
	case m[4] != "": // ((label))
		label, nodeType = m[5], "event"
	case m[6] != "": // {label}
		label, nodeType = m[7], "decision"
	case m[8] != "": // (label)
		label, nodeType = m[9], "terminal"
	}

	if idx, ok := seen[id]; ok {
		if label != id {
			g.Nodes[idx].Label = label
			g.Nodes[idx].NodeType = nodeType
		}
		return id, nil
	}

	seen[id] = len(g.Nodes)
	g.Nodes = append(g.Nodes, graphmodel.Node{ID: id, Label: label, NodeType: nodeType})
	return id, nil
}
