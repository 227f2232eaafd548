package mermaid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSkipsDirectiveAndBlankLines(t *testing.T) {
	src := "graph TD\n\nA-->B\n"
	g, syntaxErr := Parse(src)
	require.Nil(t, syntaxErr)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
}

func TestParseNodeShapes(t *testing.T) {
	src := `graph LR
A[Process Step]
B((Start Event))
C{Decision}
D(Terminal)
`
	g, syntaxErr := Parse(src)
	require.Nil(t, syntaxErr)
	require.Len(t, g.Nodes, 4)

	byID := map[string]string{}
	typeByID := map[string]string{}
	for _, n := range g.Nodes {
		byID[n.ID] = n.Label
		typeByID[n.ID] = n.NodeType
	}
	assert.Equal(t, "Process Step", byID["A"])
	assert.Equal(t, "process", typeByID["A"])
	assert.Equal(t, "Start Event", byID["B"])
	assert.Equal(t, "event", typeByID["B"])
	assert.Equal(t, "Decision", byID["C"])
	assert.Equal(t, "decision", typeByID["C"])
	assert.Equal(t, "Terminal", byID["D"])
	assert.Equal(t, "terminal", typeByID["D"])
}

func TestParseEdgeTypesAndLabels(t *testing.T) {
	src := `A-->B
A---C
A==>D
A-.->E
A-->|yes|F
`
	g, syntaxErr := Parse(src)
	require.Nil(t, syntaxErr)
	require.Len(t, g.Edges, 5)

	want := map[string]string{"B": "arrow", "C": "line", "D": "thick_arrow", "E": "dotted_arrow", "F": "arrow"}
	for _, e := range g.Edges {
		assert.Equal(t, want[e.TargetID], e.EdgeType, "target=%s", e.TargetID)
	}

	for _, e := range g.Edges {
		if e.TargetID == "F" {
			assert.Equal(t, "yes", e.Label)
		}
	}
}

func TestParseIsolatedNodeDeclaration(t *testing.T) {
	g, syntaxErr := Parse("standalone[Lonely]")
	require.Nil(t, syntaxErr)
	require.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
}

func TestParseSameNodeReferencedTwiceIsNotDuplicated(t *testing.T) {
	src := `A[First]-->B
A-->C
`
	g, syntaxErr := Parse(src)
	require.Nil(t, syntaxErr)
	require.Len(t, g.Nodes, 3)
}

func TestParseMalformedLineReturnsSyntaxErrorNoPartialGraph(t *testing.T) {
	g, syntaxErr := Parse("A-->B\n***totally invalid***\n")
	require.Nil(t, g)
	require.NotNil(t, syntaxErr)
	assert.Equal(t, 2, syntaxErr.Line)
}

func TestParseNeverPanicsOnEmptyInput(t *testing.T) {
	g, syntaxErr := Parse("")
	require.Nil(t, syntaxErr)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
}
