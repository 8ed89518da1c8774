// Copyright 2025 Certen Protocol

package teg

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportDOTIncludesNodesAndEdges(t *testing.T) {
	g := buildLinearGraph(t)
	out, err := Export(g, FormatDOT, Options{IncludeResources: true, IncludeDomains: true})
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "digraph teg")
	require.Contains(t, s, "e1")
	require.Contains(t, s, "r1")
}

func TestExportMermaidRendersEdges(t *testing.T) {
	g := buildLinearGraph(t)
	out, err := Export(g, FormatMermaid, Options{})
	require.NoError(t, err)
	require.Contains(t, string(out), "graph TD")
}

func TestExportJSONRoundTrips(t *testing.T) {
	g := buildLinearGraph(t)
	out, err := Export(g, FormatJSON, Options{IncludeResources: true})
	require.NoError(t, err)

	var decoded jsonGraph
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.Nodes, 4) // 3 effects + 1 resource
	require.NotEmpty(t, decoded.Edges)
}

func TestExportDomainFilterExcludesOtherDomains(t *testing.T) {
	g := buildLinearGraph(t)
	out, err := Export(g, FormatJSON, Options{DomainFilter: "chainA"})
	require.NoError(t, err)

	var decoded jsonGraph
	require.NoError(t, json.Unmarshal(out, &decoded))
	for _, n := range decoded.Nodes {
		require.Equal(t, "chainA", n.Domain)
	}
}

func TestExportCytoscapeAndD3Succeed(t *testing.T) {
	g := buildLinearGraph(t)
	for _, format := range []Format{FormatCytoscape, FormatD3} {
		_, err := Export(g, format, Options{IncludeResources: true})
		require.NoError(t, err)
	}
}

func TestExportUnknownFormatErrors(t *testing.T) {
	g := buildLinearGraph(t)
	_, err := Export(g, Format("bogus"), Options{})
	require.Error(t, err)
}
