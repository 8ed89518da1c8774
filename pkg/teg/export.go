// Copyright 2025 Certen Protocol
//
// TEG export: a single pure function from (graph, options) to bytes in
// one of five external formats, matching §4.9's "export is a pure
// function of the IR and options" requirement. Grounded on
// pkg/verification/unified_verifier.go's "one method per concern,
// accumulate into one result" shape, here applied to "one render
// method per format, one filtering pass shared by all of them".

package teg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// nodeLabelConcurrency bounds how many node labels are rendered at
// once; label rendering is pure and independent per node, so a worker
// pool shortens export latency on graphs with many parameterized
// nodes without changing the (deterministic, index-ordered) output.
const nodeLabelConcurrency = 8

// renderLabels computes build(id) for every id in ids concurrently,
// bounded by nodeLabelConcurrency, and returns the results in the same
// order as ids.
func renderLabels(ids []string, build func(string) string) []string {
	labels := make([]string, len(ids))
	var g errgroup.Group
	g.SetLimit(nodeLabelConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			labels[i] = build(id)
			return nil
		})
	}
	_ = g.Wait() // build never errors; every index is always populated
	return labels
}

// Format names one of the TEG's supported external representations.
type Format string

const (
	FormatDOT       Format = "dot"
	FormatMermaid   Format = "mermaid"
	FormatJSON      Format = "json"
	FormatCytoscape Format = "cytoscape"
	FormatD3        Format = "d3"
)

// maxRenderDepth is the depth above which paramSummary returns a
// truncation marker instead of a summary. paramSummary lists a node's
// parameter keys only; it does not recurse into parameter values.
const maxRenderDepth = 8

// Options filters and shapes an export, per §4.9's options record.
type Options struct {
	IncludeResources   bool
	IncludeParameters  bool
	IncludeDomains     bool
	Simplify           bool
	DomainFilter       string // empty means no filter
}

// filteredView is the subset of the graph an export actually renders,
// after DomainFilter and Simplify have been applied.
type filteredView struct {
	effectIDs   []string
	resourceIDs []string
	continuations []Continuation
	accesses      []ResourceAccess
}

func (g *Graph) filter(opts Options) filteredView {
	var view filteredView

	keepEffect := func(n *EffectNode) bool {
		return opts.DomainFilter == "" || n.Domain == opts.DomainFilter
	}
	keepResource := func(n *ResourceNode) bool {
		return opts.DomainFilter == "" || n.Domain == opts.DomainFilter
	}

	for id, n := range g.Effects {
		if keepEffect(n) {
			view.effectIDs = append(view.effectIDs, id)
		}
	}
	sort.Strings(view.effectIDs)

	if opts.IncludeResources {
		for id, n := range g.Resources {
			if keepResource(n) {
				view.resourceIDs = append(view.resourceIDs, id)
			}
		}
		sort.Strings(view.resourceIDs)
	}

	kept := make(map[string]bool, len(view.effectIDs))
	for _, id := range view.effectIDs {
		kept[id] = true
	}
	for _, c := range g.continuations {
		if kept[c.From] && kept[c.To] {
			if opts.Simplify && c.Condition == "" && hasAlternateGuardedPath(g, c) {
				continue
			}
			view.continuations = append(view.continuations, c)
		}
	}

	if opts.IncludeResources {
		keptResource := make(map[string]bool, len(view.resourceIDs))
		for _, id := range view.resourceIDs {
			keptResource[id] = true
		}
		for _, a := range g.accesses {
			if kept[a.EffectID] && keptResource[a.ResourceID] {
				view.accesses = append(view.accesses, a)
			}
		}
	}

	return view
}

// hasAlternateGuardedPath reports whether c's (from,to) pair also
// appears with a guard condition, so Simplify can drop the redundant
// unconditional duplicate while keeping the guarded edges.
func hasAlternateGuardedPath(g *Graph, c Continuation) bool {
	for _, other := range g.continuations {
		if other.From == c.From && other.To == c.To && other.Condition != "" {
			return true
		}
	}
	return false
}

// Export renders graph in format, applying opts as a filter, and
// returns the serialized bytes.
func Export(g *Graph, format Format, opts Options) ([]byte, error) {
	view := g.filter(opts)
	switch format {
	case FormatDOT:
		return renderDOT(g, view, opts), nil
	case FormatMermaid:
		return renderMermaid(g, view, opts), nil
	case FormatJSON:
		return renderJSON(g, view, opts)
	case FormatCytoscape:
		return renderCytoscape(g, view, opts)
	case FormatD3:
		return renderD3(g, view, opts)
	default:
		return nil, fmt.Errorf("teg: unknown export format %q", format)
	}
}

func paramSummary(n *EffectNode, opts Options, depth int) string {
	if !opts.IncludeParameters || len(n.Parameters) == 0 {
		return ""
	}
	if depth > maxRenderDepth {
		return "<depth-truncated>"
	}
	keys := make([]string, 0, len(n.Parameters))
	for k := range n.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s", k)
	}
	return b.String()
}

func renderDOT(g *Graph, view filteredView, opts Options) []byte {
	labels := renderLabels(view.effectIDs, func(id string) string {
		n := g.Effects[id]
		label := n.EffectType
		if params := paramSummary(n, opts, 0); params != "" {
			label = fmt.Sprintf("%s(%s)", label, params)
		}
		if opts.IncludeDomains && n.Domain != "" {
			label = fmt.Sprintf("%s@%s", label, n.Domain)
		}
		return label
	})

	var b bytes.Buffer
	b.WriteString("digraph teg {\n")
	for i, id := range view.effectIDs {
		fmt.Fprintf(&b, "  %q [label=%q];\n", id, labels[i])
	}
	for _, id := range view.resourceIDs {
		fmt.Fprintf(&b, "  %q [shape=box];\n", id)
	}
	for _, c := range view.continuations {
		if c.Condition != "" {
			fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", c.From, c.To, c.Condition)
		} else {
			fmt.Fprintf(&b, "  %q -> %q;\n", c.From, c.To)
		}
	}
	for _, a := range view.accesses {
		fmt.Fprintf(&b, "  %q -> %q [style=dashed, label=%q];\n", a.EffectID, a.ResourceID, string(a.Mode))
	}
	b.WriteString("}\n")
	return b.Bytes()
}

func renderMermaid(g *Graph, view filteredView, opts Options) []byte {
	labels := renderLabels(view.effectIDs, func(id string) string {
		n := g.Effects[id]
		label := n.EffectType
		if opts.IncludeDomains && n.Domain != "" {
			label = fmt.Sprintf("%s@%s", label, n.Domain)
		}
		return label
	})

	var b bytes.Buffer
	b.WriteString("graph TD\n")
	for i, id := range view.effectIDs {
		fmt.Fprintf(&b, "  %s[%s]\n", sanitizeID(id), labels[i])
	}
	for _, c := range view.continuations {
		if c.Condition != "" {
			fmt.Fprintf(&b, "  %s -->|%s| %s\n", sanitizeID(c.From), c.Condition, sanitizeID(c.To))
		} else {
			fmt.Fprintf(&b, "  %s --> %s\n", sanitizeID(c.From), sanitizeID(c.To))
		}
	}
	for _, a := range view.accesses {
		fmt.Fprintf(&b, "  %s -.->|%s| %s\n", sanitizeID(a.EffectID), string(a.Mode), sanitizeID(a.ResourceID))
	}
	return b.Bytes()
}

func sanitizeID(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}

type jsonNode struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Domain string `json:"domain,omitempty"`
	Kind   string `json:"kind"`
}

type jsonEdge struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Kind      string `json:"kind"`
	Condition string `json:"condition,omitempty"`
}

type jsonGraph struct {
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

func buildJSONGraph(g *Graph, view filteredView) jsonGraph {
	var out jsonGraph
	for _, id := range view.effectIDs {
		n := g.Effects[id]
		out.Nodes = append(out.Nodes, jsonNode{ID: id, Type: n.EffectType, Domain: n.Domain, Kind: "effect"})
	}
	for _, id := range view.resourceIDs {
		n := g.Resources[id]
		out.Nodes = append(out.Nodes, jsonNode{ID: id, Type: n.ResourceType, Domain: n.Domain, Kind: "resource"})
	}
	for _, c := range view.continuations {
		out.Edges = append(out.Edges, jsonEdge{From: c.From, To: c.To, Kind: "continuation", Condition: c.Condition})
	}
	for _, a := range view.accesses {
		out.Edges = append(out.Edges, jsonEdge{From: a.EffectID, To: a.ResourceID, Kind: "access:" + string(a.Mode)})
	}
	return out
}

func renderJSON(g *Graph, view filteredView, opts Options) ([]byte, error) {
	return json.Marshal(buildJSONGraph(g, view))
}

type cytoscapeElement struct {
	Data map[string]string `json:"data"`
}

func renderCytoscape(g *Graph, view filteredView, opts Options) ([]byte, error) {
	var elements []cytoscapeElement
	for _, id := range view.effectIDs {
		n := g.Effects[id]
		elements = append(elements, cytoscapeElement{Data: map[string]string{"id": id, "label": n.EffectType, "domain": n.Domain}})
	}
	for _, id := range view.resourceIDs {
		n := g.Resources[id]
		elements = append(elements, cytoscapeElement{Data: map[string]string{"id": id, "label": n.ResourceType, "domain": n.Domain}})
	}
	for i, c := range view.continuations {
		elements = append(elements, cytoscapeElement{Data: map[string]string{
			"id": fmt.Sprintf("continuation-%d", i), "source": c.From, "target": c.To, "condition": c.Condition,
		}})
	}
	for i, a := range view.accesses {
		elements = append(elements, cytoscapeElement{Data: map[string]string{
			"id": fmt.Sprintf("access-%d", i), "source": a.EffectID, "target": a.ResourceID, "mode": string(a.Mode),
		}})
	}
	return json.Marshal(map[string]interface{}{"elements": elements})
}

type d3Node struct {
	ID     string `json:"id"`
	Group  string `json:"group"`
	Domain string `json:"domain,omitempty"`
}

type d3Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  string `json:"value,omitempty"`
}

func renderD3(g *Graph, view filteredView, opts Options) ([]byte, error) {
	out := struct {
		Nodes []d3Node `json:"nodes"`
		Links []d3Link `json:"links"`
	}{}
	for _, id := range view.effectIDs {
		n := g.Effects[id]
		out.Nodes = append(out.Nodes, d3Node{ID: id, Group: "effect", Domain: n.Domain})
	}
	for _, id := range view.resourceIDs {
		n := g.Resources[id]
		out.Nodes = append(out.Nodes, d3Node{ID: id, Group: "resource", Domain: n.Domain})
	}
	for _, c := range view.continuations {
		out.Links = append(out.Links, d3Link{Source: c.From, Target: c.To, Value: c.Condition})
	}
	for _, a := range view.accesses {
		out.Links = append(out.Links, d3Link{Source: a.EffectID, Target: a.ResourceID, Value: string(a.Mode)})
	}
	return json.Marshal(out)
}
