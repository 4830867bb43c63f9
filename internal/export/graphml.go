package export

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/digivice-labs/digigraph/internal/model"
)

// graphmlNamespace is the GraphML schema namespace.
const graphmlNamespace = "http://graphml.graphdrawing.org/xmlns"

// Node attribute keys. GraphML addresses attributes through declared
// keys rather than names.
const (
	keyName      = "d0"
	keyStage     = "d1"
	keyAttribute = "d2"
)

// ErrUnknownEntity is returned when a line export is asked for a name
// that is not in the store.
var ErrUnknownEntity = errors.New("entity not found")

// LineStore resolves entities for line exports. The database package's
// Store implements it.
type LineStore interface {
	// EntityByName returns the entity with the given display name, or
	// nil when none exists.
	EntityByName(ctx context.Context, name string) (*model.Entity, error)

	// EntityBySite returns the entity for a site identifier, or nil
	// when none exists.
	EntityBySite(ctx context.Context, site string) (*model.Entity, error)
}

// graphmlFile is the XML document root.
type graphmlFile struct {
	XMLName xml.Name     `xml:"graphml"`
	XMLNS   string       `xml:"xmlns,attr"`
	Keys    []graphmlKey `xml:"key"`
	Graph   graphmlGraph `xml:"graph"`
}

// graphmlKey declares one node attribute.
type graphmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

// graphmlGraph is the graph element holding nodes and edges.
type graphmlGraph struct {
	ID          string        `xml:"id,attr"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

// graphmlNode is one node with its attribute data.
type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

// graphmlData is one attribute value on a node.
type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// graphmlEdge connects two nodes by id.
type graphmlEdge struct {
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

// nodeKeys declares the attributes carried by every node.
func nodeKeys() []graphmlKey {
	return []graphmlKey{
		{ID: keyName, For: "node", AttrName: "name", AttrType: "string"},
		{ID: keyStage, For: "node", AttrName: "stage", AttrType: "string"},
		{ID: keyAttribute, For: "node", AttrName: "attribute", AttrType: "string"},
	}
}

// entityNode converts an entity to its GraphML node.
func entityNode(e *model.Entity) graphmlNode {
	return graphmlNode{
		ID: nodeID(e),
		Data: []graphmlData{
			{Key: keyName, Value: e.Name},
			{Key: keyStage, Value: e.Stage.String()},
			{Key: keyAttribute, Value: e.Attribute},
		},
	}
}

// nodeID is the stable node identifier within an export.
func nodeID(e *model.Entity) string {
	return fmt.Sprintf("n%d", e.ID)
}

// writeGraphML marshals and writes a complete document.
func writeGraphML(w io.Writer, graph graphmlGraph) error {
	doc := graphmlFile{
		XMLNS: graphmlNamespace,
		Keys:  nodeKeys(),
		Graph: graph,
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// WriteGraph writes the full evolution graph as undirected GraphML.
// Edges come from each entity's previous-evolution links; links whose
// target was never stored are skipped, not invented.
func WriteGraph(w io.Writer, entities []*model.Entity) error {
	bySite := make(map[string]*model.Entity, len(entities))
	for _, e := range entities {
		bySite[e.SiteID] = e
	}

	graph := graphmlGraph{ID: "G", EdgeDefault: "undirected"}

	for _, e := range entities {
		graph.Nodes = append(graph.Nodes, entityNode(e))
	}

	seen := make(map[string]bool)
	for _, e := range entities {
		for _, link := range e.PrevLinks {
			source, ok := bySite[link]
			if !ok {
				continue
			}

			id := nodeID(source) + ">" + nodeID(e)
			if seen[id] {
				continue
			}
			seen[id] = true

			graph.Edges = append(graph.Edges, graphmlEdge{
				Source: nodeID(source),
				Target: nodeID(e),
			})
		}
	}

	return writeGraphML(w, graph)
}

// WriteLine writes the directed evolution line of the named entity.
// The walk follows previous links downward only through stages at or
// below the current one, and next links upward only through stages at
// or above it, so lines stay lines instead of absorbing every
// neighboring branch.
func WriteLine(ctx context.Context, w io.Writer, store LineStore, name string) error {
	root, err := store.EntityByName(ctx, name)
	if err != nil {
		return err
	}
	if root == nil {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}

	b := &lineBuilder{
		store: store,
		seen:  make(map[int64]bool),
		graph: graphmlGraph{ID: name, EdgeDefault: "directed"},
	}
	if err := b.add(ctx, root, true, true); err != nil {
		return err
	}

	return writeGraphML(w, b.graph)
}

// lineBuilder accumulates the line subgraph during the recursive walk.
type lineBuilder struct {
	store LineStore
	seen  map[int64]bool
	graph graphmlGraph
}

// add places an entity in the graph and recurses along the permitted
// directions.
func (b *lineBuilder) add(ctx context.Context, e *model.Entity, forward, backward bool) error {
	if b.seen[e.ID] {
		return nil
	}
	b.seen[e.ID] = true
	b.graph.Nodes = append(b.graph.Nodes, entityNode(e))

	if backward {
		for _, link := range e.PrevLinks {
			prev, err := b.store.EntityBySite(ctx, link)
			if err != nil {
				return err
			}
			if prev == nil || prev.Stage > e.Stage {
				continue
			}

			if err := b.add(ctx, prev, false, true); err != nil {
				return err
			}
			b.graph.Edges = append(b.graph.Edges, graphmlEdge{
				Source: nodeID(prev),
				Target: nodeID(e),
			})
		}
	}

	if forward {
		for _, link := range e.NextLinks {
			next, err := b.store.EntityBySite(ctx, link)
			if err != nil {
				return err
			}
			if next == nil || next.Stage < e.Stage {
				continue
			}

			if err := b.add(ctx, next, true, false); err != nil {
				return err
			}
			b.graph.Edges = append(b.graph.Edges, graphmlEdge{
				Source: nodeID(e),
				Target: nodeID(next),
			})
		}
	}

	return nil
}
