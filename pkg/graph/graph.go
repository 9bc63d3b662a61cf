package graph

import "fmt"

// DefaultSplines is the number of angular steps used for lathe parts that
// do not specify one.
const DefaultSplines = 16

// GlobalDefaults contains graph-wide default settings.
type GlobalDefaults struct {
	Splines int         `json:"splines"` // lathe splines when a part gives none
	Mesh    MeshOptions `json:"mesh"`    // mesh options for new parts
}

// DesignGraph is the top-level data structure produced by Lisp evaluation.
// Each evaluation produces a new graph.
type DesignGraph struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Order     []NodeID          `json:"order"` // insertion order of Nodes
	Roots     []NodeID          `json:"roots"`
	NameIndex map[string]NodeID `json:"name_index"`
	Defaults  GlobalDefaults    `json:"defaults"`
}

// New creates an empty DesignGraph with default settings.
func New() *DesignGraph {
	return &DesignGraph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
		Defaults: GlobalDefaults{
			Splines: DefaultSplines,
		},
	}
}

// AddNode adds a node to the graph. Adding a node with an existing ID
// replaces it in place.
func (g *DesignGraph) AddNode(n *Node) {
	if _, ok := g.Nodes[n.ID]; !ok {
		g.Order = append(g.Order, n.ID)
	}
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a root of the graph.
func (g *DesignGraph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *DesignGraph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *DesignGraph) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *DesignGraph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Parts returns all primitive nodes in insertion order.
func (g *DesignGraph) Parts() []*Node {
	var parts []*Node
	for _, id := range g.Order {
		if n := g.Nodes[id]; n.Kind == NodePrimitive {
			parts = append(parts, n)
		}
	}
	return parts
}

// Children returns the child nodes of the given node.
func (g *DesignGraph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (g *DesignGraph) NodeCount() int {
	return len(g.Nodes)
}

// PromoteOrphans makes every node that is neither a root nor any node's
// child a root, in insertion order. It returns the number promoted.
func (g *DesignGraph) PromoteOrphans() int {
	referenced := make(map[NodeID]bool, len(g.Nodes))
	for _, id := range g.Roots {
		referenced[id] = true
	}
	for _, n := range g.Nodes {
		for _, c := range n.Children {
			referenced[c] = true
		}
	}
	promoted := 0
	for _, id := range g.Order {
		if !referenced[id] {
			g.AddRoot(id)
			promoted++
		}
	}
	return promoted
}
