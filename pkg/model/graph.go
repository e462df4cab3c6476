package model

// Graph is the deduplicated node/link graph built from one full load.
// Nodes keep discovery order. A Graph is never mutated after it is built;
// the next full load produces a new one.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`

	index     map[string]int
	suppliers map[string][]string // part -> supplier ids in link order
	parts     map[string][]string // supplier -> part ids in link order
}

// GraphStats holds node and link counts.
type GraphStats struct {
	Parts     int `json:"parts"`
	Suppliers int `json:"suppliers"`
	Links     int `json:"links"`
}

// NewGraph indexes the given nodes and links. Callers must ensure node ids
// are unique; the graph builder guarantees this.
func NewGraph(nodes []Node, links []Link) *Graph {
	g := &Graph{
		Nodes:     nodes,
		Links:     links,
		index:     make(map[string]int, len(nodes)),
		suppliers: make(map[string][]string),
		parts:     make(map[string][]string),
	}
	for i, n := range nodes {
		g.index[n.ID] = i
	}
	for _, l := range links {
		g.suppliers[l.Source] = appendUnique(g.suppliers[l.Source], l.Target)
		g.parts[l.Target] = appendUnique(g.parts[l.Target], l.Source)
	}
	return g
}

// EmptyGraph returns a graph with no nodes.
func EmptyGraph() *Graph {
	return NewGraph(nil, nil)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Parts returns the part nodes in discovery order.
func (g *Graph) Parts() []Node {
	return g.ofKind(KindPart)
}

// Suppliers returns the supplier nodes in discovery order.
func (g *Graph) Suppliers() []Node {
	return g.ofKind(KindSupplier)
}

func (g *Graph) ofKind(kind NodeKind) []Node {
	if g == nil {
		return nil
	}
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// SuppliersOf returns the distinct supplier ids linked from a part.
func (g *Graph) SuppliersOf(partID string) []string {
	if g == nil {
		return nil
	}
	return g.suppliers[partID]
}

// PartsSuppliedBy returns the distinct part ids linked to a supplier.
func (g *Graph) PartsSuppliedBy(supplierID string) []string {
	if g == nil {
		return nil
	}
	return g.parts[supplierID]
}

// Stats returns part, supplier and link counts.
func (g *Graph) Stats() GraphStats {
	if g == nil {
		return GraphStats{}
	}
	var s GraphStats
	for _, n := range g.Nodes {
		switch n.Kind {
		case KindPart:
			s.Parts++
		case KindSupplier:
			s.Suppliers++
		}
	}
	s.Links = len(g.Links)
	return s
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}
