// Package constraintgraph implements the bounded-type constraint graph
// (spec §4.3): a mutable directed graph of unification-variable
// equivalence-class nodes carrying lower/upper value-type payloads, with
// transitive closure materialized eagerly ("Directness") and cycles
// collapsed into a single equivalence class as they are discovered.
package constraintgraph

import (
	"fmt"

	"github.com/rzikm/effekt/internal/solvertypes"
)

// NodeID is the opaque handle for an equivalence-class node. Spec §9
// mandates an arena-of-nodes indexed by opaque handles rather than
// ownership pointers between nodes, since the graph is inherently
// cyclic under variable equality.
type NodeID uint64

type node struct {
	lower, upper solvertypes.ValueType
	vars         map[solvertypes.UVarID]*solvertypes.UVar
	lowerNb      map[NodeID]struct{}
	upperNb      map[NodeID]struct{}
}

func newNode() *node {
	return &node{
		lower:   solvertypes.TBottom,
		upper:   solvertypes.TTop,
		vars:    map[solvertypes.UVarID]*solvertypes.UVar{},
		lowerNb: map[NodeID]struct{}{},
		upperNb: map[NodeID]struct{}{},
	}
}

func (n *node) clone() *node {
	c := &node{
		lower:   n.lower,
		upper:   n.upper,
		vars:    make(map[solvertypes.UVarID]*solvertypes.UVar, len(n.vars)),
		lowerNb: make(map[NodeID]struct{}, len(n.lowerNb)),
		upperNb: make(map[NodeID]struct{}, len(n.upperNb)),
	}
	for k, v := range n.vars {
		c.vars[k] = v
	}
	for k := range n.lowerNb {
		c.lowerNb[k] = struct{}{}
	}
	for k := range n.upperNb {
		c.upperNb[k] = struct{}{}
	}
	return c
}

// Graph is the ConstraintGraph of spec §4.3: a map from every
// unification variable to its node (equivalence-class representative)
// and a map from each node to its payload and immediate neighbour sets.
type Graph struct {
	nodes     map[NodeID]*node
	varToNode map[solvertypes.UVarID]NodeID
	nextID    NodeID
}

// New returns an empty constraint graph.
func New() *Graph {
	return &Graph{
		nodes:     map[NodeID]*node{},
		varToNode: map[solvertypes.UVarID]NodeID{},
	}
}

// rep returns x's equivalence-class node, lazily materializing it on
// first access with payload (TBottom, TTop) per spec §4.3.
func (g *Graph) rep(x *solvertypes.UVar) NodeID {
	if id, ok := g.varToNode[x.ID]; ok {
		return id
	}
	g.nextID++
	id := g.nextID
	n := newNode()
	n.vars[x.ID] = x
	g.nodes[id] = n
	g.varToNode[x.ID] = id
	return id
}

// BoundsFor returns (TBottom, TTop) if x was never constrained;
// lazily materializes the node on first access.
func (g *Graph) BoundsFor(x *solvertypes.UVar) (solvertypes.ValueType, solvertypes.ValueType) {
	n := g.nodes[g.rep(x)]
	return n.lower, n.upper
}

// LowerBound projects the lower bound of x's equivalence class.
func (g *Graph) LowerBound(x *solvertypes.UVar) solvertypes.ValueType {
	l, _ := g.BoundsFor(x)
	return l
}

// UpperBound projects the upper bound of x's equivalence class.
func (g *Graph) UpperBound(x *solvertypes.UVar) solvertypes.ValueType {
	_, u := g.BoundsFor(x)
	return u
}

// UpdateLowerBound replaces the lower-bound payload component. t must
// not be a unification variable — variable-variable relations live as
// edges, never as payloads (spec §3 "Payload non-variance"). Violating
// this is a programmer error in the caller (the solver's comparer),
// not a user-facing diagnostic, so it panics rather than returning an
// error.
func (g *Graph) UpdateLowerBound(x *solvertypes.UVar, t solvertypes.ValueType) {
	if _, ok := solvertypes.IsUVar(t); ok {
		panic(fmt.Sprintf("constraintgraph: UpdateLowerBound(%s, %s): payload must not be a unification variable", x, t))
	}
	g.nodes[g.rep(x)].lower = t
}

// UpdateUpperBound replaces the upper-bound payload component; see
// UpdateLowerBound for the non-variable-payload precondition.
func (g *Graph) UpdateUpperBound(x *solvertypes.UVar, t solvertypes.ValueType) {
	if _, ok := solvertypes.IsUVar(t); ok {
		panic(fmt.Sprintf("constraintgraph: UpdateUpperBound(%s, %s): payload must not be a unification variable", x, t))
	}
	g.nodes[g.rep(x)].upper = t
}

// varsOf returns every unification variable belonging to the nodes in
// ids, excluding those belonging to exclude's own equivalence class.
func (g *Graph) varsOf(ids map[NodeID]struct{}, exclude NodeID) []*solvertypes.UVar {
	var out []*solvertypes.UVar
	for id := range ids {
		if id == exclude {
			continue
		}
		for _, v := range g.nodes[id].vars {
			out = append(out, v)
		}
	}
	return out
}

// LowerVariables returns every unification variable in every lower
// neighbour equivalence class of x (strict: excluding x's own class).
func (g *Graph) LowerVariables(x *solvertypes.UVar) []*solvertypes.UVar {
	rx := g.rep(x)
	return g.varsOf(g.nodes[rx].lowerNb, rx)
}

// UpperVariables returns every unification variable in every upper
// neighbour equivalence class of x (strict: excluding x's own class).
func (g *Graph) UpperVariables(x *solvertypes.UVar) []*solvertypes.UVar {
	rx := g.rep(x)
	return g.varsOf(g.nodes[rx].upperNb, rx)
}

// IsSubtype answers purely from the immediate neighbour sets; correct
// by Directness (spec §4.3).
func (g *Graph) IsSubtype(x, y *solvertypes.UVar) bool {
	rx, ry := g.rep(x), g.rep(y)
	if rx == ry {
		return true
	}
	_, ok := g.nodes[rx].upperNb[ry]
	return ok
}

// IsSupertype reports whether y <: x, i.e. IsSubtype(y, x).
func (g *Graph) IsSupertype(x, y *solvertypes.UVar) bool {
	return g.IsSubtype(y, x)
}

// SameClass reports whether x and y currently share an equivalence-class
// node, e.g. after a connect cycle has collapsed them together (spec
// §4.3 step 3). LowerVariables/UpperVariables deliberately exclude a
// variable's own class, so this is the direct way to assert same-class
// membership instead.
func (g *Graph) SameClass(x, y *solvertypes.UVar) bool {
	return g.rep(x) == g.rep(y)
}

// Connect asserts x <: y at the graph level (spec §4.3 `connect`).
func (g *Graph) Connect(x, y *solvertypes.UVar) {
	rx, ry := g.rep(x), g.rep(y)
	if rx == ry {
		return
	}
	if _, ok := g.nodes[rx].upperNb[ry]; ok {
		return // already connected
	}
	if _, ok := g.nodes[ry].upperNb[rx]; ok {
		// y <: x already known: a cycle is being closed. Every node z with
		// y <: z <: x lies on that cycle too, so it joins the class as well.
		var between []NodeID
		for id := range g.nodes[ry].upperNb {
			if _, ok := g.nodes[rx].lowerNb[id]; ok {
				between = append(between, id)
			}
		}
		g.collapse(rx, ry)
		for _, id := range between {
			g.collapse(id, ry)
		}
		return
	}
	g.addEdge(rx, ry)
}

// addEdge installs x <: y and restores Directness by propagating the
// new reachability to every existing predecessor of rx and every
// existing successor of ry: spec §4.3 step 4 describes the local
// update (rx.upper, ry.lower); full transitive closure additionally
// requires every node that already reaches rx to learn of ry (and
// everything ry reaches), and symmetrically on the lower side.
func (g *Graph) addEdge(rx, ry NodeID) {
	newUppers := map[NodeID]struct{}{ry: {}}
	for id := range g.nodes[ry].upperNb {
		newUppers[id] = struct{}{}
	}

	affected := map[NodeID]struct{}{rx: {}}
	for id := range g.nodes[rx].lowerNb {
		affected[id] = struct{}{}
	}

	for a := range affected {
		for u := range newUppers {
			if a == u {
				continue
			}
			g.nodes[a].upperNb[u] = struct{}{}
			g.nodes[u].lowerNb[a] = struct{}{}
		}
	}
}

// collapse merges rx's equivalence class into ry's, rewriting every
// occurrence of rx in the graph (neighbour sets, variable→node map) to
// ry and dropping self-references, per spec §4.3 step 3. The merged
// payload is a conservative structural join/meet — callers (the
// solver's comparer) are expected to invoke their own polarity-aware
// merge before calling Connect; this is a fallback for direct callers.
func (g *Graph) collapse(rx, ry NodeID) {
	nx, ny := g.nodes[rx], g.nodes[ry]

	for id, v := range nx.vars {
		ny.vars[id] = v
		g.varToNode[id] = ry
	}

	ny.lower = joinFallback(nx.lower, ny.lower)
	ny.upper = meetFallback(nx.upper, ny.upper)

	for id := range g.nodes {
		if id == rx {
			continue
		}
		n := g.nodes[id]
		if _, ok := n.lowerNb[rx]; ok {
			delete(n.lowerNb, rx)
			if id != ry {
				n.lowerNb[ry] = struct{}{}
			}
		}
		if _, ok := n.upperNb[rx]; ok {
			delete(n.upperNb, rx)
			if id != ry {
				n.upperNb[ry] = struct{}{}
			}
		}
	}
	for id := range nx.lowerNb {
		if id != ry && id != rx {
			ny.lowerNb[id] = struct{}{}
		}
	}
	for id := range nx.upperNb {
		if id != ry && id != rx {
			ny.upperNb[id] = struct{}{}
		}
	}
	delete(ny.lowerNb, ry)
	delete(ny.upperNb, ry)

	// Restore Directness: every node below the merged class now reaches
	// every node above it.
	for a := range ny.lowerNb {
		for u := range ny.upperNb {
			if a != u {
				g.nodes[a].upperNb[u] = struct{}{}
				g.nodes[u].lowerNb[a] = struct{}{}
			}
		}
	}

	delete(g.nodes, rx)
}

// joinFallback and meetFallback implement the TTop/TBottom-absorption
// and structural-equality cases of spec §4.4's merge table without
// depending on the comparer package (which depends on constraintgraph,
// not the reverse). Any case requiring recursive constructor-argument
// merging is left to the comparer, which is expected to have already
// resolved the payload before a cycle-closing Connect call; here we
// only need a total, terminating fallback.
func joinFallback(a, b solvertypes.ValueType) solvertypes.ValueType {
	if a.Equals(b) {
		return a
	}
	if solvertypes.IsBottom(a) {
		return b
	}
	if solvertypes.IsBottom(b) {
		return a
	}
	return solvertypes.TTop
}

func meetFallback(a, b solvertypes.ValueType) solvertypes.ValueType {
	if a.Equals(b) {
		return a
	}
	if solvertypes.IsTop(a) {
		return b
	}
	if solvertypes.IsTop(b) {
		return a
	}
	return solvertypes.TBottom
}

// Snapshot is an opaque capture of the entire graph state for
// backtracking (spec §4.3 `snapshot`/`restore`).
type Snapshot struct {
	nodes     map[NodeID]*node
	varToNode map[solvertypes.UVarID]NodeID
	nextID    NodeID
}

// Snapshot captures a deep copy of the graph.
func (g *Graph) Snapshot() *Snapshot {
	nodes := make(map[NodeID]*node, len(g.nodes))
	for id, n := range g.nodes {
		nodes[id] = n.clone()
	}
	varToNode := make(map[solvertypes.UVarID]NodeID, len(g.varToNode))
	for k, v := range g.varToNode {
		varToNode[k] = v
	}
	return &Snapshot{nodes: nodes, varToNode: varToNode, nextID: g.nextID}
}

// Restore replaces the graph's state wholesale with a previously
// captured snapshot, discarding all intervening mutations.
func (g *Graph) Restore(s *Snapshot) {
	nodes := make(map[NodeID]*node, len(s.nodes))
	for id, n := range s.nodes {
		nodes[id] = n.clone()
	}
	varToNode := make(map[solvertypes.UVarID]NodeID, len(s.varToNode))
	for k, v := range s.varToNode {
		varToNode[k] = v
	}
	g.nodes = nodes
	g.varToNode = varToNode
	g.nextID = s.nextID
}
