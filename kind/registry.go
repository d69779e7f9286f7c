package kind

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
)

// pairKey is an unordered pair of kind names, used as a map key for
// disjointness lookups.
type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Registry is the precomputed, immutable closure over a graph's ontology
// (spec §4.1). It is built once by Build and is safe for unrestricted
// concurrent reads thereafter (spec §5: "immutable post-construction and
// freely shared").
type Registry struct {
	nodeKinds map[string]NodeKind
	edgeKinds map[string]EdgeKind

	// subclass closures (kind -> its ancestors / its descendants); the
	// entry sets are NOT inclusive of the kind itself; Expand*/Is* add it back.
	ancestors   map[string]map[string]struct{}
	descendants map[string]map[string]struct{}

	// disjoint is the base (undeclared-inheritance) set of disjoint pairs;
	// areDisjoint additionally walks ancestor closures.
	disjoint map[pairKey]struct{}

	edgeInverse map[string]string // partial involution
	implies     map[string][]string
	impliedBy   map[string][]string
	impliesClosureCache   map[string][]string
	impliedByClosureCache map[string][]string
}

// NodeKinds returns the declared node kind names in stable (sorted) order.
func (r *Registry) NodeKinds() []string { return sortedKeys(r.nodeKinds) }

// EdgeKinds returns the declared edge kind names in stable (sorted) order.
func (r *Registry) EdgeKinds() []string { return sortedKeys(r.edgeKinds) }

// NodeKind looks up a declared node kind descriptor.
func (r *Registry) NodeKind(name string) (NodeKind, bool) {
	k, ok := r.nodeKinds[name]
	return k, ok
}

// EdgeKind looks up a declared edge kind descriptor.
func (r *Registry) EdgeKind(name string) (EdgeKind, bool) {
	k, ok := r.edgeKinds[name]
	return k, ok
}

// IsAssignableTo reports whether a is assignable to b: true iff a == b, or b
// is an ancestor of a under subClassOf (with equivalentTo modeled as a
// bidirectional subclass edge at construction time) (spec §4.1).
func (r *Registry) IsAssignableTo(a, b string) bool {
	if a == b {
		return true
	}
	_, ok := r.ancestors[a][b]
	return ok
}

// Ancestors returns the transitive, exclusive set of ancestors of k under
// subClassOf.
func (r *Registry) Ancestors(k string) []string {
	return setKeys(r.ancestors[k])
}

// Descendants returns the transitive, exclusive set of descendants of k
// under subClassOf.
func (r *Registry) Descendants(k string) []string {
	return setKeys(r.descendants[k])
}

// ExpandSubClasses returns the inclusive closure of descendants of k: k
// itself plus every kind that is a (transitive) subclass of k. Used by
// queries with includeSubClasses and by kindWithSubClasses-scoped uniqueness
// (spec §4.1).
func (r *Registry) ExpandSubClasses(k string) []string {
	out := []string{k}
	out = append(out, r.Descendants(k)...)
	sort.Strings(out)
	return dedupeSorted(out)
}

// AreDisjoint reports whether x and y are disjoint: true iff any
// ancestor-inclusive pair of (x, y) — including (x, y) itself — is in the
// base disjointness set (spec §3 invariant 2, §4.1: disjointWith(a, b)
// implies disjointWith(a', b') for any a' <= a, b' <= b).
func (r *Registry) AreDisjoint(x, y string) bool {
	xs := append([]string{x}, r.Ancestors(x)...)
	ys := append([]string{y}, r.Ancestors(y)...)
	for _, xa := range xs {
		for _, ya := range ys {
			if _, ok := r.disjoint[newPairKey(xa, ya)]; ok {
				return true
			}
		}
	}
	return false
}

// GetInverseEdge returns the declared inverse of edge kind e, if any.
// getInverseEdge is a partial involution: GetInverseEdge(GetInverseEdge(e))
// == e whenever both sides are declared (spec §4.1, §8 invariant 7).
func (r *Registry) GetInverseEdge(e string) (string, bool) {
	inv, ok := r.edgeInverse[e]
	return inv, ok
}

// GetImpliedEdges returns the transitive closure of edges implied by e
// (e -> f -> g => {f, g}), excluding e itself (spec §4.1).
func (r *Registry) GetImpliedEdges(e string) []string {
	if c, ok := r.impliesClosureCache[e]; ok {
		return c
	}
	return closureOf(e, r.implies)
}

// GetImplyingEdges returns the transitive closure of edges that imply e,
// i.e. the inverse closure of GetImpliedEdges (spec §4.1).
func (r *Registry) GetImplyingEdges(e string) []string {
	if c, ok := r.impliedByClosureCache[e]; ok {
		return c
	}
	return closureOf(e, r.impliedBy)
}

func closureOf(start string, adj map[string][]string) []string {
	seen := map[string]struct{}{}
	var walk func(string)
	walk = func(n string) {
		for _, next := range adj[n] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			walk(next)
		}
	}
	walk(start)
	out := setKeys(seen)
	return out
}

// Build constructs a Registry from the declared node/edge kinds and the full
// ontology-relation list, computing every closure in §4.1 up front. It
// returns a *typegraph.CompilationError-shaped error (reported via the
// error interface to avoid an import cycle; see BuildError) for cyclic
// subclass/implication relations, an inverse declared twice, or a relation
// referencing an unknown kind.
func Build(nodeKinds []NodeKind, edgeKinds []EdgeKind, relations []OntologyRelation) (*Registry, error) {
	r := &Registry{
		nodeKinds:             make(map[string]NodeKind, len(nodeKinds)),
		edgeKinds:             make(map[string]EdgeKind, len(edgeKinds)),
		ancestors:             map[string]map[string]struct{}{},
		descendants:           map[string]map[string]struct{}{},
		disjoint:              map[pairKey]struct{}{},
		edgeInverse:           map[string]string{},
		implies:               map[string][]string{},
		impliedBy:             map[string][]string{},
		impliesClosureCache:   map[string][]string{},
		impliedByClosureCache: map[string][]string{},
	}
	for _, nk := range nodeKinds {
		if _, dup := r.nodeKinds[nk.Name]; dup {
			return nil, &BuildError{fmt.Sprintf("duplicate node kind %q", nk.Name)}
		}
		nk.Uniques = withDefaultConstraintNames(nk.Name, nk.Uniques)
		r.nodeKinds[nk.Name] = nk
		r.ancestors[nk.Name] = map[string]struct{}{}
		r.descendants[nk.Name] = map[string]struct{}{}
	}
	for _, ek := range edgeKinds {
		if _, dup := r.edgeKinds[ek.Name]; dup {
			return nil, &BuildError{fmt.Sprintf("duplicate edge kind %q", ek.Name)}
		}
		r.edgeKinds[ek.Name] = ek
	}

	// subclass adjacency: child -> parent (plus the bidirectional edges that
	// equivalentTo contributes).
	parentsOf := map[string][]string{}
	addSubClass := func(child, parent string) error {
		if err := r.requireNodeKind(child); err != nil {
			return err
		}
		if err := r.requireNodeKind(parent); err != nil {
			return err
		}
		parentsOf[child] = append(parentsOf[child], parent)
		return nil
	}

	for _, rel := range relations {
		switch rel.Kind {
		case RelSubClassOf:
			if err := addSubClass(rel.A, rel.B); err != nil {
				return nil, err
			}
		case RelEquivalentTo:
			if err := addSubClass(rel.A, rel.B); err != nil {
				return nil, err
			}
			if err := addSubClass(rel.B, rel.A); err != nil {
				return nil, err
			}
		}
	}

	for child := range r.ancestors {
		visiting := map[string]struct{}{}
		if err := r.computeAncestors(child, parentsOf, visiting, map[string]struct{}{}); err != nil {
			return nil, err
		}
	}
	for child, anc := range r.ancestors {
		for a := range anc {
			r.descendants[a][child] = struct{}{}
		}
	}

	for _, rel := range relations {
		if rel.Kind != RelDisjointWith {
			continue
		}
		if err := r.requireNodeKind(rel.A); err != nil {
			return nil, err
		}
		if err := r.requireNodeKind(rel.B); err != nil {
			return nil, err
		}
		r.disjoint[newPairKey(rel.A, rel.B)] = struct{}{}
	}

	for _, rel := range relations {
		if rel.Kind != RelInverseOf {
			continue
		}
		if err := r.requireEdgeKind(rel.A); err != nil {
			return nil, err
		}
		if err := r.requireEdgeKind(rel.B); err != nil {
			return nil, err
		}
		if existing, ok := r.edgeInverse[rel.A]; ok && existing != rel.B {
			return nil, &BuildError{fmt.Sprintf("edge kind %q already has inverse %q, cannot also declare %q", rel.A, existing, rel.B)}
		}
		if existing, ok := r.edgeInverse[rel.B]; ok && existing != rel.A {
			return nil, &BuildError{fmt.Sprintf("edge kind %q already has inverse %q, cannot also declare %q", rel.B, existing, rel.A)}
		}
		r.edgeInverse[rel.A] = rel.B
		r.edgeInverse[rel.B] = rel.A
	}

	for _, rel := range relations {
		if rel.Kind != RelImplies {
			continue
		}
		if err := r.requireEdgeKind(rel.A); err != nil {
			return nil, err
		}
		if err := r.requireEdgeKind(rel.B); err != nil {
			return nil, err
		}
		r.implies[rel.A] = append(r.implies[rel.A], rel.B)
		r.impliedBy[rel.B] = append(r.impliedBy[rel.B], rel.A)
	}

	for e := range r.edgeKinds {
		if err := detectCycle(e, r.implies, map[string]struct{}{}, map[string]struct{}{}); err != nil {
			return nil, &BuildError{fmt.Sprintf("cyclic edge implication involving %q", e)}
		}
	}
	for e := range r.edgeKinds {
		r.impliesClosureCache[e] = closureOf(e, r.implies)
		r.impliedByClosureCache[e] = closureOf(e, r.impliedBy)
	}

	return r, nil
}

// withDefaultConstraintNames fills in a deterministic snake_case name
// (kindName_field1_field2, via go-openapi/inflect) for any UniqueConstraint
// left unnamed by the caller, so callers that only care about the field
// list don't have to invent identifiers that also satisfy the DDL
// generator's naming requirements (spec §6.3).
func withDefaultConstraintNames(kindName string, uniques []UniqueConstraint) []UniqueConstraint {
	out := make([]UniqueConstraint, len(uniques))
	for i, u := range uniques {
		if u.Name == "" {
			parts := append([]string{kindName}, u.Fields...)
			u.Name = inflect.Underscore(strings.Join(parts, "_"))
		}
		out[i] = u
	}
	return out
}

func (r *Registry) requireNodeKind(name string) error {
	if _, ok := r.nodeKinds[name]; !ok {
		return &BuildError{fmt.Sprintf("unknown node kind %q referenced by ontology relation", name)}
	}
	return nil
}

func (r *Registry) requireEdgeKind(name string) error {
	if _, ok := r.edgeKinds[name]; !ok {
		return &BuildError{fmt.Sprintf("unknown edge kind %q referenced by ontology relation", name)}
	}
	return nil
}

// computeAncestors performs a DFS over parentsOf, memoizing into r.ancestors
// and failing with a BuildError if a cycle is detected.
func (r *Registry) computeAncestors(k string, parentsOf map[string][]string, visiting, done map[string]struct{}) error {
	if _, ok := done[k]; ok {
		return nil
	}
	if _, ok := visiting[k]; ok {
		return &BuildError{fmt.Sprintf("cyclic subClassOf involving %q", k)}
	}
	visiting[k] = struct{}{}
	for _, p := range parentsOf[k] {
		if err := r.computeAncestors(p, parentsOf, visiting, done); err != nil {
			return err
		}
		r.ancestors[k][p] = struct{}{}
		for gp := range r.ancestors[p] {
			r.ancestors[k][gp] = struct{}{}
		}
	}
	delete(visiting, k)
	done[k] = struct{}{}
	return nil
}

func detectCycle(start string, adj map[string][]string, visiting, done map[string]struct{}) error {
	if _, ok := done[start]; ok {
		return nil
	}
	if _, ok := visiting[start]; ok {
		return fmt.Errorf("cycle at %s", start)
	}
	visiting[start] = struct{}{}
	for _, next := range adj[start] {
		if err := detectCycle(next, adj, visiting, done); err != nil {
			return err
		}
	}
	delete(visiting, start)
	done[start] = struct{}{}
	return nil
}

// BuildError reports a malformed ontology detected at Registry construction
// time: a cyclic subclass or implication relation, a double inverse
// declaration, or a relation referencing an unknown kind. It is returned as
// a plain error so this package does not import the root package (which, in
// turn, aggregates kind); callers typically wrap it in a
// *typegraph.CompilationError at the call site.
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string { return "typegraph: ontology error: " + e.Message }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func dedupeSorted(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
