package graph

import "github.com/nino-go/nino/internal/compiler/metadata"

// detectCircular finds types reachable from themselves through member
// edges: pointer targets, slice/array elements, map keys and values,
// generic type arguments, tuple elements, and transitively the members
// of any other record in the graph. Fully unmanaged types are skipped
// up front; their members cannot hold references.
//
// Reaching the starting type or one of its ancestors closes a cycle;
// upward references count because polymorphic dispatch can substitute a
// sub-type wherever the ancestor appears.
func (g *Graph) detectCircular() {
	for _, t := range g.Types {
		if t.Info.IsUnmanaged {
			continue
		}
		targets := map[uint32]bool{t.Info.TypeID: true}
		for _, a := range g.BaseTypes[t.Info.TypeID] {
			targets[a.Info.TypeID] = true
		}

		visited := make(map[uint32]bool)
		if g.membersReach(t, targets, visited) {
			t.IsCircular = true
			g.CircularTypes = append(g.CircularTypes, t)
		}
	}
}

// membersReach walks t's member shapes looking for any target id.
func (g *Graph) membersReach(t *metadata.NinoType, targets, visited map[uint32]bool) bool {
	for _, m := range t.Members {
		if m.Type.IsUnmanaged {
			continue
		}
		if g.shapeReaches(m.Type, targets, visited) {
			return true
		}
	}
	return false
}

func (g *Graph) shapeReaches(info metadata.TypeInfo, targets, visited map[uint32]bool) bool {
	if targets[info.TypeID] {
		return true
	}
	if visited[info.TypeID] {
		return false
	}
	visited[info.TypeID] = true

	for _, arg := range info.TypeArgs {
		if g.shapeReaches(arg, targets, visited) {
			return true
		}
	}
	if info.Elem != nil && g.shapeReaches(*info.Elem, targets, visited) {
		return true
	}
	if info.Key != nil && g.shapeReaches(*info.Key, targets, visited) {
		return true
	}
	for _, te := range info.TupleElems {
		if g.shapeReaches(te.Type, targets, visited) {
			return true
		}
	}

	// Transit through another record's members.
	if other, ok := g.byID[info.TypeID]; ok {
		if g.membersReach(other, targets, visited) {
			return true
		}
	}
	return false
}
