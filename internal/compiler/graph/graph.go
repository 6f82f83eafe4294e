// Package graph stitches extracted NinoType records into the directed
// type hierarchy the emitters consume: transitive base lists, sub-type
// inversion, top-type and circularity classification. Parent links are
// ids, never references, so the graph rebuilds cleanly from any batch
// of value records.
package graph

import (
	"sort"

	"github.com/nino-go/nino/internal/compiler/errors"
	"github.com/nino-go/nino/internal/compiler/metadata"
)

// Graph is the resolved type hierarchy for one generation batch.
type Graph struct {
	// Types holds the deduplicated records ordered by full name.
	Types []*metadata.NinoType
	// BaseTypes maps each type id to its transitive ancestors in walk
	// order: depth-first, embedded bases before interfaces.
	BaseTypes map[uint32][]*metadata.NinoType
	// SubTypes is the inversion: every type that has the key among its
	// ancestors.
	SubTypes map[uint32][]*metadata.NinoType
	// TopTypes lists types with no resolved ancestors.
	TopTypes []*metadata.NinoType
	// CircularTypes lists types reachable from themselves through
	// member edges.
	CircularTypes []*metadata.NinoType
	// TypeMap resolves display names to records.
	TypeMap map[string]*metadata.NinoType

	byID map[uint32]*metadata.NinoType
}

// Build constructs the graph from extracted records. Duplicate type ids
// from identical names collapse; colliding ids from distinct names are
// reported through diags and the later record is dropped.
func Build(typs []*metadata.NinoType, diags *errors.Collector) *Graph {
	g := &Graph{
		BaseTypes: make(map[uint32][]*metadata.NinoType),
		SubTypes:  make(map[uint32][]*metadata.NinoType),
		TypeMap:   make(map[string]*metadata.NinoType),
		byID:      make(map[uint32]*metadata.NinoType),
	}

	g.dedupe(typs, diags)
	g.walkBases()
	g.invertSubTypes()
	g.classify()
	g.detectCircular()
	return g
}

// ByID resolves a type id.
func (g *Graph) ByID(id uint32) (*metadata.NinoType, bool) {
	t, ok := g.byID[id]
	return t, ok
}

func (g *Graph) dedupe(typs []*metadata.NinoType, diags *errors.Collector) {
	for _, t := range typs {
		prev, ok := g.byID[t.Info.TypeID]
		if !ok {
			g.byID[t.Info.TypeID] = t
			continue
		}
		if prev.Info.FullName != t.Info.FullName {
			if diags != nil {
				diags.Add(errors.NewDuplicateTypeID(t.Info.FullName, prev.Info.FullName, t.Info.TypeID))
			}
			continue
		}
		// Direct-attribute records win over inherited ones.
		if t.DirectAttribute && !prev.DirectAttribute {
			g.byID[t.Info.TypeID] = t
		}
	}

	g.Types = make([]*metadata.NinoType, 0, len(g.byID))
	for _, t := range g.byID {
		g.Types = append(g.Types, t)
	}
	sort.Slice(g.Types, func(i, j int) bool {
		return g.Types[i].Info.FullName < g.Types[j].Info.FullName
	})
	for _, t := range g.Types {
		g.TypeMap[t.Info.DisplayName] = t
	}
}

// walkBases resolves each record's parent ids and accumulates the
// transitive ancestor list. Parents that resolve to nothing are
// external types and are silently dropped.
func (g *Graph) walkBases() {
	for _, t := range g.Types {
		var ancestors []*metadata.NinoType
		seen := map[uint32]bool{t.Info.TypeID: true}

		var walk func(parentIDs []uint32)
		walk = func(parentIDs []uint32) {
			for _, pid := range parentIDs {
				parent, ok := g.byID[pid]
				if !ok || seen[pid] {
					continue
				}
				seen[pid] = true
				ancestors = append(ancestors, parent)
				walk(parent.ParentIDs)
			}
		}
		walk(t.ParentIDs)

		g.BaseTypes[t.Info.TypeID] = ancestors
		t.HierarchyLevel = len(ancestors)
	}
}

func (g *Graph) invertSubTypes() {
	for _, t := range g.Types {
		for _, ancestor := range g.BaseTypes[t.Info.TypeID] {
			subs := g.SubTypes[ancestor.Info.TypeID]
			present := false
			for _, s := range subs {
				if s.Info.TypeID == t.Info.TypeID {
					present = true
					break
				}
			}
			if !present {
				g.SubTypes[ancestor.Info.TypeID] = append(subs, t)
			}
		}
	}
}

func (g *Graph) classify() {
	for _, t := range g.Types {
		if len(g.BaseTypes[t.Info.TypeID]) == 0 {
			g.TopTypes = append(g.TopTypes, t)
		}
		t.IsPolymorphic = len(t.ParentIDs) > 0 || t.Info.IsPolymorphic || len(g.SubTypes[t.Info.TypeID]) > 0
	}
}

// SubTypesDeepestFirst returns the concrete sub-types of id ordered by
// descending ancestor count, ties broken by name, which is the dispatch
// order polymorphic switches are emitted in.
func (g *Graph) SubTypesDeepestFirst(id uint32) []*metadata.NinoType {
	subs := append([]*metadata.NinoType(nil), g.SubTypes[id]...)
	sort.SliceStable(subs, func(i, j int) bool {
		li, lj := subs[i].HierarchyLevel, subs[j].HierarchyLevel
		if li != lj {
			return li > lj
		}
		return subs[i].Info.FullName < subs[j].Info.FullName
	})
	return subs
}
