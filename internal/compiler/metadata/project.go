package metadata

import (
	"context"
	"fmt"
	"go/token"
	"go/types"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CollectionsPkgPath is the package whose generic containers the
// builtin emitters have dedicated templates for.
const CollectionsPkgPath = "github.com/nino-go/nino/pkg/collections"

const projectionCacheSize = 4096

// Projector turns go/types objects into TypeInfo records. It is the
// only component that touches host metadata; its output is pure value
// data. Projection is memoized by fully qualified name, so repeated
// lookups during member extraction are cheap. A projector is safe for
// concurrent use.
type Projector struct {
	fset  *token.FileSet
	cache *lru.Cache[string, TypeInfo]
}

// NewProjector creates a projector. fset may be nil when source
// locations are not needed (tests).
func NewProjector(fset *token.FileSet) *Projector {
	cache, _ := lru.New[string, TypeInfo](projectionCacheSize)
	return &Projector{fset: fset, cache: cache}
}

// Project extracts the TypeInfo record for t. It recurses into type
// arguments, element types, pointer targets, and map keys, checking ctx
// at each recursion so a host cancellation abandons the walk promptly.
func (p *Projector) Project(ctx context.Context, t types.Type) (TypeInfo, error) {
	if err := ctx.Err(); err != nil {
		return TypeInfo{}, err
	}

	t = types.Unalias(t)
	fullName := types.TypeString(t, nil)
	if cached, ok := p.cache.Get(fullName); ok {
		return cached, nil
	}

	info, err := p.project(ctx, t, fullName)
	if err != nil {
		return TypeInfo{}, err
	}
	p.cache.Add(fullName, info)
	return info, nil
}

func (p *Projector) project(ctx context.Context, t types.Type, fullName string) (TypeInfo, error) {
	info := TypeInfo{
		FullName:     fullName,
		TypeID:       TypeIDOf(fullName),
		DisplayName:  SanitizeDisplayName(fullName),
		InstanceName: InstanceNameOf(fullName),
	}

	switch u := t.(type) {
	case *types.Basic:
		p.projectBasic(&info, u)

	case *types.Named:
		if err := p.projectNamed(ctx, &info, u); err != nil {
			return TypeInfo{}, err
		}

	case *types.Pointer:
		elem, err := p.Project(ctx, u.Elem())
		if err != nil {
			return TypeInfo{}, err
		}
		info.Kind = KindPointer
		info.Elem = &elem

	case *types.Slice:
		elem, err := p.Project(ctx, u.Elem())
		if err != nil {
			return TypeInfo{}, err
		}
		info.Kind = KindSlice
		info.Elem = &elem

	case *types.Array:
		elem, err := p.Project(ctx, u.Elem())
		if err != nil {
			return TypeInfo{}, err
		}
		info.Kind = KindArray
		info.ArrayLen = u.Len()
		info.Elem = &elem
		info.IsValueType = true
		info.IsUnmanaged = elem.IsUnmanaged

	case *types.Map:
		key, err := p.Project(ctx, u.Key())
		if err != nil {
			return TypeInfo{}, err
		}
		elem, err := p.Project(ctx, u.Elem())
		if err != nil {
			return TypeInfo{}, err
		}
		info.Kind = KindMap
		info.Key = &key
		info.Elem = &elem

	case *types.Interface:
		info.Kind = KindInterface
		info.IsPolymorphic = true

	case *types.Struct:
		// Unnamed struct literal type; serializable only through a
		// named wrapper, so it projects as an opaque struct.
		info.Kind = KindStruct
		info.IsValueType = true
		info.IsUnmanaged = p.structIsUnmanaged(u)

	case *types.TypeParam:
		// Unbound type parameter; extraction rejects types that leak
		// these into member positions.
		info.Kind = KindInvalid

	default:
		info.Kind = KindInvalid
	}

	return info, nil
}

func (p *Projector) projectBasic(info *TypeInfo, b *types.Basic) {
	switch b.Kind() {
	case types.Bool:
		info.Kind = KindBool
	case types.Int:
		info.Kind = KindInt
	case types.Int8:
		info.Kind = KindInt8
	case types.Int16:
		info.Kind = KindInt16
	case types.Int32:
		info.Kind = KindInt32
	case types.Int64:
		info.Kind = KindInt64
	case types.Uint:
		info.Kind = KindUint
	case types.Uint8:
		info.Kind = KindUint8
	case types.Uint16:
		info.Kind = KindUint16
	case types.Uint32:
		info.Kind = KindUint32
	case types.Uint64:
		info.Kind = KindUint64
	case types.Float32:
		info.Kind = KindFloat32
	case types.Float64:
		info.Kind = KindFloat64
	case types.String:
		info.Kind = KindString
	default:
		info.Kind = KindInvalid
	}
	info.Name = b.Name()
	info.Exported = true
	switch info.Kind {
	case KindInvalid:
	case KindString:
		info.IsValueType = false
	default:
		info.IsValueType = true
		info.IsUnmanaged = true
	}
}

func (p *Projector) projectNamed(ctx context.Context, info *TypeInfo, n *types.Named) error {
	obj := n.Obj()
	info.Name = obj.Name()
	info.Exported = obj.Exported()
	if pkg := obj.Pkg(); pkg != nil {
		info.PkgPath = pkg.Path()
		info.PkgName = pkg.Name()
	}
	if p.fset != nil && obj.Pos().IsValid() {
		pos := p.fset.Position(obj.Pos())
		info.Loc = SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column}
	}

	// Generic shape.
	if tp := n.TypeParams(); tp != nil && tp.Len() > 0 && n.TypeArgs().Len() == 0 {
		info.IsGenericDef = true
		info.GenericDef = types.TypeString(n, nil)
	}
	if ta := n.TypeArgs(); ta != nil {
		info.GenericDef = types.TypeString(n.Origin(), nil)
		for i := 0; i < ta.Len(); i++ {
			arg, err := p.Project(ctx, ta.At(i))
			if err != nil {
				return err
			}
			info.TypeArgs = append(info.TypeArgs, arg)
		}
	}

	if info.PkgPath == CollectionsPkgPath {
		p.projectCollection(info)
		if info.Special != SpecialNone {
			info.Kind = KindStruct
			info.IsValueType = info.Special == SpecialPair || info.Special == SpecialTriple ||
				info.Special == SpecialImmutableArray || info.Special == SpecialImmutableList
			return nil
		}
	}

	switch u := n.Underlying().(type) {
	case *types.Basic:
		if u.Info()&types.IsInteger != 0 {
			// Named integer types are the enum analog; they encode as
			// their underlying fixed-size value.
			underlying, err := p.Project(ctx, u)
			if err != nil {
				return err
			}
			info.Kind = KindEnum
			info.Elem = &underlying
			info.IsValueType = true
			info.IsUnmanaged = true
		} else {
			p.projectBasic(info, u)
			// projectBasic overwrote identity fields for the basic
			// kind; restore the named identity.
			info.Name = obj.Name()
			info.Exported = obj.Exported()
		}
	case *types.Interface:
		info.Kind = KindInterface
		info.IsPolymorphic = true
	case *types.Struct:
		info.Kind = KindStruct
		info.IsValueType = true
		info.IsUnmanaged = p.structIsUnmanaged(u)
		if !info.IsUnmanaged {
			cc, err := p.detectCustomCollection(ctx, n)
			if err != nil {
				return err
			}
			info.CustomCollection = cc
		}
	case *types.Pointer, *types.Slice, *types.Map, *types.Array:
		inner, err := p.project(ctx, u, info.FullName)
		if err != nil {
			return err
		}
		info.Kind = inner.Kind
		info.Elem = inner.Elem
		info.Key = inner.Key
		info.ArrayLen = inner.ArrayLen
		info.IsValueType = inner.IsValueType
		info.IsUnmanaged = inner.IsUnmanaged
	default:
		info.Kind = KindInvalid
	}
	return nil
}

func (p *Projector) projectCollection(info *TypeInfo) {
	switch info.Name {
	case "Pair":
		info.Special = SpecialPair
	case "Triple":
		info.Special = SpecialTriple
	case "Stack":
		info.Special = SpecialStack
	case "Queue":
		info.Special = SpecialQueue
	case "Set":
		info.Special = SpecialSet
	case "SortedSet":
		info.Special = SpecialSortedSet
	case "SortedMap":
		info.Special = SpecialSortedMap
	case "LinkedList":
		info.Special = SpecialLinkedList
	case "PriorityQueue":
		info.Special = SpecialPriorityQueue
	case "ImmutableArray":
		info.Special = SpecialImmutableArray
	case "ImmutableList":
		info.Special = SpecialImmutableList
	}

	switch info.Special {
	case SpecialPair:
		if len(info.TypeArgs) == 2 {
			info.TupleElems = []TupleElem{
				{Name: "First", Type: info.TypeArgs[0]},
				{Name: "Second", Type: info.TypeArgs[1]},
			}
		}
	case SpecialTriple:
		if len(info.TypeArgs) == 3 {
			info.TupleElems = []TupleElem{
				{Name: "First", Type: info.TypeArgs[0]},
				{Name: "Second", Type: info.TypeArgs[1]},
				{Name: "Third", Type: info.TypeArgs[2]},
			}
		}
	}

	// A tuple of fixed-size elements is itself fixed-size and takes
	// the single-copy fast path.
	if len(info.TupleElems) > 0 {
		unmanaged := true
		for _, te := range info.TupleElems {
			if !te.Type.IsUnmanaged {
				unmanaged = false
				break
			}
		}
		info.IsUnmanaged = unmanaged
	}
}

// detectCustomCollection recognizes user containers through their
// method set: Add(T), Clear(), Len() int, and Items() []T with the
// element types agreeing. Anything less is not a collection.
func (p *Projector) detectCustomCollection(ctx context.Context, n *types.Named) (*CustomCollectionInfo, error) {
	var addElem, itemsElem types.Type
	var hasClear, hasLen bool

	for i := 0; i < n.NumMethods(); i++ {
		m := n.Method(i)
		sig, ok := m.Type().(*types.Signature)
		if !ok {
			continue
		}
		switch m.Name() {
		case "Add":
			if sig.Params().Len() == 1 {
				addElem = sig.Params().At(0).Type()
			}
		case "Clear":
			hasClear = sig.Params().Len() == 0
		case "Len":
			if sig.Params().Len() == 0 && sig.Results().Len() == 1 {
				if b, ok := sig.Results().At(0).Type().(*types.Basic); ok && b.Kind() == types.Int {
					hasLen = true
				}
			}
		case "Items":
			if sig.Params().Len() == 0 && sig.Results().Len() == 1 {
				if sl, ok := sig.Results().At(0).Type().(*types.Slice); ok {
					itemsElem = sl.Elem()
				}
			}
		}
	}

	if addElem == nil || itemsElem == nil || !hasClear || !hasLen {
		return nil, nil
	}
	if !types.Identical(addElem, itemsElem) {
		return nil, nil
	}
	// A container whose element mentions the container itself would
	// recurse forever during projection; such shapes are not eligible.
	if strings.Contains(types.TypeString(addElem, nil), types.TypeString(n, nil)) {
		return nil, nil
	}
	elem, err := p.Project(ctx, addElem)
	if err != nil {
		return nil, err
	}
	return &CustomCollectionInfo{Elem: elem}, nil
}

// structIsUnmanaged reports whether every field of s is fixed-size.
func (p *Projector) structIsUnmanaged(s *types.Struct) bool {
	for i := 0; i < s.NumFields(); i++ {
		if !typeIsUnmanaged(s.Field(i).Type()) {
			return false
		}
	}
	return true
}

func typeIsUnmanaged(t types.Type) bool {
	switch u := types.Unalias(t).(type) {
	case *types.Basic:
		return u.Info()&(types.IsNumeric|types.IsBoolean) != 0 && u.Info()&types.IsComplex == 0
	case *types.Array:
		return typeIsUnmanaged(u.Elem())
	case *types.Named:
		return typeIsUnmanaged(u.Underlying())
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if !typeIsUnmanaged(u.Field(i).Type()) {
				return false
			}
		}
		return true
	}
	return false
}

// HasInvalidLeaf walks the projection looking for KindInvalid leaves:
// unbound type parameters or unsupported kinds anywhere in the shape.
func HasInvalidLeaf(t TypeInfo) bool {
	if t.Kind == KindInvalid {
		return true
	}
	for _, a := range t.TypeArgs {
		if HasInvalidLeaf(a) {
			return true
		}
	}
	if t.Elem != nil && HasInvalidLeaf(*t.Elem) {
		return true
	}
	if t.Key != nil && HasInvalidLeaf(*t.Key) {
		return true
	}
	return false
}

// Describe renders a short debugging description.
func Describe(t TypeInfo) string {
	return fmt.Sprintf("%s (%s, id 0x%08x)", t.DisplayName, t.Kind, t.TypeID)
}
