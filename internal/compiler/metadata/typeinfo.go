// Package metadata defines the value-equatable records the generator
// pipeline passes between stages, and the projection that builds them
// from compiled Go package metadata. Projection is the only place that
// touches go/types objects; everything downstream consumes these records
// exclusively, which is what makes the pipeline cacheable.
package metadata

import (
	"fmt"
	"strings"
)

// Kind classifies a projected type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindStruct
	KindInterface
	KindPointer
	KindSlice
	KindArray
	KindMap
	KindEnum
)

var kindNames = [...]string{
	"invalid", "bool", "int", "int8", "int16", "int32", "int64",
	"uint", "uint8", "uint16", "uint32", "uint64", "float32", "float64",
	"string", "struct", "interface", "pointer", "slice", "array", "map", "enum",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// SpecialType identifies the well-known collection shapes the builtin
// emitters have dedicated templates for.
type SpecialType uint8

const (
	SpecialNone SpecialType = iota
	SpecialPair
	SpecialTriple
	SpecialStack
	SpecialQueue
	SpecialSet
	SpecialSortedSet
	SpecialSortedMap
	SpecialLinkedList
	SpecialPriorityQueue
	SpecialImmutableArray
	SpecialImmutableList
)

var specialNames = [...]string{
	"none", "pair", "triple", "stack", "queue", "set", "sortedset",
	"sortedmap", "linkedlist", "priorityqueue", "immutablearray", "immutablelist",
}

// String returns the special-shape name.
func (s SpecialType) String() string {
	if int(s) < len(specialNames) {
		return specialNames[s]
	}
	return "unknown"
}

// SourceLocation is the declaration site of a projected symbol,
// captured as plain data during projection.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// String renders the location in file:line:column form.
func (l SourceLocation) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// CustomCollectionInfo describes a user container eligible for
// serialization through its method set: Add(T), Clear(), Len() int,
// Items() []T.
type CustomCollectionInfo struct {
	Elem TypeInfo
}

// TupleElem is one element of a tuple shape: a Pair or Triple field.
type TupleElem struct {
	Name string
	Type TypeInfo
}

// TypeInfo is the immutable projection of one Go type. Recursive
// references (type arguments, element types, pointer targets) are
// always fully materialized, never forward references, so equality is
// structural. Two TypeInfos with equal TypeID are interchangeable.
type TypeInfo struct {
	// FullName is the fully qualified display name, e.g.
	// "github.com/acme/game.Player" or "[]*github.com/acme/game.Item".
	FullName string
	// TypeID is the deterministic 32-bit hash of FullName.
	TypeID uint32

	Kind    Kind
	Special SpecialType

	// Name is the simple type name; empty for unnamed composites.
	Name string
	// PkgPath and PkgName locate the declaring package for named types.
	PkgPath string
	PkgName string

	Exported    bool
	IsValueType bool
	IsUnmanaged bool
	// IsPolymorphic holds for interfaces; struct types become
	// polymorphic only through graph resolution.
	IsPolymorphic bool

	// Generic shape.
	TypeArgs     []TypeInfo
	GenericDef   string
	IsGenericDef bool

	// Elem is the pointer target, slice/array element, or map value.
	Elem *TypeInfo
	// Key is the map key.
	Key *TypeInfo
	// ArrayLen is the fixed length for KindArray.
	ArrayLen int64

	// TupleElems holds Pair/Triple element projections in order.
	TupleElems []TupleElem

	// CustomCollection is set for user containers exposing the
	// Add/Clear/Len/Items contract, which makes them serializable
	// without a directive.
	CustomCollection *CustomCollectionInfo

	// DisplayName is FullName after multi-dimensional-array
	// sanitization, safe to splice into emitted source.
	DisplayName string
	// InstanceName is a collision-proof lowercase identifier derived
	// from the display name.
	InstanceName string

	Loc SourceLocation
}

// Equal reports value equality. Full materialization makes the fully
// qualified name a complete structural description, so name equality is
// structural equality.
func (t TypeInfo) Equal(o TypeInfo) bool {
	return t.FullName == o.FullName
}

// IsNullable reports whether the type is a pointer, the nullable form.
// Pointers to plain values are written with a bool tag; pointers to
// containers and polymorphic structs use the null sentinels instead.
func (t TypeInfo) IsNullable() bool {
	return t.Kind == KindPointer
}

// IsReference reports whether the runtime representation can alias or
// be nil: pointers, interfaces, slices, and maps.
func (t TypeInfo) IsReference() bool {
	switch t.Kind {
	case KindPointer, KindInterface, KindSlice, KindMap:
		return true
	}
	return false
}

// CanonicalString renders a deterministic description used for content
// hashing by the incremental cache.
func (t TypeInfo) CanonicalString() string {
	var b strings.Builder
	t.writeCanonical(&b)
	return b.String()
}

func (t TypeInfo) writeCanonical(b *strings.Builder) {
	fmt.Fprintf(b, "%s#%08x#%s#%s", t.FullName, t.TypeID, t.Kind, t.Special)
	if t.IsUnmanaged {
		b.WriteString("#unmanaged")
	}
	if t.IsPolymorphic {
		b.WriteString("#poly")
	}
	for _, a := range t.TypeArgs {
		b.WriteString("(")
		a.writeCanonical(b)
		b.WriteString(")")
	}
	if t.Elem != nil {
		b.WriteString("[elem:")
		t.Elem.writeCanonical(b)
		b.WriteString("]")
	}
	if t.Key != nil {
		b.WriteString("[key:")
		t.Key.writeCanonical(b)
		b.WriteString("]")
	}
	if t.CustomCollection != nil {
		b.WriteString("[coll:")
		t.CustomCollection.Elem.writeCanonical(b)
		b.WriteString("]")
	}
}
