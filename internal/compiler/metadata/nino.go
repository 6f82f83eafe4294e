package metadata

import (
	"fmt"
	"strings"
)

// NinoMember is one serializable member of a NinoType.
type NinoMember struct {
	Name string
	Type TypeInfo
	// IsCtorParameter marks members fed to the selected factory rather
	// than assigned after construction. Filled during factory selection.
	IsCtorParameter bool
	// IsPrivate marks unexported fields, reachable only when the
	// artifact is emitted into the declaring package.
	IsPrivate bool
	// IsUTF8 opts a string member into the UTF-8 wire form.
	IsUTF8 bool
	// CustomFormatter names a user codec type handling this member.
	CustomFormatter *TypeInfo

	Loc SourceLocation
}

// FactoryParam is one parameter of a construction factory.
type FactoryParam struct {
	Name string
	Type TypeInfo
}

// ConstructorInfo describes one way to construct a type: a factory
// function in the declaring package, or the implicit zero-value
// composite literal when Name is empty.
type ConstructorInfo struct {
	// Name is the factory function name; empty for literal construction.
	Name string
	// Params is the ordered parameter list.
	Params []FactoryParam
	// HasOrderDirective marks a factory annotated //nino:ctor.
	HasOrderDirective bool
	// ParamOrder optionally overrides default parameter order, taken
	// from the directive's argument list.
	ParamOrder []string
	// IsPrimary marks a factory whose parameter names all match
	// members, the record-constructor analog.
	IsPrimary bool
	// ReturnsPointer marks factories returning *T rather than T.
	ReturnsPointer bool
}

// IsLiteral reports whether this constructor is zero-value literal
// construction rather than a factory call.
func (c ConstructorInfo) IsLiteral() bool {
	return c.Name == ""
}

// NinoType is the extracted projection of one user-annotated type.
// Parents are stored as type ids rather than references, which keeps
// the record acyclic and value-equatable even for mutually recursive
// hierarchies.
type NinoType struct {
	Info    TypeInfo
	Members []NinoMember

	// ParentIDs lists base types depth-first: embedded nino structs
	// first in declaration order, then implemented nino interfaces in
	// declaration order.
	ParentIDs []uint32
	// ParentNames mirrors ParentIDs for emission and debugging.
	ParentNames []string

	// CustomSerializer/CustomDeserializer name an already generated
	// codec in another package; emission calls it instead of
	// re-emitting.
	CustomSerializer   string
	CustomDeserializer string
	// RefFactory names a zero-parameter factory annotated
	// //nino:ref-factory used to obtain the instance to populate.
	RefFactory string

	Constructors []ConstructorInfo

	// AutoCollect, ContainPrivate and AllowInheritance are the directive
	// options in force for this type.
	AutoCollect      bool
	ContainPrivate   bool
	AllowInheritance bool

	// DirectAttribute distinguishes directly annotated types from ones
	// collected through inheritance; direct wins during graph dedupe.
	DirectAttribute bool

	// ImplementsByValue reports that the value form already satisfies
	// every parent interface, so dispatch switches match both the value
	// and the pointer.
	ImplementsByValue bool

	// Filled by the graph builder.
	IsPolymorphic  bool
	IsCircular     bool
	HierarchyLevel int
}

// TypeID returns the stable id of the underlying type.
func (t *NinoType) TypeID() uint32 {
	return t.Info.TypeID
}

// SelectConstructor picks the construction strategy: the //nino:ctor
// annotated factory first, then a primary factory whose parameter names
// all match members, then the accessible factory with the fewest
// parameters, and finally literal construction.
func (t *NinoType) SelectConstructor() ConstructorInfo {
	var best *ConstructorInfo
	for i := range t.Constructors {
		c := &t.Constructors[i]
		if c.HasOrderDirective {
			return *c
		}
	}
	for i := range t.Constructors {
		c := &t.Constructors[i]
		if c.IsPrimary {
			return *c
		}
	}
	for i := range t.Constructors {
		c := &t.Constructors[i]
		if best == nil || len(c.Params) < len(best.Params) {
			best = c
		}
	}
	if best != nil {
		return *best
	}
	return ConstructorInfo{}
}

// CanonicalString renders a deterministic description of the whole
// record for content hashing.
func (t *NinoType) CanonicalString() string {
	var b strings.Builder
	b.WriteString(t.Info.CanonicalString())
	for _, m := range t.Members {
		fmt.Fprintf(&b, "|m:%s:%v:%v:%v:", m.Name, m.IsPrivate, m.IsUTF8, m.IsCtorParameter)
		b.WriteString(m.Type.CanonicalString())
		if m.CustomFormatter != nil {
			b.WriteString(":fmt=" + m.CustomFormatter.FullName)
		}
	}
	for _, p := range t.ParentIDs {
		fmt.Fprintf(&b, "|p:%08x", p)
	}
	for _, c := range t.Constructors {
		fmt.Fprintf(&b, "|c:%s:%v:%v:%v", c.Name, c.HasOrderDirective, c.IsPrimary, c.ReturnsPointer)
		for _, p := range c.Params {
			fmt.Fprintf(&b, ":%s=%s", p.Name, p.Type.FullName)
		}
	}
	fmt.Fprintf(&b, "|opts:%v:%v:%v", t.AutoCollect, t.ContainPrivate, t.AllowInheritance)
	if t.CustomSerializer != "" {
		b.WriteString("|cs:" + t.CustomSerializer)
	}
	if t.RefFactory != "" {
		b.WriteString("|rf:" + t.RefFactory)
	}
	return b.String()
}

// Equal reports value equality of the extracted record, ignoring the
// graph-derived fields.
func (t *NinoType) Equal(o *NinoType) bool {
	return t.CanonicalString() == o.CanonicalString()
}
