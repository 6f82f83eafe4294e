package codegen

import (
	"fmt"
	"strings"

	"github.com/nino-go/nino/internal/compiler/metadata"
)

// maxBulkRun caps how many adjacent unmanaged members collapse into a
// single bulk copy, matching the widest bulk primitive the runtime
// exposes.
const maxBulkRun = 16

func typeIDConst(t *metadata.NinoType) string {
	return "ninoTypeID" + t.Info.Name
}

// emitUserType emits the Serialize/Deserialize pair (and polymorphic
// variants) for one user type into e.
func (c *fileContext) emitUserType(e *emitter, t *metadata.NinoType) error {
	if t.Info.Kind == metadata.KindInterface {
		return c.emitInterfaceDispatch(e, t)
	}
	if err := c.emitStructSerializer(e, t); err != nil {
		return err
	}
	if err := c.emitStructDeserializer(e, t); err != nil {
		return err
	}
	if t.IsPolymorphic {
		c.emitStructPoly(e, t)
	}
	return nil
}

// structParents returns the resolved struct-kind parents in declaration
// order; interface parents carry no members and are skipped here.
func (c *fileContext) structParents(t *metadata.NinoType) []*metadata.NinoType {
	var out []*metadata.NinoType
	for _, pid := range t.ParentIDs {
		if p, ok := c.graph.ByID(pid); ok && p.Info.Kind == metadata.KindStruct {
			out = append(out, p)
		}
	}
	return out
}

func (c *fileContext) emitStructSerializer(e *emitter, t *metadata.NinoType) error {
	name := t.Info.Name
	e.writeLine("// Serialize%s writes v's members in declaration order, embedded", name)
	e.writeLine("// bases first.")
	e.writeLine("func Serialize%s(v %s, w *runtime.Writer) error {", name, name)
	e.indent++
	c.imports.add(runtimePkgPath, "runtime")

	for _, p := range c.structParents(t) {
		e.writeLine("if err := %s(v.%s, w); err != nil {", c.codecName(p, "Serialize"), p.Info.Name)
		e.writeLine("\treturn err")
		e.writeLine("}")
	}

	if err := c.emitMemberWrites(e, t); err != nil {
		return err
	}

	e.writeLine("return nil")
	e.indent--
	e.writeLine("}")
	e.writeLine("")
	return nil
}

// bulkEligible reports whether a member can join an unmanaged run.
func bulkEligible(m metadata.NinoMember) bool {
	return m.Type.IsUnmanaged && m.CustomFormatter == nil
}

// memberRuns splits members into runs: eligible stretches of up to
// maxBulkRun members, and singleton runs for everything else.
func memberRuns(members []metadata.NinoMember) [][]metadata.NinoMember {
	var runs [][]metadata.NinoMember
	i := 0
	for i < len(members) {
		if !bulkEligible(members[i]) {
			runs = append(runs, members[i:i+1])
			i++
			continue
		}
		j := i
		for j < len(members) && j-i < maxBulkRun && bulkEligible(members[j]) {
			j++
		}
		runs = append(runs, members[i:j])
		i = j
	}
	return runs
}

func (c *fileContext) runStructType(run []metadata.NinoMember) string {
	fields := make([]string, len(run))
	for i, m := range run {
		fields[i] = fmt.Sprintf("F%d %s", i, c.typeExpr(m.Type))
	}
	return "struct{ " + strings.Join(fields, "; ") + " }"
}

func (c *fileContext) emitMemberWrites(e *emitter, t *metadata.NinoType) error {
	for _, run := range memberRuns(t.Members) {
		if len(run) > 1 {
			vals := make([]string, len(run))
			for i, m := range run {
				vals[i] = "v." + m.Name
			}
			e.writeLine("runtime.WriteUnmanaged(w, %s{%s})", c.runStructType(run), strings.Join(vals, ", "))
			continue
		}

		m := run[0]
		framed := c.cfg.WeakVersionTolerance && !m.Type.IsUnmanaged
		var off string
		if framed {
			off = c.tmp("off")
			e.writeLine("%s := w.Reserve4()", off)
		}
		if err := c.writeValue(e, m.Type, "v."+m.Name, m.IsUTF8, m.CustomFormatter); err != nil {
			if u, ok := err.(*unresolvableError); ok {
				return &missingMemberError{typ: t, member: m, shape: u.info}
			}
			return err
		}
		if framed {
			e.writeLine("w.PatchLength(%s)", off)
		}
	}
	return nil
}

// missingMemberError carries enough context for a GEN301 diagnostic.
type missingMemberError struct {
	typ    *metadata.NinoType
	member metadata.NinoMember
	shape  metadata.TypeInfo
}

func (e *missingMemberError) Error() string {
	return fmt.Sprintf("member %s.%s: no resolvable codec for %s",
		e.typ.Info.Name, e.member.Name, e.shape.DisplayName)
}

func (c *fileContext) emitStructDeserializer(e *emitter, t *metadata.NinoType) error {
	name := t.Info.Name
	ctor := t.SelectConstructor()

	e.writeLine("// Deserialize%s reads into v, constructing through %s.", name, describeCtor(t, ctor))
	e.writeLine("func Deserialize%s(v *%s, r *runtime.Reader) error {", name, name)
	e.indent++
	c.imports.add(runtimePkgPath, "runtime")

	if c.cfg.WeakVersionTolerance {
		e.writeLine("if r.Eof() {")
		e.writeLine("\tvar zero %s", name)
		e.writeLine("\t*v = zero")
		e.writeLine("\treturn nil")
		e.writeLine("}")
	}

	useFactory := !ctor.IsLiteral()
	if !useFactory && t.RefFactory != "" {
		e.writeLine("*v = *%s()", t.RefFactory)
	}

	parents := c.structParents(t)
	if useFactory {
		return c.emitFactoryDeserialize(e, t, ctor, parents)
	}

	for _, p := range parents {
		e.writeLine("if err := %s(&v.%s, r); err != nil {", c.codecName(p, "Deserialize"), p.Info.Name)
		e.writeLine("\treturn err")
		e.writeLine("}")
	}
	if err := c.emitMemberReads(e, t, "v."); err != nil {
		return err
	}
	e.writeLine("return nil")
	e.indent--
	e.writeLine("}")
	e.writeLine("")
	return nil
}

// emitMemberReads reads members into targets formed by prefix+Name,
// honoring runs and weak-version framing.
func (c *fileContext) emitMemberReads(e *emitter, t *metadata.NinoType, prefix string) error {
	for _, run := range memberRuns(t.Members) {
		if len(run) > 1 {
			runVar := c.tmp("run")
			e.writeLine("{")
			e.indent++
			e.writeLine("var %s %s", runVar, c.runStructType(run))
			e.writeLine("if err := runtime.ReadUnmanaged(r, &%s); err != nil {", runVar)
			e.writeLine("\treturn err")
			e.writeLine("}")
			for i, m := range run {
				e.writeLine("%s%s = %s.F%d", prefix, m.Name, runVar, i)
			}
			e.indent--
			e.writeLine("}")
			continue
		}

		m := run[0]
		framed := c.cfg.WeakVersionTolerance && !m.Type.IsUnmanaged
		if framed {
			// A missing trailing member from an older payload stays at
			// its zero value.
			e.writeLine("if !r.Eof() {")
			e.indent++
			e.writeLine("if _, err := r.ReadFrameLength(); err != nil {")
			e.writeLine("\treturn err")
			e.writeLine("}")
		}
		if err := c.readValue(e, m.Type, prefix+m.Name, m.IsUTF8, m.CustomFormatter); err != nil {
			if u, ok := err.(*unresolvableError); ok {
				return &missingMemberError{typ: t, member: m, shape: u.info}
			}
			return err
		}
		if framed {
			e.indent--
			e.writeLine("}")
		}
	}
	return nil
}

// emitFactoryDeserialize reads everything into locals, invokes the
// factory with its parameters in order, then assigns the rest.
func (c *fileContext) emitFactoryDeserialize(e *emitter, t *metadata.NinoType, ctor metadata.ConstructorInfo, parents []*metadata.NinoType) error {
	for _, p := range parents {
		e.writeLine("var nino__p%s %s", p.Info.Name, c.typeExpr(p.Info))
		e.writeLine("if err := %s(&nino__p%s, r); err != nil {", c.codecName(p, "Deserialize"), p.Info.Name)
		e.writeLine("\treturn err")
		e.writeLine("}")
	}

	for _, m := range t.Members {
		e.writeLine("var nino__m%s %s", m.Name, c.typeExpr(m.Type))
	}
	tmp := *t // reads target locals instead of fields
	if err := c.emitMemberReads(e, &tmp, "nino__m"); err != nil {
		return err
	}

	// Factory arguments in parameter order, honoring an explicit
	// //nino:ctor ordering when present.
	order := ctor.ParamOrder
	if len(order) == 0 {
		for _, p := range ctor.Params {
			order = append(order, p.Name)
		}
	}
	args := make([]string, 0, len(order))
	for _, paramName := range order {
		for _, m := range t.Members {
			if strings.EqualFold(m.Name, paramName) {
				args = append(args, "nino__m"+m.Name)
				break
			}
		}
	}

	if ctor.ReturnsPointer {
		e.writeLine("*v = *%s(%s)", ctor.Name, strings.Join(args, ", "))
	} else {
		e.writeLine("*v = %s(%s)", ctor.Name, strings.Join(args, ", "))
	}
	for _, p := range parents {
		e.writeLine("v.%s = nino__p%s", p.Info.Name, p.Info.Name)
	}
	for _, m := range t.Members {
		if !m.IsCtorParameter {
			e.writeLine("v.%s = nino__m%s", m.Name, m.Name)
		}
	}
	e.writeLine("return nil")
	e.indent--
	e.writeLine("}")
	e.writeLine("")
	return nil
}

func describeCtor(t *metadata.NinoType, ctor metadata.ConstructorInfo) string {
	switch {
	case !ctor.IsLiteral():
		return ctor.Name
	case t.RefFactory != "":
		return t.RefFactory
	default:
		return "a composite literal"
	}
}

// emitStructPoly emits the type-id-prefixed pair used when the value
// travels behind a polymorphic reference.
func (c *fileContext) emitStructPoly(e *emitter, t *metadata.NinoType) {
	name := t.Info.Name
	e.writeLine("// Serialize%sPoly prefixes the payload with the stable type id so a", name)
	e.writeLine("// polymorphic reader can dispatch on it.")
	e.writeLine("func Serialize%sPoly(v %s, w *runtime.Writer) error {", name, name)
	e.indent++
	e.writeLine("w.WriteTypeID(%s)", typeIDConst(t))
	e.writeLine("return Serialize%s(v, w)", name)
	e.indent--
	e.writeLine("}")
	e.writeLine("")

	e.writeLine("// Deserialize%sPoly consumes the type prefix; the null sentinel yields", name)
	e.writeLine("// a nil pointer.")
	e.writeLine("func Deserialize%sPoly(v **%s, r *runtime.Reader) error {", name, name)
	e.indent++
	e.writeLine("id, err := r.ReadTypeID()")
	e.writeLine("if err != nil {")
	e.writeLine("\treturn err")
	e.writeLine("}")
	e.writeLine("switch id {")
	e.writeLine("case runtime.NullTypeID:")
	e.writeLine("\t*v = nil")
	e.writeLine("\treturn nil")
	e.writeLine("case %s:", typeIDConst(t))
	e.indent++
	e.writeLine("var out %s", name)
	e.writeLine("if err := Deserialize%s(&out, r); err != nil {", name)
	e.writeLine("\treturn err")
	e.writeLine("}")
	e.writeLine("*v = &out")
	e.writeLine("return nil")
	e.indent--
	e.writeLine("}")
	e.writeLine(`return runtime.NewInvalidPayload("unexpected type id 0x%%08x for %s", id)`, name)
	e.indent--
	e.writeLine("}")
	e.writeLine("")
}

// emitInterfaceDispatch emits the polymorphic switch pair for an
// annotated interface: concrete sub-types ordered deepest-first, the
// null sentinel for nil, unknown ids rejected.
func (c *fileContext) emitInterfaceDispatch(e *emitter, t *metadata.NinoType) error {
	name := t.Info.Name
	subs := c.graph.SubTypesDeepestFirst(t.Info.TypeID)
	c.imports.add(runtimePkgPath, "runtime")

	e.writeLine("// Serialize%s dispatches on the runtime type of v.", name)
	e.writeLine("func Serialize%s(v %s, w *runtime.Writer) error {", name, name)
	e.indent++
	e.writeLine("switch c := v.(type) {")
	e.writeLine("case nil:")
	e.writeLine("\tw.WriteNull()")
	e.writeLine("\treturn nil")
	for _, sub := range subs {
		if sub.Info.Kind != metadata.KindStruct || !c.resolvable(sub) {
			continue
		}
		subExpr := c.typeExpr(sub.Info)
		e.writeLine("case *%s:", subExpr)
		e.indent++
		e.writeLine("if c == nil {")
		e.writeLine("\tw.WriteNull()")
		e.writeLine("\treturn nil")
		e.writeLine("}")
		e.writeLine("w.WriteTypeID(%s)", c.typeIDRef(sub))
		e.writeLine("return %s(*c, w)", c.codecName(sub, "Serialize"))
		e.indent--
		if sub.ImplementsByValue {
			e.writeLine("case %s:", subExpr)
			e.indent++
			e.writeLine("w.WriteTypeID(%s)", c.typeIDRef(sub))
			e.writeLine("return %s(c, w)", c.codecName(sub, "Serialize"))
			e.indent--
		}
	}
	e.writeLine("}")
	e.writeLine(`return runtime.NewInvalidPayload("no serializer for runtime type %%T at %s", v)`, name)
	e.indent--
	e.writeLine("}")
	e.writeLine("")

	e.writeLine("// Deserialize%s reads the type prefix and dispatches to the concrete", name)
	e.writeLine("// reader; the null sentinel yields nil.")
	e.writeLine("func Deserialize%s(v *%s, r *runtime.Reader) error {", name, name)
	e.indent++
	e.writeLine("id, err := r.ReadTypeID()")
	e.writeLine("if err != nil {")
	e.writeLine("\treturn err")
	e.writeLine("}")
	e.writeLine("switch id {")
	e.writeLine("case runtime.NullTypeID:")
	e.writeLine("\t*v = nil")
	e.writeLine("\treturn nil")
	for _, sub := range subs {
		if sub.Info.Kind != metadata.KindStruct || !c.resolvable(sub) {
			continue
		}
		e.writeLine("case %s:", c.typeIDRef(sub))
		e.indent++
		e.writeLine("var out %s", c.typeExpr(sub.Info))
		e.writeLine("if err := %s(&out, r); err != nil {", c.codecName(sub, "Deserialize"))
		e.writeLine("\treturn err")
		e.writeLine("}")
		e.writeLine("*v = &out")
		e.writeLine("return nil")
		e.indent--
	}
	e.writeLine("}")
	e.writeLine(`return runtime.NewInvalidPayload("unknown type id 0x%%08x for %s", id)`, name)
	e.indent--
	e.writeLine("}")
	e.writeLine("")
	return nil
}

// typeIDRef renders a reference to a type's id constant, inlining the
// literal for foreign packages whose consts are unexported.
func (c *fileContext) typeIDRef(t *metadata.NinoType) string {
	if t.Info.PkgPath == c.pkgPath {
		return typeIDConst(t)
	}
	return fmt.Sprintf("0x%08x", t.Info.TypeID)
}
