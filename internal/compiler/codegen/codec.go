package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nino-go/nino/internal/compiler/graph"
	"github.com/nino-go/nino/internal/compiler/metadata"
)

const runtimePkgPath = "github.com/nino-go/nino/pkg/runtime"

// fileContext carries the per-package emission state shared by the
// user-type and builtin emitters: the graph, import tracking, the set
// of structural shapes that still need helpers, and the compile-time
// switches.
type fileContext struct {
	pkgPath string
	graph   *graph.Graph
	imports *importTracker
	cfg     Config
	// genSet holds the package paths receiving artifacts this run;
	// foreign types outside it resolve only through an already
	// generated codec.
	genSet map[string]bool

	// builtins maps shape full names to their TypeInfo; shapes are
	// appended while member codecs resolve and drained by the builtin
	// emitter, which may append more.
	builtins map[string]metadata.TypeInfo
	pending  []string

	tmpCounter int
}

func newFileContext(pkgPath string, g *graph.Graph, cfg Config, genSet map[string]bool) *fileContext {
	return &fileContext{
		pkgPath:  pkgPath,
		graph:    g,
		imports:  newImportTracker(),
		cfg:      cfg,
		genSet:   genSet,
		builtins: make(map[string]metadata.TypeInfo),
	}
}

// resolvable reports whether a codec for t can actually be linked from
// this package: locally emitted, part of the current generation set, or
// already generated in its own package.
func (c *fileContext) resolvable(t *metadata.NinoType) bool {
	if t.Info.PkgPath == c.pkgPath || c.genSet[t.Info.PkgPath] {
		return true
	}
	return t.CustomSerializer != ""
}

func (c *fileContext) tmp(prefix string) string {
	c.tmpCounter++
	return fmt.Sprintf("nino__%s%d", prefix, c.tmpCounter)
}

// requestBuiltin records that a structural shape needs a helper pair
// and returns the helper suffix.
func (c *fileContext) requestBuiltin(info metadata.TypeInfo) string {
	if _, ok := c.builtins[info.FullName]; !ok {
		c.builtins[info.FullName] = info
		c.pending = append(c.pending, info.FullName)
	}
	return builtinSuffix(info)
}

// drainBuiltins returns shapes queued since the last drain, sorted for
// deterministic emission.
func (c *fileContext) drainBuiltins() []metadata.TypeInfo {
	names := c.pending
	c.pending = nil
	sort.Strings(names)
	out := make([]metadata.TypeInfo, 0, len(names))
	for _, n := range names {
		out = append(out, c.builtins[n])
	}
	return out
}

// builtinSuffix derives the helper name suffix from the shape's
// instance name, which is already identifier-safe.
func builtinSuffix(info metadata.TypeInfo) string {
	return strings.TrimPrefix(info.InstanceName, "nino__")
}

// typeExpr renders info as a Go type expression valid inside the
// package being emitted, registering imports as needed.
func (c *fileContext) typeExpr(info metadata.TypeInfo) string {
	if info.Name != "" {
		base := info.Name
		if info.PkgPath != "" && info.PkgPath != c.pkgPath {
			c.imports.add(info.PkgPath, info.PkgName)
			base = info.PkgName + "." + base
		}
		if len(info.TypeArgs) > 0 {
			args := make([]string, len(info.TypeArgs))
			for i, a := range info.TypeArgs {
				args[i] = c.typeExpr(a)
			}
			base += "[" + strings.Join(args, ", ") + "]"
		}
		return base
	}

	switch info.Kind {
	case metadata.KindPointer:
		return "*" + c.typeExpr(*info.Elem)
	case metadata.KindSlice:
		return "[]" + c.typeExpr(*info.Elem)
	case metadata.KindArray:
		return fmt.Sprintf("[%d]%s", info.ArrayLen, c.typeExpr(*info.Elem))
	case metadata.KindMap:
		return "map[" + c.typeExpr(*info.Key) + "]" + c.typeExpr(*info.Elem)
	}
	return info.DisplayName
}

// codecName resolves the Serialize/Deserialize function pair name for a
// user nino type, qualifying foreign packages.
func (c *fileContext) codecName(t *metadata.NinoType, verb string) string {
	name := verb + t.Info.Name
	if t.CustomSerializer != "" {
		// Already generated; call it by its recorded name.
		if verb == "Serialize" {
			name = t.CustomSerializer
		} else {
			name = t.CustomDeserializer
		}
	}
	if t.Info.PkgPath != c.pkgPath {
		c.imports.add(t.Info.PkgPath, t.Info.PkgName)
		name = t.Info.PkgName + "." + name
	}
	return name
}

// resolveNino returns the graph record for a projected shape, if any.
func (c *fileContext) resolveNino(info metadata.TypeInfo) (*metadata.NinoType, bool) {
	return c.graph.ByID(info.TypeID)
}

// unresolvableError signals a member type with no codec; the caller
// turns it into a MissingMember diagnostic.
type unresolvableError struct {
	info metadata.TypeInfo
}

func (e *unresolvableError) Error() string {
	return "no resolvable codec for " + e.info.DisplayName
}

// writeValue emits statements serializing expr, whose shape is info.
func (c *fileContext) writeValue(e *emitter, info metadata.TypeInfo, expr string, utf8 bool, formatter *metadata.TypeInfo) error {
	c.imports.add(runtimePkgPath, "runtime")

	if formatter != nil {
		e.writeLine("if err := (%s{}).Serialize(%s, w); err != nil {", c.typeExpr(*formatter), expr)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil
	}

	switch {
	case info.IsUnmanaged:
		e.writeLine("runtime.WriteUnmanaged(w, %s)", expr)
		return nil

	case info.Kind == metadata.KindString:
		if info.PkgPath != "" {
			expr = "string(" + expr + ")"
		}
		if utf8 {
			e.writeLine("w.WriteStringUTF8(%s)", expr)
		} else {
			e.writeLine("w.WriteString(%s)", expr)
		}
		return nil

	case info.Special != metadata.SpecialNone,
		info.Kind == metadata.KindSlice,
		info.Kind == metadata.KindArray,
		info.Kind == metadata.KindMap:
		suffix := c.requestBuiltin(info)
		e.writeLine("if err := ninoSer_%s(%s, w); err != nil {", suffix, expr)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil

	case info.Kind == metadata.KindPointer:
		return c.writePointer(e, info, expr)

	case info.Kind == metadata.KindStruct || info.Kind == metadata.KindInterface:
		if nt, ok := c.resolveNino(info); ok && c.resolvable(nt) {
			e.writeLine("if err := %s(%s, w); err != nil {", c.codecName(nt, "Serialize"), expr)
			e.writeLine("\treturn err")
			e.writeLine("}")
			return nil
		}
		if info.CustomCollection != nil {
			suffix := c.requestBuiltin(info)
			e.writeLine("if err := ninoSer_%s(%s, w); err != nil {", suffix, expr)
			e.writeLine("\treturn err")
			e.writeLine("}")
			return nil
		}
		return &unresolvableError{info: info}
	}
	return &unresolvableError{info: info}
}

func (c *fileContext) writePointer(e *emitter, info metadata.TypeInfo, expr string) error {
	elem := *info.Elem
	if isCollectionSpecial(elem.Special) || elem.CustomCollection != nil {
		// Pointer-held containers use the null-collection sentinel
		// rather than a bool tag.
		suffix := c.requestBuiltin(info)
		e.writeLine("if err := ninoSer_%s(%s, w); err != nil {", suffix, expr)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil
	}
	if nt, ok := c.resolveNino(elem); ok && c.resolvable(nt) && nt.IsPolymorphic && elem.Kind == metadata.KindStruct {
		// Polymorphic reference: type-id prefix with null sentinel.
		e.writeLine("if %s == nil {", expr)
		e.writeLine("\tw.WriteNull()")
		e.writeLine("} else if err := %sPoly(*%s, w); err != nil {", c.codecName(nt, "Serialize"), expr)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil
	}

	// Plain nullable: bool tag then payload.
	e.writeLine("if %s == nil {", expr)
	e.writeLine("\tw.WriteBool(false)")
	e.writeLine("} else {")
	e.indent++
	e.writeLine("w.WriteBool(true)")
	if err := c.writeValue(e, elem, "*"+expr, false, nil); err != nil {
		return err
	}
	e.indent--
	e.writeLine("}")
	return nil
}

// readValue emits statements deserializing into target, an addressable
// expression of info's shape.
func (c *fileContext) readValue(e *emitter, info metadata.TypeInfo, target string, utf8 bool, formatter *metadata.TypeInfo) error {
	c.imports.add(runtimePkgPath, "runtime")

	if formatter != nil {
		e.writeLine("if err := (%s{}).Deserialize(&%s, r); err != nil {", c.typeExpr(*formatter), target)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil
	}

	switch {
	case info.IsUnmanaged:
		e.writeLine("if err := runtime.ReadUnmanaged(r, &%s); err != nil {", target)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil

	case info.Kind == metadata.KindString:
		tmp := c.tmp("s")
		read := "ReadString"
		if utf8 {
			read = "ReadStringUTF8"
		}
		e.writeLine("{")
		e.indent++
		e.writeLine("%s, err := r.%s()", tmp, read)
		e.writeLine("if err != nil {")
		e.writeLine("\treturn err")
		e.writeLine("}")
		if info.PkgPath != "" {
			e.writeLine("%s = %s(%s)", target, c.typeExpr(info), tmp)
		} else {
			e.writeLine("%s = %s", target, tmp)
		}
		e.indent--
		e.writeLine("}")
		return nil

	case info.Special != metadata.SpecialNone,
		info.Kind == metadata.KindSlice,
		info.Kind == metadata.KindArray,
		info.Kind == metadata.KindMap:
		suffix := c.requestBuiltin(info)
		e.writeLine("if err := ninoDe_%s(&%s, r); err != nil {", suffix, target)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil

	case info.Kind == metadata.KindPointer:
		return c.readPointer(e, info, target)

	case info.Kind == metadata.KindStruct || info.Kind == metadata.KindInterface:
		if nt, ok := c.resolveNino(info); ok && c.resolvable(nt) {
			e.writeLine("if err := %s(&%s, r); err != nil {", c.codecName(nt, "Deserialize"), target)
			e.writeLine("\treturn err")
			e.writeLine("}")
			return nil
		}
		if info.CustomCollection != nil {
			suffix := c.requestBuiltin(info)
			e.writeLine("if err := ninoDe_%s(&%s, r); err != nil {", suffix, target)
			e.writeLine("\treturn err")
			e.writeLine("}")
			return nil
		}
		return &unresolvableError{info: info}
	}
	return &unresolvableError{info: info}
}

func (c *fileContext) readPointer(e *emitter, info metadata.TypeInfo, target string) error {
	elem := *info.Elem
	if isCollectionSpecial(elem.Special) || elem.CustomCollection != nil {
		suffix := c.requestBuiltin(info)
		e.writeLine("if err := ninoDe_%s(&%s, r); err != nil {", suffix, target)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil
	}
	if nt, ok := c.resolveNino(elem); ok && c.resolvable(nt) && nt.IsPolymorphic && elem.Kind == metadata.KindStruct {
		e.writeLine("if err := %sPoly(&%s, r); err != nil {", c.codecName(nt, "Deserialize"), target)
		e.writeLine("\treturn err")
		e.writeLine("}")
		return nil
	}

	tag := c.tmp("tag")
	elemVar := c.tmp("v")
	e.writeLine("{")
	e.indent++
	e.writeLine("%s, err := r.ReadBool()", tag)
	e.writeLine("if err != nil {")
	e.writeLine("\treturn err")
	e.writeLine("}")
	e.writeLine("if !%s {", tag)
	e.writeLine("\t%s = nil", target)
	e.writeLine("} else {")
	e.indent++
	e.writeLine("var %s %s", elemVar, c.typeExpr(elem))
	if err := c.readValue(e, elem, elemVar, false, nil); err != nil {
		return err
	}
	e.writeLine("%s = &%s", target, elemVar)
	e.indent--
	e.writeLine("}")
	e.indent--
	e.writeLine("}")
	return nil
}
