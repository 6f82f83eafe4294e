package codegen

import (
	"fmt"

	"github.com/nino-go/nino/internal/compiler/metadata"
)

const collectionsPkgName = "collections"

// emitBuiltins drains the requested structural shapes and emits a
// specialized Serialize/Deserialize pair for each. Templates may
// request further shapes (nested elements), so this loops until the
// queue is dry.
func (c *fileContext) emitBuiltins(e *emitter) error {
	for {
		batch := c.drainBuiltins()
		if len(batch) == 0 {
			return nil
		}
		for _, info := range batch {
			if err := c.emitBuiltin(e, info); err != nil {
				return err
			}
		}
	}
}

func (c *fileContext) emitBuiltin(e *emitter, info metadata.TypeInfo) error {
	inner := info
	isPtr := false
	if info.Kind == metadata.KindPointer {
		inner = *info.Elem
		isPtr = true
	}

	switch {
	case inner.Special != metadata.SpecialNone:
		return c.emitSpecialCollection(e, info, inner, isPtr)
	case inner.CustomCollection != nil:
		return c.emitCustomCollection(e, info, inner, isPtr)
	case info.Kind == metadata.KindSlice:
		return c.emitSliceBuiltin(e, info)
	case info.Kind == metadata.KindArray:
		return c.emitArrayBuiltin(e, info)
	case info.Kind == metadata.KindMap:
		return c.emitMapBuiltin(e, info)
	}
	return &unresolvableError{info: info}
}

func (c *fileContext) serHeader(e *emitter, info metadata.TypeInfo) string {
	sfx := builtinSuffix(info)
	e.writeLine("func ninoSer_%s(v %s, w *runtime.Writer) error {", sfx, c.typeExpr(info))
	e.indent++
	return sfx
}

func (c *fileContext) deHeader(e *emitter, info metadata.TypeInfo) string {
	sfx := builtinSuffix(info)
	e.writeLine("func ninoDe_%s(v *%s, r *runtime.Reader) error {", sfx, c.typeExpr(info))
	e.indent++
	return sfx
}

func (c *fileContext) closeFunc(e *emitter) {
	e.writeLine("return nil")
	e.indent--
	e.writeLine("}")
	e.writeLine("")
}

// readHeaderInto emits the collection-header read; nullAssign is
// the null assignment, or empty to reject null (fixed arrays).
func (c *fileContext) readHeaderInto(e *emitter, nullAssign string) {
	e.writeLine("nino__n, nino__null, err := r.ReadCollectionHeader()")
	e.writeLine("if err != nil {")
	e.writeLine("\treturn err")
	e.writeLine("}")
	if nullAssign != "" {
		e.writeLine("if nino__null {")
		e.writeLine("\t%s", nullAssign)
		e.writeLine("\treturn nil")
		e.writeLine("}")
	} else {
		e.writeLine("if nino__null {")
		e.writeLine("\treturn runtime.NewInvalidPayload(\"null collection where a value is required\")")
		e.writeLine("}")
	}
}

func (c *fileContext) emitSliceBuiltin(e *emitter, info metadata.TypeInfo) error {
	elem := *info.Elem

	c.serHeader(e, info)
	e.writeLine("if v == nil {")
	e.writeLine("\tw.WriteNullCollection()")
	e.writeLine("\treturn nil")
	e.writeLine("}")
	e.writeLine("w.WriteCollectionHeader(len(v))")
	if elem.IsUnmanaged {
		e.writeLine("runtime.WriteUnmanagedSlice(w, v)")
	} else {
		e.writeLine("for nino__i := range v {")
		e.indent++
		if err := c.writeValue(e, elem, "v[nino__i]", false, nil); err != nil {
			return err
		}
		e.indent--
		e.writeLine("}")
	}
	c.closeFunc(e)

	c.deHeader(e, info)
	c.readHeaderInto(e, "*v = nil")
	if elem.IsUnmanaged {
		e.writeLine("nino__s, err := runtime.ReadUnmanagedSlice[%s](r, nino__n)", c.typeExpr(elem))
		e.writeLine("if err != nil {")
		e.writeLine("\treturn err")
		e.writeLine("}")
		e.writeLine("*v = nino__s")
	} else {
		e.writeLine("nino__s := make(%s, nino__n)", c.typeExpr(info))
		e.writeLine("for nino__i := range nino__s {")
		e.indent++
		if err := c.readValue(e, elem, "nino__s[nino__i]", false, nil); err != nil {
			return err
		}
		e.indent--
		e.writeLine("}")
		e.writeLine("*v = nino__s")
	}
	c.closeFunc(e)
	return nil
}

func (c *fileContext) emitArrayBuiltin(e *emitter, info metadata.TypeInfo) error {
	elem := *info.Elem

	c.serHeader(e, info)
	e.writeLine("w.WriteCollectionHeader(%d)", info.ArrayLen)
	e.writeLine("for nino__i := range v {")
	e.indent++
	if err := c.writeValue(e, elem, "v[nino__i]", false, nil); err != nil {
		return err
	}
	e.indent--
	e.writeLine("}")
	c.closeFunc(e)

	c.deHeader(e, info)
	c.readHeaderInto(e, "")
	e.writeLine("if nino__n != %d {", info.ArrayLen)
	e.writeLine("\treturn runtime.NewInvalidPayload(\"array length %%d does not match fixed size %d\", nino__n)", info.ArrayLen)
	e.writeLine("}")
	e.writeLine("for nino__i := range v {")
	e.indent++
	if err := c.readValue(e, elem, "v[nino__i]", false, nil); err != nil {
		return err
	}
	e.indent--
	e.writeLine("}")
	c.closeFunc(e)
	return nil
}

func (c *fileContext) emitMapBuiltin(e *emitter, info metadata.TypeInfo) error {
	key, val := *info.Key, *info.Elem
	bulkKV := key.IsUnmanaged && val.IsUnmanaged
	kvStruct := fmt.Sprintf("struct{ K %s; V %s }", c.typeExpr(key), c.typeExpr(val))

	c.serHeader(e, info)
	e.writeLine("if v == nil {")
	e.writeLine("\tw.WriteNullCollection()")
	e.writeLine("\treturn nil")
	e.writeLine("}")
	e.writeLine("w.WriteCollectionHeader(len(v))")
	e.writeLine("for nino__k, nino__v := range v {")
	e.indent++
	if bulkKV {
		e.writeLine("runtime.WriteUnmanaged(w, %s{nino__k, nino__v})", kvStruct)
	} else {
		if err := c.writeValue(e, key, "nino__k", false, nil); err != nil {
			return err
		}
		if err := c.writeValue(e, val, "nino__v", false, nil); err != nil {
			return err
		}
	}
	e.indent--
	e.writeLine("}")
	c.closeFunc(e)

	c.deHeader(e, info)
	c.readHeaderInto(e, "*v = nil")
	e.writeLine("nino__m := make(%s, nino__n)", c.typeExpr(info))
	e.writeLine("for nino__i := 0; nino__i < nino__n; nino__i++ {")
	e.indent++
	if bulkKV {
		e.writeLine("var nino__kv %s", kvStruct)
		e.writeLine("if err := runtime.ReadUnmanaged(r, &nino__kv); err != nil {")
		e.writeLine("\treturn err")
		e.writeLine("}")
		e.writeLine("nino__m[nino__kv.K] = nino__kv.V")
	} else {
		e.writeLine("var nino__k %s", c.typeExpr(key))
		if err := c.readValue(e, key, "nino__k", false, nil); err != nil {
			return err
		}
		e.writeLine("var nino__v %s", c.typeExpr(val))
		if err := c.readValue(e, val, "nino__v", false, nil); err != nil {
			return err
		}
		e.writeLine("nino__m[nino__k] = nino__v")
	}
	e.indent--
	e.writeLine("}")
	e.writeLine("*v = nino__m")
	c.closeFunc(e)
	return nil
}
