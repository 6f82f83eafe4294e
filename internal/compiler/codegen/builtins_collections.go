package codegen

import (
	"strings"

	"github.com/nino-go/nino/internal/compiler/metadata"
)

// isCollectionSpecial reports whether a special shape is a container
// with collection-header wire form, as opposed to the tuple shapes.
func isCollectionSpecial(s metadata.SpecialType) bool {
	switch s {
	case metadata.SpecialPair, metadata.SpecialTriple, metadata.SpecialNone:
		return false
	}
	return true
}

func (c *fileContext) emitSpecialCollection(e *emitter, info, inner metadata.TypeInfo, isPtr bool) error {
	if inner.Special == metadata.SpecialPair || inner.Special == metadata.SpecialTriple {
		return c.emitTupleBuiltin(e, info, inner)
	}
	return c.emitContainer(e, info, inner, isPtr)
}

// emitTupleBuiltin handles managed Pair/Triple shapes; fully unmanaged
// tuples never reach here, they take the bulk path upstream.
func (c *fileContext) emitTupleBuiltin(e *emitter, info, inner metadata.TypeInfo) error {
	c.serHeader(e, info)
	for _, te := range inner.TupleElems {
		if err := c.writeValue(e, te.Type, "v."+te.Name, false, nil); err != nil {
			return err
		}
	}
	c.closeFunc(e)

	c.deHeader(e, info)
	for _, te := range inner.TupleElems {
		if err := c.readValue(e, te.Type, "v."+te.Name, false, nil); err != nil {
			return err
		}
	}
	c.closeFunc(e)
	return nil
}

// containerPlan describes how one container template iterates and
// rebuilds, shared by the serializer and both deserializer overloads.
type containerPlan struct {
	inner metadata.TypeInfo
	elem  metadata.TypeInfo
	// second is the priority/value element for two-argument shapes.
	second    *metadata.TypeInfo
	immutable bool
}

func (c *fileContext) planContainer(inner metadata.TypeInfo) containerPlan {
	plan := containerPlan{inner: inner}
	switch inner.Special {
	case metadata.SpecialSortedMap, metadata.SpecialPriorityQueue:
		plan.elem = inner.TypeArgs[0]
		plan.second = &inner.TypeArgs[1]
	case metadata.SpecialImmutableArray, metadata.SpecialImmutableList:
		plan.elem = inner.TypeArgs[0]
		plan.immutable = true
	default:
		plan.elem = inner.TypeArgs[0]
	}
	return plan
}

func (c *fileContext) emitContainer(e *emitter, info, inner metadata.TypeInfo, isPtr bool) error {
	plan := c.planContainer(inner)
	c.imports.add(metadata.CollectionsPkgPath, collectionsPkgName)

	sfx := c.serHeader(e, info)
	if isPtr {
		e.writeLine("if v == nil {")
		e.writeLine("\tw.WriteNullCollection()")
		e.writeLine("\treturn nil")
		e.writeLine("}")
	}
	e.writeLine("w.WriteCollectionHeader(v.Len())")
	if err := c.emitContainerElementWrites(e, plan); err != nil {
		return err
	}
	c.closeFunc(e)

	c.deHeader(e, info)
	nullAssign := "*v = nil"
	if !isPtr {
		nullAssign = "*v = " + c.typeExpr(inner) + "{}"
	}
	if plan.immutable && !isPtr {
		nullAssign = "*v = " + c.typeExpr(inner) + "{}"
	}
	c.readHeaderInto(e, nullAssign)
	if err := c.emitContainerRebuild(e, info, inner, plan, isPtr); err != nil {
		return err
	}
	c.closeFunc(e)

	if isPtr && !plan.immutable {
		if err := c.emitContainerInto(e, info, inner, plan, sfx); err != nil {
			return err
		}
	}
	return nil
}

func (c *fileContext) emitContainerElementWrites(e *emitter, plan containerPlan) error {
	switch plan.inner.Special {
	case metadata.SpecialStack:
		// Top to bottom, so the reader can push in reverse and keep
		// the original order.
		e.writeLine("nino__items := v.Items()")
		e.writeLine("for nino__i := len(nino__items) - 1; nino__i >= 0; nino__i-- {")
		e.indent++
		if err := c.writeValue(e, plan.elem, "nino__items[nino__i]", false, nil); err != nil {
			return err
		}
		e.indent--
		e.writeLine("}")

	case metadata.SpecialSortedMap:
		e.writeLine("for _, nino__k := range v.Keys() {")
		e.indent++
		if err := c.writeValue(e, plan.elem, "nino__k", false, nil); err != nil {
			return err
		}
		e.writeLine("nino__val, _ := v.Get(nino__k)")
		if err := c.writeValue(e, *plan.second, "nino__val", false, nil); err != nil {
			return err
		}
		e.indent--
		e.writeLine("}")

	case metadata.SpecialPriorityQueue:
		e.writeLine("for _, nino__pair := range v.UnorderedItems() {")
		e.indent++
		if err := c.writeValue(e, plan.elem, "nino__pair.First", false, nil); err != nil {
			return err
		}
		if err := c.writeValue(e, *plan.second, "nino__pair.Second", false, nil); err != nil {
			return err
		}
		e.indent--
		e.writeLine("}")

	default:
		// Queue, Set, SortedSet, LinkedList, ImmutableArray,
		// ImmutableList: natural iteration order.
		if plan.elem.IsUnmanaged {
			e.writeLine("runtime.WriteUnmanagedSlice(w, v.Items())")
			return nil
		}
		e.writeLine("for _, nino__el := range v.Items() {")
		e.indent++
		if err := c.writeValue(e, plan.elem, "nino__el", false, nil); err != nil {
			return err
		}
		e.indent--
		e.writeLine("}")
	}
	return nil
}

// constructorCall renders the collections constructor for a shape.
func (c *fileContext) constructorCall(inner metadata.TypeInfo, sizeExpr string) string {
	args := make([]string, len(inner.TypeArgs))
	for i, a := range inner.TypeArgs {
		args[i] = c.typeExpr(a)
	}
	generic := "[" + strings.Join(args, ", ") + "]"
	switch inner.Special {
	case metadata.SpecialStack:
		return "collections.NewStack" + generic + "(" + sizeExpr + ")"
	case metadata.SpecialQueue:
		return "collections.NewQueue" + generic + "(" + sizeExpr + ")"
	case metadata.SpecialSet:
		return "collections.NewSet" + generic + "(" + sizeExpr + ")"
	case metadata.SpecialSortedSet:
		return "collections.NewSortedSet" + generic + "(" + sizeExpr + ")"
	case metadata.SpecialSortedMap:
		return "collections.NewSortedMap" + generic + "(" + sizeExpr + ")"
	case metadata.SpecialLinkedList:
		return "collections.NewLinkedList" + generic + "()"
	case metadata.SpecialPriorityQueue:
		return "collections.NewPriorityQueue" + generic + "(" + sizeExpr + ")"
	}
	return ""
}

// emitContainerRebuild reads nino__n elements into a fresh container
// and assigns it through v.
func (c *fileContext) emitContainerRebuild(e *emitter, info, inner metadata.TypeInfo, plan containerPlan, isPtr bool) error {
	if plan.immutable {
		elemT := c.typeExpr(plan.elem)
		if plan.elem.IsUnmanaged {
			e.writeLine("nino__s, err := runtime.ReadUnmanagedSlice[%s](r, nino__n)", elemT)
			e.writeLine("if err != nil {")
			e.writeLine("\treturn err")
			e.writeLine("}")
		} else {
			e.writeLine("nino__s := make([]%s, nino__n)", elemT)
			e.writeLine("for nino__i := range nino__s {")
			e.indent++
			if err := c.readValue(e, plan.elem, "nino__s[nino__i]", false, nil); err != nil {
				return err
			}
			e.indent--
			e.writeLine("}")
		}
		factory := "collections.ImmutableArrayUnsafe"
		if inner.Special == metadata.SpecialImmutableList {
			factory = "collections.ImmutableListUnsafe"
		}
		if isPtr {
			e.writeLine("nino__out := %s(nino__s)", factory)
			e.writeLine("*v = &nino__out")
		} else {
			e.writeLine("*v = %s(nino__s)", factory)
		}
		return nil
	}

	e.writeLine("nino__out := %s", c.constructorCall(inner, "nino__n"))
	if err := c.emitContainerFill(e, plan, "nino__out"); err != nil {
		return err
	}
	if isPtr {
		e.writeLine("*v = nino__out")
	} else {
		e.writeLine("*v = *nino__out")
	}
	return nil
}

// emitContainerFill reads nino__n elements into dst.
func (c *fileContext) emitContainerFill(e *emitter, plan containerPlan, dst string) error {
	elemT := c.typeExpr(plan.elem)
	switch plan.inner.Special {
	case metadata.SpecialStack:
		// Elements arrive top to bottom; push bottom-up.
		e.writeLine("nino__s := make([]%s, nino__n)", elemT)
		e.writeLine("for nino__i := range nino__s {")
		e.indent++
		if err := c.readValue(e, plan.elem, "nino__s[nino__i]", false, nil); err != nil {
			return err
		}
		e.indent--
		e.writeLine("}")
		e.writeLine("for nino__i := nino__n - 1; nino__i >= 0; nino__i-- {")
		e.writeLine("\t%s.Push(nino__s[nino__i])", dst)
		e.writeLine("}")

	case metadata.SpecialSortedMap:
		e.writeLine("for nino__i := 0; nino__i < nino__n; nino__i++ {")
		e.indent++
		e.writeLine("var nino__k %s", elemT)
		if err := c.readValue(e, plan.elem, "nino__k", false, nil); err != nil {
			return err
		}
		e.writeLine("var nino__val %s", c.typeExpr(*plan.second))
		if err := c.readValue(e, *plan.second, "nino__val", false, nil); err != nil {
			return err
		}
		e.writeLine("%s.Set(nino__k, nino__val)", dst)
		e.indent--
		e.writeLine("}")

	case metadata.SpecialPriorityQueue:
		e.writeLine("for nino__i := 0; nino__i < nino__n; nino__i++ {")
		e.indent++
		e.writeLine("var nino__el %s", elemT)
		if err := c.readValue(e, plan.elem, "nino__el", false, nil); err != nil {
			return err
		}
		e.writeLine("var nino__pri %s", c.typeExpr(*plan.second))
		if err := c.readValue(e, *plan.second, "nino__pri", false, nil); err != nil {
			return err
		}
		e.writeLine("%s.Enqueue(nino__el, nino__pri)", dst)
		e.indent--
		e.writeLine("}")

	default:
		verb := "Add"
		switch plan.inner.Special {
		case metadata.SpecialQueue:
			verb = "Enqueue"
		case metadata.SpecialLinkedList:
			verb = "PushBack"
		}
		e.writeLine("for nino__i := 0; nino__i < nino__n; nino__i++ {")
		e.indent++
		e.writeLine("var nino__el %s", elemT)
		if err := c.readValue(e, plan.elem, "nino__el", false, nil); err != nil {
			return err
		}
		e.writeLine("%s.%s(nino__el)", dst, verb)
		e.indent--
		e.writeLine("}")
	}
	return nil
}

// emitContainerInto emits the clear-and-refill overload used when the
// caller already owns a container instance.
func (c *fileContext) emitContainerInto(e *emitter, info, inner metadata.TypeInfo, plan containerPlan, sfx string) error {
	e.writeLine("func ninoDeInto_%s(v *%s, r *runtime.Reader) error {", sfx, c.typeExpr(info))
	e.indent++
	c.readHeaderInto(e, "*v = nil")
	e.writeLine("if *v == nil {")
	e.writeLine("\t*v = %s", c.constructorCall(inner, "nino__n"))
	e.writeLine("} else {")
	e.writeLine("\t(*v).Clear()")
	e.writeLine("}")
	if err := c.emitContainerFill(e, plan, "(*v)"); err != nil {
		return err
	}
	c.closeFunc(e)
	return nil
}

// emitCustomCollection serializes user containers through their
// Add/Clear/Len/Items contract.
func (c *fileContext) emitCustomCollection(e *emitter, info, inner metadata.TypeInfo, isPtr bool) error {
	elem := inner.CustomCollection.Elem

	c.serHeader(e, info)
	if isPtr {
		e.writeLine("if v == nil {")
		e.writeLine("\tw.WriteNullCollection()")
		e.writeLine("\treturn nil")
		e.writeLine("}")
	}
	e.writeLine("w.WriteCollectionHeader(v.Len())")
	if elem.IsUnmanaged {
		e.writeLine("runtime.WriteUnmanagedSlice(w, v.Items())")
	} else {
		e.writeLine("for _, nino__el := range v.Items() {")
		e.indent++
		if err := c.writeValue(e, elem, "nino__el", false, nil); err != nil {
			return err
		}
		e.indent--
		e.writeLine("}")
	}
	c.closeFunc(e)

	c.deHeader(e, info)
	nullAssign := "*v = nil"
	if !isPtr {
		nullAssign = "*v = " + c.typeExpr(inner) + "{}"
	}
	c.readHeaderInto(e, nullAssign)
	e.writeLine("nino__out := new(%s)", c.typeExpr(inner))
	e.writeLine("nino__out.Clear()")
	e.writeLine("for nino__i := 0; nino__i < nino__n; nino__i++ {")
	e.indent++
	e.writeLine("var nino__el %s", c.typeExpr(elem))
	if err := c.readValue(e, elem, "nino__el", false, nil); err != nil {
		return err
	}
	e.writeLine("nino__out.Add(nino__el)")
	e.indent--
	e.writeLine("}")
	if isPtr {
		e.writeLine("*v = nino__out")
	} else {
		e.writeLine("*v = *nino__out")
	}
	c.closeFunc(e)
	return nil
}
