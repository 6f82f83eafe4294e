package codegen

import (
	"github.com/nino-go/nino/internal/compiler/metadata"
)

// emitTypeIDConsts emits the stable id constants for the package's
// types.
func (c *fileContext) emitTypeIDConsts(e *emitter, types []*metadata.NinoType) {
	if len(types) == 0 {
		return
	}
	e.writeLine("// Stable type ids, hashed from fully qualified names.")
	e.writeLine("const (")
	e.indent++
	for _, t := range types {
		e.writeLine("%s uint32 = 0x%08x", typeIDConst(t), t.Info.TypeID)
	}
	e.indent--
	e.writeLine(")")
	e.writeLine("")
}

// emitRegistration emits the idempotent one-shot registrar plus the
// module initializer that fires it at load.
func (c *fileContext) emitRegistration(e *emitter, types []*metadata.NinoType) {
	c.imports.add(runtimePkgPath, "runtime")
	c.imports.add("sync", "sync")

	e.writeLine("var ninoInitOnce sync.Once")
	e.writeLine("")
	e.writeLine("// NinoInit installs this package's serializers into the runtime")
	e.writeLine("// dispatch table. It may be called from any number of goroutines; the")
	e.writeLine("// table ends up identical to a single call.")
	e.writeLine("func NinoInit() {")
	e.indent++
	e.writeLine("ninoInitOnce.Do(func() {")
	e.indent++

	for _, t := range types {
		name := t.Info.Name
		e.writeLine("runtime.Register[%s](%q, %s, Serialize%s, Deserialize%s)",
			name, t.Info.DisplayName, typeIDConst(t), name, name)
		if t.IsPolymorphic && t.Info.Kind == metadata.KindStruct {
			e.writeLine("runtime.RegisterOptimal[%s](%q, %s, Serialize%sPoly, Deserialize%s)",
				name, t.Info.DisplayName, typeIDConst(t), name, name)
		}
	}
	for _, t := range types {
		// Parent-to-child records let a serializer invoked at a
		// declared base reach the derived writer. A child in another
		// package contributes only once that package's init runs.
		for _, a := range c.graph.BaseTypes[t.Info.TypeID] {
			e.writeLine("runtime.RecordSubType(%s, %s)", c.typeIDRef(a), typeIDConst(t))
		}
	}

	e.indent--
	e.writeLine("})")
	e.indent--
	e.writeLine("}")
	e.writeLine("")

	if c.cfg.EngineHooks {
		e.writeLine("func init() { runtime.RegisterLoadHook(NinoInit) }")
	} else {
		e.writeLine("func init() { NinoInit() }")
	}
	e.writeLine("")
}
