// Package codegen emits the serialization artifacts: one specialized
// Serialize/Deserialize pair per user type and per structural shape,
// plus the registration glue that wires them into the runtime dispatch
// table. Emission consumes the resolved graph only; it never touches
// host metadata.
package codegen

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// emissionBufferSize pre-sizes emission buffers; they grow
// geometrically past this and are released after the batch.
const emissionBufferSize = 256 * 1024

// emitter accumulates generated source with indentation tracking.
type emitter struct {
	buf    *bytes.Buffer
	indent int
}

func newEmitter() *emitter {
	return &emitter{buf: bytes.NewBuffer(make([]byte, 0, emissionBufferSize))}
}

// writeLine writes an indented line. An empty format writes a blank
// line without indentation.
func (e *emitter) writeLine(format string, args ...any) {
	if format == "" {
		e.buf.WriteByte('\n')
		return
	}
	for i := 0; i < e.indent; i++ {
		e.buf.WriteByte('\t')
	}
	fmt.Fprintf(e.buf, format, args...)
	e.buf.WriteByte('\n')
}

func (e *emitter) String() string {
	return e.buf.String()
}

// importTracker collects the imports a generated file needs, keyed by
// path with the package name as value.
type importTracker struct {
	imports map[string]string
}

func newImportTracker() *importTracker {
	return &importTracker{imports: make(map[string]string)}
}

func (t *importTracker) add(path, name string) {
	t.imports[path] = name
}

func (t *importTracker) merge(other *importTracker) {
	for path, name := range other.imports {
		t.imports[path] = name
	}
}

// render writes the import block, standard library paths first.
func (t *importTracker) render(e *emitter) {
	if len(t.imports) == 0 {
		return
	}
	paths := make([]string, 0, len(t.imports))
	for p := range t.imports {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		si, sj := strings.Contains(paths[i], "."), strings.Contains(paths[j], ".")
		if si != sj {
			return !si
		}
		return paths[i] < paths[j]
	})

	e.writeLine("import (")
	e.indent++
	std := true
	for _, p := range paths {
		if std && strings.Contains(p, ".") {
			std = false
			e.writeLine("")
		}
		name := t.imports[p]
		if name == "" || strings.HasSuffix(p, "/"+name) || p == name {
			e.writeLine("%q", p)
		} else {
			e.writeLine("%s %q", name, p)
		}
	}
	e.indent--
	e.writeLine(")")
	e.writeLine("")
}
