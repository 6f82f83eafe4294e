package errors

import (
	"fmt"
	"strings"
)

// FormatDiagnostic returns a human-readable message for terminal output.
func FormatDiagnostic(d *Diagnostic) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s [%s]", severityIcon(d.Severity), categoryDisplayName(d.Category), d.Code)
	if d.TypeName != "" {
		fmt.Fprintf(&b, " in %s", d.TypeName)
	}
	b.WriteString("\n")

	if d.Location.File != "" {
		fmt.Fprintf(&b, "  at %s\n", d.Location)
	}
	fmt.Fprintf(&b, "  %s\n", d.Message)

	if d.Suggestion != "" {
		fmt.Fprintf(&b, "  hint: %s\n", d.Suggestion)
	}
	return b.String()
}

// Format renders the diagnostic for terminal output.
func (d *Diagnostic) Format() string {
	return FormatDiagnostic(d)
}

func severityIcon(s Severity) string {
	switch s {
	case SeverityError:
		return "✗"
	case SeverityWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

func categoryDisplayName(c DiagnosticCategory) string {
	switch c {
	case CategoryExtraction:
		return "Extraction problem"
	case CategoryGraph:
		return "Type graph problem"
	case CategoryEmission:
		return "Emission problem"
	default:
		return "Problem"
	}
}

// Collector accumulates diagnostics across a generation run. It is used
// from errgroup workers, so appends are serialized by the caller's own
// locking (the driver owns one collector per run behind a mutex).
type Collector struct {
	diags []*Diagnostic
}

// Add appends a diagnostic.
func (c *Collector) Add(d *Diagnostic) {
	c.diags = append(c.diags, d)
}

// All returns the accumulated diagnostics.
func (c *Collector) All() []*Diagnostic {
	return c.diags
}

// HasErrors reports whether any diagnostic carries SeverityError.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
