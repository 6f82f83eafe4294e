// Package errors provides structured diagnostics for the nino code
// generator. It defines diagnostic codes, categories, and formatting for
// both human-readable terminal output and machine-parseable JSON.
package errors

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/nino-go/nino/internal/compiler/metadata"
)

// DiagnosticCode is a unique code for a generator diagnostic.
type DiagnosticCode string

// DiagnosticCategory groups diagnostics by pipeline stage.
type DiagnosticCategory string

const (
	// CategoryExtraction covers metadata projection and entity
	// extraction failures (EXT100-199).
	CategoryExtraction DiagnosticCategory = "extraction"
	// CategoryGraph covers type-graph construction failures (GRF200-299).
	CategoryGraph DiagnosticCategory = "graph"
	// CategoryEmission covers code emission failures (GEN300-399).
	CategoryEmission DiagnosticCategory = "emission"
)

// Severity indicates how a diagnostic affects generation.
type Severity string

const (
	// SeverityError prevents emission for the offending type.
	SeverityError Severity = "error"
	// SeverityWarning indicates degraded output, such as a stub artifact.
	SeverityWarning Severity = "warning"
	// SeverityInfo carries non-actionable notes.
	SeverityInfo Severity = "info"
)

// Diagnostic is a structured generator diagnostic.
type Diagnostic struct {
	// Code is the unique diagnostic code (e.g. "GEN301").
	Code DiagnosticCode `json:"code"`
	// Category is the originating pipeline stage.
	Category DiagnosticCategory `json:"category"`
	// Severity is the diagnostic severity.
	Severity Severity `json:"severity"`
	// Message is the primary human-readable message.
	Message string `json:"message"`
	// TypeName is the display name of the offending type, if any.
	TypeName string `json:"type,omitempty"`
	// MemberName is the offending member, if any.
	MemberName string `json:"member,omitempty"`
	// Location is the declaration site of the offending symbol.
	Location metadata.SourceLocation `json:"location"`
	// Suggestion is an optional hint for fixing the problem.
	Suggestion string `json:"suggestion,omitempty"`
	// Detail carries supporting detail such as a recovered stack trace.
	Detail string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return d.Format()
}

// ToJSON renders the diagnostic for machine consumption.
func (d *Diagnostic) ToJSON() (string, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WithSuggestion sets the fix hint.
func (d *Diagnostic) WithSuggestion(s string) *Diagnostic {
	d.Suggestion = s
	return d
}

// WithDetail sets the supporting detail.
func (d *Diagnostic) WithDetail(detail string) *Diagnostic {
	d.Detail = detail
	return d
}

// WithMember sets the offending member name.
func (d *Diagnostic) WithMember(name string) *Diagnostic {
	d.MemberName = name
	return d
}

func newDiagnostic(code DiagnosticCode, category DiagnosticCategory, severity Severity, typeName string, loc metadata.SourceLocation, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		Category: category,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		TypeName: typeName,
		Location: loc,
	}
}
