package errors

import "github.com/nino-go/nino/internal/compiler/metadata"

// Extraction diagnostic codes (EXT100-199)
const (
	// ErrUnboundGeneric indicates a type with unbound type parameters.
	ErrUnboundGeneric DiagnosticCode = "EXT101"
	// ErrInaccessibleType indicates a type the generator cannot reach.
	ErrInaccessibleType DiagnosticCode = "EXT102"
	// ErrBadDirective indicates a malformed nino directive comment.
	ErrBadDirective DiagnosticCode = "EXT103"
	// ErrNoFactory indicates no usable factory for a type that needs one.
	ErrNoFactory DiagnosticCode = "EXT104"
)

// Graph diagnostic codes (GRF200-299)
const (
	// ErrDuplicateTypeID indicates two distinct types hashing to one id.
	ErrDuplicateTypeID DiagnosticCode = "GRF201"
)

// Emission diagnostic codes (GEN300-399)
const (
	// ErrMissingMember indicates a member type with no resolvable codec.
	ErrMissingMember DiagnosticCode = "GEN301"
	// ErrEmissionFailed indicates an internal invariant broke mid-emission.
	ErrEmissionFailed DiagnosticCode = "GEN302"
	// ErrPrivateCrossPackage indicates an unexported member in a foreign package.
	ErrPrivateCrossPackage DiagnosticCode = "GEN303"
	// ErrIneligibleCollection indicates a user collection without Add/Clear
	// or a slice-accepting factory.
	ErrIneligibleCollection DiagnosticCode = "GEN304"
)

// NewUnboundGeneric creates an EXT101 diagnostic.
func NewUnboundGeneric(typeName string, loc metadata.SourceLocation) *Diagnostic {
	return newDiagnostic(ErrUnboundGeneric, CategoryExtraction, SeverityWarning, typeName, loc,
		"type %q has unbound generic parameters and cannot be serialized", typeName).
		WithSuggestion("serialize a fully instantiated form of the type instead")
}

// NewBadDirective creates an EXT103 diagnostic.
func NewBadDirective(typeName string, loc metadata.SourceLocation, directive string) *Diagnostic {
	return newDiagnostic(ErrBadDirective, CategoryExtraction, SeverityError, typeName, loc,
		"malformed nino directive %q", directive).
		WithSuggestion("expected //nino:type with optional key=value options: auto-collect, contain-private, allow-inheritance")
}

// NewNoFactory creates an EXT104 diagnostic.
func NewNoFactory(typeName string, loc metadata.SourceLocation) *Diagnostic {
	return newDiagnostic(ErrNoFactory, CategoryExtraction, SeverityError, typeName, loc,
		"type %q has unexported construction requirements and no accessible factory", typeName).
		WithSuggestion("add a factory func annotated with //nino:ctor")
}

// NewDuplicateTypeID creates a GRF201 diagnostic.
func NewDuplicateTypeID(typeName, otherName string, id uint32) *Diagnostic {
	return newDiagnostic(ErrDuplicateTypeID, CategoryGraph, SeverityError, typeName, metadata.SourceLocation{},
		"types %q and %q collide on type id 0x%08x", typeName, otherName, id).
		WithSuggestion("rename one of the types; the id is a hash of the fully qualified name")
}

// NewMissingMember creates a GEN301 diagnostic.
func NewMissingMember(typeName, memberName, memberType string, loc metadata.SourceLocation) *Diagnostic {
	return newDiagnostic(ErrMissingMember, CategoryEmission, SeverityWarning, typeName, loc,
		"member %s.%s has type %s with no resolvable codec; the type is skipped", typeName, memberName, memberType).
		WithMember(memberName).
		WithSuggestion("annotate the member's type with //nino:type or mark the member nino:\"-\"")
}

// NewEmissionFailed creates a GEN302 diagnostic.
func NewEmissionFailed(typeName string, loc metadata.SourceLocation, detail string) *Diagnostic {
	return newDiagnostic(ErrEmissionFailed, CategoryEmission, SeverityWarning, typeName, loc,
		"code emission failed for %q; a stub artifact was written", typeName).
		WithDetail(detail).
		WithSuggestion("this is likely a generator bug - please report it")
}

// NewPrivateCrossPackage creates a GEN303 diagnostic.
func NewPrivateCrossPackage(typeName, memberName string, loc metadata.SourceLocation) *Diagnostic {
	return newDiagnostic(ErrPrivateCrossPackage, CategoryEmission, SeverityWarning, typeName, loc,
		"member %s.%s is unexported in a foreign package and cannot be assigned", typeName, memberName).
		WithMember(memberName).
		WithSuggestion("move generation into the declaring package or export the member")
}

// NewIneligibleCollection creates a GEN304 diagnostic.
func NewIneligibleCollection(typeName string, loc metadata.SourceLocation) *Diagnostic {
	return newDiagnostic(ErrIneligibleCollection, CategoryEmission, SeverityWarning, typeName, loc,
		"collection type %q has neither Add/Clear methods nor a slice-accepting factory", typeName).
		WithSuggestion("add an Add(element) and Clear() method pair, or a factory accepting []T")
}
