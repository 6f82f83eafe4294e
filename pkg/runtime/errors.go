package runtime

import "fmt"

// InvalidPayloadError is the typed failure surfaced by deserialization:
// an unknown polymorphic id, an impossible collection length, a truncated
// buffer, or a failed factory invocation. It is never recovered locally.
type InvalidPayloadError struct {
	Message string
}

// Error implements the error interface.
func (e *InvalidPayloadError) Error() string {
	return "nino: invalid payload: " + e.Message
}

func newInvalidPayload(format string, args ...any) *InvalidPayloadError {
	return &InvalidPayloadError{Message: fmt.Sprintf(format, args...)}
}

// NewInvalidPayload builds an InvalidPayloadError. Generated code calls
// this for failures the reader itself cannot see, such as an unknown
// sub-type id.
func NewInvalidPayload(format string, args ...any) error {
	return newInvalidPayload(format, args...)
}
