package replica

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptStream is returned when the bit source runs out mid-field.
	// The replicator must drop the update rather than guess.
	ErrCorruptStream = errors.New("replica: corrupt stream")

	// ErrSchemaMismatch flags a State that does not line up with its
	// StateTemplate, or a Value handed to the wrong template. It is always a
	// programming error.
	ErrSchemaMismatch = errors.New("replica: schema mismatch")

	// ErrSequenceExhausted is returned by State.Unpack past the last value.
	ErrSequenceExhausted = errors.New("replica: sequence exhausted")

	// ErrTypeMismatch is returned when a Value is read as the wrong variant.
	ErrTypeMismatch = errors.New("replica: type mismatch")

	// ErrMissingBaseline is returned when a sparse update omits a field and
	// there is no earlier state to take it from.
	ErrMissingBaseline = errors.New("replica: missing baseline")

	// ErrSchemaTooLarge is returned for templates with more fields than the
	// presence mask can address.
	ErrSchemaTooLarge = errors.New("replica: schema too large")
)

// MismatchError describes a Value of the wrong kind at a schema position.
// Index is -1 when the mismatch was detected outside a State.
type MismatchError struct {
	Index int
	Want  Kind
	Got   Kind
}

func (e *MismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("replica: schema mismatch: want %s, got %s", e.Want, e.Got)
	}
	return fmt.Sprintf("replica: schema mismatch at field %d: want %s, got %s", e.Index, e.Want, e.Got)
}

func (e *MismatchError) Unwrap() error {
	return ErrSchemaMismatch
}
