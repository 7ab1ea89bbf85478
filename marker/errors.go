package marker

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMarker is matched by UnknownMarkerError.
	ErrUnknownMarker = errors.New("unknown marker")
	// ErrIndexOutOfRange is matched by IndexOutOfRangeError.
	ErrIndexOutOfRange = errors.New("marker index out of range")

	// ErrEmptySequence indicates that a sequence was declared without markers.
	ErrEmptySequence = errors.New("marker sequence must not be empty")
	// ErrEmptyMarkerName indicates a blank marker name in a declaration.
	ErrEmptyMarkerName = errors.New("marker name is required")
	// ErrDuplicateMarker indicates a marker name declared twice.
	ErrDuplicateMarker = errors.New("duplicate marker")
	// ErrEmptySubset indicates a step subset declared without markers.
	ErrEmptySubset = errors.New("step subset must not be empty")
	// ErrSubsetOrder indicates a step subset that does not follow sequence order.
	ErrSubsetOrder = errors.New("step subset must follow sequence order")
)

// UnknownMarkerError is returned when a lookup is given a marker that is not
// part of the sequence. It is a programming error, not a user-recoverable one.
type UnknownMarkerError struct {
	Name string
}

func (e *UnknownMarkerError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownMarker, e.Name)
}

func (e *UnknownMarkerError) Unwrap() error {
	return ErrUnknownMarker
}

// IndexOutOfRangeError is returned by positional lookups outside [0, Len).
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%v: %d not in [0, %d)", ErrIndexOutOfRange, e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Unwrap() error {
	return ErrIndexOutOfRange
}
