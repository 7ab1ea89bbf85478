// Package errors collects failures from independent operations so that one
// failing operation does not stop the others from running.
package errors

import (
	"errors"
	"fmt"
)

// ErrPanicked wraps a value recovered from a panicking operation.
var ErrPanicked = errors.New("operation panicked")

// Collection is a thread-unsafe utility for accumulating multiple errors.
type Collection struct {
	errors []error
}

// Add appends an error to the collection. Nil errors are ignored.
func (c *Collection) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// Clear removes all errors from the collection.
func (c *Collection) Clear() {
	c.errors = nil
}

// HasError returns true if the collection contains at least one error.
func (c *Collection) HasError() bool {
	return len(c.errors) > 0
}

// Len returns the number of collected errors.
func (c *Collection) Len() int {
	return len(c.errors)
}

// GetError returns nil for an empty collection, the error itself when there
// is one, and an errors.Join of all of them otherwise.
func (c *Collection) GetError() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return errors.Join(c.errors...)
	}
}

// Recovered converts a value obtained from recover() into an error wrapping
// ErrPanicked. It returns nil when v is nil.
func Recovered(v any) error {
	if v == nil {
		return nil
	}

	if err, ok := v.(error); ok {
		return fmt.Errorf("%w: %w", ErrPanicked, err)
	}

	return fmt.Errorf("%w: %v", ErrPanicked, v)
}

// Run calls fn and returns its error, converting a panic into an error
// wrapping ErrPanicked.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Recovered(r)
		}
	}()

	return fn()
}
