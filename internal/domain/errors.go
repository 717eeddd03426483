package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any NotFoundError via errors.Is
	ErrNotFound = errors.New("not found")
	// ErrMalformedData matches any MalformedDataError via errors.Is
	ErrMalformedData = errors.New("malformed data")
	// ErrInvalidRelation is returned for a relation kind other than child, spouse or parent
	ErrInvalidRelation = errors.New("invalid relation kind")
)

// NotFoundError reports an id that does not name a node in the graph
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("member %s not found", e.ID)
}

// Is makes errors.Is(err, ErrNotFound) work
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MalformedDataError reports input that does not decode into the node shape
type MalformedDataError struct {
	Reason string
	Err    error
}

func (e *MalformedDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed data: %s: %v", e.Reason, e.Err)
	}
	return "malformed data: " + e.Reason
}

func (e *MalformedDataError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedData) work
func (e *MalformedDataError) Is(target error) bool {
	return target == ErrMalformedData
}

// Malformed builds a MalformedDataError
func Malformed(reason string, err error) error {
	return &MalformedDataError{Reason: reason, Err: err}
}
