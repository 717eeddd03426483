package service

import (
	"errors"
	"fmt"
	"strings"

	"gotrabandhus/internal/domain"
)

var (
	// ErrRootProtected is returned when deleting a tree's root member while
	// root protection is on
	ErrRootProtected = errors.New("root member cannot be deleted")
	// ErrInvariantViolation is returned by strict imports of inconsistent documents
	ErrInvariantViolation = errors.New("graph violates relation invariants")
	// ErrInvalidStrategy is returned for an import strategy other than replace or merge
	ErrInvalidStrategy = errors.New("invalid import strategy")
	// ErrInvalidFormat is returned for an unknown document format
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidProfile is returned when a profile fails validation
	ErrInvalidProfile = errors.New("invalid profile")
)

// InvariantError carries the violations that rejected a strict import
type InvariantError struct {
	Violations []domain.Violation
}

func (e *InvariantError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%s: %s", ErrInvariantViolation, strings.Join(parts, "; "))
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}
