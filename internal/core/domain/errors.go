package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrListFailed            = errors.New("listing dependent records failed")
	ErrDependentDeleteFailed = errors.New("deleting dependent records failed")
	ErrDoctorDeleteFailed    = errors.New("deleting doctor failed")
	ErrDeletionInProgress    = errors.New("deletion already in progress")
	ErrUnknownResource       = errors.New("unknown resource")
	ErrNotFound              = errors.New("record not found")
	ErrNotConfirming         = errors.New("deletion was not requested")
)

// CascadeError перечисляет зависимые записи, которые не удалось удалить.
// Врач в этом случае не удаляется.
type CascadeError struct {
	DoctorID int
	Failed   []FailedRecord
}

func (e *CascadeError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, ResourceKey(f.Resource, f.ID))
	}
	return fmt.Sprintf("doctor %d: %d dependent record(s) not deleted: %s",
		e.DoctorID, len(e.Failed), strings.Join(parts, ", "))
}

func (e *CascadeError) Unwrap() error {
	return ErrDependentDeleteFailed
}
