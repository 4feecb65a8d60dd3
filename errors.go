package matdisco

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when a Config field is out of range.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrEmptyAcceptor is returned when the acceptor partition starts empty.
	ErrEmptyAcceptor = errors.New("acceptor dataset is empty")

	// ErrEmptyDonor is returned when the donor partition starts empty.
	ErrEmptyDonor = errors.New("donor dataset is empty")
)

// ErrCollaborator wraps a failure of a pluggable collaborator (predictor,
// embedder, clusterer or snapshot sink).
//
// The original error can be accessed via errors.Unwrap.
type ErrCollaborator struct {
	Stage string
	cause error
}

func (e *ErrCollaborator) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.cause)
}

func (e *ErrCollaborator) Unwrap() error { return e.cause }

func stageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &ErrCollaborator{Stage: stage, cause: err}
}
