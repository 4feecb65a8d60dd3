package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hupe1980/matdisco"
	"github.com/hupe1980/matdisco/blobstore"
	"github.com/hupe1980/matdisco/composition"
	"github.com/hupe1980/matdisco/dataset"
	"github.com/hupe1980/matdisco/snapshot"
)

var (
	// ErrInvalidInput marks a malformed request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks an unknown run or snapshot.
	ErrNotFound = errors.New("not found")
)

// AppError is an error with the HTTP status it maps to.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps an error to an AppError with an appropriate HTTP status
// code. Invalid settings or datasets become 400, unknown runs 404 and
// everything else 500.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, matdisco.ErrInvalidConfig),
		errors.Is(err, matdisco.ErrEmptyAcceptor),
		errors.Is(err, matdisco.ErrEmptyDonor),
		errors.Is(err, dataset.ErrUnknownDataset),
		errors.Is(err, dataset.ErrSchemaMismatch),
		errors.Is(err, dataset.ErrMissingColumn),
		errors.Is(err, composition.ErrParseFormula),
		errors.Is(err, snapshot.ErrBadName):
		return NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, ErrNotFound), errors.Is(err, blobstore.ErrNotFound):
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	default:
		return NewAppError(http.StatusInternalServerError, "Internal server error", err)
	}
}
