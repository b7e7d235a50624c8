package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every component
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrConfiguration      = errors.New("invalid configuration")
)

// OpError attaches the failing operation and identifier to a classified error
type OpError struct {
	Op     string // Operation, e.g. "edges from"
	Target string // Identifier or id the operation was about
	Kind   error  // One of the sentinel errors above
	Err    error  // Underlying cause, may be nil
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Target != "" {
		msg += " " + e.Target
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the classification and the cause to errors.Is/As
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// StorageError wraps a backend failure as ErrStorageUnavailable.
// Errors that are already classified pass through unchanged.
func StorageError(op, target string, err error) error {
	if err == nil {
		return nil
	}
	if classified(err) {
		return err
	}
	return &OpError{Op: op, Target: target, Kind: ErrStorageUnavailable, Err: err}
}

// NotFoundError reports a missing identifier, mapping or namespace
func NotFoundError(op, target string) error {
	return &OpError{Op: op, Target: target, Kind: ErrNotFound}
}

// ConflictError reports a registration clash
func ConflictError(op, target string, format string, args ...any) error {
	return &OpError{Op: op, Target: target, Kind: ErrConflict, Err: fmt.Errorf(format, args...)}
}

// ConfigurationErrorf reports malformed metadata or settings
func ConfigurationErrorf(op string, format string, args ...any) error {
	return &OpError{Op: op, Kind: ErrConfiguration, Err: fmt.Errorf(format, args...)}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a registration conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsStorageUnavailable checks if an error came from the storage boundary
func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func classified(err error) bool {
	return IsNotFound(err) || IsConflict(err) || IsStorageUnavailable(err) || IsConfiguration(err)
}
