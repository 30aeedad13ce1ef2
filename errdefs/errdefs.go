// Package errdefs defines the error types surfaced by the store, the repositories and
// the transfer subsystem. Callers match them with errors.As or the Is helpers.
package errdefs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: a field outside its allowed range, a
// reference to a missing entity, or a forbidden state transition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError.
func Invalid(field, reason string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(reason, args...)}
}

// NotFoundError is returned when an operation targets an id that does not exist.
type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// StorageError wraps a failure of the underlying store. Op names the operation
// (migrate, import, clear, create...), Table and Step locate the failure.
type StorageError struct {
	Op    string
	Table string
	Step  string
	Err   error
}

func (e *StorageError) Error() string {
	msg := "storage " + e.Op + " failed"
	if e.Table != "" {
		msg += " on table " + e.Table
	}
	if e.Step != "" {
		msg += " at " + e.Step
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err in a StorageError. It returns nil when err is nil.
func Storage(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Table: table, Err: err}
}

// ImportFormatError reports an export file that does not satisfy the file contract.
type ImportFormatError struct {
	Reason string
	Err    error
}

func (e *ImportFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid import file: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid import file: %s", e.Reason)
}

func (e *ImportFormatError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

func IsImportFormat(err error) bool {
	var target *ImportFormatError
	return errors.As(err, &target)
}
