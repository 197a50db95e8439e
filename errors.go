package modrun

import (
	"errors"
	"fmt"
)

// InfraError represents an orchestrator-level infrastructure failure that
// should abort the whole run with exitcodes.InfraErr. Examples include a
// malformed catalogue or an unwritable log directory.
type InfraError struct {
	Err error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("infrastructure error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *InfraError) Unwrap() error {
	return e.Err
}

// NewInfraError creates a new InfraError
func NewInfraError(err error) *InfraError {
	return &InfraError{Err: err}
}

// IsInfraError checks if the error is or wraps an InfraError
func IsInfraError(err error) bool {
	var infraErr *InfraError
	return err != nil && errors.As(err, &infraErr)
}

// ModuleFailureError represents a completed run with failing modules. It
// carries the failure count so the process exit code can equal it.
type ModuleFailureError struct {
	Count   int
	Message string
}

func (e *ModuleFailureError) Error() string {
	return fmt.Sprintf("module failures: %s", e.Message)
}

// NewModuleFailureError creates a new ModuleFailureError
func NewModuleFailureError(count int, message string) *ModuleFailureError {
	return &ModuleFailureError{Count: count, Message: message}
}

// AsModuleFailureError extracts a ModuleFailureError if the error wraps one
func AsModuleFailureError(err error) (*ModuleFailureError, bool) {
	var failErr *ModuleFailureError
	if err != nil && errors.As(err, &failErr) {
		return failErr, true
	}
	return nil, false
}
