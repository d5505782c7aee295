package ipd

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrConvergenceNotReached is matched (via errors.Is) by every
// *ConvergenceError returned from the estimators.
var ErrConvergenceNotReached = errors.New("convergence not reached")

// DomainError reports a move outside of the declared alphabet or a
// malformed payoff structure. It is never retried.
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string {
	return "domain error: " + e.Msg
}

func domainErrorf(format string, args ...interface{}) error {
	return errors.WithStack(&DomainError{Msg: fmt.Sprintf(format, args...)})
}

// ConfigurationError reports an invalid parameter, checked before any
// work is dispatched.
type ConfigurationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s=%v: %s", e.Field, e.Value, e.Reason)
}

func configErrorf(field string, value interface{}, format string, args ...interface{}) error {
	return errors.WithStack(&ConfigurationError{
		Field:  field,
		Value:  value,
		Reason: fmt.Sprintf(format, args...),
	})
}

// ConvergenceError is returned when the requested accuracy could not be
// reached within the caller's budget. The partial result is attached for
// diagnostics only and must not be treated as an estimate.
type ConvergenceError struct {
	Partial Result
	Reason  string
	Cause   error
}

func (e *ConvergenceError) Error() string {
	msg := "convergence not reached: " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Is makes errors.Is(err, ErrConvergenceNotReached) true.
func (e *ConvergenceError) Is(target error) bool {
	return target == ErrConvergenceNotReached
}

func (e *ConvergenceError) Unwrap() error {
	return e.Cause
}

// IsDomainError reports whether err is, or wraps, a *DomainError.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// IsConfigurationError reports whether err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
