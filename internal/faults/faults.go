package faults

import (
	"errors"
	"fmt"
)

// The bot distinguishes four failure classes. User input errors carry the chat
// reply and are never retried. Transient errors leave the last durable state
// for the next sweep. Invariant violations indicate corrupted attribution data
// and abort the unit of work loudly. Config errors are fatal at startup.

type UserInputError struct {
	Reply string
}

func (e *UserInputError) Error() string { return e.Reply }

func UserInput(format string, args ...interface{}) *UserInputError {
	if len(args) == 0 {
		return &UserInputError{Reply: format}
	}
	return &UserInputError{Reply: fmt.Sprintf(format, args...)}
}

type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

func Transient(err error) *TransientError {
	return &TransientError{Err: err}
}

type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string { return e.Msg }

func Invariant(format string, args ...interface{}) *InvariantViolation {
	return &InvariantViolation{Msg: fmt.Sprintf(format, args...)}
}

func IsUserInput(err error) bool {
	var target *UserInputError
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target *TransientError
	return errors.As(err, &target)
}

func IsInvariant(err error) bool {
	var target *InvariantViolation
	return errors.As(err, &target)
}
