package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("not logged in")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
)

// ValidationError is returned before any remote call when input is rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ConflictError is a uniqueness violation translated into a user-facing message.
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string { return e.Message }
func (e *ConflictError) Unwrap() error { return e.Err }

// ClassifyConflict maps collaborator errors about taken emails or handles to a ConflictError.
// Any other error is returned unchanged.
func ClassifyConflict(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already registered"), strings.Contains(msg, "email_exists"), strings.Contains(msg, "email already exists"):
		return &ConflictError{Message: "That email is already registered.", Err: err}
	case strings.Contains(msg, "handle") && strings.Contains(msg, "duplicate"):
		return &ConflictError{Message: "That handle is already taken.", Err: err}
	}
	return err
}

// StepError reports which step of a multi-step write failed. Earlier steps are not rolled back.
type StepError struct {
	Step   string
	PostID string
	Err    error
}

func (e *StepError) Error() string {
	if e.PostID == "" {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s (post %s): %v", e.Step, e.PostID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
