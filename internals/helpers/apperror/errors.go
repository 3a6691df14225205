// Package apperror holds the typed failures shared by services and controllers.
// Controllers translate them to HTTP codes through helper.JsonFromError.
package apperror

import (
	"fmt"
	"strings"
)

// NotFoundError: unknown form, question or response id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: idString(id)}
}

// ValidationError carries the offending question and the rule that failed.
// Missing is filled only by finalize, with every required question left blank.
type ValidationError struct {
	QuestionID string
	Rule       string
	Message    string
	Missing    []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required answers: " + strings.Join(e.Missing, ", ")
	}
	if e.QuestionID == "" {
		return fmt.Sprintf("%s: %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("question %s: %s (%s)", e.QuestionID, e.Message, e.Rule)
}

func Invalid(questionID any, rule, message string) *ValidationError {
	return &ValidationError{QuestionID: idString(questionID), Rule: rule, Message: message}
}

func MissingRequired(questionIDs []string) *ValidationError {
	return &ValidationError{
		Rule:    "required",
		Message: "required questions are not answered",
		Missing: questionIDs,
	}
}

// ConflictError: the target is in a state that forbids the mutation.
type ConflictError struct {
	Resource string
	ID       string
	Reason   string
}

func (e *ConflictError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("%s %s conflict: %s", e.Resource, e.ID, e.Reason)
}

func Conflict(resource string, id any, reason string) *ConflictError {
	return &ConflictError{Resource: resource, ID: idString(id), Reason: reason}
}

type FileTooLargeError struct {
	QuestionID string
	FileName   string
	Size       int64
	MaxSize    int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %q is %d bytes, limit is %d bytes", e.FileName, e.Size, e.MaxSize)
}

type FileTypeNotAllowedError struct {
	QuestionID string
	FileName   string
	MimeType   string
	Allowed    []string
}

func (e *FileTypeNotAllowedError) Error() string {
	return fmt.Sprintf("file %q has type %q, allowed: %s", e.FileName, e.MimeType, strings.Join(e.Allowed, ", "))
}

// AuthorizationError is surfaced when the identity layer refuses access.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

func Forbidden(reason string) *AuthorizationError {
	return &AuthorizationError{Reason: reason}
}

func idString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
