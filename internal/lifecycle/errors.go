package lifecycle

import (
	"errors"
	"fmt"

	"github.com/hive-fieldops/backend/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrImmutableState    = errors.New("immutable state")
	ErrIllegalState      = errors.New("illegal state")
	ErrValidation        = errors.New("validation failed")
)

// InvalidTransitionError reports an event that is not legal from the
// request's current status. The request is left untouched.
type InvalidTransitionError struct {
	Status models.Status
	Event  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("event %q is not allowed from status %q", e.Event, e.Status)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ImmutableStateError reports a field edit attempted once the request has
// moved past the editable statuses.
type ImmutableStateError struct {
	Status models.Status
	Field  string
}

func (e *ImmutableStateError) Error() string {
	return fmt.Sprintf("field %q cannot be edited in status %q", e.Field, e.Status)
}

func (e *ImmutableStateError) Is(target error) bool { return target == ErrImmutableState }

// IllegalStateError reports an attachment operation (invoice, photos) that the
// request's current shape does not allow.
type IllegalStateError struct {
	Status    models.Status
	Operation string
	Reason    string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("%s not allowed in status %q: %s", e.Operation, e.Status, e.Reason)
}

func (e *IllegalStateError) Is(target error) bool { return target == ErrIllegalState }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}
