package interaction

import (
	"errors"
	"fmt"
)

// ErrUnsupportedResponse is returned for a response type the interaction does not allow.
var ErrUnsupportedResponse = errors.New("response type not supported for this interaction")

// ErrorKind classifies failures handlers report to the router.
type ErrorKind int

const (
	// KindValidation is malformed input from the user.
	KindValidation ErrorKind = iota
	// KindNotFound is a referenced report, user, channel or role that does not exist.
	KindNotFound
	// KindPersistence is a failed store operation.
	KindPersistence
	// KindExternal is a failed Discord or upstream API call.
	KindExternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Generic messages shown for failures without a specific one.
const (
	MessagePersistence = "Something went wrong while saving. Please try again later."
	MessageExternal    = "Discord did not accept the request. Please try again later."
)

// UserError is a handler failure carrying the message shown to the user.
type UserError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Expected reports whether the error is routine user feedback rather than a fault.
func (e *UserError) Expected() bool {
	return e.Kind == KindValidation || e.Kind == KindNotFound
}

// Validation reports malformed user input.
func Validation(message string) error {
	return &UserError{Kind: KindValidation, Message: message}
}

// NotFound reports a missing referenced entity.
func NotFound(message string) error {
	return &UserError{Kind: KindNotFound, Message: message}
}

// Persistence wraps a store failure.
func Persistence(err error) error {
	return &UserError{Kind: KindPersistence, Message: MessagePersistence, Err: err}
}

// External wraps a failed upstream call. An empty message uses MessageExternal.
func External(message string, err error) error {
	if message == "" {
		message = MessageExternal
	}
	return &UserError{Kind: KindExternal, Message: message, Err: err}
}

// RedirectError sends the error reply for Err to Event instead of the
// interaction the handler was invoked with.
type RedirectError struct {
	Event Event
	Err   error
}

func (e *RedirectError) Error() string {
	return e.Err.Error()
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// ReplyVia answers err on event, typically the modal submission a handler
// was waiting for. A nil err stays nil.
func ReplyVia(event Event, err error) error {
	if err == nil {
		return nil
	}
	return &RedirectError{Event: event, Err: err}
}
