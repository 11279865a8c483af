package apperr

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/go-errors/errors"
)

type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindTransport     Kind = "TRANSPORT"
	KindAuthorization Kind = "AUTHORIZATION"
	KindPartialBatch  Kind = "PARTIAL_BATCH"
	KindAggregate     Kind = "AGGREGATE"
)

// Error is the single error type surfaced by the platform client and the controllers.
// Message is always safe to show to the user.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StackTrace() []byte {
	return e.Stack
}

func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func Validation(message string) *Error {
	return New(KindValidation, message, nil)
}

func Transport(status int, message string, err error) *Error {
	e := New(KindTransport, message, err)
	e.Status = status
	return e
}

func Authorization(status int, message string) *Error {
	e := New(KindAuthorization, message, nil)
	e.Status = status
	return e
}

func PartialBatch(message string, err error) *Error {
	return New(KindPartialBatch, message, err)
}

func Aggregate(message string) *Error {
	return New(KindAggregate, message, nil)
}

// FromStatus maps a non-2xx response to the matching kind. 401 and 403 are never transport errors.
func FromStatus(status int, detail string) *Error {
	if detail == "" {
		detail = http.StatusText(status)
	}
	if detail == "" {
		detail = fmt.Sprintf("unexpected status %d", status)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return Authorization(status, detail)
	}
	return Transport(status, detail, nil)
}

// KindOf returns the kind of the first *Error in the chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func IsAuthorization(err error) bool {
	return IsKind(err, KindAuthorization)
}

// UserMessage returns the message to render inline for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
