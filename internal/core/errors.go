package core

import (
	"errors"
	"fmt"

	"github.com/edvin/fedreg/internal/graph"
)

var (
	ErrInvalid           = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrDeleteBlocked     = errors.New("delete blocked")
	ErrCorrupted         = errors.New("corrupted database")
)

// Error is a failure with a message meant for API clients. Kind is one of the
// sentinel errors above and is matched with errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func notFound(kind, uid string) error {
	return newError(ErrNotFound, "%s '%s' not found", kind, uid)
}

func alreadyRegistered(kind, field, value string) error {
	return newError(ErrConflict, "%s with %s '%s' already registered", kind, field, value)
}

// storeError converts graph level failures into API errors.
func storeError(err error) error {
	var ce *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ce):
		return err
	case errors.Is(err, graph.ErrCorrupted):
		return &Error{Kind: ErrCorrupted, Msg: err.Error()}
	}
	return err
}
