package populate

import (
	"errors"
	"fmt"
)

// Operation sentinels. Every RequestError unwraps to one of them.
var (
	ErrCreation          = errors.New("failed to create")
	ErrUpdate            = errors.New("failed to update")
	ErrFind              = errors.New("failed to search")
	ErrDelete            = errors.New("failed to delete")
	ErrConnection        = errors.New("failed to connect")
	ErrDisconnection     = errors.New("failed to disconnect")
	ErrDatabaseCorrupted = errors.New("database may be corrupted")
)

// RequestError is a registry call that failed, either in transport or with
// an unexpected status code.
type RequestError struct {
	Op         error
	Item       string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Item, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Item, e.StatusCode, e.Message)
}

func (e *RequestError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Op, e.Err}
	}
	return []error{e.Op}
}

func corrupted(item string, n int) error {
	return fmt.Errorf("%w: %d occurrences of %s when one expected", ErrDatabaseCorrupted, n, item)
}
