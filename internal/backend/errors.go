package backend

import (
	"errors"
	"fmt"
)

// UnreachableError is the single failure kind of a backend call. It covers
// connection errors, DNS failures, timeouts, non-2xx statuses and bodies that
// are not JSON.
type UnreachableError struct {
	Method string
	URL    string
	Err    error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend unreachable: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// Detail is the human readable cause, without the method/URL prefix.
func (e *UnreachableError) Detail() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// IsUnreachable reports whether err is, or wraps, an UnreachableError.
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// StatusError is raised for any backend response outside 2xx.
type StatusError struct {
	StatusCode int
	Reason     string
	URL        string
}

func (e *StatusError) Error() string {
	kind := "Server"
	if e.StatusCode < 500 {
		kind = "Client"
	}
	return fmt.Sprintf("%d %s Error: %s for url: %s", e.StatusCode, kind, e.Reason, e.URL)
}
