package remote

import (
	"errors"
	"fmt"
	"net/http"
)

type Reason string

const (
	ReasonNotFound     Reason = "not-found"
	ReasonValidation   Reason = "validation"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonNetwork      Reason = "network"

	// ReasonInvalidResponse marks a 2xx answer whose body could not be
	// read. The store applied the change, so it must not be retried.
	ReasonInvalidResponse Reason = "invalid-response"
)

var (
	ErrNotFound     = errors.New("task not found")
	ErrValidation   = errors.New("task rejected by validation")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("remote store unreachable")

	ErrInvalidResponse = errors.New("unreadable response from remote store")
)

// Error is returned by every TaskStore call that does not succeed.
type Error struct {
	Reason  Reason
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return string(e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel of the reason.
func (e *Error) Is(target error) bool {
	switch e.Reason {
	case ReasonNotFound:
		return target == ErrNotFound
	case ReasonValidation:
		return target == ErrValidation
	case ReasonUnauthorized:
		return target == ErrUnauthorized
	case ReasonNetwork:
		return target == ErrNetwork
	case ReasonInvalidResponse:
		return target == ErrInvalidResponse
	}
	return false
}

// ReasonOf extracts the reason of err. Errors that did not come from the
// remote store are treated as network failures.
func ReasonOf(err error) Reason {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Reason
	}
	return ReasonNetwork
}

func IsNetwork(err error) bool {
	return err != nil && ReasonOf(err) == ReasonNetwork
}

// reasonForStatus maps a response status. 5xx, 408 and 429 mean the store
// could not serve the request right now, so they are transient like a
// dropped connection.
func reasonForStatus(status int) Reason {
	switch {
	case status == http.StatusNotFound:
		return ReasonNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonUnauthorized
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
		return ReasonNetwork
	default:
		return ReasonValidation
	}
}
