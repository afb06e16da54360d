package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// ErrEmptyResponse is wrapped by a ModelError when the model returns no text.
var ErrEmptyResponse = errors.New("model returned no text content")

// ErrorKind classifies a failed model call.
type ErrorKind string

const (
	// KindAuth indicates the credential was rejected.
	KindAuth ErrorKind = "auth"
	// KindRateLimit indicates the API refused the call due to rate limiting.
	KindRateLimit ErrorKind = "rate_limit"
	// KindNetwork indicates the request never produced an API response.
	KindNetwork ErrorKind = "network"
	// KindTimeout indicates the per-call timeout expired.
	KindTimeout ErrorKind = "timeout"
	// KindCancelled indicates the caller's context was cancelled.
	KindCancelled ErrorKind = "cancelled"
	// KindMalformed indicates a response that carried no usable text.
	KindMalformed ErrorKind = "malformed"
	// KindAPI covers every other error status returned by the API.
	KindAPI ErrorKind = "api"
)

// ModelError is the failure of a single model invocation.
type ModelError struct {
	Role       models.Role
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ModelError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s call failed (%s, status %d): %v", e.Role, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed (%s): %v", e.Role, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// IsModelError reports whether err is or wraps a ModelError.
func IsModelError(err error) bool {
	var me *ModelError
	return errors.As(err, &me)
}

// classifyError wraps an SDK or transport error in a ModelError.
func classifyError(role models.Role, err error) *ModelError {
	me := &ModelError{Role: role, Kind: KindAPI, Err: err}

	var apiErr *anthropic.Error
	switch {
	case errors.As(err, &apiErr):
		me.StatusCode = apiErr.StatusCode
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			me.Kind = KindAuth
		case http.StatusTooManyRequests:
			me.Kind = KindRateLimit
		default:
			me.Kind = KindAPI
		}
	case errors.Is(err, context.Canceled):
		me.Kind = KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		me.Kind = KindTimeout
	case errors.Is(err, ErrEmptyResponse):
		me.Kind = KindMalformed
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			if netErr.Timeout() {
				me.Kind = KindTimeout
			} else {
				me.Kind = KindNetwork
			}
		}
	}

	return me
}
