package providers

import (
	"context"
	"errors"
	"fmt"
)

// Backend is one generation endpoint. Implementations return the raw model
// text or a *GenerationError; trimming and timeouts belong to Client.
type Backend interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options are the bounded sampling parameters sent with every call.
type Options struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindRateLimited ErrorKind = "rate_limited"
	KindEmpty       ErrorKind = "empty_response"
	KindMalformed   ErrorKind = "malformed_response"
	KindDisabled    ErrorKind = "backend_disabled"
)

var (
	ErrTransport         = errors.New("backend transport failure")
	ErrRateLimited       = errors.New("backend rate limited")
	ErrEmptyResponse     = errors.New("backend returned empty response")
	ErrMalformedResponse = errors.New("backend returned malformed response")
	ErrBackendDisabled   = errors.New("generation backend disabled")
)

var kindSentinels = map[ErrorKind]error{
	KindTransport:   ErrTransport,
	KindRateLimited: ErrRateLimited,
	KindEmpty:       ErrEmptyResponse,
	KindMalformed:   ErrMalformedResponse,
	KindDisabled:    ErrBackendDisabled,
}

// GenerationError is the classified failure of a backend call.
// errors.Is matches it against the sentinel for its Kind.
type GenerationError struct {
	Kind       ErrorKind
	Backend    string
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("%s backend: %s", e.Backend, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newError(kind ErrorKind, backend string, status int, err error) *GenerationError {
	return &GenerationError{Kind: kind, Backend: backend, StatusCode: status, Err: err}
}

// statusError maps an HTTP status from a backend to a kind.
func statusError(backend string, status int, err error) *GenerationError {
	if status == 429 {
		return newError(KindRateLimited, backend, status, err)
	}
	return newError(KindTransport, backend, status, err)
}

// KindOf classifies any error returned by a backend. Unclassified errors,
// deadlines included, count as transport failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindTransport
}
