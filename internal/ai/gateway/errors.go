package gateway

import (
	"errors"
	"fmt"

	"github.com/yungbote/edubot-backend/internal/platform/httpx"
)

// ErrTransport matches every *Error: the model could not produce usable text.
var ErrTransport = errors.New("ai transport failure")

type Kind int

const (
	// KindTransport covers network failures, timeouts and retryable statuses.
	KindTransport Kind = iota
	// KindProvider is a permanent rejection such as a bad request or auth failure.
	KindProvider
	// KindEmpty is a successful call that returned no text.
	KindEmpty
)

func (k Kind) String() string {
	switch k {
	case KindProvider:
		return "provider_error"
	case KindEmpty:
		return "empty"
	default:
		return "transport_error"
	}
}

type Error struct {
	Kind     Kind
	Provider string
	UseCase  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ai %s (%s/%s)", e.Kind, e.Provider, e.UseCase)
	}
	return fmt.Sprintf("ai %s (%s/%s): %v", e.Kind, e.Provider, e.UseCase, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrTransport }

// classify treats non-retryable HTTP statuses as provider rejections and
// everything else as transport.
func classify(err error) Kind {
	var sc httpx.StatusCoder
	if errors.As(err, &sc) && !httpx.IsRetryableHTTPStatus(sc.HTTPStatusCode()) {
		return KindProvider
	}
	return KindTransport
}
