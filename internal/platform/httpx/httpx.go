package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

// StatusCoder is implemented by provider errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError reports whether err is worth another attempt. Caller
// cancellation is never retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		return IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return false
}

type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration
	// Retryable overrides IsRetryableError when set.
	Retryable func(error) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 4, Backoff: time.Second, MaxBackoff: 10 * time.Second}
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// policy is exhausted. The last error is returned unchanged.
func Retry(ctx context.Context, log *logger.Logger, op string, p RetryPolicy, fn func(ctx context.Context) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryableError
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			return err
		}
		sleepFor := backoff
		if p.MaxBackoff > 0 && sleepFor > p.MaxBackoff {
			sleepFor = p.MaxBackoff
		}
		sleepFor = JitterSleep(sleepFor)
		if log != nil {
			log.Warn("Request retrying",
				"op", op,
				"attempt", attempt+1,
				"max_retries", p.MaxRetries,
				"sleep", sleepFor.String(),
				"error", err.Error(),
			)
		}
		t := time.NewTimer(sleepFor)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		backoff *= 2
	}
}

// JitterSleep spreads base by +/-20%.
func JitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	if low < 0 {
		low = 0
	}
	v := low + rand.Float64()*(2*delta)
	return time.Duration(v * float64(time.Second))
}
