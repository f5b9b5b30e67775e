package httpx

import (
	"context"
	"errors"
	"testing"
	"time"
)

type statusErr int

func (s statusErr) Error() string       { return "status" }
func (s statusErr) HTTPStatusCode() int { return int(s) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{statusErr(429), true},
		{statusErr(503), true},
		{statusErr(400), false},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("IsRetryableError(%v): want=%v got=%v", tc.err, tc.want, got)
		}
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	p := RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}
	err := Retry(context.Background(), nil, "test", p, func(context.Context) error {
		calls++
		if calls < 3 {
			return statusErr(503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: unexpected error %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	p := RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond}
	err := Retry(context.Background(), nil, "test", p, func(context.Context) error {
		calls++
		return statusErr(400)
	})
	if err == nil || calls != 1 {
		t.Fatalf("permanent error: want 1 call and error, got calls=%d err=%v", calls, err)
	}
}

func TestRetryExhausts(t *testing.T) {
	calls := 0
	p := RetryPolicy{MaxRetries: 2, Backoff: time.Millisecond}
	err := Retry(context.Background(), nil, "test", p, func(context.Context) error {
		calls++
		return statusErr(500)
	})
	if err == nil || calls != 3 {
		t.Fatalf("exhausted: want 3 calls and error, got calls=%d err=%v", calls, err)
	}
}

func TestJitterSleepBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := JitterSleep(time.Second)
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("JitterSleep out of range: %s", d)
		}
	}
}
