package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type allowAll struct{}

func (allowAll) Allowed(context.Context, string) bool { return true }

type denyAll struct{}

func (denyAll) Allowed(context.Context, string) bool { return false }

func newTestFetcher(robots RobotsPolicy) *CollyFetcher {
	return NewCollyFetcher(FetcherConfig{
		UserAgent:   "test-agent/1.0",
		Timeout:     5 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Second,
	}, robots, NewHostLimiter(time.Second), zap.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := newTestFetcher(allowAll{})
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Contains(t, string(page.Body), "hello")
}

func TestFetchRetriesTransientStatusThenSucceeds(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := newTestFetcher(allowAll{})
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
	require.Contains(t, string(page.Body), "recovered")
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(allowAll{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 3, fetchErr.Attempts)
	require.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	require.Equal(t, int32(3), hits.Load())
}

func TestFetchNonRetryableStatusStopsEarly(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(allowAll{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, int32(1), hits.Load())

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 1, fetchErr.Attempts)
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestFetchCancellationDuringSlowResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			_, _ = w.Write([]byte("too late"))
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	f := newTestFetcher(allowAll{})
	_, err := f.Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchCustomRetryableStatuses(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewCollyFetcher(FetcherConfig{
		UserAgent:         "test-agent/1.0",
		MaxAttempts:       2,
		RetryDelay:        time.Second,
		RetryableStatuses: []int{http.StatusNotFound},
	}, allowAll{}, NewHostLimiter(time.Second), zap.NewNop())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestFetchBlockedByRobotsBeforeAnyRequest(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	f := newTestFetcher(denyAll{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrPolicyBlocked)
	require.Equal(t, int32(0), hits.Load())
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	f := newTestFetcher(allowAll{})
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded) || errors.As(err, new(*FetchError)))
}
