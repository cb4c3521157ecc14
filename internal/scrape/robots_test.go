package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRobotsPolicyEnforcesDisallow(t *testing.T) {
	t.Parallel()

	var robotsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		robotsHits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	policy := NewRobotsPolicy(true, "test-agent/1.0", zap.NewNop())
	ctx := context.Background()

	require.True(t, policy.Allowed(ctx, srv.URL+"/public/page"))
	require.False(t, policy.Allowed(ctx, srv.URL+"/private/page"))

	// Second lookup for the same host uses the cache.
	require.False(t, policy.Allowed(ctx, srv.URL+"/private/other"))
	require.Equal(t, int32(1), robotsHits.Load())
}

func TestRobotsPolicyFailsOpen(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	policy := NewRobotsPolicy(true, "test-agent/1.0", zap.NewNop())
	require.True(t, policy.Allowed(context.Background(), url+"/anything"))
}

func TestRobotsPolicyMissingFileAllows(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	policy := NewRobotsPolicy(true, "test-agent/1.0", zap.NewNop())
	require.True(t, policy.Allowed(context.Background(), srv.URL+"/anything"))
}

func TestRobotsPolicyDisabled(t *testing.T) {
	t.Parallel()

	policy := NewRobotsPolicy(false, "test-agent/1.0", zap.NewNop())
	require.True(t, policy.Allowed(context.Background(), "https://example.com/private"))
}
