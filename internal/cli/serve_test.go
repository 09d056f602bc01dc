package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/parsetrail/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_GracefulShutdown(t *testing.T) {
	app := newTestApp(t, config.Default())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, app, ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Post(base+"/sessions/s1/parse", "application/json",
		strings.NewReader(`{"sentence": "the cat", "grammar": "np --> det,n", "algorithm": "top-down"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "parsetrail_parse_requests_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_MetricsDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Metrics = false
	app := newTestApp(t, cfg)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Serve(ctx, app, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunServe_BadAddress(t *testing.T) {
	app := newTestApp(t, config.Default())
	err := RunServe(context.Background(), app, "not-an-address")
	assert.Error(t, err)
}

func TestRunMCP_UnknownTransport(t *testing.T) {
	app := newTestApp(t, config.Default())
	err := RunMCP(context.Background(), app, "carrier-pigeon", 0)
	assert.ErrorContains(t, err, "carrier-pigeon")
}
