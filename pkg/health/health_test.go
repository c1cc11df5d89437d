package health

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestMonitorHealthzReflectsHealthyFlag(t *testing.T) {
	addr := freeAddr(t)
	m := NewMonitor()
	require.NoError(t, m.Start(addr))
	defer m.Stop(context.Background())

	waitUp(t, addr)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	m.SetHealthy(false)
	resp2, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}

func TestMonitorMetricsReportsCounters(t *testing.T) {
	addr := freeAddr(t)
	m := NewMonitor()
	require.NoError(t, m.Start(addr))
	defer m.Stop(context.Background())

	waitUp(t, addr)

	m.RecordSessionStarted()
	m.RecordSessionCompleted()
	m.RecordBytesTransferred(4096)

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.Contains(t, text, "sessions_started 1")
	require.Contains(t, text, "sessions_completed 1")
	require.Contains(t, text, "bytes_transferred 4096")
}

func waitUp(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server at %s never came up", addr)
}
