// Package health exposes the daemon's liveness endpoint and a handful
// of plain-text transfer counters, in the teacher's watchdog/status
// shape but without its restart-on-failure or Prometheus ambitions —
// MTA has no supervisor to signal and no observability stack (Non-goal).
package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Status is a point-in-time snapshot of the daemon's health.
type Status struct {
	Healthy           bool
	StartedAt         time.Time
	UptimeSeconds     int64
	SessionsStarted   int64
	SessionsCompleted int64
	SessionsFailed    int64
	BytesTransferred  int64
}

// Monitor tracks transfer counters and serves them over HTTP.
type Monitor struct {
	startedAt time.Time

	sessionsStarted   atomic.Int64
	sessionsCompleted atomic.Int64
	sessionsFailed    atomic.Int64
	bytesTransferred  atomic.Int64

	mu      sync.RWMutex
	healthy bool

	server *http.Server
}

// NewMonitor constructs a Monitor, initially healthy.
func NewMonitor() *Monitor {
	return &Monitor{startedAt: time.Now(), healthy: true}
}

func (m *Monitor) RecordSessionStarted()   { m.sessionsStarted.Add(1) }
func (m *Monitor) RecordSessionCompleted() { m.sessionsCompleted.Add(1) }
func (m *Monitor) RecordSessionFailed()    { m.sessionsFailed.Add(1) }
func (m *Monitor) RecordBytesTransferred(n int64) {
	m.bytesTransferred.Add(n)
}

// SetHealthy flips the liveness flag /healthz reports.
func (m *Monitor) SetHealthy(healthy bool) {
	m.mu.Lock()
	m.healthy = healthy
	m.mu.Unlock()
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	healthy := m.healthy
	m.mu.RUnlock()

	return Status{
		Healthy:           healthy,
		StartedAt:         m.startedAt,
		UptimeSeconds:     int64(time.Since(m.startedAt).Seconds()),
		SessionsStarted:   m.sessionsStarted.Load(),
		SessionsCompleted: m.sessionsCompleted.Load(),
		SessionsFailed:    m.sessionsFailed.Load(),
		BytesTransferred:  m.bytesTransferred.Load(),
	}
}

// Start serves /healthz and /metrics on addr.
func (m *Monitor) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", m.handleHealthz)
	mux.HandleFunc("/metrics", m.handleMetrics)

	m.server = &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("health: listen on %s: %w", addr, err)
	}
	go func() {
		_ = m.server.Serve(ln)
	}()
	return nil
}

func (m *Monitor) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := m.Status()
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "unhealthy")
		return
	}
	fmt.Fprintln(w, "ok")
}

// handleMetrics writes plain key/value counters, not a
// Prometheus-formatted exposition (no observability stack, Non-goal).
func (m *Monitor) handleMetrics(w http.ResponseWriter, r *http.Request) {
	status := m.Status()
	fmt.Fprintf(w, "uptime_seconds %d\n", status.UptimeSeconds)
	fmt.Fprintf(w, "sessions_started %d\n", status.SessionsStarted)
	fmt.Fprintf(w, "sessions_completed %d\n", status.SessionsCompleted)
	fmt.Fprintf(w, "sessions_failed %d\n", status.SessionsFailed)
	fmt.Fprintf(w, "bytes_transferred %d\n", status.BytesTransferred)
}

func (m *Monitor) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
