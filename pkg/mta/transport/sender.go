package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mta-alliance/mtad/pkg/mta/bundle"
	"github.com/mta-alliance/mtad/pkg/mta/session"
	"github.com/mta-alliance/mtad/pkg/mta/wire"
)

// SenderConfig configures a Sender's HTTPS server.
type SenderConfig struct {
	DeviceName string
	SenderID   string
	Addr       string // host:port to listen on
	TLSCert    tls.Certificate
}

// Sender serves the control WebSocket and the bundle download for one
// offered transfer. A Sender handles exactly one peer connection at a
// time, matching the receiver-initiated, one-session-per-BLE-handshake
// model of §4.5.
type Sender struct {
	cfg      SenderConfig
	protocol *session.SenderProtocol
	items    []bundle.Item

	// traceID has no role in the wire protocol; it only correlates this
	// offer's log lines across the handshake, control channel, and
	// bundle download, since the mandated taskId/senderId formats
	// (6-digit / 4-hex) are too narrow to double as log-correlation keys.
	traceID string

	server *http.Server

	mu  sync.Mutex
	drv *driver

	Events chan session.SenderEvent
}

// NewSender builds a Sender offering the given files (or text share).
func NewSender(cfg SenderConfig, files []session.FileSpec, items []bundle.Item) (*Sender, error) {
	protocol, err := session.NewSenderProtocol(cfg.DeviceName, cfg.SenderID)
	if err != nil {
		return nil, err
	}
	protocol.SetFiles(files)

	return &Sender{
		cfg:      cfg,
		protocol: protocol,
		items:    items,
		traceID:  uuid.NewString(),
		Events:   make(chan session.SenderEvent, 16),
	}, nil
}

// TaskID returns the random task id generated for this offer.
func (s *Sender) TaskID() string { return s.protocol.TaskID }

// TraceID returns the log-correlation id for this offer.
func (s *Sender) TraceID() string { return s.traceID }

// Start serves the /websocket control channel and /download bundle
// endpoint over HTTPS, using cfg.TLSCert (typically a fresh self-signed
// certificate — the peer disables verification, per §4.5).
func (s *Sender) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.handleWebSocket)
	mux.HandleFunc("/download", s.handleDownload)

	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // bundle download can run long
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{s.cfg.TLSCert},
		},
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mta/transport: listen %s: %w", s.cfg.Addr, err)
	}

	go func() {
		tlsLn := tls.NewListener(ln, s.server.TLSConfig)
		_ = s.server.Serve(tlsLn)
	}()
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Sender) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.drv != nil {
		s.mu.Unlock()
		http.Error(w, "control channel already connected", http.StatusConflict)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.mu.Unlock()
		return
	}
	s.drv = newDriver(conn)
	drv := s.drv
	s.mu.Unlock()

	go func() {
		_ = drv.readLoop(s.onMessage)
		close(s.Events)
	}()

	handshake := s.protocol.StartHandshake()
	_ = drv.send(handshake)
}

func (s *Sender) onMessage(msg wire.Message) {
	for _, outcome := range s.protocol.OnMessage(msg) {
		if outcome.Outbound != nil {
			_ = s.drv.send(*outcome.Outbound)
		}
		if outcome.Event != nil {
			s.Events <- outcome.Event
		}
	}
}

func (s *Sender) handleDownload(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("taskId")
	if !s.protocol.CheckTaskID(taskID) {
		http.Error(w, "unknown task id", http.StatusNotFound)
		return
	}

	started := s.protocol.OnDownloadStarted()
	s.Events <- started

	w.Header().Set("Content-Type", "application/zip")
	if err := bundle.Build(w, s.items); err != nil {
		return
	}
}

// Stop shuts the HTTPS server down, waiting up to ctx's deadline for
// in-flight requests to finish.
func (s *Sender) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
