package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mta-alliance/mtad/pkg/mta/bundle"
	"github.com/mta-alliance/mtad/pkg/mta/crypto"
	"github.com/mta-alliance/mtad/pkg/mta/session"
	"github.com/mta-alliance/mtad/pkg/mta/wire"
)

// ReceiverConfig configures a Receiver session.
type ReceiverConfig struct {
	DeviceName string
	MAC        string
	OutputDir  string
	// DialTimeout bounds the initial WebSocket dial.
	DialTimeout time.Duration
	// DownloadTimeout bounds the HTTPS bundle fetch.
	DownloadTimeout time.Duration
}

// Receiver drives one incoming transfer: the GATT credential exchange,
// the WebSocket control channel, and (unless it's a text share) the
// HTTPS bundle download.
type Receiver struct {
	cfg      ReceiverConfig
	provider crypto.Provider
	protocol *session.ReceiverProtocol
	drv      *driver

	// traceID correlates this session's log lines; it plays no part in
	// the wire protocol.
	traceID string

	Events chan session.ReceiverEvent
}

// NewReceiver constructs a Receiver bound to the sender's HTTPS server
// address, discovered during the BLE handshake's P2P credential
// exchange.
func NewReceiver(cfg ReceiverConfig, provider crypto.Provider, serverHost string, serverPort int) *Receiver {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	return &Receiver{
		cfg:      cfg,
		provider: provider,
		protocol: session.NewReceiverProtocol(serverHost, serverPort),
		traceID:  uuid.NewString(),
		Events:   make(chan session.ReceiverEvent, 16),
	}
}

// TraceID returns the log-correlation id for this session.
func (r *Receiver) TraceID() string { return r.traceID }

// Connect dials the sender's control WebSocket and starts the read
// loop in the background. It returns once the connection is
// established; inbound protocol events arrive on r.Events.
func (r *Receiver) Connect(ctx context.Context, host string, port int) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: r.cfg.DialTimeout,
		TLSClientConfig:  &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed peer cert, §4.5
	}

	url := fmt.Sprintf("wss://%s:%d/websocket", host, port)
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("mta/transport: dial %s: %w", url, err)
	}

	r.drv = newDriver(conn)
	go func() {
		_ = r.drv.readLoop(r.onMessage)
		close(r.Events)
	}()
	return nil
}

func (r *Receiver) onMessage(msg wire.Message) {
	for _, outcome := range r.protocol.OnMessage(msg) {
		if outcome.Outbound != nil {
			_ = r.drv.send(*outcome.Outbound)
		}
		if outcome.Event != nil {
			r.Events <- outcome.Event
		}
	}
}

// Accept accepts a pending SendRequestReceived offer: it downloads and
// extracts the bundle, then reports completion. It always downloads; a
// TextReceived offer is accepted with AcceptText instead.
func (r *Receiver) Accept(ctx context.Context) ([]bundle.ExtractedFile, error) {
	accepted, ok := r.protocol.AcceptTransfer()
	if !ok {
		return nil, fmt.Errorf("mta/transport: no pending transfer to accept")
	}

	files, err := r.downloadAndExtract(ctx, accepted.DownloadURL)
	if err != nil {
		return nil, err
	}

	okMsg := r.protocol.SendOK()
	if err := r.drv.send(okMsg); err != nil {
		return nil, err
	}
	return files, nil
}

// AcceptText accepts a pending text share: there is nothing to
// download, so it sends status:ok immediately.
func (r *Receiver) AcceptText() error {
	if _, ok := r.protocol.AcceptTransfer(); !ok {
		return fmt.Errorf("mta/transport: no pending transfer to accept")
	}
	return r.drv.send(r.protocol.SendOK())
}

// Reject declines a pending offer.
func (r *Receiver) Reject() error {
	return r.drv.send(r.protocol.RejectTransfer())
}

func (r *Receiver) downloadAndExtract(ctx context.Context, url string) ([]bundle.ExtractedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.DownloadTimeout)
	defer cancel()

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed peer cert, §4.5
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("mta/transport: build download request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mta/transport: download bundle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mta/transport: download bundle: status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		// Cancellation during download must discard partial output; no
		// partial file has been written to disk yet since Extract only
		// runs on a complete, in-memory payload.
		return nil, fmt.Errorf("mta/transport: read bundle body: %w", err)
	}

	extracted, err := bundle.Extract(data, r.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("mta/transport: extract bundle: %w", err)
	}
	return extracted, nil
}

// ThumbnailURL returns the thumbnail URL for the pending request, if any.
func (r *Receiver) ThumbnailURL() (string, bool) {
	return r.protocol.ThumbnailURL()
}

// State returns the underlying protocol's current state.
func (r *Receiver) State() session.ReceiverState {
	return r.protocol.State()
}

// Close tears down the WebSocket connection.
func (r *Receiver) Close() error {
	if r.drv == nil {
		return nil
	}
	return r.drv.close()
}
