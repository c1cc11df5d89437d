// Command mtad is the reference MTA peer: a daemon that advertises
// over BLE and waits to receive a transfer, or a one-shot sender that
// discovers a receiver and offers one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mta-alliance/mtad/internal/logger"
	"github.com/mta-alliance/mtad/pkg/config"
	"github.com/mta-alliance/mtad/pkg/health"
	"github.com/mta-alliance/mtad/pkg/mta/bundle"
	mtacrypto "github.com/mta-alliance/mtad/pkg/mta/crypto"
	"github.com/mta-alliance/mtad/pkg/mta/discovery"
	"github.com/mta-alliance/mtad/pkg/mta/model"
	"github.com/mta-alliance/mtad/pkg/mta/session"
	"github.com/mta-alliance/mtad/pkg/mta/transport"
)

const (
	appName    = "mtad"
	appVersion = "1.0.0"
)

var (
	configPath = flag.String("config", "configs/mtad.yaml", "Path to configuration file")
	sendFiles  = flag.String("send", "", "comma-separated list of files to send (switches to sender mode)")
	sendText   = flag.String("text", "", "share a clipboard-style text snippet instead of files")
	stubBLE    = flag.Bool("stub-ble", false, "use the in-memory BLE stub instead of a real adapter (manual testing)")
	version    = flag.Bool("version", false, "print version and exit")
)

// Application wires mtad's components together, in the shape the
// teacher's own Application struct does for its components.
type Application struct {
	config  *config.Manager
	logger  *logger.Logger
	crypto  mtacrypto.Provider
	health  *health.Monitor
	wifi    transport.WiFiP2PProvider
	central discovery.CentralAdapter
	periph  discovery.PeripheralAdapter
}

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", appName, appVersion)
		os.Exit(0)
	}

	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mtad: failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if *sendFiles != "" || *sendText != "" {
		if err := app.RunSender(ctx, *sendFiles, *sendText); err != nil {
			app.logger.Error("send failed", err)
			os.Exit(1)
		}
		return
	}

	if err := app.RunReceiver(ctx); err != nil {
		app.logger.Error("receive failed", err)
		os.Exit(1)
	}
}

// NewApplication loads configuration, builds the logger and crypto
// provider, and starts the health monitor.
func NewApplication(configPath string) (*Application, error) {
	mgr, err := config.NewManager(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Get()

	log, err := logger.New(logger.Config{
		Path:       cfg.Storage.Logs.Path,
		Level:      cfg.Storage.Logs.Level,
		Format:     cfg.Storage.Logs.Format,
		MaxSizeMB:  cfg.Storage.Logs.MaxSizeMB,
		MaxBackups: cfg.Storage.Logs.MaxBackups,
		MaxAgeDays: cfg.Storage.Logs.MaxAgeDays,
		Compress:   cfg.Storage.Logs.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("mtad starting", "version", appVersion, "device", cfg.Device.Name)

	mode := mtacrypto.AES128
	if cfg.Crypto.Mode == "aes256" {
		mode = mtacrypto.AES256
	}
	provider, err := mtacrypto.NewProvider(mode)
	if err != nil {
		return nil, fmt.Errorf("init crypto provider: %w", err)
	}

	monitor := health.NewMonitor()
	if cfg.Health.Enabled {
		if err := monitor.Start(cfg.Health.Addr); err != nil {
			return nil, fmt.Errorf("start health monitor: %w", err)
		}
		log.Info("health endpoint listening", "addr", cfg.Health.Addr)
	}

	var central discovery.CentralAdapter
	var periph discovery.PeripheralAdapter
	if *stubBLE {
		central = discovery.NewStubCentralAdapter()
		periph = discovery.NewStubPeripheralAdapter()
	} else {
		ble := discovery.NewBLEAdapter()
		central, periph = ble, ble
	}

	return &Application{
		config:  mgr,
		logger:  log,
		crypto:  provider,
		health:  monitor,
		wifi:    transport.NewStubWiFiP2PProvider(""),
		central: central,
		periph:  periph,
	}, nil
}

// RunReceiver advertises over BLE, waits for a sender's credential
// write, joins the resulting Wi-Fi group, and drives one transfer to
// completion.
func (a *Application) RunReceiver(ctx context.Context) error {
	cfg := a.config.Get()

	gatt := transport.NewReceiverGATTServer(a.periph, a.crypto, a.wifi.MACAddress())
	if err := gatt.Start(cfg.Device.Name); err != nil {
		return fmt.Errorf("start GATT server: %w", err)
	}
	defer gatt.Stop()

	a.logger.Info("advertising, waiting for sender", "device", cfg.Device.Name)

	select {
	case creds := <-gatt.Received:
		return a.completeReceive(ctx, cfg, creds)
	case err := <-gatt.Errors:
		return fmt.Errorf("credential exchange: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Application) completeReceive(ctx context.Context, cfg config.Config, creds transport.ReceiverCredentials) error {
	group, err := a.wifi.ConnectToGroup(creds.P2pInfo.SSID, creds.P2pInfo.PSK)
	if err != nil {
		return fmt.Errorf("join wifi group: %w", err)
	}
	a.logger.Info("joined transfer network", "ssid", creds.P2pInfo.SSID)

	host := creds.P2pInfo.MAC
	if group.GroupOwnerAddr != "" {
		host = group.GroupOwnerAddr
	}

	receiver := transport.NewReceiver(transport.ReceiverConfig{
		DeviceName: cfg.Device.Name,
		MAC:        a.wifi.MACAddress(),
		OutputDir:  cfg.Storage.DownloadDir,
	}, a.crypto, host, creds.P2pInfo.Port)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := receiver.Connect(dialCtx, host, creds.P2pInfo.Port); err != nil {
		return fmt.Errorf("connect control channel: %w", err)
	}
	defer receiver.Close()
	a.logger.Info("control channel connected", "trace_id", receiver.TraceID())

	for event := range receiver.Events {
		switch e := event.(type) {
		case session.SendRequestReceived:
			a.logger.Info("offer received", "from", e.Request.SenderName, "files", e.Request.FileCount)
			files, err := receiver.Accept(ctx)
			if err != nil {
				return fmt.Errorf("accept transfer: %w", err)
			}
			a.health.RecordSessionCompleted()
			for _, f := range files {
				a.logger.Info("saved file", "path", f.Path)
				a.health.RecordBytesTransferred(f.Size)
			}
			return nil
		case session.TextReceived:
			a.logger.Info("text share received", "text", e.Text)
			if err := receiver.AcceptText(); err != nil {
				return fmt.Errorf("accept text share: %w", err)
			}
			a.health.RecordSessionCompleted()
			return nil
		case session.ReceiverProtocolError:
			a.health.RecordSessionFailed()
			return fmt.Errorf("protocol error: %s", e.Message)
		}
	}
	return fmt.Errorf("connection closed before transfer completed")
}

// RunSender scans for a receiver, performs the BLE credential
// handshake, stands up the HTTPS bundle server, and waits for the
// transfer to finish.
func (a *Application) RunSender(ctx context.Context, filesArg, text string) error {
	cfg := a.config.Get()
	a.health.RecordSessionStarted()

	device, err := a.discoverReceiver(ctx)
	if err != nil {
		a.health.RecordSessionFailed()
		return err
	}
	a.logger.Info("discovered receiver", "address", device.Address, "name", device.Name)

	ssid, err := transport.GenerateSSID()
	if err != nil {
		return err
	}
	psk, err := transport.GeneratePSK()
	if err != nil {
		return err
	}
	group, err := a.wifi.CreateGroup(ssid, psk)
	if err != nil {
		return fmt.Errorf("create wifi group: %w", err)
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Transport.HTTPPortRange[0])
	cert, err := transport.GenerateSelfSignedCert(cfg.Device.Name)
	if err != nil {
		return fmt.Errorf("generate tls cert: %w", err)
	}

	files, items, err := buildOffer(filesArg, text)
	if err != nil {
		return err
	}

	sender, err := transport.NewSender(transport.SenderConfig{
		DeviceName: cfg.Device.Name,
		Addr:       addr,
		TLSCert:    cert,
	}, files, items)
	if err != nil {
		return fmt.Errorf("build sender: %w", err)
	}
	if err := sender.Start(); err != nil {
		return fmt.Errorf("start sender server: %w", err)
	}
	defer sender.Stop(context.Background())
	a.logger.Info("sender listening", "addr", addr, "trace_id", sender.TraceID())

	gattTimeout := cfg.Discovery.GATTTimeout.Duration
	if gattTimeout <= 0 {
		gattTimeout = 10 * time.Second
	}
	gattCtx, gattCancel := context.WithTimeout(ctx, gattTimeout)
	handshakeResult, err := transport.PerformSenderHandshake(gattCtx, a.central, a.crypto, device.Address, model.P2pInfo{
		SSID: ssid,
		PSK:  psk,
		MAC:  a.wifi.MACAddress(),
		Port: cfg.Transport.HTTPPortRange[0],
	})
	gattCancel()
	if err != nil {
		a.health.RecordSessionFailed()
		return fmt.Errorf("credential handshake: %w", err)
	}
	a.logger.Info("credential handshake complete", "peer_mac", handshakeResult.PeerMAC, "group_owner", group.IsGroupOwner)

	return a.waitForTransfer(ctx, sender)
}

func (a *Application) waitForTransfer(ctx context.Context, sender *transport.Sender) error {
	for {
		select {
		case event, ok := <-sender.Events:
			if !ok {
				return fmt.Errorf("control channel closed before transfer completed")
			}
			switch e := event.(type) {
			case session.TransferCompleted:
				a.logger.Info("transfer completed", "task_id", e.TaskID)
				a.health.RecordSessionCompleted()
				return nil
			case session.TransferRejected:
				a.health.RecordSessionFailed()
				return fmt.Errorf("receiver declined: %s", e.Reason)
			case session.SenderProtocolError:
				a.health.RecordSessionFailed()
				return fmt.Errorf("protocol error: %s", e.Message)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *Application) discoverReceiver(ctx context.Context) (discovery.DiscoveredDevice, error) {
	if err := a.central.Enable(); err != nil {
		return discovery.DiscoveredDevice{}, fmt.Errorf("enable BLE: %w", err)
	}

	scanTimeout := a.config.Get().Discovery.ScanTimeout.Duration
	if scanTimeout <= 0 {
		scanTimeout = 30 * time.Second
	}
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	found := make(chan discovery.DiscoveredDevice, 1)
	go func() {
		_ = a.central.Scan(scanCtx, func(d discovery.DiscoveredDevice) {
			select {
			case found <- d:
			default:
			}
		})
	}()

	select {
	case d := <-found:
		_ = a.central.StopScan()
		return d, nil
	case <-scanCtx.Done():
		return discovery.DiscoveredDevice{}, fmt.Errorf("no receiver found within scan timeout")
	}
}

// buildOffer turns the -send/-text CLI flags into the FileSpec/Item
// pairs a Sender needs.
func buildOffer(filesArg, text string) ([]session.FileSpec, []bundle.Item, error) {
	if text != "" {
		return []session.FileSpec{session.NewTextFileSpec("clipboard.txt", text)},
			[]bundle.Item{{DisplayName: "clipboard.txt", Text: text}}, nil
	}

	var specs []session.FileSpec
	var items []bundle.Item
	for _, path := range strings.Split(filesArg, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", path, err)
		}
		name := filepath.Base(path)
		specs = append(specs, session.NewFileSpec(name, info.Size(), ""))
		items = append(items, bundle.Item{DisplayName: name, Path: path})
	}
	if len(specs) == 0 {
		return nil, nil, fmt.Errorf("no files to send")
	}
	return specs, items, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
