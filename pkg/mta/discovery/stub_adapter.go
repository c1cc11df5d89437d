package discovery

import (
	"context"
	"sync"

	"github.com/mta-alliance/mtad/pkg/mta/model"
)

// StubCentralAdapter is an in-memory CentralAdapter for tests: it
// reports a fixed list of devices and hands out StubConnections backed
// by caller-supplied response values.
type StubCentralAdapter struct {
	Devices     []DiscoveredDevice
	Connections map[string]*StubConnection // keyed by DiscoveredDevice.Address

	EnableErr error
	ConnectErr error
}

func NewStubCentralAdapter() *StubCentralAdapter {
	return &StubCentralAdapter{Connections: make(map[string]*StubConnection)}
}

func (s *StubCentralAdapter) Enable() error { return s.EnableErr }

func (s *StubCentralAdapter) Scan(ctx context.Context, onFound func(DiscoveredDevice)) error {
	for _, d := range s.Devices {
		select {
		case <-ctx.Done():
			return nil
		default:
			onFound(d)
		}
	}
	return nil
}

func (s *StubCentralAdapter) StopScan() error { return nil }

func (s *StubCentralAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	if s.ConnectErr != nil {
		return nil, s.ConnectErr
	}
	conn, ok := s.Connections[address]
	if !ok {
		conn = NewStubConnection(model.DeviceInfo{})
		s.Connections[address] = conn
	}
	return conn, nil
}

var _ CentralAdapter = (*StubCentralAdapter)(nil)

// StubConnection is an in-memory Connection for tests.
type StubConnection struct {
	mu sync.Mutex

	deviceInfo    model.DeviceInfo
	WrittenP2P    []model.P2pInfo
	Disconnected  bool
	ReadErr       error
	WriteErr      error
}

func NewStubConnection(info model.DeviceInfo) *StubConnection {
	return &StubConnection{deviceInfo: info}
}

func (c *StubConnection) ReadDeviceInfo() (model.DeviceInfo, error) {
	if c.ReadErr != nil {
		return model.DeviceInfo{}, c.ReadErr
	}
	return c.deviceInfo, nil
}

func (c *StubConnection) WriteP2PInfo(info model.P2pInfo) error {
	if c.WriteErr != nil {
		return c.WriteErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.WrittenP2P = append(c.WrittenP2P, info)
	return nil
}

func (c *StubConnection) Disconnect() error {
	c.Disconnected = true
	return nil
}

var _ Connection = (*StubConnection)(nil)

// StubPeripheralAdapter is an in-memory PeripheralAdapter for tests.
type StubPeripheralAdapter struct {
	mu sync.Mutex

	Advertising bool
	DeviceName  string
	callbacks   GATTCallbacks

	EnableErr error
}

func NewStubPeripheralAdapter() *StubPeripheralAdapter {
	return &StubPeripheralAdapter{}
}

func (s *StubPeripheralAdapter) Enable() error { return s.EnableErr }

func (s *StubPeripheralAdapter) StartAdvertising(deviceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Advertising = true
	s.DeviceName = deviceName
	return nil
}

func (s *StubPeripheralAdapter) StopAdvertising() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Advertising = false
	return nil
}

func (s *StubPeripheralAdapter) StartGATTServer(callbacks GATTCallbacks) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = callbacks
	return nil
}

func (s *StubPeripheralAdapter) StopGATTServer() error { return nil }

// SimulateWrite delivers raw bytes to the registered P2P write callback,
// as if a central had written the characteristic.
func (s *StubPeripheralAdapter) SimulateWrite(raw []byte) {
	s.mu.Lock()
	cb := s.callbacks.OnWriteP2P
	s.mu.Unlock()
	if cb != nil {
		cb(stripWritePreamble(raw))
	}
}

// CurrentStatus invokes the registered read-status callback, as if a
// central had read the characteristic.
func (s *StubPeripheralAdapter) CurrentStatus() model.DeviceInfo {
	s.mu.Lock()
	cb := s.callbacks.OnReadStatus
	s.mu.Unlock()
	if cb == nil {
		return model.DeviceInfo{}
	}
	return cb()
}

var _ PeripheralAdapter = (*StubPeripheralAdapter)(nil)
