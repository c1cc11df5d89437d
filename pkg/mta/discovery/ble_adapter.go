package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/mta-alliance/mtad/pkg/mta/model"
	"github.com/mta-alliance/mtad/pkg/mta/wire"
)

// BLEAdapter wraps tinygo.org/x/bluetooth's default adapter and plays
// both the central role (sender: scan + connect + handshake) and the
// peripheral role (receiver: advertise + GATT server), depending on
// which methods a caller drives.
type BLEAdapter struct {
	adapter *bluetooth.Adapter

	mu          sync.Mutex
	connections map[string]*bleConnection // keyed by device address string

	advertisement *bluetooth.Advertisement
	statusHandle  bluetooth.Characteristic
}

// NewBLEAdapter constructs an adapter bound to the host's default BLE
// radio.
func NewBLEAdapter() *BLEAdapter {
	return &BLEAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*bleConnection),
	}
}

func (a *BLEAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return fmt.Errorf("mta/discovery: enable adapter: %w", err)
	}
	return nil
}

// Scan reports every peer advertising the MTA service, decoded via the
// scan-response blob described in §4.1. The blob rides in the
// advertisement's manufacturer data since the GATT service-data field
// isn't exposed uniformly across tinygo's OS backends.
func (a *BLEAdapter) Scan(ctx context.Context, onFound func(DiscoveredDevice)) error {
	svcUUID, err := bluetooth.ParseUUID(wire.AdvServiceUUID)
	if err != nil {
		return fmt.Errorf("mta/discovery: parse service uuid: %w", err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			a.adapter.StopScan()
		case <-done:
		}
	}()
	defer close(done)

	var seenMu sync.Mutex
	seen := make(map[string]bool)

	err = a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if !result.HasServiceUUID(svcUUID) {
			return
		}

		addr := result.Address.String()
		seenMu.Lock()
		already := seen[addr]
		seen[addr] = true
		seenMu.Unlock()
		if already {
			return
		}

		resp := wire.ScanResponse{Name: result.LocalName(), Supports5GHz: true}
		for _, md := range result.ManufacturerData() {
			if len(md.Data) >= wire.AdvertisementBlobLen {
				resp = wire.DecodeAdvertisement(md.Data)
				break
			}
		}

		onFound(DiscoveredDevice{
			Address:      addr,
			Name:         resp.Name,
			RSSI:         int(result.RSSI),
			Supports5GHz: resp.Supports5GHz,
		})
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("mta/discovery: scan: %w", err)
	}
	return nil
}

func (a *BLEAdapter) StopScan() error {
	return a.adapter.StopScan()
}

func (a *BLEAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(address)

	type result struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- result{device, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("mta/discovery: connect to %s: %w", address, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("mta/discovery: connect to %s: %w", address, r.err)
		}
		conn := &bleConnection{device: &r.device}

		a.mu.Lock()
		a.connections[address] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

// StartAdvertising configures and starts advertising the MTA discovery
// service UUID with the given local name. The advertisement carries
// only those two fields: no 27-byte scan-response blob is published,
// as service data or as manufacturer data.
func (a *BLEAdapter) StartAdvertising(deviceName string) error {
	svcUUID, err := bluetooth.ParseUUID(wire.AdvServiceUUID)
	if err != nil {
		return fmt.Errorf("mta/discovery: parse service uuid: %w", err)
	}

	a.advertisement = a.adapter.DefaultAdvertisement()
	err = a.advertisement.Configure(bluetooth.AdvertisementOptions{
		LocalName:    deviceName,
		ServiceUUIDs: []bluetooth.UUID{svcUUID},
	})
	if err != nil {
		return fmt.Errorf("mta/discovery: configure advertisement: %w", err)
	}
	if err := a.advertisement.Start(); err != nil {
		return fmt.Errorf("mta/discovery: start advertisement: %w", err)
	}
	return nil
}

func (a *BLEAdapter) StopAdvertising() error {
	if a.advertisement == nil {
		return nil
	}
	return a.advertisement.Stop()
}

// StartGATTServer publishes the Status and P2P characteristics.
// TinyGo's characteristic model serves a static value rather than
// invoking a callback per read, so OnReadStatus seeds the initial
// value here; UpdateStatus pushes later changes (e.g. once a key pair
// exists) into the live handle.
func (a *BLEAdapter) StartGATTServer(callbacks GATTCallbacks) error {
	dataSvcUUID, err := bluetooth.ParseUUID(wire.DataServiceUUID)
	if err != nil {
		return fmt.Errorf("mta/discovery: parse data service uuid: %w", err)
	}
	statusUUID, err := bluetooth.ParseUUID(wire.CharStatusUUID)
	if err != nil {
		return fmt.Errorf("mta/discovery: parse status char uuid: %w", err)
	}
	p2pUUID, err := bluetooth.ParseUUID(wire.CharP2PUUID)
	if err != nil {
		return fmt.Errorf("mta/discovery: parse p2p char uuid: %w", err)
	}

	initial, err := json.Marshal(callbacks.OnReadStatus())
	if err != nil {
		return fmt.Errorf("mta/discovery: marshal initial status: %w", err)
	}

	err = a.adapter.AddService(&bluetooth.Service{
		UUID: dataSvcUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &a.statusHandle,
				UUID:   statusUUID,
				Value:  initial,
				Flags:  bluetooth.CharacteristicReadPermission,
			},
			{
				UUID:  p2pUUID,
				Flags: bluetooth.CharacteristicWritePermission,
				WriteEvent: func(client bluetooth.Connection, offset int, value []byte) {
					if callbacks.OnWriteP2P != nil {
						callbacks.OnWriteP2P(stripWritePreamble(value))
					}
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("mta/discovery: add service: %w", err)
	}
	return nil
}

// UpdateStatus pushes a new Status characteristic value to any
// subscribed or subsequently-reading central.
func (a *BLEAdapter) UpdateStatus(info model.DeviceInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("mta/discovery: marshal status: %w", err)
	}
	_, err = a.statusHandle.Write(data)
	if err != nil {
		return fmt.Errorf("mta/discovery: write status handle: %w", err)
	}
	return nil
}

func (a *BLEAdapter) StopGATTServer() error {
	return nil
}

var (
	_ CentralAdapter    = (*BLEAdapter)(nil)
	_ PeripheralAdapter = (*BLEAdapter)(nil)
)

type bleConnection struct {
	device *bluetooth.Device
}

func (c *bleConnection) discoverChar(serviceUUID, charUUID string) (*bluetooth.DeviceCharacteristic, error) {
	svcUUID, err := bluetooth.ParseUUID(serviceUUID)
	if err != nil {
		return nil, err
	}
	chUUID, err := bluetooth.ParseUUID(charUUID)
	if err != nil {
		return nil, err
	}

	svcs, err := c.device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil {
		return nil, fmt.Errorf("mta/discovery: discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("mta/discovery: service %s not found", serviceUUID)
	}

	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{chUUID})
	if err != nil {
		return nil, fmt.Errorf("mta/discovery: discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("mta/discovery: characteristic %s not found", charUUID)
	}
	return &chars[0], nil
}

func (c *bleConnection) ReadDeviceInfo() (model.DeviceInfo, error) {
	char, err := c.discoverChar(wire.DataServiceUUID, wire.CharStatusUUID)
	if err != nil {
		return model.DeviceInfo{}, err
	}

	buf := make([]byte, 512)
	n, err := char.Read(buf)
	if err != nil {
		return model.DeviceInfo{}, fmt.Errorf("mta/discovery: read status: %w", err)
	}

	var info model.DeviceInfo
	if err := json.Unmarshal(buf[:n], &info); err != nil {
		return model.DeviceInfo{}, fmt.Errorf("mta/discovery: decode status: %w", err)
	}
	return info, nil
}

func (c *bleConnection) WriteP2PInfo(info model.P2pInfo) error {
	char, err := c.discoverChar(wire.DataServiceUUID, wire.CharP2PUUID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("mta/discovery: encode p2p info: %w", err)
	}
	if _, err := char.WriteWithoutResponse(data); err != nil {
		return fmt.Errorf("mta/discovery: write p2p info: %w", err)
	}
	return nil
}

func (c *bleConnection) Disconnect() error {
	return c.device.Disconnect()
}

var _ Connection = (*bleConnection)(nil)
