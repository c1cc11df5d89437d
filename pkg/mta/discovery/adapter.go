// Package discovery implements the BLE discovery and credential-exchange
// layer (§4.3): scan response decoding, the GATT service/characteristic
// contract, and the central (sender) and peripheral (receiver) roles
// that ride on top of it.
package discovery

import (
	"context"

	"github.com/mta-alliance/mtad/pkg/mta/model"
)

// DiscoveredDevice is a peer found while scanning, decoded from its
// advertisement.
type DiscoveredDevice struct {
	Address      string
	Name         string
	RSSI         int
	Supports5GHz bool
}

// Characteristic is a single GATT characteristic value.
type Characteristic interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// Connection is an established GATT connection to a discovered peer.
type Connection interface {
	// ReadDeviceInfo reads and decodes the Status characteristic.
	ReadDeviceInfo() (model.DeviceInfo, error)
	// WriteP2PInfo encodes and writes the P2P characteristic.
	WriteP2PInfo(info model.P2pInfo) error
	Disconnect() error
}

// CentralAdapter abstracts the BLE central role used by a sender:
// scanning for receivers and performing the GATT read/write handshake.
type CentralAdapter interface {
	Enable() error
	// Scan reports each newly discovered device via onFound until ctx
	// is cancelled.
	Scan(ctx context.Context, onFound func(DiscoveredDevice)) error
	StopScan() error
	Connect(ctx context.Context, address string) (Connection, error)
}

// GATTCallbacks are the hooks a peripheral wires into its GATT server.
type GATTCallbacks struct {
	// OnReadStatus is invoked when a central reads the Status
	// characteristic; it should return the current DeviceInfo.
	OnReadStatus func() model.DeviceInfo
	// OnWriteP2P is invoked with the bytes written to the P2P
	// characteristic after the adapter has stripped any preamble before
	// the first '{', and before JSON decoding.
	OnWriteP2P func(raw []byte)
}

// PeripheralAdapter abstracts the BLE peripheral role used by a
// receiver: advertising and serving the two GATT characteristics.
type PeripheralAdapter interface {
	Enable() error
	StartAdvertising(deviceName string) error
	StopAdvertising() error
	StartGATTServer(callbacks GATTCallbacks) error
	StopGATTServer() error
}
