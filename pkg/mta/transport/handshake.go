package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mta-alliance/mtad/pkg/mta/crypto"
	"github.com/mta-alliance/mtad/pkg/mta/discovery"
	"github.com/mta-alliance/mtad/pkg/mta/model"
)

// SenderHandshakeResult is what a sender learns from the BLE exchange:
// the receiver's MAC (used as a rendezvous hint) and the cipher to
// encrypt the Wi-Fi credentials it's about to hand over.
type SenderHandshakeResult struct {
	PeerMAC string
	Cipher  crypto.SessionCipher
}

// PerformSenderHandshake connects to a discovered receiver, reads its
// published public key off the Status characteristic, derives the
// session cipher, and writes the (now-encrypted) P2P credentials back,
// per §4.2.
func PerformSenderHandshake(
	ctx context.Context,
	central discovery.CentralAdapter,
	provider crypto.Provider,
	address string,
	credentials model.P2pInfo,
) (SenderHandshakeResult, error) {
	conn, err := central.Connect(ctx, address)
	if err != nil {
		return SenderHandshakeResult{}, fmt.Errorf("mta/transport: connect: %w", err)
	}
	defer conn.Disconnect()

	peerInfo, err := conn.ReadDeviceInfo()
	if err != nil {
		return SenderHandshakeResult{}, fmt.Errorf("mta/transport: read device info: %w", err)
	}
	if !peerInfo.HasKey() {
		return SenderHandshakeResult{}, fmt.Errorf("mta/transport: receiver published no public key")
	}

	cipher, err := provider.DeriveCipher(*peerInfo.Key)
	if err != nil {
		return SenderHandshakeResult{}, fmt.Errorf("mta/transport: derive cipher: %w", err)
	}

	myKey := provider.PublicKey()
	encrypted, err := crypto.EncryptP2pInfo(cipher, credentials)
	if err != nil {
		return SenderHandshakeResult{}, err
	}
	encrypted.Key = &myKey

	if err := conn.WriteP2PInfo(encrypted); err != nil {
		return SenderHandshakeResult{}, fmt.Errorf("mta/transport: write p2p info: %w", err)
	}

	return SenderHandshakeResult{PeerMAC: peerInfo.MAC, Cipher: cipher}, nil
}

// ReceiverCredentials is what the receiver learns once the sender has
// completed the GATT write: the decrypted Wi-Fi join credentials and
// the cipher derived from the sender's key, ready to decrypt whatever
// control-channel traffic still needs it.
type ReceiverCredentials struct {
	P2pInfo model.P2pInfo
	Cipher  crypto.SessionCipher
}

// ReceiverGATTServer runs the peripheral side of the handshake: it
// advertises, publishes this device's public key on the Status
// characteristic, and decodes whatever the sender writes to the P2P
// characteristic into a ReceiverCredentials delivered on Received.
type ReceiverGATTServer struct {
	adapter  discovery.PeripheralAdapter
	provider crypto.Provider
	mac      string

	Received chan ReceiverCredentials
	Errors   chan error
}

func NewReceiverGATTServer(adapter discovery.PeripheralAdapter, provider crypto.Provider, mac string) *ReceiverGATTServer {
	return &ReceiverGATTServer{
		adapter:  adapter,
		provider: provider,
		mac:      mac,
		Received: make(chan ReceiverCredentials, 1),
		Errors:   make(chan error, 1),
	}
}

// Start advertises deviceName and begins serving the GATT
// characteristics.
func (s *ReceiverGATTServer) Start(deviceName string) error {
	if err := s.adapter.Enable(); err != nil {
		return err
	}
	if err := s.adapter.StartAdvertising(deviceName); err != nil {
		return err
	}

	key := s.provider.PublicKey()
	return s.adapter.StartGATTServer(discovery.GATTCallbacks{
		OnReadStatus: func() model.DeviceInfo {
			return model.DeviceInfo{State: 1, MAC: s.mac, Key: &key}
		},
		OnWriteP2P: s.onWrite,
	})
}

func (s *ReceiverGATTServer) onWrite(raw []byte) {
	var encrypted model.P2pInfo
	if err := json.Unmarshal(raw, &encrypted); err != nil {
		s.Errors <- fmt.Errorf("mta/transport: decode p2p write: %w", err)
		return
	}
	if !encrypted.HasKey() {
		s.Errors <- fmt.Errorf("mta/transport: p2p write carries no sender key")
		return
	}

	cipher, err := s.provider.DeriveCipher(*encrypted.Key)
	if err != nil {
		s.Errors <- fmt.Errorf("mta/transport: derive cipher: %w", err)
		return
	}

	decrypted, err := crypto.DecryptP2pInfo(cipher, encrypted)
	if err != nil {
		s.Errors <- fmt.Errorf("mta/transport: decrypt p2p info: %w", err)
		return
	}

	s.Received <- ReceiverCredentials{P2pInfo: decrypted, Cipher: cipher}
}

func (s *ReceiverGATTServer) Stop() error {
	if err := s.adapter.StopGATTServer(); err != nil {
		return err
	}
	return s.adapter.StopAdvertising()
}
