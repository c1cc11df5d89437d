package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mta-alliance/mtad/pkg/mta/crypto"
	"github.com/mta-alliance/mtad/pkg/mta/discovery"
	"github.com/mta-alliance/mtad/pkg/mta/model"
)

func TestHandshakeRoundTrip(t *testing.T) {
	receiverProvider, err := crypto.NewProvider(crypto.AES128)
	require.NoError(t, err)
	senderProvider, err := crypto.NewProvider(crypto.AES128)
	require.NoError(t, err)

	peripheral := discovery.NewStubPeripheralAdapter()
	gatt := NewReceiverGATTServer(peripheral, receiverProvider, "11:22:33:44:55:66")
	require.NoError(t, gatt.Start("Receiver-1"))

	central := discovery.NewStubCentralAdapter()
	// The two stub adapters are independent fakes; wire the connection's
	// reported status to what the GATT server above actually publishes.
	key := receiverProvider.PublicKey()
	central.Connections["AA:BB"] = discovery.NewStubConnection(model.DeviceInfo{
		State: 1,
		MAC:   "11:22:33:44:55:66",
		Key:   &key,
	})

	creds := model.P2pInfo{SSID: "DIRECT-ABCD1234", PSK: "passw0rd", MAC: "AA:BB:CC:DD:EE:FF", Port: 8443}
	result, err := PerformSenderHandshake(context.Background(), central, senderProvider, "AA:BB", creds)
	require.NoError(t, err)
	require.Equal(t, "11:22:33:44:55:66", result.PeerMAC)

	conn := central.Connections["AA:BB"]
	require.Len(t, conn.WrittenP2P, 1)
	written := conn.WrittenP2P[0]
	require.NotEqual(t, creds.SSID, written.SSID) // travelled as ciphertext
	require.True(t, written.HasKey())

	data, err := written.MarshalJSON()
	require.NoError(t, err)
	peripheral.SimulateWrite(data)

	select {
	case got := <-gatt.Received:
		require.Equal(t, creds.SSID, got.P2pInfo.SSID)
		require.Equal(t, creds.PSK, got.P2pInfo.PSK)
		require.Equal(t, creds.MAC, got.P2pInfo.MAC)
	case err := <-gatt.Errors:
		t.Fatalf("gatt server reported error: %v", err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for received credentials")
	}
}

func TestGenerateSSIDAndPSK(t *testing.T) {
	ssid, err := GenerateSSID()
	require.NoError(t, err)
	require.Regexp(t, `^DIRECT-[A-Z0-9]{8}$`, ssid)

	psk, err := GeneratePSK()
	require.NoError(t, err)
	require.Len(t, psk, 8)
}
