package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mta-alliance/mtad/pkg/mta/model"
)

func TestStripWritePreamble(t *testing.T) {
	require.Equal(t, []byte(`{"a":1}`), stripWritePreamble([]byte("\x00\x01{\"a\":1}")))
	require.Equal(t, []byte(`{"a":1}`), stripWritePreamble([]byte(`{"a":1}`)))
	require.Equal(t, []byte("no brace here"), stripWritePreamble([]byte("no brace here")))
}

func TestStubCentralAdapterScanAndConnect(t *testing.T) {
	adapter := NewStubCentralAdapter()
	adapter.Devices = []DiscoveredDevice{
		{Address: "AA:BB", Name: "Phone", Supports5GHz: true},
		{Address: "CC:DD", Name: "Tablet"},
	}

	var found []DiscoveredDevice
	err := adapter.Scan(context.Background(), func(d DiscoveredDevice) {
		found = append(found, d)
	})
	require.NoError(t, err)
	require.Len(t, found, 2)

	key := "abc123"
	adapter.Connections["AA:BB"] = NewStubConnection(model.DeviceInfo{State: 1, MAC: "AA:BB", Key: &key})

	conn, err := adapter.Connect(context.Background(), "AA:BB")
	require.NoError(t, err)

	info, err := conn.ReadDeviceInfo()
	require.NoError(t, err)
	require.True(t, info.HasKey())

	err = conn.WriteP2PInfo(model.P2pInfo{SSID: "DIRECT-abcd1234", PSK: "password", Port: 8080})
	require.NoError(t, err)

	stub := conn.(*StubConnection)
	require.Len(t, stub.WrittenP2P, 1)
	require.Equal(t, "DIRECT-abcd1234", stub.WrittenP2P[0].SSID)
}

func TestStubPeripheralAdapterGATTServer(t *testing.T) {
	adapter := NewStubPeripheralAdapter()
	require.NoError(t, adapter.StartAdvertising("Receiver-1"))
	require.True(t, adapter.Advertising)

	var written []byte
	err := adapter.StartGATTServer(GATTCallbacks{
		OnReadStatus: func() model.DeviceInfo { return model.DeviceInfo{State: 1, MAC: "11:22"} },
		OnWriteP2P:   func(raw []byte) { written = raw },
	})
	require.NoError(t, err)

	status := adapter.CurrentStatus()
	require.Equal(t, "11:22", status.MAC)

	adapter.SimulateWrite([]byte("\x00{\"ssid\":\"x\"}"))
	require.Equal(t, `{"ssid":"x"}`, string(written))

	require.NoError(t, adapter.StopAdvertising())
	require.False(t, adapter.Advertising)
}
