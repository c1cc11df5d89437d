package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSerializeRoundTrip(t *testing.T) {
	line := `action:7:sendRequest?{"taskId":"123456"}`
	msg, err := Parse(line)
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Equal(t, TypeAction, msg.Type)
	require.Equal(t, uint64(7), msg.ID)
	require.Equal(t, "sendRequest", msg.Name)
	require.Equal(t, "123456", msg.Payload["taskId"])

	require.Equal(t, line, msg.Serialize())
}

func TestParseWithoutPayload(t *testing.T) {
	msg, err := Parse("ack:3:status")
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Nil(t, msg.Payload)
	require.Equal(t, "ack:3:status", msg.Serialize())
}

func TestParseMalformedReturnsNilNotError(t *testing.T) {
	msg, err := Parse("not a valid frame")
	require.NoError(t, err)
	require.Nil(t, msg)
}

func TestParseMalformedPayloadReturnsNilNotError(t *testing.T) {
	msg, err := Parse(`action:1:sendRequest?{not json}`)
	require.NoError(t, err)
	require.Nil(t, msg)
}

func TestMakeAckPreservesIDAndName(t *testing.T) {
	action, err := Parse("action:42:versionNegotiation?{\"version\":1}")
	require.NoError(t, err)

	ack := action.MakeAck(map[string]any{"version": 1})
	require.True(t, ack.IsAck())
	require.Equal(t, action.ID, ack.ID)
	require.Equal(t, action.Name, ack.Name)
}

func TestNameEqualsCaseInsensitive(t *testing.T) {
	msg := Message{Name: "SendRequest"}
	require.True(t, msg.NameEquals("sendrequest"))
	require.True(t, msg.NameEquals("SENDREQUEST"))
	require.False(t, msg.NameEquals("status"))
}

func TestIsActionIsAck(t *testing.T) {
	action := Message{Type: TypeAction}
	ack := Message{Type: TypeAck}
	require.True(t, action.IsAction())
	require.False(t, action.IsAck())
	require.True(t, ack.IsAck())
	require.False(t, ack.IsAction())
}

func TestDecodeAdvertisementWorkedExample(t *testing.T) {
	data := make([]byte, AdvertisementBlobLen)
	data[8], data[9] = 0xAB, 0xCD
	copy(data[10:], "Phone")
	data[26] = 0x01

	resp := DecodeAdvertisement(data)
	require.Equal(t, uint16(0xCDAB), resp.Nonce)
	require.Equal(t, "Phone", resp.Name)
	require.True(t, resp.Supports5GHz)
}

func TestDecodeAdvertisementTruncatedName(t *testing.T) {
	data := make([]byte, AdvertisementBlobLen)
	copy(data[10:], "0123456789012345")
	data[25] = 0x09 // last byte of the 16-byte name field marks truncation

	resp := DecodeAdvertisement(data)
	require.Equal(t, "012345678901234...", resp.Name)
}

func TestDecodeAdvertisementInvalidUTF8FallsBackToUnknown(t *testing.T) {
	data := make([]byte, AdvertisementBlobLen)
	data[10] = 0xFF
	data[11] = 0xFE

	resp := DecodeAdvertisement(data)
	require.Equal(t, DefaultUnknownName, resp.Name)
}

func TestDecodeAdvertisementShortBlob(t *testing.T) {
	resp := DecodeAdvertisement([]byte{0x01, 0x02})
	require.Equal(t, DefaultUnknownName, resp.Name)
	require.True(t, resp.Supports5GHz)
}

func TestEncodeDecodeAdvertisementRoundTrip(t *testing.T) {
	original := ScanResponse{Nonce: 0x1234, Name: "Tablet", Supports5GHz: false}
	encoded := EncodeAdvertisement(original)
	require.Len(t, encoded, AdvertisementBlobLen)

	decoded := DecodeAdvertisement(encoded)
	require.Equal(t, original.Nonce, decoded.Nonce)
	require.Equal(t, original.Name, decoded.Name)
	require.Equal(t, original.Supports5GHz, decoded.Supports5GHz)
}

func TestEncodeAdvertisementTruncatesLongNames(t *testing.T) {
	resp := ScanResponse{Name: "A Very Long Device Name Indeed"}
	encoded := EncodeAdvertisement(resp)
	decoded := DecodeAdvertisement(encoded)
	require.Regexp(t, `\.\.\.$`, decoded.Name)
}
