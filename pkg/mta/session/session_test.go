package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mta-alliance/mtad/pkg/mta/model"
	"github.com/mta-alliance/mtad/pkg/mta/wire"
)

func TestFullTransferHappyPath(t *testing.T) {
	sender, err := NewSenderProtocol("Desktop", "")
	require.NoError(t, err)
	sender.SetFiles([]FileSpec{NewFileSpec("photo.jpg", 1024, "image/jpeg")})

	receiver := NewReceiverProtocol("192.168.49.1", 8443)

	// 1. version negotiation
	handshake := sender.StartHandshake()
	require.Equal(t, SenderSentVersion, sender.State())

	recvOutcomes := receiver.OnMessage(handshake)
	require.Len(t, recvOutcomes, 1)
	require.IsType(t, VersionNegotiated{}, recvOutcomes[0].Event)
	require.Equal(t, ReceiverWaitRequest, receiver.State())
	ack := *recvOutcomes[0].Outbound
	require.True(t, ack.IsAck())

	sendOutcomes := sender.OnMessage(ack)
	require.Len(t, sendOutcomes, 1)
	require.IsType(t, VersionAcked{}, sendOutcomes[0].Event)
	require.Equal(t, SenderSentRequest, sender.State())
	sendRequestMsg := *sendOutcomes[0].Outbound

	// 2. sendRequest
	recvOutcomes = receiver.OnMessage(sendRequestMsg)
	require.Len(t, recvOutcomes, 1)
	require.IsType(t, SendRequestReceived{}, recvOutcomes[0].Event)
	require.Equal(t, ReceiverWaitUserAccept, receiver.State())
	reqAck := *recvOutcomes[0].Outbound

	sendOutcomes = sender.OnMessage(reqAck)
	require.Len(t, sendOutcomes, 1)
	require.IsType(t, RequestSent{}, sendOutcomes[0].Event)
	require.Equal(t, SenderWaitDownload, sender.State())

	// 3. user accepts -> download URL -> download begins
	accepted, ok := receiver.AcceptTransfer()
	require.True(t, ok)
	require.Contains(t, accepted.DownloadURL, sender.TaskID)
	require.Equal(t, ReceiverTransferring, receiver.State())

	started := sender.OnDownloadStarted()
	require.Equal(t, sender.TaskID, started.TaskID)
	require.Equal(t, SenderTransferring, sender.State())

	// 4. receiver reports status:ok
	statusMsg := receiver.SendOK()
	require.Equal(t, ReceiverCompleted, receiver.State())

	sendOutcomes = sender.OnMessage(statusMsg)
	require.Len(t, sendOutcomes, 1)
	require.IsType(t, TransferCompleted{}, sendOutcomes[0].Event)
	require.Equal(t, SenderCompleted, sender.State())
}

func TestReceiverRejectsTransfer(t *testing.T) {
	receiver := NewReceiverProtocol("host", 1)
	receiver.OnMessage(wire.NewVersionNegotiation(0, wire.ProtocolVersion))

	req := model.SendRequest{TaskID: "123456", SenderID: "ab12", SenderName: "Phone", FileCount: 1}
	payload, err := req.ToMap()
	require.NoError(t, err)
	receiver.OnMessage(wire.NewSendRequest(1, payload))

	rejectMsg := receiver.RejectTransfer()
	require.Equal(t, ReceiverFailed, receiver.State())
	require.True(t, rejectMsg.IsAction())
	require.Equal(t, wire.ActionStatus, rejectMsg.Name)
}

func TestTextShareShortCircuits(t *testing.T) {
	receiver := NewReceiverProtocol("host", 1)
	receiver.OnMessage(wire.NewVersionNegotiation(0, wire.ProtocolVersion))

	text := "clipboard contents"
	req := model.SendRequest{TaskID: "654321", SenderID: "ab12", SenderName: "Phone", TextContent: &text}
	payload, err := req.ToMap()
	require.NoError(t, err)

	outcomes := receiver.OnMessage(wire.NewSendRequest(1, payload))
	require.Len(t, outcomes, 1)
	textEvent, ok := outcomes[0].Event.(TextReceived)
	require.True(t, ok)
	require.Equal(t, text, textEvent.Text)
}

func TestEveryActionGetsExactlyOneMatchingAck(t *testing.T) {
	receiver := NewReceiverProtocol("host", 1)
	msg := wire.NewVersionNegotiation(5, wire.ProtocolVersion)

	outcomes := receiver.OnMessage(msg)
	require.Len(t, outcomes, 1)
	ack := outcomes[0].Outbound
	require.NotNil(t, ack)
	require.True(t, ack.IsAck())
	require.Equal(t, msg.ID, ack.ID)
	require.Equal(t, msg.Name, ack.Name)
}

func TestSenderBuildSendRequestAggregatesMime(t *testing.T) {
	sender, err := NewSenderProtocol("Desktop", "ab12")
	require.NoError(t, err)
	sender.SetFiles([]FileSpec{
		NewFileSpec("a.png", 10, "image/png"),
		NewFileSpec("b.jpg", 20, "image/jpeg"),
	})

	payload := sender.buildSendRequest()
	require.Equal(t, model.AnyMimeType, payload.MimeType)
	require.Equal(t, int64(30), payload.TotalSize)
	require.Equal(t, 2, payload.FileCount)
}

func TestSenderBuildSendRequestSingleMimeIsPreserved(t *testing.T) {
	sender, err := NewSenderProtocol("Desktop", "ab12")
	require.NoError(t, err)
	sender.SetFiles([]FileSpec{NewFileSpec("a.png", 10, "image/png")})

	payload := sender.buildSendRequest()
	require.Equal(t, "image/png", payload.MimeType)
}

func TestSenderBuildSendRequestEmptyFileListDefaults(t *testing.T) {
	sender, err := NewSenderProtocol("Desktop", "ab12")
	require.NoError(t, err)

	payload := sender.buildSendRequest()
	require.Equal(t, model.AnyMimeType, payload.MimeType)
	require.Equal(t, int64(0), payload.TotalSize)
	require.Equal(t, 0, payload.FileCount)
}

func TestCheckTaskID(t *testing.T) {
	sender, err := NewSenderProtocol("Desktop", "ab12")
	require.NoError(t, err)
	require.True(t, sender.CheckTaskID(sender.TaskID))
	require.False(t, sender.CheckTaskID("000000"))
}
