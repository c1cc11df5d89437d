// Package session implements the receiver and sender protocol state
// machines (§4.4). Both are sans-I/O: they consume inbound wire.Message
// values and produce zero or more (event, outbound) pairs. A driver in
// pkg/mta/transport owns the actual socket.
package session

import "github.com/mta-alliance/mtad/pkg/mta/model"

// ReceiverEvent is the sealed set of events the receiver state machine emits.
type ReceiverEvent interface{ isReceiverEvent() }

type baseReceiverEvent struct{}

func (baseReceiverEvent) isReceiverEvent() {}

// VersionNegotiated reports a completed version handshake.
type VersionNegotiated struct {
	baseReceiverEvent
	Version     int
	ThreadLimit int
}

// SendRequestReceived reports a file-transfer offer awaiting user accept/reject.
type SendRequestReceived struct {
	baseReceiverEvent
	Request       model.SendRequest
	ThumbnailPath *string
}

// TextReceived reports a clipboard share.
type TextReceived struct {
	baseReceiverEvent
	Text   string
	TaskID string
}

// TransferAccepted reports that the caller accepted a transfer and
// gives the URL to download the bundle from.
type TransferAccepted struct {
	baseReceiverEvent
	TaskID      string
	DownloadURL string
}

// StatusReceived reports an inbound status frame.
type StatusReceived struct {
	baseReceiverEvent
	Status model.TransferStatus
}

// ReceiverProtocolError reports a malformed or out-of-sequence inbound action.
type ReceiverProtocolError struct {
	baseReceiverEvent
	Message string
}

// SenderEvent is the sealed set of events the sender state machine emits.
type SenderEvent interface{ isSenderEvent() }

type baseSenderEvent struct{}

func (baseSenderEvent) isSenderEvent() {}

// VersionAcked reports the receiver's ack of version negotiation.
type VersionAcked struct {
	baseSenderEvent
	Version int
}

// RequestSent reports the sendRequest ack; the sender is now waiting
// for the receiver to start the download.
type RequestSent struct {
	baseSenderEvent
	TaskID string
}

// TransferStarted reports that the HTTPS bundle download has begun.
type TransferStarted struct {
	baseSenderEvent
	TaskID string
}

// TransferCompleted reports a status:ok from the receiver.
type TransferCompleted struct {
	baseSenderEvent
	TaskID string
}

// TransferRejected reports a status:user_refuse from the receiver.
type TransferRejected struct {
	baseSenderEvent
	Reason string
}

// SenderProtocolError reports a malformed or out-of-sequence inbound message.
type SenderProtocolError struct {
	baseSenderEvent
	Message string
}
