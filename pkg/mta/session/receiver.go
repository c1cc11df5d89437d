package session

import (
	"fmt"

	"github.com/mta-alliance/mtad/pkg/mta/model"
	"github.com/mta-alliance/mtad/pkg/mta/wire"
)

// ReceiverState is the receiver protocol's current position in the
// handshake/transfer lifecycle.
type ReceiverState int

const (
	ReceiverWaitVersion ReceiverState = iota
	ReceiverWaitRequest
	ReceiverWaitUserAccept
	ReceiverTransferring
	ReceiverCompleted
	ReceiverFailed
)

func (s ReceiverState) String() string {
	switch s {
	case ReceiverWaitVersion:
		return "WaitVersion"
	case ReceiverWaitRequest:
		return "WaitRequest"
	case ReceiverWaitUserAccept:
		return "WaitUserAccept"
	case ReceiverTransferring:
		return "Transferring"
	case ReceiverCompleted:
		return "Completed"
	case ReceiverFailed:
		return "Failed"
	default:
		return fmt.Sprintf("ReceiverState(%d)", int(s))
	}
}

// Outcome pairs an emitted event with the frame (if any) the driver
// should send back over the WebSocket.
type Outcome struct {
	Event    ReceiverEvent
	Outbound *wire.Message
}

// ReceiverProtocol is the sans-I/O receiver state machine.
type ReceiverProtocol struct {
	ServerHost string
	ServerPort int

	state       ReceiverState
	version     int
	threadLimit int
	request     *model.SendRequest
	msgIDSeq    uint64 // starts at 100, per §4.4.1
}

// NewReceiverProtocol constructs a receiver bound to the sender's HTTPS
// server address, used to build the eventual download URL.
func NewReceiverProtocol(serverHost string, serverPort int) *ReceiverProtocol {
	return &ReceiverProtocol{
		ServerHost:  serverHost,
		ServerPort:  serverPort,
		state:       ReceiverWaitVersion,
		version:     wire.ProtocolVersion,
		threadLimit: wire.DefaultThreadLimit,
		msgIDSeq:    99,
	}
}

// State returns the current protocol state.
func (p *ReceiverProtocol) State() ReceiverState { return p.state }

func (p *ReceiverProtocol) nextMsgID() uint64 {
	p.msgIDSeq++
	return p.msgIDSeq
}

// OnMessage processes one inbound wire.Message and returns the
// (possibly empty) set of outcomes it produces. Non-action frames
// produce nothing: the receiver only reacts to actions.
func (p *ReceiverProtocol) OnMessage(msg wire.Message) []Outcome {
	if !msg.IsAction() {
		return nil
	}

	switch {
	case msg.NameEquals(wire.ActionVersionNegotiation):
		return p.onVersionNegotiation(msg)
	case msg.NameEquals(wire.ActionSendRequest):
		return p.onSendRequest(msg)
	case msg.NameEquals(wire.ActionStatus):
		return p.onStatus(msg)
	default:
		ack := msg.MakeAck(nil)
		return []Outcome{{Outbound: &ack}}
	}
}

func (p *ReceiverProtocol) onVersionNegotiation(msg wire.Message) []Outcome {
	inVersion := wire.ProtocolVersion
	if msg.Payload != nil {
		if v, ok := msg.Payload["version"].(float64); ok {
			inVersion = int(v)
		}
	}

	p.version = min(inVersion, wire.ProtocolVersion)
	p.state = ReceiverWaitRequest

	ack := msg.MakeAck(map[string]any{
		"version":     p.version,
		"threadLimit": p.threadLimit,
	})
	return []Outcome{{
		Event:    VersionNegotiated{Version: p.version, ThreadLimit: p.threadLimit},
		Outbound: &ack,
	}}
}

func (p *ReceiverProtocol) onSendRequest(msg wire.Message) []Outcome {
	if msg.Payload == nil {
		ack := msg.MakeAck(nil)
		return []Outcome{{
			Event:    ReceiverProtocolError{Message: "sendRequest has no payload"},
			Outbound: &ack,
		}}
	}

	req, err := model.SendRequestFromMap(msg.Payload)
	if err != nil {
		ack := msg.MakeAck(nil)
		return []Outcome{{
			Event:    ReceiverProtocolError{Message: "sendRequest payload malformed: " + err.Error()},
			Outbound: &ack,
		}}
	}

	p.request = &req
	p.state = ReceiverWaitUserAccept
	ack := msg.MakeAck(nil)

	if req.IsTextShare() {
		return []Outcome{{
			Event:    TextReceived{Text: *req.TextContent, TaskID: req.TaskID},
			Outbound: &ack,
		}}
	}
	return []Outcome{{
		Event:    SendRequestReceived{Request: req, ThumbnailPath: req.Thumbnail},
		Outbound: &ack,
	}}
}

func (p *ReceiverProtocol) onStatus(msg wire.Message) []Outcome {
	if msg.Payload == nil {
		ack := msg.MakeAck(nil)
		return []Outcome{{
			Event:    ReceiverProtocolError{Message: "status has no payload"},
			Outbound: &ack,
		}}
	}

	status, err := model.TransferStatusFromMap(msg.Payload)
	if err != nil {
		ack := msg.MakeAck(nil)
		return []Outcome{{
			Event:    ReceiverProtocolError{Message: "status payload malformed: " + err.Error()},
			Outbound: &ack,
		}}
	}

	if status.IsUserRefusal() {
		p.state = ReceiverFailed
	}

	ack := msg.MakeAck(nil)
	return []Outcome{{Event: StatusReceived{Status: status}, Outbound: &ack}}
}

// AcceptTransfer transitions WaitUserAccept -> Transferring and returns
// the download URL the driver should fetch the bundle from. Returns
// false if there is no pending request to accept.
func (p *ReceiverProtocol) AcceptTransfer() (TransferAccepted, bool) {
	if p.request == nil {
		return TransferAccepted{}, false
	}
	p.state = ReceiverTransferring
	url := fmt.Sprintf("https://%s:%d/download?taskId=%s", p.ServerHost, p.ServerPort, p.request.TaskID)
	return TransferAccepted{TaskID: p.request.TaskID, DownloadURL: url}, true
}

// RejectTransfer transitions WaitUserAccept -> Failed and returns the
// status frame to send.
func (p *ReceiverProtocol) RejectTransfer() wire.Message {
	taskID := ""
	if p.request != nil {
		taskID = p.request.TaskID
	}
	p.state = ReceiverFailed
	payload, _ := model.TransferStatus{
		Type:   model.StatusUserRefuse,
		Reason: model.ReasonUserRefuse,
		TaskID: taskID,
	}.ToMap()
	return wire.NewStatus(p.nextMsgID(), payload)
}

// SendOK transitions Transferring -> Completed and returns the status
// frame to send after a successful bundle download.
func (p *ReceiverProtocol) SendOK() wire.Message {
	taskID := ""
	if p.request != nil {
		taskID = p.request.TaskID
	}
	p.state = ReceiverCompleted
	payload, _ := model.TransferStatus{
		Type:   model.StatusOK,
		Reason: model.ReasonOK,
		TaskID: taskID,
	}.ToMap()
	return wire.NewStatus(p.nextMsgID(), payload)
}

// ThumbnailURL returns the full thumbnail URL if the pending request
// carries one.
func (p *ReceiverProtocol) ThumbnailURL() (string, bool) {
	if p.request == nil || p.request.Thumbnail == nil {
		return "", false
	}
	return fmt.Sprintf("https://%s:%d%s", p.ServerHost, p.ServerPort, *p.request.Thumbnail), true
}
