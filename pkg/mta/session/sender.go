package session

import (
	"fmt"

	"github.com/mta-alliance/mtad/pkg/mta/model"
	"github.com/mta-alliance/mtad/pkg/mta/wire"
)

// SenderState is the sender protocol's current position in the
// handshake/transfer lifecycle.
type SenderState int

const (
	SenderInitial SenderState = iota
	SenderSentVersion
	SenderSentRequest
	SenderWaitDownload
	SenderTransferring
	SenderCompleted
	SenderRejected
	SenderFailed
)

func (s SenderState) String() string {
	switch s {
	case SenderInitial:
		return "Initial"
	case SenderSentVersion:
		return "SentVersion"
	case SenderSentRequest:
		return "SentRequest"
	case SenderWaitDownload:
		return "WaitDownload"
	case SenderTransferring:
		return "Transferring"
	case SenderCompleted:
		return "Completed"
	case SenderRejected:
		return "Rejected"
	case SenderFailed:
		return "Failed"
	default:
		return fmt.Sprintf("SenderState(%d)", int(s))
	}
}

// FileSpec describes one item in the bundle the sender is offering. A
// FileSpec with TextContent set represents a clipboard share rather
// than a real file.
type FileSpec struct {
	Name        string
	Size        int64
	MimeType    string
	TextContent *string
}

// DefaultMimeType is used for a FileSpec that doesn't specify one.
const DefaultMimeType = "application/octet-stream"

// NewFileSpec builds a FileSpec, defaulting MimeType the way the
// reference sender does when a caller doesn't know or care.
func NewFileSpec(name string, size int64, mimeType string) FileSpec {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return FileSpec{Name: name, Size: size, MimeType: mimeType}
}

// NewTextFileSpec builds a FileSpec representing a clipboard share.
func NewTextFileSpec(name, text string) FileSpec {
	return FileSpec{Name: name, Size: int64(len(text)), MimeType: "text/plain", TextContent: &text}
}

// SenderOutcome pairs an emitted event with the frame (if any) the
// driver should send back over the WebSocket.
type SenderOutcome struct {
	Event    SenderEvent
	Outbound *wire.Message
}

// SenderProtocol is the sans-I/O sender state machine.
type SenderProtocol struct {
	DeviceName string
	SenderID   string
	TaskID     string

	state   SenderState
	version int
	files   []FileSpec
	msgID   uint64 // starts at 0, per §4.4.2
}

// NewSenderProtocol constructs a sender with a fresh random task id and
// (unless provided) a fresh random sender id.
func NewSenderProtocol(deviceName, senderID string) (*SenderProtocol, error) {
	if senderID == "" {
		var err error
		senderID, err = model.GenerateSenderID()
		if err != nil {
			return nil, err
		}
	}
	taskID, err := model.GenerateTaskID()
	if err != nil {
		return nil, err
	}

	return &SenderProtocol{
		DeviceName: deviceName,
		SenderID:   senderID,
		TaskID:     taskID,
		state:      SenderInitial,
		version:    wire.ProtocolVersion,
	}, nil
}

// State returns the current protocol state.
func (p *SenderProtocol) State() SenderState { return p.state }

// SetFiles sets the bundle contents to offer.
func (p *SenderProtocol) SetFiles(files []FileSpec) { p.files = files }

func (p *SenderProtocol) nextMsgID() uint64 {
	id := p.msgID
	p.msgID++
	return id
}

func (p *SenderProtocol) buildSendRequest() model.SendRequest {
	var totalSize int64
	for _, f := range p.files {
		totalSize += f.Size
	}

	fileCount := len(p.files)
	mimeType := model.AnyMimeType
	if fileCount > 0 {
		mimeType = p.files[0].MimeType
		for _, f := range p.files[1:] {
			if f.MimeType != mimeType {
				mimeType = model.AnyMimeType
				break
			}
		}
	}

	var textContent *string
	var fileName string
	if fileCount > 0 {
		fileName = p.files[0].Name
		if fileCount == 1 {
			textContent = p.files[0].TextContent
		}
	}

	return model.SendRequest{
		TaskID:      p.TaskID,
		SenderID:    p.SenderID,
		SenderName:  p.DeviceName,
		FileName:    fileName,
		MimeType:    mimeType,
		FileCount:   fileCount,
		TotalSize:   totalSize,
		TextContent: textContent,
	}
}

// StartHandshake emits the initial versionNegotiation action.
func (p *SenderProtocol) StartHandshake() wire.Message {
	p.state = SenderSentVersion
	return wire.NewVersionNegotiation(p.nextMsgID(), p.version)
}

// OnMessage processes one inbound wire.Message and returns the
// (possibly empty) set of outcomes it produces.
func (p *SenderProtocol) OnMessage(msg wire.Message) []SenderOutcome {
	switch {
	case msg.IsAck():
		return p.onAck(msg)
	case msg.IsAction():
		return p.onAction(msg)
	default:
		return nil
	}
}

func (p *SenderProtocol) onAck(msg wire.Message) []SenderOutcome {
	switch {
	case msg.NameEquals(wire.ActionVersionNegotiation):
		acked := p.version
		if msg.Payload != nil {
			if v, ok := msg.Payload["version"].(float64); ok {
				acked = int(v)
			}
		}
		p.version = min(acked, p.version)

		req := p.buildSendRequest()
		payload, err := req.ToMap()
		if err != nil {
			return []SenderOutcome{{Event: SenderProtocolError{Message: "build sendRequest: " + err.Error()}}}
		}
		requestMsg := wire.NewSendRequest(p.nextMsgID(), payload)
		p.state = SenderSentRequest

		return []SenderOutcome{{
			Event:    VersionAcked{Version: p.version},
			Outbound: &requestMsg,
		}}

	case msg.NameEquals(wire.ActionSendRequest):
		p.state = SenderWaitDownload
		return []SenderOutcome{{Event: RequestSent{TaskID: p.TaskID}}}

	case msg.NameEquals(wire.ActionStatus):
		return nil

	default:
		return nil
	}
}

func (p *SenderProtocol) onAction(msg wire.Message) []SenderOutcome {
	if !msg.NameEquals(wire.ActionStatus) {
		ack := msg.MakeAck(nil)
		return []SenderOutcome{{Outbound: &ack}}
	}

	if msg.Payload == nil {
		ack := msg.MakeAck(nil)
		return []SenderOutcome{{
			Event:    SenderProtocolError{Message: "status has no payload"},
			Outbound: &ack,
		}}
	}

	status, err := model.TransferStatusFromMap(msg.Payload)
	if err != nil {
		ack := msg.MakeAck(nil)
		return []SenderOutcome{{
			Event:    SenderProtocolError{Message: "status payload malformed: " + err.Error()},
			Outbound: &ack,
		}}
	}

	ack := msg.MakeAck(nil)
	switch status.Type {
	case model.StatusUserRefuse:
		p.state = SenderRejected
		return []SenderOutcome{{Event: TransferRejected{Reason: status.Reason}, Outbound: &ack}}
	case model.StatusOK:
		p.state = SenderCompleted
		return []SenderOutcome{{Event: TransferCompleted{TaskID: p.TaskID}, Outbound: &ack}}
	default:
		return []SenderOutcome{{Outbound: &ack}}
	}
}

// OnDownloadStarted transitions WaitDownload -> Transferring, called
// when the driver sees the HTTPS download request arrive.
func (p *SenderProtocol) OnDownloadStarted() TransferStarted {
	p.state = SenderTransferring
	return TransferStarted{TaskID: p.TaskID}
}

// CheckTaskID reports whether requestTaskID matches this session's task id.
func (p *SenderProtocol) CheckTaskID(requestTaskID string) bool {
	return requestTaskID == p.TaskID
}
