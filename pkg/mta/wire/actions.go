package wire

// Well-known action names carried in Message.Name.
const (
	ActionVersionNegotiation = "versionNegotiation"
	ActionSendRequest        = "sendRequest"
	ActionStatus             = "status"
)

// ProtocolVersion is the only version this stack knows how to speak.
const ProtocolVersion = 1

// DefaultThreadLimit is the receiver's default threadLimit advertised
// during version negotiation.
const DefaultThreadLimit = 5

// NewVersionNegotiation builds a versionNegotiation action frame.
func NewVersionNegotiation(id uint64, version int) Message {
	return Message{
		Type: TypeAction,
		ID:   id,
		Name: ActionVersionNegotiation,
		Payload: map[string]any{
			"version":  version,
			"versions": []int{version},
		},
	}
}

// NewSendRequest builds a sendRequest action frame from an
// already-encoded payload (see pkg/mta/model.SendRequest.ToMap).
func NewSendRequest(id uint64, payload map[string]any) Message {
	return Message{
		Type:    TypeAction,
		ID:      id,
		Name:    ActionSendRequest,
		Payload: payload,
	}
}

// NewStatus builds a status action frame from an already-encoded
// payload (see pkg/mta/model.TransferStatus.ToMap).
func NewStatus(id uint64, payload map[string]any) Message {
	return Message{
		Type:    TypeAction,
		ID:      id,
		Name:    ActionStatus,
		Payload: payload,
	}
}
