package model

import "encoding/json"

// Status type codes for TransferStatus.Type.
const (
	StatusOK          = 1
	StatusError       = 2
	StatusUserRefuse  = 3
)

// ReasonUserRefuse is the well-known reason string accompanying a
// StatusUserRefuse status.
const ReasonUserRefuse = "user refuse"

// ReasonOK is the well-known reason string accompanying a StatusOK status.
const ReasonOK = "ok"

// TransferStatus is the terminal (or progress) message a peer sends to
// report how a transfer ended.
type TransferStatus struct {
	Type   int
	Reason string
	TaskID string
}

type transferStatusWire struct {
	TaskID string `json:"taskId"`
	ID     string `json:"id"`
	Type   int    `json:"type"`
	Reason string `json:"reason"`
}

func (s TransferStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(transferStatusWire{
		TaskID: s.TaskID,
		ID:     s.TaskID,
		Type:   s.Type,
		Reason: s.Reason,
	})
}

func (s *TransferStatus) UnmarshalJSON(data []byte) error {
	var w transferStatusWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.TaskID = w.TaskID
	if s.TaskID == "" {
		s.TaskID = w.ID
	}
	s.Type = w.Type
	s.Reason = w.Reason
	return nil
}

// ToMap mirrors SendRequest.ToMap for building WSMessage payloads.
func (s TransferStatus) ToMap() (map[string]any, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// TransferStatusFromMap mirrors SendRequestFromMap.
func TransferStatusFromMap(m map[string]any) (TransferStatus, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return TransferStatus{}, err
	}
	var s TransferStatus
	if err := json.Unmarshal(b, &s); err != nil {
		return TransferStatus{}, err
	}
	return s, nil
}

// IsUserRefusal reports the first-class refusal outcome called out in
// the protocol's error taxonomy.
func (s TransferStatus) IsUserRefusal() bool {
	return s.Type == StatusUserRefuse && s.Reason == ReasonUserRefuse
}
