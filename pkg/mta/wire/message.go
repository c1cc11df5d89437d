// Package wire implements the line-framed control-message codec (§4.1
// of the protocol) and the BLE scan-response advertisement blob.
package wire

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Message types.
const (
	TypeAction = "action"
	TypeAck    = "ack"
)

var messagePattern = regexp.MustCompile(`^(\w+):(\d+):(\w+)(\?(.*))?$`)

// Message is a single frame of the line-framed control protocol:
//
//	type:id:name(?json)?
type Message struct {
	Type    string
	ID      uint64
	Name    string
	Payload map[string]any
}

// Parse decodes a wire frame. It returns (nil, nil) — not an error — on
// a grammar mismatch or an embedded JSON parse failure, matching the
// "drop the frame" recovery policy for WireFormatError: malformed input
// is not exceptional, it's a line the peer chose not to honor.
func Parse(line string) (*Message, error) {
	m := messagePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, nil
	}

	id, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return nil, nil
	}

	msg := &Message{Type: m[1], ID: id, Name: m[3]}
	if jsonText := m[5]; jsonText != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
			return nil, nil
		}
		msg.Payload = payload
	}
	return msg, nil
}

// Serialize renders the message to wire format using compact JSON (no
// spaces after ':' or ',').
func (m Message) Serialize() string {
	s := fmt.Sprintf("%s:%d:%s", m.Type, m.ID, m.Name)
	if m.Payload != nil {
		b, err := json.Marshal(m.Payload)
		if err == nil {
			s += "?" + string(b)
		}
	}
	return s
}

// MakeAck builds the ack frame for this (inbound, presumably action)
// message: same id, same name, an optional response payload.
func (m Message) MakeAck(payload map[string]any) Message {
	return Message{
		Type:    TypeAck,
		ID:      m.ID,
		Name:    m.Name,
		Payload: payload,
	}
}

// IsAction reports whether this message is an action frame.
func (m Message) IsAction() bool {
	return m.Type == TypeAction
}

// IsAck reports whether this message is an ack frame.
func (m Message) IsAck() bool {
	return m.Type == TypeAck
}

// NameEquals compares action names case-insensitively, per the
// protocol's action-name matching rule.
func (m Message) NameEquals(name string) bool {
	return asciiEqualFold(m.Name, name)
}

func asciiEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
