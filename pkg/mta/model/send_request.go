package model

import "encoding/json"

// AnyMimeType is emitted when a bundle mixes files of different MIME
// types, per the sendRequest construction rules.
const AnyMimeType = "*/*"

// SendRequest describes the bundle (or text clip) a sender is offering.
// TaskID is the session identity; it is echoed on the wire as both
// "taskId" and "id" because some peers only read one of the two.
type SendRequest struct {
	TaskID      string
	SenderID    string
	SenderName  string
	FileName    string
	MimeType    string
	FileCount   int
	TotalSize   int64
	TextContent *string
	Thumbnail   *string
}

type sendRequestWire struct {
	TaskID       string  `json:"taskId"`
	ID           string  `json:"id"`
	SenderID     string  `json:"senderId"`
	SenderName   string  `json:"senderName"`
	FileName     string  `json:"fileName"`
	MimeType     string  `json:"mimeType"`
	FileCount    int     `json:"fileCount"`
	TotalSize    int64   `json:"totalSize"`
	CatShareText *string `json:"catShareText,omitempty"`
	Thumbnail    *string `json:"thumbnail,omitempty"`
}

func (r SendRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(sendRequestWire{
		TaskID:       r.TaskID,
		ID:           r.TaskID,
		SenderID:     r.SenderID,
		SenderName:   r.SenderName,
		FileName:     r.FileName,
		MimeType:     r.MimeType,
		FileCount:    r.FileCount,
		TotalSize:    r.TotalSize,
		CatShareText: r.TextContent,
		Thumbnail:    r.Thumbnail,
	})
}

// ToMap returns the request as a plain map, for callers (notably
// pkg/mta/session) that build a WSMessage payload directly rather than
// round-tripping through json.Marshal on the typed struct.
func (r SendRequest) ToMap() (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *SendRequest) UnmarshalJSON(data []byte) error {
	var w sendRequestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.TaskID = w.TaskID
	if r.TaskID == "" {
		r.TaskID = w.ID
	}
	r.SenderID = w.SenderID
	r.SenderName = w.SenderName
	if r.SenderName == "" {
		r.SenderName = "Unknown"
	}
	r.FileName = w.FileName
	r.MimeType = w.MimeType
	if r.MimeType == "" {
		r.MimeType = AnyMimeType
	}
	r.FileCount = w.FileCount
	if r.FileCount == 0 {
		r.FileCount = 1
	}
	r.TotalSize = w.TotalSize
	r.TextContent = w.CatShareText
	r.Thumbnail = w.Thumbnail
	return nil
}

// SendRequestFromMap mirrors UnmarshalJSON for payloads already decoded
// into a map[string]any by pkg/mta/wire's message parser.
func SendRequestFromMap(m map[string]any) (SendRequest, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return SendRequest{}, err
	}
	var r SendRequest
	if err := json.Unmarshal(b, &r); err != nil {
		return SendRequest{}, err
	}
	return r, nil
}

// IsTextShare reports whether this request describes a clipboard share
// rather than a file transfer.
func (r SendRequest) IsTextShare() bool {
	return r.TextContent != nil
}
