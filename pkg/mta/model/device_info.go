// Package model holds the MTA wire data types: the structures exchanged
// over BLE GATT and the WebSocket control channel.
package model

import "encoding/json"

// DeviceInfo is advertised by the receiver over the Status GATT
// characteristic. The wire spelling of the feature flag is "catShare",
// not "catshare", so it gets a hand-written (Un)MarshalJSON instead of
// a struct tag.
type DeviceInfo struct {
	State    int
	MAC      string
	Key      *string
	CatShare *int
}

type deviceInfoWire struct {
	State    int    `json:"state"`
	MAC      string `json:"mac"`
	Key      *string `json:"key,omitempty"`
	CatShare *int    `json:"catShare,omitempty"`
}

// MarshalJSON emits the compact field set: optional members are omitted
// entirely when nil, matching the Android reference encoder.
func (d DeviceInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(deviceInfoWire{
		State:    d.State,
		MAC:      d.MAC,
		Key:      d.Key,
		CatShare: d.CatShare,
	})
}

func (d *DeviceInfo) UnmarshalJSON(data []byte) error {
	var w deviceInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.State = w.State
	d.MAC = w.MAC
	d.Key = w.Key
	d.CatShare = w.CatShare
	return nil
}

// HasKey reports whether this DeviceInfo carries the receiver's public key.
func (d DeviceInfo) HasKey() bool {
	return d.Key != nil && *d.Key != ""
}
