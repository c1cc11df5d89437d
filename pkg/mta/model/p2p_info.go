package model

import "encoding/json"

// P2pInfo carries the Wi-Fi credentials for the short-lived transfer
// link. ssid/psk/mac travel as ciphertext (base64 of AES-CTR output)
// whenever Key is present; otherwise as plaintext. This struct never
// encrypts or decrypts on its own — callers in pkg/mta/crypto and
// pkg/mta/transport are responsible for applying the session cipher to
// the three fields before/after (de)serializing.
type P2pInfo struct {
	SSID     string
	PSK      string
	MAC      string
	Port     int
	ID       *string
	Key      *string
	CatShare *int
}

type p2pInfoWire struct {
	SSID     string  `json:"ssid"`
	PSK      string  `json:"psk"`
	MAC      string  `json:"mac"`
	Port     int     `json:"port"`
	ID       *string `json:"id,omitempty"`
	Key      *string `json:"key,omitempty"`
	CatShare *int    `json:"catShare,omitempty"`
}

func (p P2pInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(p2pInfoWire{
		SSID:     p.SSID,
		PSK:      p.PSK,
		MAC:      p.MAC,
		Port:     p.Port,
		ID:       p.ID,
		Key:      p.Key,
		CatShare: p.CatShare,
	})
}

func (p *P2pInfo) UnmarshalJSON(data []byte) error {
	var w p2pInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.SSID = w.SSID
	p.PSK = w.PSK
	p.MAC = w.MAC
	p.Port = w.Port
	p.ID = w.ID
	p.Key = w.Key
	p.CatShare = w.CatShare
	return nil
}

// HasKey reports whether ssid/psk/mac are expected to be ciphertext.
func (p P2pInfo) HasKey() bool {
	return p.Key != nil && *p.Key != ""
}
