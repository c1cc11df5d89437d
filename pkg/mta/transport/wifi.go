package transport

import (
	"crypto/rand"
	"fmt"
)

// WiFiGroup is a short-lived Wi-Fi P2P (WiFi Direct) group set up for
// one transfer.
type WiFiGroup struct {
	SSID            string
	Passphrase      string
	GroupOwnerAddr  string
	IsGroupOwner    bool
}

// WiFiP2PProvider abstracts the platform-specific Wi-Fi Direct calls.
// Implementations outside this module may shell out to platform
// networking tools; StubWiFiP2PProvider below does not actually create
// a network and is meant for manual setup or tests, matching the
// reference implementation's own stub.
type WiFiP2PProvider interface {
	CreateGroup(ssid, passphrase string) (WiFiGroup, error)
	ConnectToGroup(ssid, passphrase string) (WiFiGroup, error)
	MACAddress() string
}

// StubWiFiP2PProvider reports credentials back to the caller (e.g. for
// display in a CLI prompting the user to join manually) without
// touching any real networking stack.
type StubWiFiP2PProvider struct {
	MAC string
}

func NewStubWiFiP2PProvider(mac string) *StubWiFiP2PProvider {
	if mac == "" {
		mac = "02:00:00:00:00:00"
	}
	return &StubWiFiP2PProvider{MAC: mac}
}

func (s *StubWiFiP2PProvider) CreateGroup(ssid, passphrase string) (WiFiGroup, error) {
	return WiFiGroup{SSID: ssid, Passphrase: passphrase, GroupOwnerAddr: "192.168.49.1", IsGroupOwner: true}, nil
}

func (s *StubWiFiP2PProvider) ConnectToGroup(ssid, passphrase string) (WiFiGroup, error) {
	return WiFiGroup{SSID: ssid, Passphrase: passphrase, IsGroupOwner: false}, nil
}

func (s *StubWiFiP2PProvider) MACAddress() string { return s.MAC }

var _ WiFiP2PProvider = (*StubWiFiP2PProvider)(nil)

const ssidChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const pskChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSSID produces a random "DIRECT-XXXXXXXX" SSID, matching the
// reference generator's 8-character uppercase-alphanumeric suffix.
func GenerateSSID() (string, error) {
	suffix, err := randomString(ssidChars, 8)
	if err != nil {
		return "", err
	}
	return "DIRECT-" + suffix, nil
}

// GeneratePSK produces a random 8-character mixed-case alphanumeric
// passphrase.
func GeneratePSK() (string, error) {
	return randomString(pskChars, 8)
}

func randomString(alphabet string, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("mta/transport: generate random string: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
