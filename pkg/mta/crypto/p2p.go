package crypto

import (
	"fmt"

	"github.com/mta-alliance/mtad/pkg/mta/model"
)

// EncryptP2pInfo applies cipher field-by-field to ssid/psk/mac, per the
// invariant that those three fields are ciphertext whenever Key is
// present and plaintext otherwise. info.Key is left untouched by this
// call — callers set it before or after as appropriate.
func EncryptP2pInfo(cipher SessionCipher, info model.P2pInfo) (model.P2pInfo, error) {
	ssid, err := cipher.Encrypt(info.SSID)
	if err != nil {
		return model.P2pInfo{}, fmt.Errorf("mta/crypto: encrypt ssid: %w", err)
	}
	psk, err := cipher.Encrypt(info.PSK)
	if err != nil {
		return model.P2pInfo{}, fmt.Errorf("mta/crypto: encrypt psk: %w", err)
	}
	mac, err := cipher.Encrypt(info.MAC)
	if err != nil {
		return model.P2pInfo{}, fmt.Errorf("mta/crypto: encrypt mac: %w", err)
	}

	out := info
	out.SSID, out.PSK, out.MAC = ssid, psk, mac
	return out, nil
}

// DecryptP2pInfo is the inverse of EncryptP2pInfo.
func DecryptP2pInfo(cipher SessionCipher, info model.P2pInfo) (model.P2pInfo, error) {
	ssid, err := cipher.Decrypt(info.SSID)
	if err != nil {
		return model.P2pInfo{}, fmt.Errorf("mta/crypto: decrypt ssid: %w", err)
	}
	psk, err := cipher.Decrypt(info.PSK)
	if err != nil {
		return model.P2pInfo{}, fmt.Errorf("mta/crypto: decrypt psk: %w", err)
	}
	mac, err := cipher.Decrypt(info.MAC)
	if err != nil {
		return model.P2pInfo{}, fmt.Errorf("mta/crypto: decrypt mac: %w", err)
	}

	out := info
	out.SSID, out.PSK, out.MAC = ssid, psk, mac
	return out, nil
}
