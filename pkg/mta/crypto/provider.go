// Package crypto implements the ECDH P-256 key agreement and AES-CTR
// session cipher used to protect the Wi-Fi credentials exchanged over
// BLE GATT (§4.2).
package crypto

// SessionCipher is the per-session symmetric cipher derived from an
// ECDH key agreement. It operates on UTF-8 text fields, never on a
// whole JSON document.
type SessionCipher interface {
	// Encrypt returns base64(ciphertext) for the given plaintext.
	Encrypt(plaintext string) (string, error)
	// Decrypt returns the plaintext for the given base64(ciphertext).
	Decrypt(encoded string) (string, error)
}

// Provider is the collaborator interface a session needs from the
// crypto layer: its own public key, and the ability to derive a
// session cipher from a peer's public key.
type Provider interface {
	// PublicKey returns this peer's base64-encoded X.509
	// SubjectPublicKeyInfo for its ephemeral P-256 key pair.
	PublicKey() string
	// DeriveCipher performs ECDH against peerPublicKey (same encoding
	// as PublicKey) and returns the resulting SessionCipher.
	DeriveCipher(peerPublicKey string) (SessionCipher, error)
}
