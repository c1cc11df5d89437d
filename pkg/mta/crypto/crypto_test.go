package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mta-alliance/mtad/pkg/mta/model"
)

func TestDeriveCipherIsSymmetricAcrossPeers(t *testing.T) {
	a, err := NewProvider(AES128)
	require.NoError(t, err)
	b, err := NewProvider(AES128)
	require.NoError(t, err)

	cipherA, err := a.DeriveCipher(b.PublicKey())
	require.NoError(t, err)
	cipherB, err := b.DeriveCipher(a.PublicKey())
	require.NoError(t, err)

	ciphertext, err := cipherA.Encrypt("hello from A")
	require.NoError(t, err)

	plaintext, err := cipherB.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, "hello from A", plaintext)
}

func TestDeriveCipherAES256UsesFullSecret(t *testing.T) {
	a, err := NewProvider(AES256)
	require.NoError(t, err)
	b, err := NewProvider(AES256)
	require.NoError(t, err)

	cipherA, err := a.DeriveCipher(b.PublicKey())
	require.NoError(t, err)
	cipherB, err := b.DeriveCipher(a.PublicKey())
	require.NoError(t, err)

	ciphertext, err := cipherA.Encrypt("secret payload")
	require.NoError(t, err)
	plaintext, err := cipherB.Decrypt(ciphertext)
	require.NoError(t, err)
	require.Equal(t, "secret payload", plaintext)

	// Two secrets that agree on their first 16 bytes only encrypt
	// differently when all 32 bytes form the key.
	secretA := make([]byte, 32)
	secretB := make([]byte, 32)
	secretB[31] = 1
	fullA, err := newAESCTRCipher(secretA, AES256)
	require.NoError(t, err)
	fullB, err := newAESCTRCipher(secretB, AES256)
	require.NoError(t, err)
	ctA, err := fullA.Encrypt("secret payload")
	require.NoError(t, err)
	ctB, err := fullB.Encrypt("secret payload")
	require.NoError(t, err)
	require.NotEqual(t, ctA, ctB)
}

func TestDeriveCipherRejectsGarbageKey(t *testing.T) {
	a, err := NewProvider(AES128)
	require.NoError(t, err)

	_, err = a.DeriveCipher("not base64!!")
	require.Error(t, err)
}

func TestEncryptDecryptP2pInfoRoundTrip(t *testing.T) {
	a, err := NewProvider(AES128)
	require.NoError(t, err)
	b, err := NewProvider(AES128)
	require.NoError(t, err)

	cipherA, err := a.DeriveCipher(b.PublicKey())
	require.NoError(t, err)
	cipherB, err := b.DeriveCipher(a.PublicKey())
	require.NoError(t, err)

	info := model.P2pInfo{SSID: "DIRECT-ABCD1234", PSK: "passw0rd", MAC: "AA:BB:CC:DD:EE:FF", Port: 8443}

	encrypted, err := EncryptP2pInfo(cipherA, info)
	require.NoError(t, err)
	require.NotEqual(t, info.SSID, encrypted.SSID)

	decrypted, err := DecryptP2pInfo(cipherB, encrypted)
	require.NoError(t, err)
	require.Equal(t, info.SSID, decrypted.SSID)
	require.Equal(t, info.PSK, decrypted.PSK)
	require.Equal(t, info.MAC, decrypted.MAC)
}

func TestPublicKeyIsStableWithinAProvider(t *testing.T) {
	p, err := NewProvider(AES128)
	require.NoError(t, err)
	require.Equal(t, p.PublicKey(), p.PublicKey())
}
