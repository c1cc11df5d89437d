package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"fmt"
)

// ecdhProvider is the default Provider: an ephemeral P-256 key pair
// generated once per session, with ECDH performed against whatever
// peer key is presented. There is no KDF extraction step — the
// protocol feeds the raw ECDH premaster secret straight into AES, the
// way the Java reference does with "TlsPremasterSecret".
type ecdhProvider struct {
	private *ecdsa.PrivateKey
	mode    KeyMode
}

// NewProvider generates a fresh ephemeral P-256 key pair and returns a
// Provider that derives AES-CTR session ciphers from it. mode selects
// the canonical 16-byte truncation (AES128) or the 32-byte
// compatibility form (AES256).
func NewProvider(mode KeyMode) (Provider, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("mta/crypto: generate key pair: %w", err)
	}
	return &ecdhProvider{private: priv, mode: mode}, nil
}

// PublicKey implements Provider.
func (p *ecdhProvider) PublicKey() string {
	der, err := x509.MarshalPKIXPublicKey(&p.private.PublicKey)
	if err != nil {
		// A key we generated ourselves on a standard curve can't fail
		// to marshal; a panic here means the stdlib's contract broke.
		panic(fmt.Sprintf("mta/crypto: marshal own public key: %v", err))
	}
	return base64.StdEncoding.EncodeToString(der)
}

// DeriveCipher implements Provider.
func (p *ecdhProvider) DeriveCipher(peerPublicKey string) (SessionCipher, error) {
	der, err := base64.StdEncoding.DecodeString(peerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("mta/crypto: decode peer public key: %w", err)
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("mta/crypto: parse peer public key: %w", err)
	}

	ecdsaPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("mta/crypto: peer public key is not an EC key")
	}
	if ecdsaPub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("mta/crypto: peer public key is not on P-256")
	}

	localECDH, err := p.private.ECDH()
	if err != nil {
		return nil, fmt.Errorf("mta/crypto: convert local key to ECDH: %w", err)
	}
	peerECDH, err := ecdsaPub.ECDH()
	if err != nil {
		return nil, fmt.Errorf("mta/crypto: convert peer key to ECDH: %w", err)
	}

	sharedSecret, err := localECDH.ECDH(peerECDH)
	if err != nil {
		return nil, fmt.Errorf("mta/crypto: compute shared secret: %w", err)
	}

	return newAESCTRCipher(sharedSecret, p.mode)
}
