package transport

import (
	"crypto/ecdsa"
	"crypto/tls"
	"crypto/x509"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSelfSignedCertIsUsableByTLSServer(t *testing.T) {
	cert, err := GenerateSelfSignedCert("my-device")
	require.NoError(t, err)
	require.Len(t, cert.Certificate, 1)

	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	require.Equal(t, "my-device", parsed.Subject.CommonName)

	_, ok := cert.PrivateKey.(*ecdsa.PrivateKey)
	require.True(t, ok)

	// A TLS server using it should complete a handshake with a client
	// that skips verification, as the receiving peer does.
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	server := tls.Server(serverConn, &tls.Config{Certificates: []tls.Certificate{cert}})
	client := tls.Client(clientConn, &tls.Config{InsecureSkipVerify: true}) //nolint:gosec // self-signed peer cert
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Handshake() }()
	require.NoError(t, client.Handshake())
	require.NoError(t, <-serverErr)
}
