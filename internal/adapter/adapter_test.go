package adapter_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/niksmo/foodex/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSigned writes a self-signed certificate and its key,
// the certificate also serves as CA.
func writeSelfSigned(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "foodex"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPath = filepath.Join(dir, "client.crt")
	keyPath = filepath.Join(dir, "client.key")
	require.NoError(t, os.WriteFile(certPath,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath,
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certPath, keyPath
}

func TestMakeTLSConfig(t *testing.T) {
	t.Run("Ordinary", func(t *testing.T) {
		dir := t.TempDir()
		cert, key := writeSelfSigned(t, dir)

		cfg, err := adapter.MakeTLSConfig(cert, cert, key)
		require.NoError(t, err)
		assert.NotNil(t, cfg.RootCAs)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("MissingCA", func(t *testing.T) {
		dir := t.TempDir()
		cert, key := writeSelfSigned(t, dir)

		_, err := adapter.MakeTLSConfig(filepath.Join(dir, "nope.crt"), cert, key)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("InvalidCA", func(t *testing.T) {
		dir := t.TempDir()
		cert, key := writeSelfSigned(t, dir)
		ca := filepath.Join(dir, "ca.crt")
		require.NoError(t, os.WriteFile(ca, []byte("garbage"), 0o600))

		_, err := adapter.MakeTLSConfig(ca, cert, key)
		assert.ErrorIs(t, err, adapter.ErrInvalidCA)
	})

	t.Run("KeyMismatch", func(t *testing.T) {
		cert, _ := writeSelfSigned(t, t.TempDir())
		_, otherKey := writeSelfSigned(t, t.TempDir())

		_, err := adapter.MakeTLSConfig(cert, cert, otherKey)
		assert.Error(t, err)
	})
}
