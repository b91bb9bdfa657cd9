package identity

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
)

// generateCertPEM creates a self-signed certificate with the given common
// name and returns the certificate and key as PEM bytes. An empty
// commonName produces a certificate whose subject has no CN attribute.
func generateCertPEM(t *testing.T, commonName string) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	subject := pkix.Name{Organization: []string{"test"}}
	if commonName != "" {
		subject.CommonName = commonName
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      subject,
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshalling key: %v", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

// writeTestCredentials writes a complete credential bundle into dir and
// returns the three paths. The root certificate is a second self-signed
// certificate acting as the trust anchor.
func writeTestCredentials(t *testing.T, dir, commonName string) (rootPath, certPath, keyPath string) {
	t.Helper()

	rootPEM, _ := generateCertPEM(t, "test-root-ca")
	certPEM, keyPEM := generateCertPEM(t, commonName)

	rootPath = filepath.Join(dir, "ca.pem")
	certPath = filepath.Join(dir, "client.pem")
	keyPath = filepath.Join(dir, "client.key")

	for _, f := range []struct {
		path string
		data []byte
	}{
		{rootPath, rootPEM},
		{certPath, certPEM},
		{keyPath, keyPEM},
	} {
		if err := os.WriteFile(f.path, f.data, 0600); err != nil {
			t.Fatalf("writing %s: %v", f.path, err)
		}
	}

	return rootPath, certPath, keyPath
}
