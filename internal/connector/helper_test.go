package connector

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

	"github.com/ubyte-source/go-mqtt-client/internal/identity"
)

// fixedParser stubs the certificate parser with a fixed identity.
type fixedParser string

func (p fixedParser) CommonName(_ []byte) (string, error) { return string(p), nil }

// newLoadedStore returns an identity store loaded from placeholder
// credential files, with the parser stubbed to return cn.
func newLoadedStore(t *testing.T, cn string) *identity.Store {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, 3)
	for i, name := range []string{"ca.pem", "client.pem", "client.key"} {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], []byte("placeholder"), 0600); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	store := identity.NewStoreWithParser(fixedParser(cn))
	if err := store.Load(paths[0], paths[1], paths[2]); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return store
}

// generateKeyPairPEM creates a real self-signed certificate and key for
// TLS configuration tests.
func generateKeyPairPEM(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
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

// newRealStore writes real PEM credentials into a temp dir and loads them
// through the standard X.509 parser.
func newRealStore(t *testing.T, cn string) *identity.Store {
	t.Helper()

	dir := t.TempDir()
	rootPEM, _ := generateKeyPairPEM(t, "test-root-ca")
	certPEM, keyPEM := generateKeyPairPEM(t, cn)

	rootPath := filepath.Join(dir, "ca.pem")
	certPath := filepath.Join(dir, "client.pem")
	keyPath := filepath.Join(dir, "client.key")
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

	store := identity.NewStore()
	if err := store.Load(rootPath, certPath, keyPath); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return store
}

// newConnected builds a connector over the fake transport, using a plain
// scheme so no TLS material is needed, and connects it.
func newConnected(t *testing.T, cn string) (*Connector, *fakeClient) {
	t.Helper()

	c := New(newLoadedStore(t, cn))
	getFake := install(c)

	if err := c.SetScheme("mqtt"); err != nil {
		t.Fatalf("SetScheme() error = %v", err)
	}
	if err := c.SetPort(1883); err != nil {
		t.Fatalf("SetPort() error = %v", err)
	}
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	fake := getFake()
	if fake == nil {
		t.Fatal("fake transport was not built")
	}
	return c, fake
}
