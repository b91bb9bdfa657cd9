package identity

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
)

// CertificateParser extracts the subject common name from certificate bytes.
//
// The Store is the only component that interprets the client certificate,
// and it does so exclusively through this collaborator, so tests can
// substitute a stub parser instead of crafting real certificates.
type CertificateParser interface {
	// CommonName parses a PEM-encoded X.509 certificate and returns its
	// subject common name. A certificate without a common name returns
	// ("", nil); bytes that do not parse as a certificate return an error.
	CommonName(certPEM []byte) (string, error)
}

// X509Parser is the default CertificateParser backed by crypto/x509.
type X509Parser struct{}

// CommonName implements CertificateParser using the standard library
// PEM decoder and X.509 parser.
func (X509Parser) CommonName(certPEM []byte) (string, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return "", errors.New("no PEM block found")
	}
	if block.Type != "CERTIFICATE" {
		return "", errors.New("PEM block is not a certificate")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", err
	}

	return cert.Subject.CommonName, nil
}
