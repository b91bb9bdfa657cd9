package identity

import (
	"fmt"
	"os"
	"sync"
)

// Bundle holds the three PEM-encoded credential artifacts needed to
// authenticate a transport session. The bytes are opaque to callers;
// only the client certificate is ever interpreted, and only by the Store.
type Bundle struct {
	RootCA      []byte
	Certificate []byte
	PrivateKey  []byte
}

// Store owns the credential bundle and the identity derived from it.
//
// The bundle is populated atomically by Load: either all three artifacts
// are present or none are, and a failed Load leaves any previous state
// untouched. The identity (the client certificate's subject common name)
// is recomputed on every successful Load, never set directly.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Load serialises behind the
//     same lock that guards Credentials and Identity reads, so a reload
//     cannot interleave with in-flight identity reads.
type Store struct {
	mu         sync.RWMutex
	bundle     *Bundle
	commonName string

	parser CertificateParser
}

// NewStore creates an empty Store using the standard X.509 parser.
func NewStore() *Store {
	return NewStoreWithParser(X509Parser{})
}

// NewStoreWithParser creates an empty Store with a custom certificate
// parser. Used in tests to substitute a stub parser.
func NewStoreWithParser(parser CertificateParser) *Store {
	return &Store{parser: parser}
}

// Load reads the credential bundle from the three given paths and derives
// the identity from the client certificate.
//
// All three files are checked for existence before any of them is read,
// and all three are read before any state changes. On any failure the
// previous state (if any) is preserved.
//
// Parameters:
//   - rootPath: Path to the PEM-encoded root-of-trust certificate
//   - certPath: Path to the PEM-encoded client certificate
//   - keyPath: Path to the PEM-encoded private key
//
// Returns:
//   - error: ErrCredentialLoad if any path is missing or unreadable,
//     ErrIdentityExtraction if the client certificate does not parse
func (s *Store) Load(rootPath, certPath, keyPath string) error {
	paths := []struct {
		role string
		path string
	}{
		{"root certificate", rootPath},
		{"client certificate", certPath},
		{"private key", keyPath},
	}

	// Existence check for all three before reading any
	for _, p := range paths {
		if _, err := os.Stat(p.path); err != nil {
			return fmt.Errorf("%w: %s", ErrCredentialLoad, p.role)
		}
	}

	// Read all three into memory before touching state
	buffers := make([][]byte, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p.path)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrCredentialLoad, p.role)
		}
		buffers[i] = data
	}

	// Derive the identity before committing the bundle, so an unparseable
	// certificate leaves the previous state intact
	commonName, err := s.parser.CommonName(buffers[1])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityExtraction, err)
	}

	s.mu.Lock()
	s.bundle = &Bundle{
		RootCA:      buffers[0],
		Certificate: buffers[1],
		PrivateKey:  buffers[2],
	}
	s.commonName = commonName
	s.mu.Unlock()

	return nil
}

// Credentials returns the loaded bundle.
//
// Returns:
//   - Bundle: All three credential buffers, never partial
//   - error: ErrNotLoaded if no Load has succeeded yet
func (s *Store) Credentials() (Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.bundle == nil {
		return Bundle{}, ErrNotLoaded
	}
	return *s.bundle, nil
}

// Identity returns the subject common name of the loaded client
// certificate. It returns the empty string both before the first Load and
// for certificates that carry no common name; callers that need to
// distinguish the two should check Credentials first.
func (s *Store) Identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commonName
}
