package identity

import "errors"

// Domain-specific errors for credential handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrCredentialLoad is returned when one or more credential files are
	// missing or unreadable. The message deliberately omits the underlying
	// filesystem error to avoid exposing path-existence side channels.
	ErrCredentialLoad = errors.New("identity: could not load credentials")

	// ErrIdentityExtraction is returned when the client certificate bytes
	// cannot be parsed as a certificate at all. A certificate that parses
	// but carries no common name is not an error.
	ErrIdentityExtraction = errors.New("identity: client certificate is not a valid certificate")

	// ErrNotLoaded is returned when credentials are requested before a
	// successful Load.
	ErrNotLoaded = errors.New("identity: credentials not loaded")
)
