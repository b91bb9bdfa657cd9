package connector

import (
	"fmt"
	"time"
)

// Scheme is the transport scheme used to reach the broker.
// It is a closed set; anything else is rejected by ParseScheme.
type Scheme string

// The four supported transport schemes.
const (
	// SchemePlain is an unencrypted TCP socket.
	SchemePlain Scheme = "mqtt"

	// SchemeSecure is a TLS socket. This is the default.
	SchemeSecure Scheme = "mqtts"

	// SchemeWebSocket is an unencrypted WebSocket.
	SchemeWebSocket Scheme = "ws"

	// SchemeSecureWebSocket is a TLS WebSocket.
	SchemeSecureWebSocket Scheme = "wss"
)

// validSchemes is the set listed in ErrInvalidScheme messages, in a fixed
// order so the error text is stable.
const validSchemes = "mqtt, mqtts, ws, wss"

// ParseScheme validates a scheme string against the enumerated set.
//
// Returns:
//   - Scheme: The parsed scheme
//   - error: ErrInvalidScheme carrying the offending value and the valid set
func ParseScheme(value string) (Scheme, error) {
	switch Scheme(value) {
	case SchemePlain, SchemeSecure, SchemeWebSocket, SchemeSecureWebSocket:
		return Scheme(value), nil
	default:
		return "", fmt.Errorf("%w: %q (valid schemes: %s)", ErrInvalidScheme, value, validSchemes)
	}
}

// ValidatePort checks that a port is a positive number in TCP range.
//
// Returns:
//   - error: ErrInvalidPort carrying the offending value, or nil
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	return nil
}

// wire maps a Scheme to the URL scheme the paho transport expects.
// The mapping is total over the closed set.
func (s Scheme) wire() string {
	switch s {
	case SchemePlain:
		return "tcp"
	case SchemeSecure:
		return "ssl"
	case SchemeWebSocket:
		return "ws"
	case SchemeSecureWebSocket:
		return "wss"
	}
	// Unreachable for values produced by ParseScheme
	return "ssl"
}

// secure reports whether the scheme carries TLS.
func (s Scheme) secure() bool {
	return s == SchemeSecure || s == SchemeSecureWebSocket
}

// Params holds validated connection parameters.
// Mutation goes through the Connector's fail-fast setters; invalid values
// are rejected before they are stored, never coerced.
type Params struct {
	Host      string
	Port      int
	Scheme    Scheme
	KeepAlive time.Duration
}

// DefaultParams returns the connector's default connection parameters:
// TLS socket to localhost:8883.
func DefaultParams() Params {
	return Params{
		Host:      "localhost",
		Port:      8883,
		Scheme:    SchemeSecure,
		KeepAlive: defaultKeepAlive,
	}
}

// BrokerURL renders the parameters as a broker URL for the transport,
// e.g. "ssl://broker.example.com:8883".
func (p Params) BrokerURL() string {
	return fmt.Sprintf("%s://%s:%d", p.Scheme.wire(), p.Host, p.Port)
}
