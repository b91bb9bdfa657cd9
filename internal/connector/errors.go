package connector

import "errors"

// Domain-specific errors for connector operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidPort is returned by SetPort for non-positive port numbers.
	ErrInvalidPort = errors.New("connector: port must be a positive number")

	// ErrInvalidScheme is returned by SetScheme for schemes outside the
	// enumerated set. The wrapped message lists the valid schemes.
	ErrInvalidScheme = errors.New("connector: invalid scheme")

	// ErrInvalidHost is returned by SetHost for an empty host.
	ErrInvalidHost = errors.New("connector: host cannot be empty")

	// ErrEmptyIdentity is returned when connecting with a client certificate
	// that carries no common name. Operating without an identity would
	// derive malformed topics, so it is rejected outright.
	ErrEmptyIdentity = errors.New("connector: client certificate has no common name to derive a topic namespace from")

	// ErrNotConnected is returned when attempting topic operations with no
	// active session.
	ErrNotConnected = errors.New("connector: not connected")

	// ErrConnectionFailed is returned when a session cannot be initiated.
	ErrConnectionFailed = errors.New("connector: connection failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("connector: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("connector: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("connector: unsubscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("connector: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("connector: topic cannot be empty")
)
