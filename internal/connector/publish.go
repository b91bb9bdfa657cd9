package connector

import (
	"fmt"
)

// Maximum payload size for published messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message inside the identity namespace.
//
// The caller-supplied topic is relative to the namespace: publishing
// "status" with identity "device42" sends to "device42/status". The
// effective topic is returned so callers can correlate the operation.
//
// On transport failure the error is reported through the error observer
// AND returned to the caller - both paths fire, they are not exclusive.
// Delivery guarantees are exactly the transport's QoS semantics; this
// layer adds none.
//
// Parameters:
//   - topic: The topic relative to the identity namespace
//   - payload: The message payload (max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - string: The effective (identity-prefixed) topic
//   - error: nil on success, or wrapped error describing the failure
//
// Example:
//
//	effective, err := conn.Publish("temp", []byte("21.5"), 1, false)
//	// effective == "sensor-7/temp"
func (c *Connector) Publish(topic string, payload []byte, qos byte, retained bool) (string, error) {
	// Validate inputs
	if qos > maxQoS {
		return "", ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return "", fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	// Check connection state
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	effective, err := c.scopedTopic(topic)
	if err != nil {
		return "", err
	}

	// Publish with timeout
	token := c.client.Publish(effective, qos, retained, payload)
	if !token.WaitTimeout(defaultOpTimeout) {
		pubErr := fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultOpTimeout)
		c.reportError(pubErr)
		return effective, pubErr
	}
	if err := token.Error(); err != nil {
		pubErr := fmt.Errorf("%w: %w", ErrPublishFailed, err)
		c.reportError(pubErr)
		return effective, pubErr
	}

	return effective, nil
}

// PublishString is a convenience method that publishes a string payload.
//
// This is equivalent to calling Publish with []byte(payload).
func (c *Connector) PublishString(topic string, payload string, qos byte, retained bool) (string, error) {
	return c.Publish(topic, []byte(payload), qos, retained)
}
