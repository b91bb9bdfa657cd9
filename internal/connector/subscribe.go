package connector

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscribe registers interest in a topic inside the identity namespace.
//
// The caller-supplied topic is relative to the namespace and may include
// MQTT wildcards: subscribing to "status/#" with identity "device42"
// subscribes to "device42/status/#". The effective topic is returned so
// callers correlate broker responses unambiguously.
//
// Messages are delivered to the observer registered with OnMessage.
// Subscriptions are automatically restored if the connection is lost and
// reconnected (tracked internally).
//
// Parameters:
//   - topic: The topic pattern relative to the identity namespace
//   - qos: Maximum QoS level for received messages (0, 1, or 2)
//
// Returns:
//   - string: The effective (identity-prefixed) topic
//   - error: nil on success, or wrapped error describing the failure
func (c *Connector) Subscribe(topic string, qos byte) (string, error) {
	// Validate inputs
	if qos > maxQoS {
		return "", ErrInvalidQoS
	}

	// Check connection state
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	effective, err := c.scopedTopic(topic)
	if err != nil {
		return "", err
	}

	// Track subscription for reconnection restoration
	c.subMu.Lock()
	c.subscriptions[effective] = subscription{topic: effective, qos: qos}
	c.subMu.Unlock()

	token := c.client.Subscribe(effective, qos, c.forwardMessage)
	if !token.WaitTimeout(defaultOpTimeout) {
		// Remove from tracking since subscription failed
		c.dropSubscription(effective)
		return effective, fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		c.dropSubscription(effective)
		return effective, fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return effective, nil
}

// SubscribeMultiple subscribes to an ordered list of topics at a shared
// QoS level. All topics are identity-prefixed; the effective topics are
// returned in the caller's order.
//
// Parameters:
//   - topics: Topic patterns relative to the identity namespace
//   - qos: Maximum QoS level applied to every topic
//
// Returns:
//   - []string: The effective topics, in input order
//   - error: nil on success, or wrapped error describing the failure
func (c *Connector) SubscribeMultiple(topics []string, qos byte) ([]string, error) {
	if len(topics) == 0 {
		return nil, ErrInvalidTopic
	}

	filters := make(map[string]byte, len(topics))
	for _, t := range topics {
		filters[t] = qos
	}

	if _, err := c.SubscribeFilters(filters); err != nil {
		return nil, err
	}

	effective := make([]string, 0, len(topics))
	for _, t := range topics {
		scoped, scopeErr := c.scopedTopic(t)
		if scopeErr != nil {
			return nil, scopeErr
		}
		effective = append(effective, scoped)
	}

	return effective, nil
}

// SubscribeFilters subscribes to a set of topics with per-topic QoS
// levels. The returned map is keyed by effective topic and carries the
// QoS granted by the broker (falling back to the requested level when the
// transport does not report grants).
//
// Parameters:
//   - filters: Map of namespace-relative topic pattern to requested QoS
//
// Returns:
//   - map[string]byte: Effective topic to granted QoS
//   - error: nil on success, or wrapped error describing the failure
func (c *Connector) SubscribeFilters(filters map[string]byte) (map[string]byte, error) {
	if len(filters) == 0 {
		return nil, ErrInvalidTopic
	}
	for _, qos := range filters {
		if qos > maxQoS {
			return nil, ErrInvalidQoS
		}
	}

	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	// Derive all effective topics before touching transport state
	scoped := make(map[string]byte, len(filters))
	for topic, qos := range filters {
		effective, err := c.scopedTopic(topic)
		if err != nil {
			return nil, err
		}
		scoped[effective] = qos
	}

	// Track subscriptions for reconnection restoration
	c.subMu.Lock()
	for effective, qos := range scoped {
		c.subscriptions[effective] = subscription{topic: effective, qos: qos}
	}
	c.subMu.Unlock()

	token := c.client.SubscribeMultiple(scoped, c.forwardMessage)
	if !token.WaitTimeout(defaultOpTimeout) {
		for effective := range scoped {
			c.dropSubscription(effective)
		}
		return nil, fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		for effective := range scoped {
			c.dropSubscription(effective)
		}
		return nil, fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	// Pass through the broker's granted QoS where the transport reports it
	granted := make(map[string]byte, len(scoped))
	for effective, qos := range scoped {
		granted[effective] = qos
	}
	if st, ok := token.(*pahomqtt.SubscribeToken); ok {
		for effective, qos := range st.Result() {
			granted[effective] = qos
		}
	}

	return granted, nil
}

// Unsubscribe removes a subscription and stops receiving messages for a
// topic. The topic is relative to the identity namespace, exactly as it
// was passed to Subscribe.
//
// Returns:
//   - string: The effective (identity-prefixed) topic
//   - error: nil on success, or wrapped error describing the failure
func (c *Connector) Unsubscribe(topic string) (string, error) {
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	effective, err := c.scopedTopic(topic)
	if err != nil {
		return "", err
	}

	c.dropSubscription(effective)

	token := c.client.Unsubscribe(effective)
	if !token.WaitTimeout(defaultOpTimeout) {
		return effective, fmt.Errorf("%w: timeout after %v", ErrUnsubscribeFailed, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return effective, fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	return effective, nil
}

// SubscriptionCount returns the number of active subscriptions.
func (c *Connector) SubscriptionCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}

// HasSubscription checks if a subscription exists for the given effective
// topic.
//
// Note: This checks only the exact topic string, not pattern matching.
func (c *Connector) HasSubscription(effectiveTopic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	_, exists := c.subscriptions[effectiveTopic]
	return exists
}

// dropSubscription removes a tracked subscription by effective topic.
func (c *Connector) dropSubscription(effectiveTopic string) {
	c.subMu.Lock()
	delete(c.subscriptions, effectiveTopic)
	c.subMu.Unlock()
}
