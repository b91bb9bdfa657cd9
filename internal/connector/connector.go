package connector

import (
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ubyte-source/go-mqtt-client/internal/identity"
)

// Connector manages a mutually-authenticated MQTT session and scopes every
// topic operation to the identity extracted from the client certificate.
//
// Every effective topic is "{identity}/{caller topic}": callers supply
// topics relative to their own namespace and can never address the broker
// outside it.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are automatically restored on reconnection.
type Connector struct {
	params Params
	store  *identity.Store

	client  pahomqtt.Client
	options *pahomqtt.ClientOptions

	// newClient builds the transport session from options. Tests substitute
	// a fake transport here.
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client

	// subscriptions tracks active subscriptions (by effective topic) for
	// re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// Lifecycle observers. Each slot is single-consumer; the transport
	// invokes them in arrival order without coalescing.
	onConnect        func()
	onReconnect      func()
	onConnectionLost func(err error)
	onError          func(err error)
	onMessage        MessageHandler
	callbackMu       sync.RWMutex

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// subscription holds subscription details for re-subscription on reconnect.
// The topic is the effective (identity-prefixed) topic.
type subscription struct {
	topic string
	qos   byte
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked in separate goroutines by the paho library.
// They should not block for extended periods.
//
// Parameters:
//   - topic: The effective topic the message was received on
//   - payload: The raw message payload
//
// Returns:
//   - error: Logged but does not affect message acknowledgment
type MessageHandler func(topic string, payload []byte) error

// New creates a Connector bound to the given identity store, with default
// connection parameters (TLS socket to localhost:8883).
func New(store *identity.Store) *Connector {
	return &Connector{
		params:        DefaultParams(),
		store:         store,
		newClient:     pahomqtt.NewClient,
		subscriptions: make(map[string]subscription),
	}
}

// Params returns a copy of the current connection parameters.
func (c *Connector) Params() Params {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.params
}

// SetHost sets the broker host. Fails fast on an empty value.
func (c *Connector) SetHost(host string) error {
	if host == "" {
		return ErrInvalidHost
	}
	c.connMu.Lock()
	c.params.Host = host
	c.connMu.Unlock()
	return nil
}

// SetPort sets the broker port. Fails fast with ErrInvalidPort for
// non-positive values; the rejected value is never stored.
func (c *Connector) SetPort(port int) error {
	if err := ValidatePort(port); err != nil {
		return err
	}
	c.connMu.Lock()
	c.params.Port = port
	c.connMu.Unlock()
	return nil
}

// SetScheme sets the transport scheme. Fails fast with ErrInvalidScheme
// (listing the valid set) for values outside the enumerated schemes.
func (c *Connector) SetScheme(value string) error {
	scheme, err := ParseScheme(value)
	if err != nil {
		return err
	}
	c.connMu.Lock()
	c.params.Scheme = scheme
	c.connMu.Unlock()
	return nil
}

// SetKeepAlive sets the MQTT keep-alive interval. Non-positive values
// fall back to the default.
func (c *Connector) SetKeepAlive(interval time.Duration) {
	if interval <= 0 {
		interval = defaultKeepAlive
	}
	c.connMu.Lock()
	c.params.KeepAlive = interval
	c.connMu.Unlock()
}

// Connect opens the transport session.
//
// Preconditions: the identity store holds a loaded credential bundle whose
// certificate carries a common name. Both are checked synchronously;
// everything after that is asynchronous.
//
// Connect is non-blocking: it initiates the connection and returns.
// Connection establishment, reconnection, loss, and transport errors all
// surface through the registered observers as the transport reports them.
// The transport retries the initial attempt and later reconnects every
// 2 seconds, with a 20 second timeout per attempt; tracked subscriptions
// are re-established after every reconnect.
//
// Calling Connect again replaces any prior session.
//
// Returns:
//   - error: identity.ErrNotLoaded, ErrEmptyIdentity, or a TLS setup
//     failure; nil once the session is initiated
func (c *Connector) Connect() error {
	bundle, err := c.store.Credentials()
	if err != nil {
		return err
	}

	ident := c.store.Identity()
	if ident == "" {
		return ErrEmptyIdentity
	}

	opts, err := buildClientOptions(c.Params(), ident, bundle)
	if err != nil {
		return err
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, lostErr error) {
		c.handleConnectionLost(lostErr)
	})
	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.handleReconnecting()
	})
	opts.SetDefaultPublishHandler(c.forwardMessage)

	// Replace any prior session
	c.connMu.Lock()
	if c.client != nil {
		c.client.Disconnect(defaultDisconnectQuiesce)
	}
	c.options = opts
	c.client = c.newClient(opts)
	client := c.client
	c.connMu.Unlock()

	// Non-blocking: the token resolves via the lifecycle observers
	client.Connect()

	return nil
}

// handleConnect is called by the transport when the connection is
// established, on initial connect and on every reconnect.
func (c *Connector) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.restoreSubscriptions()

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleConnectionLost is called by the transport when the connection
// drops. The transport keeps retrying on its own; this only records state
// and notifies the observer.
func (c *Connector) handleConnectionLost(err error) {
	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()

	c.callbackMu.RLock()
	callback := c.onConnectionLost
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// handleReconnecting is called by the transport before each reconnection
// attempt.
func (c *Connector) handleReconnecting() {
	c.callbackMu.RLock()
	callback := c.onReconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
// Tracked topics are already identity-prefixed.
func (c *Connector) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		// Re-subscribe (errors surface through the error observer on use)
		c.client.Subscribe(sub.topic, sub.qos, c.forwardMessage)
	}
}

// Close gracefully disconnects from the broker, aborting all pending
// operations on the session. It is the only cancellation primitive.
//
// Returns:
//   - error: Always nil; closing an unopened connector is not an error
func (c *Connector) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.client == nil {
		return nil
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.connected = false

	return nil
}

// IsConnected returns the current connection state.
func (c *Connector) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.client != nil && c.connected && c.client.IsConnected()
}

// Identity returns the namespace root all topic operations are scoped to.
func (c *Connector) Identity() string {
	return c.store.Identity()
}

// OnConnect sets the connection-established observer.
// It fires on initial connect and on every reconnect.
func (c *Connector) OnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// OnReconnect sets the reconnect-attempted observer.
func (c *Connector) OnReconnect(callback func()) {
	c.callbackMu.Lock()
	c.onReconnect = callback
	c.callbackMu.Unlock()
}

// OnConnectionLost sets the connection-closed observer. The error
// describes why the connection was lost.
func (c *Connector) OnConnectionLost(callback func(err error)) {
	c.callbackMu.Lock()
	c.onConnectionLost = callback
	c.callbackMu.Unlock()
}

// OnError sets the transport-error observer. It receives asynchronous
// transport failures, including publish failures (which are additionally
// returned to the publishing caller - both paths fire).
func (c *Connector) OnError(callback func(err error)) {
	c.callbackMu.Lock()
	c.onError = callback
	c.callbackMu.Unlock()
}

// OnMessage sets the single message-arrival observer. Every message on
// every subscription is delivered to it without filtering; subscriptions
// are already scoped to the identity namespace, so callers filter on the
// effective topic themselves if they need to.
func (c *Connector) OnMessage(handler MessageHandler) {
	c.callbackMu.Lock()
	c.onMessage = handler
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for error and panic logging.
// If not set, handler errors are silently ignored.
func (c *Connector) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Connector) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// reportError delivers a transport error to the error observer, if set.
func (c *Connector) reportError(err error) {
	c.callbackMu.RLock()
	callback := c.onError
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// scopedTopic derives the effective topic by prefixing the caller's topic
// with the current identity.
func (c *Connector) scopedTopic(topic string) (string, error) {
	if topic == "" {
		return "", ErrInvalidTopic
	}
	ident := c.store.Identity()
	if ident == "" {
		// A reload replaced the certificate with one lacking a CN; refuse
		// to derive a malformed leading-slash topic
		return "", ErrEmptyIdentity
	}
	return fmt.Sprintf("%s/%s", ident, topic), nil
}

// forwardMessage delegates an incoming message to the registered message
// observer, with panic recovery and optional logging.
func (c *Connector) forwardMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	c.callbackMu.RLock()
	handler := c.onMessage
	c.callbackMu.RUnlock()
	if handler == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("message handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}
	}()

	if err := handler(msg.Topic(), msg.Payload()); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("message handler returned error",
				"topic", msg.Topic(),
				"error", err,
			)
		}
	}
}
