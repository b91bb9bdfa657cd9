package connector

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is a pre-resolved paho token.
type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// publishRecord captures one observed publish on the fake transport.
type publishRecord struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements pahomqtt.Client in-process. It records every
// operation and drives the lifecycle handlers synchronously, so tests can
// observe exactly what the connector asked the transport to do.
type fakeClient struct {
	mu   sync.Mutex
	opts *pahomqtt.ClientOptions

	connected    bool
	publishes    []publishRecord
	subscribed   map[string]byte
	handlers     map[string]pahomqtt.MessageHandler
	unsubscribed []string

	subscribeCalls int

	publishErr   error
	subscribeErr error
}

func newFakeClient(opts *pahomqtt.ClientOptions) *fakeClient {
	return &fakeClient{
		opts:       opts,
		subscribed: make(map[string]byte),
		handlers:   make(map[string]pahomqtt.MessageHandler),
	}
}

// install wires a fake transport factory into the connector and returns a
// getter for the client it builds.
func install(c *Connector) func() *fakeClient {
	var built *fakeClient
	c.newClient = func(opts *pahomqtt.ClientOptions) pahomqtt.Client {
		built = newFakeClient(opts)
		return built
	}
	return func() *fakeClient { return built }
}

func (f *fakeClient) Connect() pahomqtt.Token {
	f.mu.Lock()
	f.connected = true
	onConnect := f.opts.OnConnect
	f.mu.Unlock()

	// Drive the lifecycle handler synchronously for deterministic tests
	if onConnect != nil {
		onConnect(f)
	}
	return &fakeToken{}
}

func (f *fakeClient) Disconnect(_ uint) {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

// dropConnection simulates a transient network loss followed by the
// transport's automatic reconnect.
func (f *fakeClient) dropConnection(err error) {
	f.mu.Lock()
	f.connected = false
	lost := f.opts.OnConnectionLost
	reconnecting := f.opts.OnReconnecting
	f.mu.Unlock()

	if lost != nil {
		lost(f, err)
	}
	if reconnecting != nil {
		reconnecting(f, f.opts)
	}

	f.mu.Lock()
	f.connected = true
	onConnect := f.opts.OnConnect
	f.mu.Unlock()
	if onConnect != nil {
		onConnect(f)
	}
}

// deliver feeds a message to the handler registered for an effective topic.
func (f *fakeClient) deliver(topic string, payload []byte) {
	f.mu.Lock()
	handler := f.handlers[topic]
	f.mu.Unlock()
	if handler != nil {
		handler(f, &fakeMessage{topic: topic, payload: payload})
	}
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) IsConnectionOpen() bool { return f.IsConnected() }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	var data []byte
	switch p := payload.(type) {
	case []byte:
		data = p
	case string:
		data = []byte(p)
	}

	f.mu.Lock()
	f.publishes = append(f.publishes, publishRecord{topic: topic, qos: qos, retained: retained, payload: data})
	err := f.publishErr
	f.mu.Unlock()

	return &fakeToken{err: err}
}

func (f *fakeClient) Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	f.subscribeCalls++
	err := f.subscribeErr
	if err == nil {
		f.subscribed[topic] = qos
		f.handlers[topic] = callback
	}
	f.mu.Unlock()

	return &fakeToken{err: err}
}

func (f *fakeClient) SubscribeMultiple(filters map[string]byte, callback pahomqtt.MessageHandler) pahomqtt.Token {
	f.mu.Lock()
	f.subscribeCalls++
	err := f.subscribeErr
	if err == nil {
		for topic, qos := range filters {
			f.subscribed[topic] = qos
			f.handlers[topic] = callback
		}
	}
	f.mu.Unlock()

	return &fakeToken{err: err}
}

func (f *fakeClient) Unsubscribe(topics ...string) pahomqtt.Token {
	f.mu.Lock()
	for _, topic := range topics {
		f.unsubscribed = append(f.unsubscribed, topic)
		delete(f.subscribed, topic)
		delete(f.handlers, topic)
	}
	f.mu.Unlock()

	return &fakeToken{}
}

func (f *fakeClient) AddRoute(_ string, _ pahomqtt.MessageHandler) {}

func (f *fakeClient) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

func (f *fakeClient) lastPublish() (publishRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.publishes) == 0 {
		return publishRecord{}, false
	}
	return f.publishes[len(f.publishes)-1], true
}

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}
