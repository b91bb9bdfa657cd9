package connector

import (
	"errors"
	"testing"

	"github.com/ubyte-source/go-mqtt-client/internal/identity"
)

// =============================================================================
// Connect Preconditions
// =============================================================================

func TestConnect_CredentialsNotLoaded(t *testing.T) {
	c := New(identity.NewStore())
	install(c)

	err := c.Connect()
	if !errors.Is(err, identity.ErrNotLoaded) {
		t.Errorf("Connect() error = %v, want identity.ErrNotLoaded", err)
	}
}

func TestConnect_EmptyIdentity(t *testing.T) {
	// Certificate loads fine but carries no common name
	c := New(newLoadedStore(t, ""))
	install(c)

	err := c.Connect()
	if !errors.Is(err, ErrEmptyIdentity) {
		t.Errorf("Connect() error = %v, want ErrEmptyIdentity", err)
	}
}

func TestConnect_FiresOnConnectObserver(t *testing.T) {
	c := New(newLoadedStore(t, "device42"))
	install(c)
	if err := c.SetScheme("mqtt"); err != nil {
		t.Fatalf("SetScheme() error = %v", err)
	}

	fired := false
	c.OnConnect(func() { fired = true })

	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !fired {
		t.Error("OnConnect observer did not fire")
	}
	if !c.IsConnected() {
		t.Error("IsConnected() = false after connect, want true")
	}
}

func TestConnect_SecureSchemeBuildsTLS(t *testing.T) {
	c := New(newRealStore(t, "device42"))
	install(c)

	// Default scheme is mqtts; TLS material comes from the loaded bundle
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
}

func TestConnect_SecureSchemeRejectsPlaceholderCreds(t *testing.T) {
	// Placeholder bytes are not valid PEM, so mutual-TLS setup must fail
	c := New(newLoadedStore(t, "device42"))
	install(c)

	err := c.Connect()
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestClose(t *testing.T) {
	c, _ := newConnected(t, "device42")

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestClose_Unopened(t *testing.T) {
	c := New(newLoadedStore(t, "device42"))
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unopened connector error = %v, want nil", err)
	}
}

func TestConnectionLost_FiresObserversInOrder(t *testing.T) {
	c, fake := newConnected(t, "device42")

	var events []string
	c.OnConnectionLost(func(_ error) { events = append(events, "lost") })
	c.OnReconnect(func() { events = append(events, "reconnecting") })
	c.OnConnect(func() { events = append(events, "connected") })

	fake.dropConnection(errors.New("network gone"))

	want := []string{"lost", "reconnecting", "connected"}
	if len(events) != len(want) {
		t.Fatalf("observed events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestReconnect_RestoresSubscriptions(t *testing.T) {
	c, fake := newConnected(t, "device42")

	if _, err := c.Subscribe("status", 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	fake.dropConnection(errors.New("network gone"))

	if qos, ok := fake.subscribed["device42/status"]; !ok || qos != 1 {
		t.Errorf("subscription not restored after reconnect: subscribed = %v", fake.subscribed)
	}
	if fake.subscribeCalls < 2 {
		t.Errorf("subscribeCalls = %d, want re-subscribe after reconnect", fake.subscribeCalls)
	}
}

// =============================================================================
// Message Delivery
// =============================================================================

func TestOnMessage_DeliversUnfiltered(t *testing.T) {
	c, fake := newConnected(t, "device42")

	var gotTopic string
	var gotPayload []byte
	c.OnMessage(func(topic string, payload []byte) error {
		gotTopic = topic
		gotPayload = payload
		return nil
	})

	if _, err := c.Subscribe("status", 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	fake.deliver("device42/status", []byte("ok"))

	if gotTopic != "device42/status" {
		t.Errorf("handler topic = %q, want %q", gotTopic, "device42/status")
	}
	if string(gotPayload) != "ok" {
		t.Errorf("handler payload = %q, want %q", gotPayload, "ok")
	}
}

func TestOnMessage_PanicRecovered(t *testing.T) {
	c, fake := newConnected(t, "device42")

	c.OnMessage(func(_ string, _ []byte) error {
		panic("handler exploded")
	})

	if _, err := c.Subscribe("status", 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// Must not crash the test binary
	fake.deliver("device42/status", []byte("boom"))
}

func TestOnMessage_NoObserverIsSafe(t *testing.T) {
	c, fake := newConnected(t, "device42")

	if _, err := c.Subscribe("status", 1); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	fake.deliver("device42/status", []byte("dropped"))
}
