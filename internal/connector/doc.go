// Package connector manages the mutually-authenticated MQTT session and
// the identity-scoped topic namespace.
//
// This package manages:
//   - Validated connection parameters (host, port, transport scheme)
//   - Mutual-TLS session setup from the identity store's credential bundle
//   - Identity-prefixed topic derivation on every publish/subscribe
//   - Periodic reconnection with automatic subscription restore
//   - Lifecycle observers (connect, reconnect, loss, error, message)
//
// # Topic Namespace
//
// The identity extracted from the client certificate is the namespace
// root. A connector whose certificate carries CN "device42" publishes
// "status" to the broker topic "device42/status" and cannot address
// topics outside "device42/". The effective topic is returned from every
// operation so callers correlate broker responses unambiguously.
//
// # Lifecycle
//
// Unconnected -> Connecting -> Connected -> (Reconnecting <-> Connected) -> Closed
//
// Connect is non-blocking; establishment, loss, and reconnection surface
// through the observers as the transport reports them. Close aborts all
// pending operations and is the only cancellation primitive.
//
// # Credential Reloading
//
// The credential bundle and identity are effectively immutable after a
// load. Reloading credentials while topic operations are in flight would
// change the namespace under them; callers must quiesce topic operations
// before asking the identity store to reload.
//
// # Usage
//
//	store := identity.NewStore()
//	if err := store.Load("ca.pem", "client.pem", "client.key"); err != nil {
//	    log.Fatal(err)
//	}
//
//	conn := connector.New(store)
//	conn.SetHost("broker.example.com")
//	conn.OnConnect(func() {
//	    conn.Subscribe("command/#", 1)
//	})
//	conn.OnMessage(func(topic string, payload []byte) error {
//	    log.Printf("received: %s = %s", topic, payload)
//	    return nil
//	})
//	if err := conn.Connect(); err != nil {
//	    log.Fatal(err)
//	}
package connector
