package connector

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ubyte-source/go-mqtt-client/internal/identity"
)

// Connection constants.
const (
	// defaultConnectTimeout is the maximum time per connection attempt.
	defaultConnectTimeout = 20 * time.Second

	// reconnectPeriod is the fixed interval between reconnection attempts.
	// Reconnection is periodic, not exponential: the transport retries
	// every two seconds until the broker is reachable again.
	reconnectPeriod = 2 * time.Second

	// defaultOpTimeout is the maximum time to wait for a publish, subscribe,
	// or unsubscribe acknowledgement.
	defaultOpTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on
	// disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12

	// clientIDSuffixLen is the number of random characters appended to the
	// identity to form the session client ID.
	clientIDSuffixLen = 8
)

// buildClientOptions creates paho MQTT options from the connector's
// parameters and the loaded credential bundle.
//
// This configures:
//   - Broker URL mapped from the transport scheme
//   - Client ID derived from the certificate identity
//   - Mutual-TLS configuration for secure schemes
//   - Periodic reconnection (2s) with a bounded connect timeout (20s)
func buildClientOptions(params Params, ident string, bundle identity.Bundle) (*pahomqtt.ClientOptions, error) {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(params.BrokerURL())

	// Client identification - identity plus a random suffix so two sessions
	// holding the same certificate do not evict each other at the broker
	opts.SetClientID(ident + "-" + uuid.NewString()[:clientIDSuffixLen])

	// Clean session - subscriptions are tracked and restored by the connector
	opts.SetCleanSession(true)

	// Periodic reconnection; the connector configures the retry parameters
	// but the transport owns the retry loop
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(reconnectPeriod)
	opts.SetMaxReconnectInterval(reconnectPeriod)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(params.KeepAlive)

	// Mutual TLS for secure schemes
	if params.Scheme.secure() {
		tlsConfig, err := newTLSConfig(bundle)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

// newTLSConfig builds a mutual-TLS configuration from the credential
// bundle: the root certificate anchors broker verification and the client
// keypair authenticates this side of the session.
func newTLSConfig(bundle identity.Bundle) (*tls.Config, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(bundle.RootCA) {
		return nil, fmt.Errorf("%w: root certificate is not valid PEM", ErrConnectionFailed)
	}

	keyPair, err := tls.X509KeyPair(bundle.Certificate, bundle.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: loading client keypair: %w", ErrConnectionFailed, err)
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{keyPair},
		MinVersion:   tlsMinVersion,
	}, nil
}
