package journal

import (
	"context"
	"time"
)

// recordTimeout bounds each journal write so a slow disk never stalls the
// transport callbacks that trigger recording.
const recordTimeout = 2 * time.Second

// Logger receives warnings when a journal write fails. Recording is best
// effort: a failed write is logged and dropped, never propagated back to
// the connection lifecycle.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder writes connection lifecycle events to the journal. Its methods
// match the connector's observer signatures so it can be wired directly.
type Recorder struct {
	repo     Repository
	logger   Logger
	broker   string
	identity string
}

// NewRecorder creates a Recorder that journals events for the given broker
// and identity. logger may be nil.
func NewRecorder(repo Repository, logger Logger, broker, identity string) *Recorder {
	return &Recorder{
		repo:     repo,
		logger:   logger,
		broker:   broker,
		identity: identity,
	}
}

// Connected records an established session.
func (r *Recorder) Connected() {
	r.record(&Event{Kind: KindConnected})
}

// Reconnecting records a reconnection attempt.
func (r *Recorder) Reconnecting() {
	r.record(&Event{Kind: KindReconnecting})
}

// ConnectionLost records a dropped session and its cause.
func (r *Recorder) ConnectionLost(err error) {
	event := &Event{Kind: KindConnectionLost}
	if err != nil {
		event.Details = map[string]any{"error": err.Error()}
	}
	r.record(event)
}

// Disconnected records a deliberate session close.
func (r *Recorder) Disconnected() {
	r.record(&Event{Kind: KindDisconnected})
}

// Subscribed records a new subscription by its effective topic.
func (r *Recorder) Subscribed(topic string) {
	r.record(&Event{Kind: KindSubscribed, Topic: topic})
}

// Unsubscribed records a removed subscription by its effective topic.
func (r *Recorder) Unsubscribed(topic string) {
	r.record(&Event{Kind: KindUnsubscribed, Topic: topic})
}

// Error records an asynchronous transport error.
func (r *Recorder) Error(err error) {
	event := &Event{Kind: KindError}
	if err != nil {
		event.Details = map[string]any{"error": err.Error()}
	}
	r.record(event)
}

func (r *Recorder) record(event *Event) {
	event.Broker = r.broker
	event.Identity = r.identity

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, event); err != nil && r.logger != nil {
		r.logger.Warn("journal write failed", "kind", event.Kind, "error", err)
	}
}
