package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xraph/usecase"
	"github.com/xraph/usecase/ext"
	"github.com/xraph/usecase/payload"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*Broker)(nil)
	_ ext.UseCaseWillExecute = (*Broker)(nil)
	_ ext.UseCaseDidExecute  = (*Broker)(nil)
	_ ext.UseCaseCompleted   = (*Broker)(nil)
	_ ext.UseCaseFailed      = (*Broker)(nil)
	_ ext.PayloadDispatched  = (*Broker)(nil)
	_ ext.ReleaseViolation   = (*Broker)(nil)
	_ ext.Shutdown           = (*Broker)(nil)
)

// DefaultBufferSize is the default per-subscriber event buffer.
const DefaultBufferSize = 256

// DefaultCredits is the default initial credits for new subscribers.
// Zero means unlimited.
const DefaultCredits int64 = 0

// Broker is the in-process stream broker. It implements the ext.Extension
// interface to receive lifecycle events and fans them out to subscribers
// via topic-based pub/sub.
type Broker struct {
	topics *TopicRegistry
	logger *slog.Logger

	// Subscriber management.
	subscribers sync.Map // subscriberID → *Subscriber

	// Metrics.
	totalPublished atomic.Int64
	totalDropped   atomic.Int64

	// Config.
	bufferSize     int
	defaultCredits int64
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker)

// WithBufferSize sets the per-subscriber event buffer size.
func WithBufferSize(size int) BrokerOption {
	return func(b *Broker) { b.bufferSize = size }
}

// WithDefaultCredits sets the initial credits for new subscribers.
func WithDefaultCredits(credits int64) BrokerOption {
	return func(b *Broker) { b.defaultCredits = credits }
}

// NewBroker creates a new stream broker.
func NewBroker(logger *slog.Logger, opts ...BrokerOption) *Broker {
	b := &Broker{
		topics:         NewTopicRegistry(),
		logger:         logger,
		bufferSize:     DefaultBufferSize,
		defaultCredits: DefaultCredits,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements ext.Extension.
func (b *Broker) Name() string { return "stream-broker" }

// Topics returns the topic registry for external use.
func (b *Broker) Topics() *TopicRegistry { return b.topics }

// Subscribe creates a new subscriber on the given topics. An empty
// subscriberID is replaced with a fresh subscriber TypeID.
func (b *Broker) Subscribe(subscriberID string, topics ...string) *Subscriber {
	sub := NewSubscriber(subscriberID, b.bufferSize, b.defaultCredits)
	b.subscribers.Store(sub.ID(), sub)
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
	return sub
}

// SubscribeTo adds an existing subscriber to additional topics.
func (b *Broker) SubscribeTo(subscriberID string, topics ...string) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return
	}
	sub := val.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
	for _, topic := range topics {
		b.topics.Subscribe(topic, sub)
	}
}

// Unsubscribe removes a subscriber from specific topics.
func (b *Broker) Unsubscribe(subscriberID string, topics ...string) {
	for _, topic := range topics {
		b.topics.Unsubscribe(topic, subscriberID)
	}
}

// RemoveSubscriber removes a subscriber from all topics and closes it.
func (b *Broker) RemoveSubscriber(subscriberID string) {
	b.topics.UnsubscribeAll(subscriberID)
	if val, ok := b.subscribers.LoadAndDelete(subscriberID); ok {
		val.(*Subscriber).Close() //nolint:errcheck // sync.Map always stores *Subscriber
	}
}

// GetSubscriber returns a subscriber by ID.
func (b *Broker) GetSubscriber(subscriberID string) (*Subscriber, bool) {
	val, ok := b.subscribers.Load(subscriberID)
	if !ok {
		return nil, false
	}
	return val.(*Subscriber), true //nolint:errcheck // sync.Map always stores *Subscriber
}

// Stats returns broker statistics.
func (b *Broker) Stats() BrokerStats {
	count := 0
	b.subscribers.Range(func(_, _ any) bool {
		count++
		return true
	})
	return BrokerStats{
		TopicCount:      b.topics.TopicCount(),
		SubscriberCount: count,
		TotalPublished:  b.totalPublished.Load(),
		TotalDropped:    b.totalDropped.Load(),
	}
}

// BrokerStats contains broker metrics.
type BrokerStats struct {
	TopicCount      int   `json:"topic_count"`
	SubscriberCount int   `json:"subscriber_count"`
	TotalPublished  int64 `json:"total_published"`
	TotalDropped    int64 `json:"total_dropped"`
}

// publish broadcasts evt to all matching topics.
func (b *Broker) publish(evt *Event) {
	delivered, dropped := b.topics.Broadcast(resolveTopics(evt), evt)
	b.totalPublished.Add(int64(delivered))
	b.totalDropped.Add(int64(dropped))
}

// mustMarshal marshals data to JSON, panicking on error (programming error).
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("stream: marshal event data: " + err.Error())
	}
	return data
}

// marshalBody encodes an application payload. Payloads are arbitrary
// values, so a failure is logged and the body omitted.
func (b *Broker) marshalBody(p payload.Payload) json.RawMessage {
	data, err := json.Marshal(p)
	if err != nil {
		b.logger.Debug("stream: payload not JSON encodable",
			slog.String("payload_type", string(p.Type())),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return data
}

func runData(r *usecase.Run) RunEventData {
	d := RunEventData{
		RunID:     r.ID.String(),
		UseCaseID: r.UseCaseID.String(),
		Name:      r.Name,
	}
	if !r.ParentRunID.IsNil() {
		d.ParentRunID = r.ParentRunID.String()
	}
	return d
}

func (b *Broker) publishRun(typ EventType, r *usecase.Run, d RunEventData) {
	b.publish(&Event{
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Topic:     RunTopic(r.ID.String()),
		UseCase:   r.Name,
		Data:      mustMarshal(d),
	})
}

// ── Run lifecycle hooks ─────────────────────────────

func (b *Broker) OnUseCaseWillExecute(_ context.Context, r *usecase.Run, args []any) error {
	d := runData(r)
	d.Args = len(args)
	b.publishRun(EventRunStarted, r, d)
	return nil
}

func (b *Broker) OnUseCaseDidExecute(_ context.Context, r *usecase.Run, _ any) error {
	b.publishRun(EventRunDidExecute, r, runData(r))
	return nil
}

func (b *Broker) OnUseCaseCompleted(_ context.Context, r *usecase.Run, _ any, elapsed time.Duration) error {
	d := runData(r)
	d.ElapsedMs = elapsed.Milliseconds()
	b.publishRun(EventRunCompleted, r, d)
	return nil
}

func (b *Broker) OnUseCaseFailed(_ context.Context, r *usecase.Run, runErr error) error {
	d := runData(r)
	if runErr != nil {
		d.Error = runErr.Error()
	}
	b.publishRun(EventRunFailed, r, d)
	return nil
}

// ── Payload hooks ───────────────────────────────────

// OnPayloadDispatched publishes user payloads. Lifecycle payloads are
// already covered by the run hooks.
func (b *Broker) OnPayloadDispatched(_ context.Context, p payload.Payload, meta payload.Meta) error {
	if meta.IsLifecycle {
		return nil
	}
	b.publish(b.payloadEvent(EventPayload, p, meta))
	return nil
}

func (b *Broker) OnReleaseViolation(_ context.Context, released *usecase.Run, p payload.Payload, meta payload.Meta) error {
	evt := b.payloadEvent(EventRunLateDropped, p, meta)
	evt.Topic = RunTopic(released.ID.String())
	b.publish(evt)
	return nil
}

func (b *Broker) payloadEvent(typ EventType, p payload.Payload, meta payload.Meta) *Event {
	d := PayloadEventData{
		PayloadType: string(p.Type()),
		UseCase:     meta.UseCase.Name,
		Body:        b.marshalBody(p),
	}
	var topic string
	if !meta.RunID.IsNil() {
		d.RunID = meta.RunID.String()
		topic = RunTopic(d.RunID)
	}
	for _, parent := range meta.Parents {
		d.Parents = append(d.Parents, parent.Name)
	}
	ts := meta.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &Event{
		Type:      typ,
		Timestamp: ts,
		Topic:     topic,
		UseCase:   meta.UseCase.Name,
		Data:      mustMarshal(d),
	}
}

// ── Shutdown ────────────────────────────────────────

func (b *Broker) OnShutdown(_ context.Context) error {
	b.subscribers.Range(func(key, value any) bool {
		sub := value.(*Subscriber) //nolint:errcheck // sync.Map always stores *Subscriber
		b.topics.UnsubscribeAll(sub.ID())
		sub.Close()
		b.subscribers.Delete(key)
		return true
	})
	b.logger.Info("stream broker shut down")
	return nil
}
