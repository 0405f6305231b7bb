package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"msgbridge/internal/messages"
	"msgbridge/util"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/xid"
)

// BridgeConfig names the JetStream stream and subject space used for topics.
type BridgeConfig struct {
	Stream        string
	SubjectPrefix string
	// MemoryStorage keeps the stream in memory instead of on disk.
	MemoryStorage bool
}

// Envelope is the wire record carried on the bus for every message.
type Envelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	SentAt  time.Time       `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

// Handler receives the plain record of a delivered message.
type Handler func(ctx context.Context, topic string, value map[string]any)

// MessageHandler receives a delivered message as a validated instance.
type MessageHandler func(ctx context.Context, topic string, m *messages.Instance)

// Bridge publishes application values as validated messages and delivers
// received messages to handlers as plain records.
type Bridge struct {
	js  jetstream.JetStream
	ms  *messages.Marshaler
	cfg BridgeConfig
}

// NewBridge returns a bridge publishing through js. Values are validated with
// ms and its registry.
func NewBridge(js jetstream.JetStream, ms *messages.Marshaler, cfg BridgeConfig) *Bridge {
	return &Bridge{js: js, ms: ms, cfg: cfg}
}

// EnsureStream creates or updates the stream that backs every topic.
func (b *Bridge) EnsureStream(ctx context.Context) error {
	storage := jetstream.FileStorage
	if b.cfg.MemoryStorage {
		storage = jetstream.MemoryStorage
	}
	_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     b.cfg.Stream,
		Subjects: []string{b.cfg.SubjectPrefix + ".>"},
		Storage:  storage,
	})
	if err != nil {
		return fmt.Errorf("create %s stream: %w", b.cfg.Stream, err)
	}
	return nil
}

// Publish marshals value into typeName and sends it on topic. It returns the
// envelope ID.
func (b *Bridge) Publish(ctx context.Context, typeName, topic string, value any) (string, error) {
	m, err := b.ms.ToMessage(typeName, value)
	MarshalTotal.WithLabelValues(typeName, resultLabel(err)).Inc()
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", typeName, err)
	}
	return b.PublishMessage(ctx, topic, m)
}

// PublishMessage sends an already validated instance on topic.
func (b *Bridge) PublishMessage(ctx context.Context, topic string, m *messages.Instance) (string, error) {
	subject, err := util.TopicSubject(b.cfg.SubjectPrefix, topic)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", m.Type().Name(), err)
	}

	env := Envelope{
		ID:      xid.New().String(),
		Type:    m.Type().Name(),
		Topic:   topic,
		SentAt:  time.Now().UTC(),
		Payload: payload,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	if _, err := b.js.Publish(ctx, subject, data, jetstream.WithMsgID(env.ID)); err != nil {
		return "", fmt.Errorf("publish %s: %w", subject, err)
	}
	PublishedTotal.WithLabelValues(env.Type).Inc()
	slog.Debug("published message", envelopeAttr(env), "subject", subject)
	return env.ID, nil
}

// Subscribe delivers the plain record of every message published on topic
// after the call to h. Messages of another type than typeName are rejected
// without reaching h.
func (b *Bridge) Subscribe(ctx context.Context, typeName, topic string, h Handler) (jetstream.ConsumeContext, error) {
	return b.SubscribeMessages(ctx, typeName, topic, func(ctx context.Context, topic string, m *messages.Instance) {
		h(ctx, topic, b.ms.FromMessage(m))
	})
}

// SubscribeMessages is Subscribe for handlers that want the instance itself.
func (b *Bridge) SubscribeMessages(ctx context.Context, typeName, topic string, h MessageHandler) (jetstream.ConsumeContext, error) {
	t, err := b.ms.Registry().Resolve(typeName)
	if err != nil {
		return nil, err
	}
	subject, err := util.TopicSubject(b.cfg.SubjectPrefix, topic)
	if err != nil {
		return nil, err
	}

	name := "sub-" + uuid.NewString()
	cons, err := b.js.CreateOrUpdateConsumer(ctx, b.cfg.Stream, jetstream.ConsumerConfig{
		Name:              name,
		FilterSubjects:    []string{subject},
		AckPolicy:         jetstream.AckExplicitPolicy,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s consumer: %w", name, err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) { b.deliver(ctx, t, subject, msg, h) })
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", subject, err)
	}
	slog.Info("subscribed", "type", typeName, "topic", topic, "consumer", name)
	return cc, nil
}

func (b *Bridge) deliver(ctx context.Context, t *messages.MessageType, subject string, msg jetstream.Msg, h MessageHandler) {
	if !util.SubjectMatches(subject, msg.Subject()) {
		_ = msg.Term()
		return
	}

	var env Envelope
	if err := json.Unmarshal(msg.Data(), &env); err != nil {
		slog.Warn("dropping malformed envelope", "subject", msg.Subject(), "err", err)
		DeliveredTotal.WithLabelValues(t.Name(), "error").Inc()
		_ = msg.Term()
		return
	}
	if env.Type != t.Name() {
		slog.Warn("dropping message of unexpected type", envelopeAttr(env), "want", t.Name())
		DeliveredTotal.WithLabelValues(t.Name(), "error").Inc()
		_ = msg.Term()
		return
	}

	m, err := t.DecodeJSON(env.Payload)
	if err != nil {
		slog.Warn("dropping invalid message", envelopeAttr(env), "err", err)
		DeliveredTotal.WithLabelValues(t.Name(), "error").Inc()
		_ = msg.Term()
		return
	}

	topic := env.Topic
	if topic == "" {
		topic = util.SubjectTopic(b.cfg.SubjectPrefix, msg.Subject())
	}
	h(ctx, topic, m)
	DeliveredTotal.WithLabelValues(t.Name(), "ok").Inc()
	_ = msg.Ack()
}
