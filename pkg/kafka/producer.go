package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// ErrNoBrokers is returned when a producer is built without brokers.
var ErrNoBrokers = errors.New("kafka: brokers are required")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes JSON events to Kafka synchronously.
type Producer struct {
	writer  messageWriter
	metrics *producerMetrics
	now     func() time.Time
}

// Message is one event. Values that are not bytes or strings are JSON encoded.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

// NewProducer creates a new Kafka producer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		ClientID:     "fintrack",
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}

	codec, err := parseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}

	bal := kafka.Balancer(&kafka.LeastBytes{})
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  codec,
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchTimeout: cfg.BatchTimeout,
		Transport:    &kafka.Transport{ClientID: cfg.ClientID},
	}

	return newProducer(writer, newProducerMetrics(cfg.Registerer)), nil
}

func newProducer(w messageWriter, m *producerMetrics) *Producer {
	return &Producer{writer: w, metrics: m, now: time.Now}
}

// PublishBatch sends messages to topic in one write.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	msgs := make([]kafka.Message, 0, len(messages))
	var totalBytes int64
	for i, m := range messages {
		v, err := encodeValue(m.Value)
		if err != nil {
			return fmt.Errorf("encode message %d: %w", i, err)
		}
		msgs = append(msgs, kafka.Message{
			Topic:   topic,
			Key:     m.Key,
			Value:   v,
			Headers: toHeaders(m.Headers),
			Time:    p.now(),
		})
		totalBytes += int64(len(v))
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	p.metrics.observe(topic, totalBytes, len(msgs), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encodeValue(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		return json.Marshal(v)
	}
}

func toHeaders(h map[string]string) []kafka.Header {
	if len(h) == 0 {
		return nil
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(h[k])})
	}
	return out
}

var codecs = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// parseCompression maps a codec name to kafka-go's constant. "none" and ""
// disable compression.
func parseCompression(s string) (kafka.Compression, error) {
	if s == "" || s == "none" {
		return 0, nil
	}
	c, ok := codecs[s]
	if !ok {
		return 0, fmt.Errorf("kafka: unknown compression %q", s)
	}
	return c, nil
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	defaultMetrics     *producerMetrics
	defaultMetricsOnce sync.Once
)

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	if reg == nil {
		defaultMetricsOnce.Do(func() { defaultMetrics = newProducerMetrics(prometheus.DefaultRegisterer) })
		return defaultMetrics
	}
	f := promauto.With(reg)
	return &producerMetrics{
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "kafka_producer",
			Name:      "messages_total",
			Help:      "Messages handed to the Kafka writer by result.",
		}, []string{"topic", "result"}),
		bytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "kafka_producer",
			Name:      "bytes_total",
			Help:      "Encoded payload bytes written.",
		}, []string{"topic"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fintrack",
			Subsystem: "kafka_producer",
			Name:      "write_seconds",
			Help:      "Latency of one batch write.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic"}),
	}
}

func (m *producerMetrics) observe(topic string, bytes int64, count int, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, result).Add(float64(count))
	if err == nil {
		m.bytes.WithLabelValues(topic).Add(float64(bytes))
	}
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}
