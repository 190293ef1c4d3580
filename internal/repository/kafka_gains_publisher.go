package repository

import (
	"context"
	"time"

	"FinTrack/internal/domain/models"
	domrepo "FinTrack/internal/domain/repository"
	pkgkafka "FinTrack/pkg/kafka"
)

type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaGainsPublisher emits one message per basket asset, keyed by asset name
// so each asset's history stays ordered within a partition.
type KafkaGainsPublisher struct {
	producer batchPublisher
	topic    string
}

var _ domrepo.GainsPublisher = (*KafkaGainsPublisher)(nil)

func NewKafkaGainsPublisher(p *pkgkafka.Producer, topic string) *KafkaGainsPublisher {
	return &KafkaGainsPublisher{producer: p, topic: topic}
}

// GainsEventSchema versions GainsEvent in the message headers.
const GainsEventSchema = "fintrack.gains.v1"

// GainsEvent is the wire format of a published asset result.
type GainsEvent struct {
	ComputedAt  time.Time          `json:"computed_at"`
	Asset       string             `json:"asset"`
	Symbol      string             `json:"symbol"`
	Kind        string             `json:"kind"`
	AsOf        string             `json:"as_of,omitempty"`
	LatestPrice string             `json:"latest_price,omitempty"`
	ChangesPct  map[string]*string `json:"changes_pct,omitempty"`
	Error       string             `json:"error,omitempty"`
	StatusCode  int                `json:"status_code,omitempty"`
}

func (p *KafkaGainsPublisher) PublishSnapshot(ctx context.Context, snap *models.MarketSnapshot) error {
	if snap == nil || len(snap.Results) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(snap.Results))
	for _, name := range snap.Order {
		res, ok := snap.Results[name]
		if !ok {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:     []byte(name),
			Value:   newGainsEvent(snap.ComputedAt, res),
			Headers: map[string]string{"schema": GainsEventSchema},
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaGainsPublisher) Close() error { return p.producer.Close() }

func newGainsEvent(at time.Time, res models.GainsResult) GainsEvent {
	ev := GainsEvent{
		ComputedAt: at,
		Asset:      res.Asset.Name,
		Symbol:     res.Asset.Symbol,
		Kind:       string(res.Asset.Kind),
		Error:      res.Error,
		StatusCode: res.StatusCode,
	}
	if res.Failed() {
		return ev
	}
	ev.AsOf = res.AsOf.String()
	ev.LatestPrice = res.LatestPrice.String()
	ev.ChangesPct = make(map[string]*string, len(res.Changes))
	for label, v := range res.Changes {
		if v == nil {
			ev.ChangesPct[label] = nil
			continue
		}
		s := v.String()
		ev.ChangesPct[label] = &s
	}
	return ev
}
