package events

import (
	"context"
	"time"

	"github.com/ariefcatur/go-giftshop/internal/kafka"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Emitter wraps payloads in an Envelope and publishes them keyed by correlation id,
// so all events of one aggregate keep their order on a partition.
// A nil *Emitter discards events.
type Emitter struct {
	pub      Publisher
	producer string
}

func NewEmitter(pub Publisher, producer string) *Emitter {
	return &Emitter{pub: pub, producer: producer}
}

func (e *Emitter) Emit(ctx context.Context, eventType, correlationID string, payload any) {
	if e == nil || e.pub == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.producer,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: correlationID,
		Payload:       kafka.MustMarshal(payload),
	}
	e.pub.Publish([]byte(correlationID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
