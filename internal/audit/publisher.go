package audit

import (
	"context"
	"log/slog"
	"time"

	"govseal/pkg/domain"
)

// Sink receives events after they are persisted locally. Kafka is the
// production sink; tests use fakes.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher appends events to the store and forwards them to an optional
// sink. A sink failure is logged and never fails the emitting operation:
// the local store remains the source of truth.
type Publisher struct {
	store Store
	sink  Sink
	log   *slog.Logger
}

func NewPublisher(store Store, sink Sink, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{store: store, sink: sink, log: log}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.log.WarnContext(ctx, "audit sink publish failed",
				"assessment_id", event.AssessmentID.String(),
				"action", event.Action,
				"error", err,
			)
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, id domain.AssessmentID) ([]Event, error) {
	return p.store.ListByAssessment(ctx, id)
}
