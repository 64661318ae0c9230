package audit

import (
	"context"

	"govseal/pkg/domain"
)

// Inbox fronts a Store with a bounded channel: Append hands the event to
// the worker goroutine, reads fall through to the backing store. Emitters
// block only when the buffer is full.
type Inbox struct {
	backing Store
	events  chan Event
}

func NewInbox(backing Store, size int) *Inbox {
	return &Inbox{backing: backing, events: make(chan Event, size)}
}

func (i *Inbox) Append(ctx context.Context, event Event) error {
	select {
	case i.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Inbox) ListByAssessment(ctx context.Context, id domain.AssessmentID) ([]Event, error) {
	return i.backing.ListByAssessment(ctx, id)
}

// Events is the worker's consumption side of the buffer.
func (i *Inbox) Events() <-chan Event {
	return i.events
}

// Worker consumes events from a channel and persists them, decoupling
// emitters from storage latency.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}
