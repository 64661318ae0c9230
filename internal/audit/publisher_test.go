package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govseal/pkg/domain"
)

type sinkFake struct {
	events []Event
	err    error
}

func (f *sinkFake) Publish(_ context.Context, event Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestPublisher_AppendsAndForwards(t *testing.T) {
	store := NewInMemory()
	sink := &sinkFake{}
	pub := NewPublisher(store, sink, slog.New(slog.DiscardHandler))

	id := domain.NewAssessmentID()
	err := pub.Emit(context.Background(), Event{
		Category:     CategoryWorkflow,
		AssessmentID: id,
		Action:       "submit",
		Actor:        "party-1",
		Role:         domain.RoleSubmitter,
		FromStatus:   "DRAFT",
		ToStatus:     "SUBMITTED",
	})
	require.NoError(t, err)

	stored, err := pub.List(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.False(t, stored[0].Timestamp.IsZero())

	require.Len(t, sink.events, 1)
	assert.Equal(t, "submit", sink.events[0].Action)
}

func TestPublisher_SinkFailureDoesNotFailEmit(t *testing.T) {
	store := NewInMemory()
	sink := &sinkFake{err: errors.New("broker down")}
	pub := NewPublisher(store, sink, slog.New(slog.DiscardHandler))

	id := domain.NewAssessmentID()
	require.NoError(t, pub.Emit(context.Background(), Event{AssessmentID: id, Action: "submit"}))

	stored, err := pub.List(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestInbox_BuffersWritesAndReadsBackingStore(t *testing.T) {
	store := NewInMemory()
	inbox := NewInbox(store, 4)
	worker := NewWorker(store, inbox.Events())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	id := domain.NewAssessmentID()
	require.NoError(t, inbox.Append(context.Background(), Event{AssessmentID: id, Action: "submit"}))

	require.Eventually(t, func() bool {
		events, err := inbox.ListByAssessment(context.Background(), id)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestInbox_AppendHonorsContext(t *testing.T) {
	inbox := NewInbox(NewInMemory(), 1)
	require.NoError(t, inbox.Append(context.Background(), Event{Action: "submit"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := inbox.Append(ctx, Event{Action: "approve"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWorker_PersistsFromInbox(t *testing.T) {
	store := NewInMemory()
	inbox := make(chan Event, 1)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	id := domain.NewAssessmentID()
	inbox <- Event{AssessmentID: id, Action: "begin_review"}

	require.Eventually(t, func() bool {
		events, err := store.ListByAssessment(context.Background(), id)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
