package audit

import (
	"context"
	"sync"

	"govseal/pkg/domain"
)

// Store is an append-only event sink with per-assessment reads.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAssessment(ctx context.Context, id domain.AssessmentID) ([]Event, error)
}

// InMemory keeps events in memory, in append order.
type InMemory struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) ListByAssessment(ctx context.Context, id domain.AssessmentID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.AssessmentID == id {
			out = append(out, e)
		}
	}
	return out, nil
}
