package evidence

import (
	"context"
	"sync"

	"govseal/pkg/domain"
	"govseal/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded MOV store for tests and single-node runs.
type InMemory struct {
	mu   sync.RWMutex
	movs map[domain.MOVID]*MOV
}

// NewInMemory creates an empty in-memory MOV store.
func NewInMemory() *InMemory {
	return &InMemory{movs: make(map[domain.MOVID]*MOV)}
}

func (s *InMemory) Save(ctx context.Context, mov *MOV) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *mov
	s.movs[mov.ID] = &clone
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id domain.MOVID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.movs, id)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.MOVID) (*MOV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mov, ok := s.movs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *mov
	return &clone, nil
}

func (s *InMemory) ListByIndicator(ctx context.Context, assessmentID domain.AssessmentID, indicatorID domain.IndicatorID) ([]*MOV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*MOV
	for _, mov := range s.movs {
		if mov.AssessmentID == assessmentID && mov.IndicatorID == indicatorID {
			clone := *mov
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *InMemory) ListByAssessment(ctx context.Context, assessmentID domain.AssessmentID) ([]*MOV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*MOV
	for _, mov := range s.movs {
		if mov.AssessmentID == assessmentID {
			clone := *mov
			out = append(out, &clone)
		}
	}
	return out, nil
}
