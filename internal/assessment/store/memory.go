package store

import (
	"context"
	"sync"

	"govseal/internal/assessment/models"
	"govseal/pkg/domain"
	"govseal/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded assessment store. The single lock serializes
// every Execute, which satisfies the single-writer boundary trivially.
type InMemory struct {
	mu          sync.RWMutex
	assessments map[domain.AssessmentID]*models.Assessment
	byParty     map[partyCycle]domain.AssessmentID
}

type partyCycle struct {
	party domain.PartyID
	year  int
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		assessments: make(map[domain.AssessmentID]*models.Assessment),
		byParty:     make(map[partyCycle]domain.AssessmentID),
	}
}

func (s *InMemory) Create(ctx context.Context, a *models.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := partyCycle{party: a.Party, year: a.CycleYear}
	if _, exists := s.byParty[key]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.assessments[a.ID]; exists {
		return sentinel.ErrConflict
	}

	s.assessments[a.ID] = a.Clone()
	s.byParty[key] = a.ID
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.AssessmentID) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assessments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *InMemory) FindByParty(ctx context.Context, party domain.PartyID, cycleYear int) (*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byParty[partyCycle{party: party, year: cycleYear}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.assessments[id].Clone(), nil
}

func (s *InMemory) ListByStatus(ctx context.Context, status models.Status) ([]*models.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Assessment
	for _, a := range s.assessments {
		if a.Status == status {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

// Execute holds the store lock across validate and mutate so the sequence
// is one atomic unit per assessment.
func (s *InMemory) Execute(ctx context.Context, id domain.AssessmentID, validate ValidateFn, mutate MutateFn) (*models.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assessments[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	if validate != nil {
		if err := validate(a.Clone()); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(a)
	}
	return a.Clone(), nil
}
