package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govseal/pkg/domain"
	"govseal/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) newMOV(assessmentID domain.AssessmentID, indicatorID, fieldID string) *MOV {
	return &MOV{
		ID:           domain.NewMOVID(),
		AssessmentID: assessmentID,
		IndicatorID:  domain.IndicatorID(indicatorID),
		FieldID:      fieldID,
		FileName:     "minutes.pdf",
		ContentType:  "application/pdf",
		SizeBytes:    2048,
		UploadedBy:   "user-1",
		UploadedAt:   time.Now().UTC(),
	}
}

func (s *InMemoryStoreSuite) TestSaveAndFind() {
	mov := s.newMOV(domain.NewAssessmentID(), "safety.1", "minutes")
	s.Require().NoError(s.store.Save(s.ctx, mov))

	found, err := s.store.FindByID(s.ctx, mov.ID)
	s.Require().NoError(err)
	s.Equal(mov.FileName, found.FileName)

	// Mutating the returned copy must not leak into the store.
	found.FileName = "tampered.pdf"
	again, err := s.store.FindByID(s.ctx, mov.ID)
	s.Require().NoError(err)
	s.Equal("minutes.pdf", again.FileName)
}

func (s *InMemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, domain.NewMOVID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestDelete() {
	mov := s.newMOV(domain.NewAssessmentID(), "safety.1", "minutes")
	s.Require().NoError(s.store.Save(s.ctx, mov))
	s.Require().NoError(s.store.Delete(s.ctx, mov.ID))

	s.Require().ErrorIs(s.store.Delete(s.ctx, mov.ID), sentinel.ErrNotFound)
	_, err := s.store.FindByID(s.ctx, mov.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListScoping() {
	assessmentA := domain.NewAssessmentID()
	assessmentB := domain.NewAssessmentID()

	s.Require().NoError(s.store.Save(s.ctx, s.newMOV(assessmentA, "safety.1", "minutes")))
	s.Require().NoError(s.store.Save(s.ctx, s.newMOV(assessmentA, "safety.1", "resolution")))
	s.Require().NoError(s.store.Save(s.ctx, s.newMOV(assessmentA, "health.1", "report")))
	s.Require().NoError(s.store.Save(s.ctx, s.newMOV(assessmentB, "safety.1", "minutes")))

	byIndicator, err := s.store.ListByIndicator(s.ctx, assessmentA, domain.IndicatorID("safety.1"))
	s.Require().NoError(err)
	s.Len(byIndicator, 2)

	byAssessment, err := s.store.ListByAssessment(s.ctx, assessmentA)
	s.Require().NoError(err)
	s.Len(byAssessment, 3)
}

func TestCheckerCountsOnlyQualifying(t *testing.T) {
	movs := []*MOV{
		{FieldID: "minutes", FileName: "a.pdf", SizeBytes: 10},
		{FieldID: "minutes", FileName: "b.pdf", SizeBytes: 10},
		{FieldID: "minutes", FileName: "empty.pdf", SizeBytes: 0},
		{FieldID: "photos", FileName: "", SizeBytes: 10},
	}
	c := NewChecker(movs)

	if !c.HasQualifyingEvidence("minutes") {
		t.Fatal("expected qualifying evidence for minutes")
	}
	if got := c.Count("minutes"); got != 2 {
		t.Fatalf("expected 2 qualifying references, got %d", got)
	}
	if c.HasQualifyingEvidence("photos") {
		t.Fatal("unnamed upload must not qualify")
	}
}
