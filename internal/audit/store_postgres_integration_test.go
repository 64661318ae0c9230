//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govseal/internal/audit"
	"govseal/pkg/domain"
	"govseal/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *audit.Postgres
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = audit.NewPostgres(s.pg.Pool)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.pg.Pool.Close()
	_ = s.pg.Container.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "audit_events"))
}

func (s *PostgresStoreSuite) TestAppendAndListKeepsOrder() {
	id := domain.NewAssessmentID()
	now := time.Now().UTC().Truncate(time.Microsecond)

	events := []audit.Event{
		{Category: audit.CategoryResponse, Timestamp: now, AssessmentID: id,
			Action: "save_response", Actor: "party-user", Role: domain.RoleSubmitter, Reason: "safety.1"},
		{Category: audit.CategoryWorkflow, Timestamp: now.Add(time.Second), AssessmentID: id,
			Action: "submit", Actor: "party-user", Role: domain.RoleSubmitter,
			FromStatus: "DRAFT", ToStatus: "SUBMITTED", RequestID: "req-1"},
		{Category: audit.CategoryWorkflow, Timestamp: now.Add(2 * time.Second), AssessmentID: id,
			Action: "begin_review", Actor: "assessor-1", Role: domain.RoleAssessor,
			FromStatus: "SUBMITTED", ToStatus: "IN_REVIEW"},
	}
	for _, e := range events {
		s.Require().NoError(s.store.Append(s.ctx, e))
	}

	// An event for another assessment must not leak into the trail.
	s.Require().NoError(s.store.Append(s.ctx, audit.Event{
		Category: audit.CategoryWorkflow, Timestamp: now, AssessmentID: domain.NewAssessmentID(),
		Action: "submit", Actor: "other", Role: domain.RoleSubmitter,
	}))

	got, err := s.store.ListByAssessment(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(got, 3)

	for i, want := range events {
		s.Run(want.Action, func() {
			s.Equal(want.Category, got[i].Category)
			s.Equal(want.Action, got[i].Action)
			s.Equal(want.Actor, got[i].Actor)
			s.Equal(want.Role, got[i].Role)
			s.Equal(want.FromStatus, got[i].FromStatus)
			s.Equal(want.ToStatus, got[i].ToStatus)
			s.Equal(want.Reason, got[i].Reason)
			s.Equal(want.RequestID, got[i].RequestID)
			s.WithinDuration(want.Timestamp, got[i].Timestamp, time.Second)
		})
	}
}

func (s *PostgresStoreSuite) TestListUnknownAssessmentIsEmpty() {
	got, err := s.store.ListByAssessment(s.ctx, domain.NewAssessmentID())
	s.Require().NoError(err)
	s.Empty(got)
}
