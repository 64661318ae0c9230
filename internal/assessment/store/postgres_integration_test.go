//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govseal/internal/assessment/models"
	"govseal/internal/assessment/store"
	"govseal/pkg/domain"
	"govseal/pkg/platform/sentinel"
	"govseal/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.postgres != nil {
		s.postgres.Pool.Close()
		_ = s.postgres.Container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "assessments", "mov_references"))
}

func newAssessment() *models.Assessment {
	return models.New(domain.NewAssessmentID(), domain.NewPartyID(), 2026, time.Now().UTC())
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	a := newAssessment()
	a.Response("safety.1").SetValues(map[string]any{"organized": "yes"})
	s.Require().NoError(s.store.Create(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal(models.StatusDraft, found.Status)
	s.Equal("yes", found.Responses["safety.1"].Values["organized"])

	byParty, err := s.store.FindByParty(ctx, a.Party, a.CycleYear)
	s.Require().NoError(err)
	s.Equal(a.ID, byParty.ID)
}

func (s *PostgresStoreSuite) TestUniquePartyCycle() {
	ctx := context.Background()
	a := newAssessment()
	s.Require().NoError(s.store.Create(ctx, a))

	dup := models.New(domain.NewAssessmentID(), a.Party, a.CycleYear, time.Now().UTC())
	s.Require().ErrorIs(s.store.Create(ctx, dup), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestExecuteCommitsMutation() {
	ctx := context.Background()
	a := newAssessment()
	s.Require().NoError(s.store.Create(ctx, a))

	now := time.Now().UTC()
	updated, err := s.store.Execute(ctx, a.ID,
		func(cur *models.Assessment) error { return cur.CanSubmit() },
		func(cur *models.Assessment) { cur.ApplySubmit(now) },
	)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, updated.Status)

	persisted, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, persisted.Status)
	s.Equal(updated.Version, persisted.Version)
}

// TestConcurrentExecuteSerializes drives concurrent transitions against one
// assessment; the row lock must serialize them into exactly one success.
func (s *PostgresStoreSuite) TestConcurrentExecuteSerializes() {
	ctx := context.Background()
	a := newAssessment()
	s.Require().NoError(s.store.Create(ctx, a))

	const goroutines = 10
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, a.ID,
				func(cur *models.Assessment) error { return cur.CanSubmit() },
				func(cur *models.Assessment) { cur.ApplySubmit(time.Now().UTC()) },
			)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes int
	for err := range errs {
		if err == nil {
			successes++
		}
	}
	s.Equal(1, successes)

	persisted, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, persisted.Status)
}
