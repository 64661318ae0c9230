//go:build integration

package insights_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govseal/internal/insights"
	"govseal/pkg/domain"
	"govseal/pkg/testutil/containers"
)

func TestRedisMarker_MarkOnce(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	marker := insights.NewRedisMarker(rc.Client, time.Hour)

	id := domain.NewAssessmentID()

	first, err := marker.MarkOnce(ctx, id)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := marker.MarkOnce(ctx, id)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := marker.MarkOnce(ctx, domain.NewAssessmentID())
	require.NoError(t, err)
	assert.True(t, other)
}

func TestRedisMarker_ConcurrentCompletionsFireOnce(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	marker := insights.NewRedisMarker(rc.Client, time.Hour)

	id := domain.NewAssessmentID()

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan bool, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first, err := marker.MarkOnce(ctx, id)
			require.NoError(t, err)
			results <- first
		}()
	}
	wg.Wait()
	close(results)

	var winners int
	for first := range results {
		if first {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}
