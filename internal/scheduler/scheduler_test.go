package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-research/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	if j.calls.Add(1) <= j.failures {
		return errors.New("boom")
	}
	return nil
}

func lastResult(t *testing.T, s *Scheduler, name string) JobResult {
	t.Helper()
	var result JobResult
	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		var ok bool
		result, ok = s.history[name].Last()
		return ok
	}, time.Second, 5*time.Millisecond)
	return result
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@daily"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 30 18 * * 1-5"}))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "c", schedule: "not a schedule"}))
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.JobNames())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_RunJobRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(2, 0))
	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))
	result := lastResult(t, s, "flaky")

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)
}

func TestScheduler_RunJobGivesUp(t *testing.T) {
	s := New(logger.Nop(), WithRetry(1, 0))
	require.NoError(t, s.AddJob(&fakeJob{name: "broken", schedule: "@daily", failures: 10}))

	require.NoError(t, s.RunJob("broken"))
	result := lastResult(t, s, "broken")

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, "boom", result.Error)

	stats := s.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].FailureCount)
	assert.Equal(t, 0.0, stats[0].SuccessRate)
	assert.Equal(t, "boom", stats[0].LastError)
}

func TestScheduler_RunUnknownJob(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.RunJob("missing"))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(logger.Nop())
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}))

	s.Start()
	assert.Eventually(t, func() bool {
		stats := s.Stats()
		return len(stats) == 1 && stats[0].NextRun != nil
	}, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestJobHistory_Limit(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.Equal(t, 0.5, h.SuccessRate())
}
