package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	JobBase
	name  string
	calls int32
	err   error
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run() error {
	atomic.AddInt32(&j.calls, 1)
	j.RecordRun(j.err)
	return j.err
}

func TestScheduler_AddJobValidation(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("0 */15 * * * *", &countingJob{name: "a"}))
	assert.Error(t, s.AddJob("0 */15 * * * *", &countingJob{name: "a"}))
	assert.Error(t, s.AddJob("whenever", &countingJob{name: "b"}))
}

func TestScheduler_RunByNameAndStatus(t *testing.T) {
	s := New(zerolog.Nop())
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("boom")}

	require.NoError(t, s.AddJob("@every 1h", ok))
	require.NoError(t, s.AddJob("@every 1h", failing))

	require.NoError(t, s.RunByName("ok"))
	assert.EqualError(t, s.RunByName("failing"), "boom")
	assert.Error(t, s.RunByName("missing"))

	statuses := s.Jobs()
	require.Len(t, statuses, 2)
	assert.Equal(t, "failing", statuses[0].Name)
	assert.Equal(t, "boom", statuses[0].LastError)
	assert.Equal(t, 1, statuses[0].Runs)
	assert.Equal(t, "ok", statuses[1].Name)
	assert.Empty(t, statuses[1].LastError)
	assert.False(t, statuses[1].LastRun.IsZero())
}

func TestScheduler_StartRunsJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&job.calls) > 0
	}, 3*time.Second, 50*time.Millisecond)
	s.Stop()

	statuses := s.Jobs()
	require.Len(t, statuses, 1)
	assert.False(t, statuses[0].NextRun.IsZero())
}
