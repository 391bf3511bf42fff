package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testJob struct {
	name    string
	runs    atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	sleep   time.Duration
	failOn  int32
	block   bool
	panics  bool
}

func (j *testJob) Name() string        { return j.name }
func (j *testJob) Description() string { return "test job" }

func (j *testJob) Run(ctx context.Context) error {
	if j.running.Add(1) > 1 {
		j.overlap.Store(true)
	}
	defer j.running.Add(-1)

	n := j.runs.Add(1)
	if j.panics {
		panic("bad state")
	}
	if j.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if j.sleep > 0 {
		time.Sleep(j.sleep)
	}
	if j.failOn > 0 && n == j.failOn {
		return errors.New("boom")
	}
	return nil
}

func TestFixedDelaySchedule(t *testing.T) {
	now := time.Date(2023, 1, 9, 10, 0, 0, 0, time.UTC)
	s := NewFixedDelaySchedule(2 * time.Minute)

	assert.Equal(t, now, s.First(now))
	assert.Equal(t, now.Add(2*time.Minute), s.Next(now))

	s.Immediate = false
	assert.Equal(t, now.Add(2*time.Minute), s.First(now))
	assert.Contains(t, s.String(), "2m0s")
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &testJob{name: "a"}

	require.NoError(t, s.Register(job, NewFixedDelaySchedule(time.Minute)))
	assert.ErrorIs(t, s.Register(job, NewFixedDelaySchedule(time.Minute)), ErrJobAlreadyExists)
	assert.ErrorIs(t, s.Register(nil, NewFixedDelaySchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&testJob{name: "b"}, nil), ErrNilSchedule)

	_, err := s.GetJobInfo("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunsImmediatelyAndRepeats(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &testJob{name: "poll", sleep: 5 * time.Millisecond}
	require.NoError(t, s.Register(job, NewFixedDelaySchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return job.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	assert.False(t, job.overlap.Load())
	assert.False(t, s.IsRunning())

	info, err := s.GetJobInfo("poll")
	require.NoError(t, err)
	assert.Equal(t, int64(job.runs.Load()), info.RunCount)
	assert.Zero(t, info.FailCount)
	require.NotNil(t, info.LastResult)
	assert.True(t, info.LastResult.Success)
}

func TestScheduler_FailFastReportsError(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &testJob{name: "poll", failOn: 2}
	require.NoError(t, s.Register(job, NewFixedDelaySchedule(time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	select {
	case err := <-s.Errors():
		assert.ErrorContains(t, err, "job poll: boom")
	case <-time.After(2 * time.Second):
		t.Fatal("expected job failure")
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), job.runs.Load())
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &testJob{name: "blocker", block: true}
	require.NoError(t, s.Register(job, NewFixedDelaySchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Stop())
	}()
	wg.Wait()

	select {
	case err := <-s.Errors():
		t.Fatalf("cancellation reported as failure: %v", err)
	default:
	}

	info, err := s.GetJobInfo("blocker")
	require.NoError(t, err)
	require.NotNil(t, info.LastResult)
	assert.True(t, info.LastResult.Cancelled)
	assert.Zero(t, info.FailCount)
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	job := &testJob{name: "poll", failOn: 1}
	require.NoError(t, s.Register(job, NewFixedDelaySchedule(time.Hour)))

	res, err := s.RunNow(context.Background(), "poll")
	assert.Error(t, err)
	assert.False(t, res.Success)

	info, err := s.GetJobInfo("poll")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.FailCount)
	assert.Equal(t, res, info.LastResult)

	res, err = s.RunNow(context.Background(), "poll")
	assert.NoError(t, err)
	assert.True(t, res.Success)

	_, err = s.RunNow(context.Background(), "other")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_PanicIsFailure(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig())
	require.NoError(t, s.Register(&testJob{name: "panicky", panics: true}, NewFixedDelaySchedule(time.Hour)))

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	select {
	case err := <-s.Errors():
		assert.ErrorIs(t, err, ErrJobPanicked)
		assert.ErrorContains(t, err, "bad state")
	case <-time.After(2 * time.Second):
		t.Fatal("expected panic to be reported")
	}
}
