package jobs

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/infrastructure/persistence/coursestore"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeTerms map[string]course.Term

func (f fakeTerms) TermWithName(_ context.Context, name string) (course.Term, error) {
	if t, ok := f[name]; ok {
		return t, nil
	}
	return course.Term{}, course.ErrTermNotFound
}

type fakeFetcher struct {
	mu       sync.Mutex
	sections map[string]course.Sections
	errs     map[string]error
	before   func(courseCode string)
	calls    int
}

func (f *fakeFetcher) Sections(_ context.Context, termCode, courseCode string) (course.Sections, error) {
	f.mu.Lock()
	f.calls++
	hook := f.before
	err := f.errs[termCode+"/"+courseCode]
	ss := f.sections[termCode+"/"+courseCode].Clone()
	f.mu.Unlock()

	if hook != nil {
		hook(courseCode)
	}
	if err != nil {
		return nil, err
	}
	return ss, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (n *fakeNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return n.err
}

func strPtr(s string) *string { return &s }

func tod(h, m int) *course.TimeOfDay {
	t, _ := course.NewTimeOfDay(h, m, 0)
	return &t
}

func lecture(enrolled int) course.Sections {
	return course.Sections{{
		SectionName:     "LEC 001",
		Enrolled:        enrolled,
		Capacity:        90,
		MeetingWeekdays: strPtr("MWF"),
		StartTime:       tod(10, 30),
		EndTime:         tod(11, 20),
	}}
}

type fixture struct {
	backend  *coursestore.MemoryBackend
	store    *coursestore.Store
	fetcher  *fakeFetcher
	notifier *fakeNotifier
	job      *PollCoursesJob
}

func newFixture(t *testing.T, tracked map[course.Key]course.Sections, order ...course.Key) *fixture {
	t.Helper()
	ctx := context.Background()

	backend := coursestore.NewMemoryBackend()
	store := coursestore.New(backend, coursestore.Config{})
	require.NoError(t, store.Init(ctx))
	for _, k := range order {
		added, err := store.AddIfAbsent(ctx, k, tracked[k])
		require.NoError(t, err)
		require.True(t, added)
	}

	terms := fakeTerms{"W23": {Code: "1231", Name: "W23"}, "S23": {Code: "1235", Name: "S23"}}
	fetcher := &fakeFetcher{sections: map[string]course.Sections{}, errs: map[string]error{}}
	notifier := &fakeNotifier{}

	cfg := DefaultPollCoursesConfig()
	cfg.CourseDelay = 0

	return &fixture{
		backend:  backend,
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		job:      NewPollCoursesJob(store, terms, fetcher, notifier, cfg),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestPollCourses_UnchangedIsIdempotent(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{"W23 MATH 237": lecture(75)}, "W23 MATH 237")
	f.fetcher.sections["1231/MATH 237"] = lecture(75)
	before := f.backend.Bytes()
	saves := f.backend.Saves()

	require.NoError(t, f.job.Run(context.Background()))
	require.NoError(t, f.job.Run(context.Background()))

	assert.Empty(t, f.notifier.texts)
	assert.True(t, bytes.Equal(before, f.backend.Bytes()))
	assert.Equal(t, saves, f.backend.Saves())

	stats := f.job.LastStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Checked)
	assert.Zero(t, stats.Changed)
	assert.NotEmpty(t, stats.CycleID)
}

func TestPollCourses_ChangeNotifiesAndPersists(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{"W23 MATH 237": lecture(75)}, "W23 MATH 237")
	f.fetcher.sections["1231/MATH 237"] = lecture(80)
	ctx := context.Background()

	require.NoError(t, f.job.Run(ctx))

	require.Len(t, f.notifier.texts, 1)
	assert.Equal(t,
		"Course info changed:\n\n<b>W23 MATH 237</b>\n<b>LEC 001 80/90 MWF 10:30-11:20</b>",
		f.notifier.texts[0])

	entries, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, lecture(80), entries[0].Sections)

	require.NoError(t, f.job.Run(ctx))
	assert.Len(t, f.notifier.texts, 1)
}

func TestPollCourses_SectionAddedIsUnmarked(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{"W23 MATH 237": lecture(75)}, "W23 MATH 237")
	grown := append(lecture(75), course.Section{SectionName: "TUT 101", Enrolled: 30, Capacity: 35})
	f.fetcher.sections["1231/MATH 237"] = grown

	require.NoError(t, f.job.Run(context.Background()))

	require.Len(t, f.notifier.texts, 1)
	assert.Equal(t,
		"Course info changed:\n\n<b>W23 MATH 237</b>\nLEC 001 75/90 MWF 10:30-11:20\nTUT 101 30/35",
		f.notifier.texts[0])
}

func TestPollCourses_NoSchedulesIsSkipped(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{
		"W23 PHIL 999": lecture(1),
		"W23 MATH 237": lecture(75),
	}, "W23 PHIL 999", "W23 MATH 237")
	f.fetcher.errs["1231/PHIL 999"] = course.ErrNoSchedules
	f.fetcher.sections["1231/MATH 237"] = lecture(76)

	require.NoError(t, f.job.Run(context.Background()))

	assert.Len(t, f.notifier.texts, 1)
	stats := f.job.LastStats()
	assert.Equal(t, 1, stats.NoSchedules)
	assert.Equal(t, 1, stats.Changed)

	tracked, err := f.store.Contains(context.Background(), "W23 PHIL 999")
	require.NoError(t, err)
	assert.True(t, tracked)
}

func TestPollCourses_UnknownTermFails(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{"F19 MATH 237": lecture(75)}, "F19 MATH 237")

	err := f.job.Run(context.Background())

	assert.True(t, errors.Is(err, course.ErrTermNotFound))
	assert.True(t, course.IsNotFound(err))
	assert.Nil(t, f.job.LastStats())
}

func TestPollCourses_UpstreamFailureFails(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{"W23 MATH 237": lecture(75)}, "W23 MATH 237")
	f.fetcher.errs["1231/MATH 237"] = errors.New("connection reset")

	assert.ErrorContains(t, f.job.Run(context.Background()), "connection reset")
}

func TestPollCourses_RemovedDuringFetchIsSkipped(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{"W23 MATH 237": lecture(75)}, "W23 MATH 237")
	f.fetcher.sections["1231/MATH 237"] = lecture(99)
	f.fetcher.before = func(string) {
		removed, err := f.store.RemoveIfPresent(context.Background(), "W23 MATH 237")
		require.NoError(t, err)
		require.True(t, removed)
	}
	ctx := context.Background()

	require.NoError(t, f.job.Run(ctx))

	assert.Empty(t, f.notifier.texts)
	keys, err := f.store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, 1, f.job.LastStats().Removed)
}

func TestPollCourses_NotifyFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{"W23 MATH 237": lecture(75)}, "W23 MATH 237")
	f.fetcher.sections["1231/MATH 237"] = lecture(80)
	f.notifier.err = errors.New("telegram down")
	ctx := context.Background()

	require.NoError(t, f.job.Run(ctx))

	assert.Equal(t, 1, f.job.LastStats().NotifyFailures)
	entries, err := f.store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, lecture(80), entries[0].Sections)
}

func TestPollCourses_CancelDuringDelay(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{
		"W23 MATH 237": lecture(75),
		"S23 CS 135":   lecture(10),
	}, "W23 MATH 237", "S23 CS 135")
	f.fetcher.sections["1231/MATH 237"] = lecture(75)
	f.fetcher.sections["1235/CS 135"] = lecture(10)
	f.job.config.CourseDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.job.Run(ctx) }()

	assert.Eventually(t, func() bool {
		f.fetcher.mu.Lock()
		defer f.fetcher.mu.Unlock()
		return f.fetcher.calls == 1
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poll cycle did not stop")
	}
	assert.Equal(t, 1, f.fetcher.calls)
}

func TestPollCourses_PausesAfterEveryTrackedCourse(t *testing.T) {
	f := newFixture(t, map[course.Key]course.Sections{
		"W23 MATH 237": lecture(75),
		"W23 CS 136":   lecture(20),
		"S23 CS 135":   lecture(10),
	}, "W23 MATH 237", "W23 CS 136", "S23 CS 135")
	f.fetcher.sections["1231/MATH 237"] = lecture(75)
	f.fetcher.sections["1231/CS 136"] = lecture(20)
	f.fetcher.sections["1235/CS 135"] = lecture(10)
	f.fetcher.before = func(courseCode string) {
		if courseCode == "CS 136" {
			_, err := f.store.RemoveIfPresent(context.Background(), "W23 CS 136")
			require.NoError(t, err)
		}
	}
	f.job.config.CourseDelay = 7 * time.Second

	var pauses []time.Duration
	f.job.pause = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	}

	require.NoError(t, f.job.Run(context.Background()))

	assert.Equal(t, 3, f.fetcher.calls)
	assert.Equal(t, []time.Duration{7 * time.Second, 7 * time.Second}, pauses)
	assert.Equal(t, 1, f.job.LastStats().Removed)
}

func TestPollCourses_EmptyList(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.job.Run(context.Background()))

	assert.Zero(t, f.fetcher.calls)
	assert.Zero(t, f.job.LastStats().Courses)
}
