package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwcourse/course-watch/config"
	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/infrastructure/persistence/postgres"
)

func TestPrintEntries(t *testing.T) {
	days := "TTh"
	var buf bytes.Buffer

	require.NoError(t, printEntries(&buf, []course.Entry{
		{Key: "W23 MATH 237", Sections: course.Sections{{SectionName: "LEC 001", Enrolled: 75, Capacity: 90, MeetingWeekdays: &days}}},
		{Key: "W23 CS 135"},
	}))

	assert.Equal(t, "W23 MATH 237\n  LEC 001 75/90 TTh\n\nW23 CS 135\n", buf.String())
}

func TestPrintEntries_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printEntries(&buf, nil))
	assert.Equal(t, "Course list is empty!\n", buf.String())
}

func TestPrintTerms_MarksCurrentAndDefault(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2023, m, d, 0, 0, 0, 0, time.UTC) }
	w23 := course.Term{Code: "1231", Name: "W23", StartDate: day(1, 1), EndDate: day(4, 30)}
	s23 := course.Term{Code: "1235", Name: "S23", StartDate: day(5, 1), EndDate: day(8, 31)}
	var buf bytes.Buffer

	require.NoError(t, printTerms(&buf, []course.Term{w23, s23}, w23, s23))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `W23\s+1231\s+2023-01-01\s+2023-04-30\s+current`, out)
	assert.Regexp(t, `S23\s+1235\s+2023-05-01\s+2023-08-31\s+default`, out)
}

func TestPrintMigrations(t *testing.T) {
	var buf bytes.Buffer
	applied := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, printMigrations(&buf, []postgres.Migration{
		{Version: 1, Name: "create_documents", AppliedAt: applied, IsApplied: true},
		{Version: 2, Name: "next"},
	}))

	assert.Regexp(t, `1\s+create_documents\s+2024-01-02T03:04:05Z`, buf.String())
	assert.Regexp(t, `2\s+next\s+pending`, buf.String())
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "poll", "list", "terms", "export-ics", "migrate"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCommand_TermsRefreshFlag(t *testing.T) {
	cmd, _, err := newRootCmd().Find([]string{"terms"})
	require.NoError(t, err)

	flag := cmd.Flags().Lookup("refresh")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func testApp() *app {
	return &app{
		cfg:    config.Default(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewPollJob_AcceptsAnyNotifier(t *testing.T) {
	var buf bytes.Buffer

	job := newPollJob(testApp(), printNotifier{w: &buf})

	assert.Equal(t, "poll_courses", job.Name())
}

type failingJob struct {
	err error
}

func (j *failingJob) Name() string { return "poll_courses" }

func (j *failingJob) Description() string { return "test job" }

func (j *failingJob) Run(context.Context) error { return j.err }

func TestLastRunCheck(t *testing.T) {
	job := &failingJob{}
	sched, err := newScheduler(testApp(), job)
	require.NoError(t, err)
	check := lastRunCheck(sched, "poll_courses")

	assert.NoError(t, check(context.Background()), "no run yet")

	job.err = errors.New("uw api unreachable")
	_, err = sched.RunNow(context.Background(), "poll_courses")
	require.Error(t, err)
	assert.ErrorContains(t, check(context.Background()), "uw api unreachable")

	job.err = nil
	_, err = sched.RunNow(context.Background(), "poll_courses")
	require.NoError(t, err)
	assert.NoError(t, check(context.Background()))

	job.err = context.Canceled
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _ = sched.RunNow(ctx, "poll_courses")
	assert.NoError(t, check(context.Background()), "shutdown is not a failure")

	assert.Error(t, lastRunCheck(sched, "missing")(context.Background()))
}
