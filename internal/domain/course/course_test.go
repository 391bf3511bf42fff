package course

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/uwcourse/course-watch/internal/domain/shared"
)

func strPtr(s string) *string { return &s }

func tod(h, m int) *TimeOfDay { return &TimeOfDay{Hour: h, Minute: m} }

func TestShortTermName(t *testing.T) {
	assert.Equal(t, "W23", ShortTermName("Winter 2023"))
	assert.Equal(t, "F24", ShortTermName("Fall 2024"))
	assert.Equal(t, "S25", ShortTermName(" Spring 2025 "))
	assert.Equal(t, "X", ShortTermName("X"))
}

func TestSortTerms(t *testing.T) {
	day := func(m time.Month) time.Time { return time.Date(2023, m, 1, 0, 0, 0, 0, time.UTC) }
	terms := []Term{
		{Name: "F23", StartDate: day(9)},
		{Name: "W23", StartDate: day(1)},
		{Name: "S23", StartDate: day(5)},
	}

	SortTerms(terms)

	assert.Equal(t, "W23", terms[0].Name)
	assert.Equal(t, "S23", terms[1].Name)
	assert.Equal(t, "F23", terms[2].Name)
	assert.True(t, terms[0].MatchesName("w23"))
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey("W23 MATH 237")
	assert.NoError(t, err)
	assert.Equal(t, "W23", key.TermName())
	assert.Equal(t, "MATH 237", key.Course())

	_, err = ParseKey("W23")
	assert.True(t, errors.Is(err, ErrInvalidKey))
	assert.True(t, shared.IsValidation(err))

	_, err = ParseKey(" MATH 237")
	assert.Error(t, err)
}

func TestParseCourseQuery(t *testing.T) {
	tests := []struct {
		in      string
		term    string
		code    string
		wantErr bool
	}{
		{in: "W23 MATH 237", term: "W23", code: "MATH 237"},
		{in: "w23 math 237", term: "W23", code: "MATH 237"},
		{in: "cs135", code: "CS 135"},
		{in: "  STAT 230  ", code: "STAT 230"},
		{in: "F24 ECE 250l", term: "F24", code: "ECE 250L"},
		{in: "X23 MATH 237", wantErr: true},
		{in: "MATH", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			q, err := ParseCourseQuery(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidCourseQuery))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.term, q.TermName)
			assert.Equal(t, tt.term != "", q.HasTerm())
			assert.Equal(t, tt.code, q.CourseCode())
		})
	}
}

func TestSectionsEqual(t *testing.T) {
	a := Sections{
		{SectionName: "LEC 001", Enrolled: 10, Capacity: 20, MeetingWeekdays: strPtr("MWF"), StartTime: tod(10, 30), EndTime: tod(11, 20)},
		{SectionName: "TUT 101", Enrolled: 5, Capacity: 20},
	}
	b := a.Clone()

	assert.True(t, a.Equal(b))

	b[0].StartTime.Minute = 31
	assert.False(t, a.Equal(b))

	reordered := Sections{a[1], a[0]}
	assert.False(t, a.Equal(reordered))

	assert.False(t, a.Equal(a[:1]))
}

func TestSectionValidate(t *testing.T) {
	assert.NoError(t, Section{SectionName: "LEC 001"}.Validate())
	assert.Error(t, Section{SectionName: "LEC 001", Enrolled: -1}.Validate())
	assert.Error(t, Section{SectionName: "LEC 001", StartTime: tod(9, 0)}.Validate())
	assert.Error(t, Section{}.Validate())
}

func TestTimeOfDay(t *testing.T) {
	v, err := ParseTimeOfDay("08:05:09")
	assert.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 8, Minute: 5, Second: 9}, v)
	assert.Equal(t, "08:05:09", v.String())
	assert.Equal(t, "08:05", v.Short())

	_, err = ParseTimeOfDay("8:05")
	assert.Error(t, err)

	_, err = NewTimeOfDay(24, 0, 0)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	sections := Sections{
		{SectionName: "LEC 001", Enrolled: 75, Capacity: 90, MeetingWeekdays: strPtr("MWF"), StartTime: tod(10, 30), EndTime: tod(11, 20)},
		{SectionName: "TST 201", Enrolled: 0, Capacity: 90, MeetingWeekdays: strPtr("")},
		{SectionName: "TUT 101", Enrolled: 30, Capacity: 30},
	}

	lines := Describe(NewKey("W23", "MATH 237"), sections)

	assert.Equal(t, []string{
		"<b>W23 MATH 237</b>",
		"LEC 001 75/90 MWF 10:30-11:20",
		"TST 201 0/90",
		"TUT 101 30/30",
	}, lines)
}

func TestDescribeEntries(t *testing.T) {
	entries := []Entry{
		{Key: "W23 MATH 237", Sections: Sections{{SectionName: "LEC 001", Enrolled: 1, Capacity: 2}}},
		{Key: "W23 CS 135"},
	}

	assert.Equal(t, "<b>W23 MATH 237</b>\nLEC 001 1/2\n\n<b>W23 CS 135</b>", DescribeEntries(entries))
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, IsNotFound(ErrTermNotFound))
	assert.True(t, IsNotFound(ErrNoNextTerm))
	assert.False(t, IsNoSchedules(ErrTermNotFound))
	assert.True(t, IsNoSchedules(shared.WrapError("uwaterloo", "Sections", shared.ErrNoSchedules, "404", ErrNoSchedules)))
}
