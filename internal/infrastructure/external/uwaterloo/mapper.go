package uwaterloo

import (
	"errors"
	"fmt"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAPPER - DTO to domain transformations
// ══════════════════════════════════════════════════════════════════════════════

// ErrNilDTO is returned when a nil DTO is passed to the mapper.
var ErrNilDTO = errors.New("uwaterloo: nil DTO")

// TermFromDTO converts a term DTO. The short name is derived from the long
// name ("Winter 2023" -> "W23").
func TermFromDTO(dto *TermDTO) (course.Term, error) {
	if dto == nil {
		return course.Term{}, ErrNilDTO
	}
	start, err := timeutil.ParseAPITime(dto.TermBeginDate)
	if err != nil {
		return course.Term{}, fmt.Errorf("term %s begin date: %w", dto.TermCode, err)
	}
	end, err := timeutil.ParseAPITime(dto.TermEndDate)
	if err != nil {
		return course.Term{}, fmt.Errorf("term %s end date: %w", dto.TermCode, err)
	}
	return course.Term{
		Code:      dto.TermCode,
		Name:      course.ShortTermName(dto.Name),
		StartDate: start,
		EndDate:   end,
	}, nil
}

// TermsFromDTOs converts a list of term DTOs.
func TermsFromDTOs(dtos []TermDTO) ([]course.Term, error) {
	terms := make([]course.Term, 0, len(dtos))
	for i := range dtos {
		t, err := TermFromDTO(&dtos[i])
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, nil
}

// SectionFromDTO converts a class schedule. Only the first meeting pattern is
// used; times keep their wall-clock part.
func SectionFromDTO(dto *ClassScheduleDTO) (course.Section, error) {
	if dto == nil {
		return course.Section{}, ErrNilDTO
	}
	s := course.Section{
		SectionName: course.SectionName(dto.CourseComponent, int(dto.ClassSection)),
		Enrolled:    dto.EnrolledStudents,
		Capacity:    dto.MaxEnrollmentCapacity,
	}
	if len(dto.ScheduleData) == 0 {
		return s, nil
	}

	sched := dto.ScheduleData[0]
	s.MeetingWeekdays = sched.ClassMeetingDayPatternCode

	start, err := optionalTimeOfDay(sched.ClassMeetingStartTime)
	if err != nil {
		return course.Section{}, fmt.Errorf("section %s start: %w", s.SectionName, err)
	}
	end, err := optionalTimeOfDay(sched.ClassMeetingEndTime)
	if err != nil {
		return course.Section{}, fmt.Errorf("section %s end: %w", s.SectionName, err)
	}
	// A half-specified meeting is treated as unscheduled.
	if start != nil && end != nil {
		s.StartTime, s.EndTime = start, end
	}
	return s, nil
}

// SectionsFromDTOs converts and sorts a class schedule listing.
func SectionsFromDTOs(dtos []ClassScheduleDTO) (course.Sections, error) {
	out := make(course.Sections, 0, len(dtos))
	for i := range dtos {
		s, err := SectionFromDTO(&dtos[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	out.Sort()
	return out, nil
}

func optionalTimeOfDay(v *string) (*course.TimeOfDay, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := timeutil.ParseAPITime(*v)
	if err != nil {
		return nil, err
	}
	tod := course.TimeOfDayFrom(t)
	return &tod, nil
}
