package uwaterloo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ══════════════════════════════════════════════════════════════════════════════
// TERM DTOs
// ══════════════════════════════════════════════════════════════════════════════

// TermDTO is a term as returned by /terms and /terms/current.
type TermDTO struct {
	TermCode      string `json:"termCode"`
	Name          string `json:"name"`
	NameShort     string `json:"nameShort,omitempty"`
	TermBeginDate string `json:"termBeginDate"`
	TermEndDate   string `json:"termEndDate"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASS SCHEDULE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ClassScheduleDTO is one section as returned by /classschedules.
type ClassScheduleDTO struct {
	CourseComponent       string            `json:"courseComponent"`
	ClassSection          SectionNumber     `json:"classSection"`
	EnrolledStudents      int               `json:"enrolledStudents"`
	MaxEnrollmentCapacity int               `json:"maxEnrollmentCapacity"`
	ScheduleData          []ScheduleDataDTO `json:"scheduleData"`
}

// ScheduleDataDTO is one meeting pattern of a section.
type ScheduleDataDTO struct {
	ClassMeetingDayPatternCode *string `json:"classMeetingDayPatternCode"`
	ClassMeetingStartTime      *string `json:"classMeetingStartTime"`
	ClassMeetingEndTime        *string `json:"classMeetingEndTime"`
}

// SectionNumber accepts the section number as a JSON number or string.
type SectionNumber int

// UnmarshalJSON implements json.Unmarshaler.
func (n *SectionNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("classSection %q: %w", data, err)
	}
	*n = SectionNumber(v)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR DTOs
// ══════════════════════════════════════════════════════════════════════════════

// APIError is a non-success response that is not otherwise classified.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("uwaterloo api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("uwaterloo api error: status %d: %s", e.StatusCode, e.Body)
}
