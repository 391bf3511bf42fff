package course

import (
	"errors"

	"github.com/uwcourse/course-watch/internal/domain/shared"
)

// Course domain errors
var (
	ErrTermNotFound       = shared.NewDomainError("term", "Resolve", shared.ErrNotFound, "term not found")
	ErrNoNextTerm         = shared.NewDomainError("term", "Next", shared.ErrNotFound, "current term is the last known term")
	ErrNoSchedules        = shared.NewDomainError("course", "Sections", shared.ErrNoSchedules, "course has no schedules")
	ErrInvalidKey         = shared.NewDomainError("course", "ParseKey", shared.ErrInvalidFormat, "malformed course key")
	ErrInvalidCourseQuery = shared.NewDomainError("course", "ParseQuery", shared.ErrInvalidInput, "malformed course query")
)

// IsNotFound reports an unknown term (or any other missing entity).
func IsNotFound(err error) bool {
	return shared.IsNotFound(err)
}

// IsNoSchedules reports that upstream has no offerings for the course.
func IsNoSchedules(err error) bool {
	return errors.Is(err, shared.ErrNoSchedules)
}
