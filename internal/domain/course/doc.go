// Package course contains the domain model of tracked university course offerings.
//
// The package defines:
//
//   - Value objects: Term, Section, TimeOfDay, Key, CourseCode
//   - The tracked entry: Entry (a key together with its last observed sections)
//   - Formatting of the human readable course description
//   - Collaborator contracts: ScheduleSource, Notifier
//
// # Keys
//
// A tracked course is addressed by a composite key "<TermName> <CourseCode>",
// for example "W23 MATH 237". The term name never contains a space, so the
// key is split on the first space:
//
//	key, err := course.ParseKey("W23 MATH 237")
//	// key.TermName() == "W23", key.Course() == "MATH 237"
//
// # Sections
//
// Sections of one course are kept sorted by name. Two lists are considered
// equal only when they match element by element in order, so a reordering
// alone counts as a change.
//
// The package has zero external dependencies.
package course
