package course

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATOR INTERFACES
// Implementations live in infrastructure/.
// ══════════════════════════════════════════════════════════════════════════════

// ScheduleSource supplies term and section data.
type ScheduleSource interface {
	// ListTerms returns every known term, in upstream order.
	ListTerms(ctx context.Context) ([]Term, error)

	// CurrentTerm returns the term upstream reports as current.
	CurrentTerm(ctx context.Context) (Term, error)

	// Sections returns the sections of courseCode in the given term, sorted by name.
	// Returns an error matching ErrNoSchedules when the course is not offered.
	Sections(ctx context.Context, termCode, courseCode string) (Sections, error)
}

// Notifier delivers change reports to the owner.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ReplaceResult tells what Store.Replace did.
type ReplaceResult int

const (
	// ReplaceSkipped - the key was no longer tracked, nothing written.
	ReplaceSkipped ReplaceResult = iota
	// ReplaceUnchanged - stored sections already matched, nothing written.
	ReplaceUnchanged
	// ReplaceChanged - new sections written and the change callback ran.
	ReplaceChanged
)

// String returns a log-friendly name.
func (r ReplaceResult) String() string {
	switch r {
	case ReplaceSkipped:
		return "skipped"
	case ReplaceUnchanged:
		return "unchanged"
	case ReplaceChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// ChangeFunc is invoked by Store.Replace while the store lock is held.
type ChangeFunc func(ctx context.Context, before, after Sections) error

// Store is the persistent mapping from key to last observed sections.
// Every method is one atomic logical operation.
type Store interface {
	AddIfAbsent(ctx context.Context, key Key, sections Sections) (bool, error)
	RemoveIfPresent(ctx context.Context, key Key) (bool, error)
	Replace(ctx context.Context, key Key, sections Sections, onChange ChangeFunc) (ReplaceResult, error)
	Contains(ctx context.Context, key Key) (bool, error)
	Snapshot(ctx context.Context) ([]Key, error)
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
}
