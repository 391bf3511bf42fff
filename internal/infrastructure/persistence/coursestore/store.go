// Package coursestore implements the persistent mapping from tracked course key
// to its last observed sections.
//
// All reads and writes go through one store-wide lock. Each exported method is a
// complete logical operation: it acquires the lock, reads the full document,
// decides, writes the full document if needed, and releases the lock. Callers
// never hold the lock across their own decisions.
package coursestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uwcourse/course-watch/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// BACKEND
// ══════════════════════════════════════════════════════════════════════════════

// Backend persists the serialized document. Save must replace the durable image
// atomically: a reader never observes a partially written document.
type Backend interface {
	// Load returns the stored document. found is false if nothing was stored yet.
	Load(ctx context.Context) (data []byte, found bool, err error)

	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error

	// Name identifies the backend in logs.
	Name() string
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Config contains store configuration.
type Config struct {
	Logger *slog.Logger
}

// Store serializes every operation on the tracked course document.
type Store struct {
	backend Backend
	logger  *slog.Logger

	// sem is a one-slot semaphore so that waiting for the lock honours ctx.
	sem chan struct{}
}

var _ course.Store = (*Store)(nil)

// New creates a store over backend.
func New(backend Backend, config Config) *Store {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		backend: backend,
		logger:  config.Logger.With("component", "course_store", "backend", backend.Name()),
		sem:     make(chan struct{}, 1),
	}
}

// lock waits for exclusive access. Cancellation while waiting returns ctx.Err().
func (s *Store) lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock() {
	<-s.sem
}

// withLock runs fn under the lock. fn receives a context that is not cancelled
// by shutdown, so a started read-write pair always completes. Work that is
// not backend I/O must use the caller's context instead.
func (s *Store) withLock(ctx context.Context, fn func(durable context.Context) error) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()
	return fn(context.WithoutCancel(ctx))
}

func (s *Store) read(ctx context.Context) (*document, error) {
	data, found, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if !found {
		return newDocument(), nil
	}
	return decodeDocument(data)
}

func (s *Store) write(ctx context.Context, d *document) error {
	data, err := encodeDocument(d)
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Operations
// ─────────────────────────────────────────────────────────────────────────────

// Init persists an empty document if none exists yet and validates an
// existing one. A malformed document yields ErrMalformedDocument.
func (s *Store) Init(ctx context.Context) error {
	return s.withLock(ctx, func(ctx context.Context) error {
		data, found, err := s.backend.Load(ctx)
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}
		if found {
			d, err := decodeDocument(data)
			if err != nil {
				return err
			}
			s.logger.Info("course store loaded", "courses", len(d.keys))
			return nil
		}
		if err := s.write(ctx, newDocument()); err != nil {
			return err
		}
		s.logger.Info("course store initialized empty")
		return nil
	})
}

// AddIfAbsent stores sections under key unless the key is already tracked.
func (s *Store) AddIfAbsent(ctx context.Context, key course.Key, sections course.Sections) (bool, error) {
	added := false
	err := s.withLock(ctx, func(ctx context.Context) error {
		d, err := s.read(ctx)
		if err != nil {
			return err
		}
		if _, ok := d.get(key); ok {
			return nil
		}
		d.set(key, sections.Clone())
		if err := s.write(ctx, d); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("add %s: %w", key, err)
	}
	if added {
		s.logger.Debug("course added", "course_key", key, "sections", len(sections))
	}
	return added, nil
}

// RemoveIfPresent deletes key if it is tracked.
func (s *Store) RemoveIfPresent(ctx context.Context, key course.Key) (bool, error) {
	removed := false
	err := s.withLock(ctx, func(ctx context.Context) error {
		d, err := s.read(ctx)
		if err != nil {
			return err
		}
		if !d.delete(key) {
			return nil
		}
		if err := s.write(ctx, d); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", key, err)
	}
	if removed {
		s.logger.Debug("course removed", "course_key", key)
	}
	return removed, nil
}

// Replace re-reads key and, if it is still tracked and its stored sections
// differ from sections, writes them and calls onChange before releasing the
// lock. onChange runs with the caller's ctx. The write is not rolled back if
// onChange fails.
func (s *Store) Replace(ctx context.Context, key course.Key, sections course.Sections, onChange course.ChangeFunc) (course.ReplaceResult, error) {
	result := course.ReplaceSkipped
	err := s.withLock(ctx, func(durable context.Context) error {
		d, err := s.read(durable)
		if err != nil {
			return err
		}
		old, ok := d.get(key)
		if !ok {
			return nil
		}
		if old.Equal(sections) {
			result = course.ReplaceUnchanged
			return nil
		}
		d.set(key, sections.Clone())
		if err := s.write(durable, d); err != nil {
			return err
		}
		result = course.ReplaceChanged
		if onChange != nil {
			// The write is done; the callback may be cut short by shutdown.
			return onChange(ctx, old, sections)
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("replace %s: %w", key, err)
	}
	return result, nil
}

// Contains reports whether key is tracked.
func (s *Store) Contains(ctx context.Context, key course.Key) (bool, error) {
	found := false
	err := s.withLock(ctx, func(ctx context.Context) error {
		d, err := s.read(ctx)
		if err != nil {
			return err
		}
		_, found = d.get(key)
		return nil
	})
	return found, err
}

// Snapshot returns the tracked keys in insertion order.
func (s *Store) Snapshot(ctx context.Context) ([]course.Key, error) {
	var keys []course.Key
	err := s.withLock(ctx, func(ctx context.Context) error {
		d, err := s.read(ctx)
		if err != nil {
			return err
		}
		keys = append([]course.Key(nil), d.keys...)
		return nil
	})
	return keys, err
}

// List returns every entry in insertion order.
func (s *Store) List(ctx context.Context) ([]course.Entry, error) {
	var entries []course.Entry
	err := s.withLock(ctx, func(ctx context.Context) error {
		d, err := s.read(ctx)
		if err != nil {
			return err
		}
		entries = d.list()
		return nil
	})
	return entries, err
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	err := s.withLock(ctx, func(ctx context.Context) error {
		return s.write(ctx, newDocument())
	})
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	s.logger.Debug("course list cleared")
	return nil
}

// Ping verifies that the stored document can be read and decoded.
func (s *Store) Ping(ctx context.Context) error {
	return s.withLock(ctx, func(ctx context.Context) error {
		_, err := s.read(ctx)
		return err
	})
}

// IsMalformed reports whether err came from an undecodable document.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedDocument)
}
