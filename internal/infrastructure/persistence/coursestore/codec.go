package coursestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/uwcourse/course-watch/internal/domain/course"
	"github.com/uwcourse/course-watch/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOCUMENT
// ══════════════════════════════════════════════════════════════════════════════

// document is the in-memory image of the store: an insertion-ordered map.
type document struct {
	keys    []course.Key
	entries map[course.Key]course.Sections
}

func newDocument() *document {
	return &document{entries: make(map[course.Key]course.Sections)}
}

func (d *document) get(key course.Key) (course.Sections, bool) {
	s, ok := d.entries[key]
	return s, ok
}

// set updates in place or appends a new key at the end.
func (d *document) set(key course.Key, sections course.Sections) {
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = sections
}

func (d *document) delete(key course.Key) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

func (d *document) list() []course.Entry {
	out := make([]course.Entry, 0, len(d.keys))
	for _, k := range d.keys {
		out = append(out, course.Entry{Key: k, Sections: d.entries[k].Clone()})
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE FORMAT
// ══════════════════════════════════════════════════════════════════════════════

// sectionDoc is the serialized form of a section. Absent values are null,
// times are "HH:MM:SS".
type sectionDoc struct {
	SectionName     string  `json:"section_name"`
	Enrolled        int     `json:"enrolled"`
	Capacity        int     `json:"capacity"`
	MeetingWeekdays *string `json:"meeting_weekdays"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
}

func toSectionDoc(s course.Section) sectionDoc {
	doc := sectionDoc{
		SectionName:     s.SectionName,
		Enrolled:        s.Enrolled,
		Capacity:        s.Capacity,
		MeetingWeekdays: s.MeetingWeekdays,
	}
	if s.StartTime != nil {
		v := s.StartTime.String()
		doc.StartTime = &v
	}
	if s.EndTime != nil {
		v := s.EndTime.String()
		doc.EndTime = &v
	}
	return doc
}

func (d sectionDoc) toSection() (course.Section, error) {
	s := course.Section{
		SectionName:     d.SectionName,
		Enrolled:        d.Enrolled,
		Capacity:        d.Capacity,
		MeetingWeekdays: d.MeetingWeekdays,
	}
	var err error
	if s.StartTime, err = parseOptionalTime(d.StartTime); err != nil {
		return course.Section{}, err
	}
	if s.EndTime, err = parseOptionalTime(d.EndTime); err != nil {
		return course.Section{}, err
	}
	if err := s.Validate(); err != nil {
		return course.Section{}, err
	}
	return s, nil
}

func parseOptionalTime(v *string) (*course.TimeOfDay, error) {
	if v == nil {
		return nil, nil
	}
	t, err := course.ParseTimeOfDay(*v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENCODE / DECODE
// ══════════════════════════════════════════════════════════════════════════════

// ErrMalformedDocument is returned when stored data cannot be decoded.
var ErrMalformedDocument = shared.NewDomainError("store", "Decode", shared.ErrInvalidFormat, "malformed store document")

func malformed(format string, args ...any) error {
	return shared.WrapError("store", "Decode", ErrMalformedDocument, "malformed store document", fmt.Errorf(format, args...))
}

// encodeDocument serializes the full document, keeping key order.
func encodeDocument(d *document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(key))
		if err != nil {
			return nil, fmt.Errorf("encode key %q: %w", key, err)
		}
		docs := make([]sectionDoc, 0, len(d.entries[key]))
		for _, s := range d.entries[key] {
			docs = append(docs, toSectionDoc(s))
		}
		v, err := json.Marshal(docs)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// decodeDocument parses a stored document, preserving key order.
func decodeDocument(data []byte) (*document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, malformed("read opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, malformed("top level must be an object, got %v", tok)
	}

	d := newDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed("read key: %w", err)
		}
		raw, _ := tok.(string)
		key, err := course.ParseKey(raw)
		if err != nil {
			return nil, malformed("key %q: %w", raw, err)
		}
		if _, dup := d.entries[key]; dup {
			return nil, malformed("duplicate key %q", key)
		}

		var docs []sectionDoc
		if err := dec.Decode(&docs); err != nil {
			return nil, malformed("value of %q: %w", key, err)
		}
		sections := make(course.Sections, 0, len(docs))
		for _, sd := range docs {
			s, err := sd.toSection()
			if err != nil {
				return nil, malformed("value of %q: %w", key, err)
			}
			sections = append(sections, s)
		}
		d.set(key, sections)
	}

	if _, err := dec.Token(); err != nil {
		return nil, malformed("read closing token: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data after document")
	}
	return d, nil
}
