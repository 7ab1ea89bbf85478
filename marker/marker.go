// Package marker defines the ordered catalogue of steps ("markers") that a
// lesson stage walks a learner through. A Sequence is built once from an
// ordered list of names and is read-only afterwards; every ordering question
// (next, previous, between) goes through it rather than through raw integer
// arithmetic on marker ranks.
package marker

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/zeebo/xxh3"
)

// Marker identifies a single step within a Sequence. Markers are only
// created by a Sequence; the zero value means "no marker".
type Marker struct {
	name string
	rank int
}

// Name returns the marker identifier.
func (m Marker) Name() string {
	return m.name
}

// Rank returns the position of the marker in the sequence that created it.
func (m Marker) Rank() int {
	return m.rank
}

// IsZero reports whether m is the zero Marker.
func (m Marker) IsZero() bool {
	return m.name == ""
}

func (m Marker) String() string {
	if m.IsZero() {
		return "<none>"
	}

	return m.name
}

// Sequence is an ordered, immutable, non-empty list of markers with no
// repeated names. The first element is the initial marker and the last
// element is the terminal marker.
type Sequence struct {
	markers     []Marker
	index       map[string]int
	fingerprint string
}

// NewSequence builds a sequence from marker names in declaration order.
func NewSequence(names ...string) (*Sequence, error) {
	if len(names) == 0 {
		return nil, ErrEmptySequence
	}

	seq := &Sequence{
		markers: make([]Marker, 0, len(names)),
		index:   make(map[string]int, len(names)),
	}

	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: position %d", ErrEmptyMarkerName, i)
		}

		if _, exists := seq.index[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMarker, name)
		}

		seq.index[name] = i
		seq.markers = append(seq.markers, Marker{name: name, rank: i})
	}

	digest := xxh3.HashString(strings.Join(names, "\x00"))
	seq.fingerprint = fmt.Sprintf("%016x", digest)

	return seq, nil
}

// MustSequence is like NewSequence but panics on error. It is meant for
// package-level stage declarations.
func MustSequence(names ...string) *Sequence {
	seq, err := NewSequence(names...)
	if err != nil {
		panic(err)
	}

	return seq
}

// Len returns the number of markers.
func (s *Sequence) Len() int {
	return len(s.markers)
}

// First returns the initial marker.
func (s *Sequence) First() Marker {
	return s.markers[0]
}

// Last returns the terminal marker.
func (s *Sequence) Last() Marker {
	return s.markers[len(s.markers)-1]
}

// Contains reports whether a marker with the given name is part of the sequence.
func (s *Sequence) Contains(name string) bool {
	_, ok := s.index[name]

	return ok
}

// Lookup returns the marker with the given name.
func (s *Sequence) Lookup(name string) (Marker, error) {
	idx, ok := s.index[name]
	if !ok {
		return Marker{}, &UnknownMarkerError{Name: name}
	}

	return s.markers[idx], nil
}

// IndexOf returns the position of m. Markers that were not created by this
// sequence (or by an identical one) are reported as unknown.
func (s *Sequence) IndexOf(m Marker) (int, error) {
	idx, ok := s.index[m.name]
	if !ok || s.markers[idx] != m {
		return 0, &UnknownMarkerError{Name: m.name}
	}

	return idx, nil
}

// At returns the marker at position i.
func (s *Sequence) At(i int) (Marker, error) {
	if i < 0 || i >= len(s.markers) {
		return Marker{}, &IndexOutOfRangeError{Index: i, Len: len(s.markers)}
	}

	return s.markers[i], nil
}

// Next returns the marker after m. Forward motion saturates at the terminal
// marker, so Next(Last()) == Last().
func (s *Sequence) Next(m Marker) (Marker, error) {
	idx, err := s.IndexOf(m)
	if err != nil {
		return Marker{}, err
	}

	return s.markers[min(idx+1, len(s.markers)-1)], nil
}

// Previous returns the marker before m, saturating at the initial marker.
func (s *Sequence) Previous(m Marker) (Marker, error) {
	idx, err := s.IndexOf(m)
	if err != nil {
		return Marker{}, err
	}

	return s.markers[max(idx-1, 0)], nil
}

// IsBetween reports whether start <= m <= end in sequence order.
func (s *Sequence) IsBetween(m, start, end Marker) (bool, error) {
	idx, err := s.IndexOf(m)
	if err != nil {
		return false, err
	}

	lo, err := s.IndexOf(start)
	if err != nil {
		return false, err
	}

	hi, err := s.IndexOf(end)
	if err != nil {
		return false, err
	}

	return lo <= idx && idx <= hi, nil
}

// Markers returns a copy of the markers in order.
func (s *Sequence) Markers() []Marker {
	return slices.Clone(s.markers)
}

// Names returns the marker names in order.
func (s *Sequence) Names() []string {
	names := make([]string, len(s.markers))
	for i, m := range s.markers {
		names[i] = m.name
	}

	return names
}

// All iterates over (position, marker) pairs in order.
func (s *Sequence) All() iter.Seq2[int, Marker] {
	return func(yield func(int, Marker) bool) {
		for i, m := range s.markers {
			if !yield(i, m) {
				return
			}
		}
	}
}

// Fingerprint is a short digest of the ordered marker names. Two sequences
// with the same names in the same order share a fingerprint, which lets a
// persisted position be checked against the marker list it was written for.
func (s *Sequence) Fingerprint() string {
	return s.fingerprint
}
