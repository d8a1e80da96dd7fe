package records

import (
	"slices"
	"strings"

	"github.com/agentstation/custlist/pkg/constants"
)

// LabelSet is an insertion-ordered set of event labels.
// The zero value is an empty set ready to use.
type LabelSet struct {
	order []string
	index map[string]struct{}
}

// NewLabelSet builds a set from labels, keeping the first occurrence of each.
func NewLabelSet(labels ...string) LabelSet {
	var s LabelSet
	for _, l := range labels {
		s.Add(l)
	}
	return s
}

// ParseLabels decodes a persisted pipe-joined cell. Blank entries are dropped.
// A label containing the separator does not survive the round trip; extracted
// titles have it substituted.
func ParseLabels(cell string) LabelSet {
	var s LabelSet
	if cell == "" {
		return s
	}
	for _, part := range strings.Split(cell, constants.ListSeparator) {
		s.Add(part)
	}
	return s
}

// Add inserts label unless it is blank or already present.
// It reports whether the set changed.
func (s *LabelSet) Add(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[label]; ok {
		return false
	}
	s.index[label] = struct{}{}
	s.order = append(s.order, label)
	return true
}

// Contains reports whether label is in the set.
func (s LabelSet) Contains(label string) bool {
	_, ok := s.index[strings.TrimSpace(label)]
	return ok
}

// Len returns the number of labels.
func (s LabelSet) Len() int {
	return len(s.order)
}

// Values returns the labels in insertion order.
func (s LabelSet) Values() []string {
	return slices.Clone(s.order)
}

// Sorted returns the labels in lexical order.
func (s LabelSet) Sorted() []string {
	out := slices.Clone(s.order)
	slices.Sort(out)
	return out
}

// Intersects reports whether the two sets share at least one label.
func (s LabelSet) Intersects(other LabelSet) bool {
	small, large := s, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	for _, l := range small.order {
		if large.Contains(l) {
			return true
		}
	}
	return false
}

// Intersection returns the labels of s that are also in other, in s's order.
func (s LabelSet) Intersection(other LabelSet) LabelSet {
	var out LabelSet
	for _, l := range s.order {
		if other.Contains(l) {
			out.Add(l)
		}
	}
	return out
}

// Union returns a new set with the labels of s followed by the new labels of other.
func (s LabelSet) Union(other LabelSet) LabelSet {
	out := NewLabelSet(s.order...)
	for _, l := range other.order {
		out.Add(l)
	}
	return out
}

// String encodes the set in insertion order.
func (s LabelSet) String() string {
	return strings.Join(s.order, constants.ListSeparator)
}

// SortedString encodes the set in lexical order.
func (s LabelSet) SortedString() string {
	return strings.Join(s.Sorted(), constants.ListSeparator)
}
