package types

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
)

// TagValueKind discriminates the six value shapes a raw tag entry can hold,
// mirroring what the four container formats actually put on the wire: a
// text frame, an opaque byte blob, a structured picture, a two-integer
// pair (MP4 trkn/disk), a single flag bit, or a bare integer.
type TagValueKind int

const (
	TagText TagValueKind = iota
	TagBinary
	TagPicture
	TagPairKind
	TagBool
	TagInt
)

func (k TagValueKind) String() string {
	switch k {
	case TagText:
		return "text"
	case TagBinary:
		return "binary"
	case TagPicture:
		return "picture"
	case TagPairKind:
		return "pair"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	default:
		return "unknown"
	}
}

// TagPair is the (index, total) shape MP4's trkn/disk atoms and the track/disc
// slash-notation frames decode into.
type TagPair struct {
	Number int
	Total  int
}

// TagValue is one raw tag entry: exactly one of its fields is meaningful,
// selected by Kind. This is the union spec.md's TagSet requires in place of
// a strings-only map, so that a trkn atom can round-trip as (3, 12) instead
// of collapsing into two separately-typed struct fields.
type TagValue struct {
	Kind    TagValueKind
	Text    string
	Binary  []byte
	Picture *Artwork
	Pair    TagPair
	Bool    bool
	Int     int
}

func TextValue(s string) TagValue   { return TagValue{Kind: TagText, Text: s} }
func BinaryValue(b []byte) TagValue { return TagValue{Kind: TagBinary, Binary: slices.Clone(b)} }
func PictureValue(a *Artwork) TagValue {
	return TagValue{Kind: TagPicture, Picture: a}
}
func PairValue(number, total int) TagValue {
	return TagValue{Kind: TagPairKind, Pair: TagPair{Number: number, Total: total}}
}
func BoolValue(b bool) TagValue { return TagValue{Kind: TagBool, Bool: b} }
func IntValue(n int) TagValue   { return TagValue{Kind: TagInt, Int: n} }

// String renders the value for display; text and int/bool/pair kinds are
// lossless, binary and picture kinds summarize size rather than dumping bytes.
func (v TagValue) String() string {
	switch v.Kind {
	case TagText:
		return v.Text
	case TagBinary:
		return fmt.Sprintf("<binary: %d bytes>", len(v.Binary))
	case TagPicture:
		if v.Picture != nil {
			return v.Picture.String()
		}
		return "<picture>"
	case TagPairKind:
		return fmt.Sprintf("%d/%d", v.Pair.Number, v.Pair.Total)
	case TagBool:
		return strconv.FormatBool(v.Bool)
	case TagInt:
		return strconv.Itoa(v.Int)
	default:
		return ""
	}
}

// TagSet is the ordered, duplicate-preserving multimap from spec.md's data
// model: keyed by the format's own tag identifier (an ID3v2 frame ID, an
// uppercased Vorbis comment key, or an MP4 atom's 4-byte type code rendered
// as a Go string), values accumulate in on-disk order and a key is dropped
// entirely once its value list empties.
type TagSet struct {
	values map[string][]TagValue
	order  []string
}

// Add appends v under key, preserving any values already present. Use this
// for tag sources that legitimately repeat a key (Vorbis comments, ID3 TXXX
// descriptions) so duplicates accumulate instead of overwriting.
func (s *TagSet) Add(key string, v TagValue) {
	if s.values == nil {
		s.values = make(map[string][]TagValue)
	}
	if _, existed := s.values[key]; !existed {
		s.order = append(s.order, key)
	}
	s.values[key] = append(s.values[key], v)
}

// AddText is a convenience over Add for the common text-value case.
func (s *TagSet) AddText(key, text string) { s.Add(key, TextValue(text)) }

// Set replaces every value under key with values, or removes the key
// entirely when values is empty.
func (s *TagSet) Set(key string, values ...TagValue) {
	if len(values) == 0 {
		if s.values == nil {
			return
		}
		if _, existed := s.values[key]; existed {
			delete(s.values, key)
			s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
		}
		return
	}
	if s.values == nil {
		s.values = make(map[string][]TagValue)
	}
	if _, existed := s.values[key]; !existed {
		s.order = append(s.order, key)
	}
	s.values[key] = slices.Clone(values)
}

// Get returns a copy of the values stored under key, or nil if absent.
func (s *TagSet) Get(key string) []TagValue {
	if s.values == nil {
		return nil
	}
	values, ok := s.values[key]
	if !ok {
		return nil
	}
	return slices.Clone(values)
}

// GetFirst returns the first value under key, if any.
func (s *TagSet) GetFirst(key string) (TagValue, bool) {
	values := s.Get(key)
	if len(values) == 0 {
		return TagValue{}, false
	}
	return values[0], true
}

// Keys returns the tag keys in insertion order.
func (s *TagSet) Keys() []string { return slices.Clone(s.order) }

// Len reports how many distinct keys are present.
func (s *TagSet) Len() int { return len(s.order) }

// All iterates (key, values) pairs in insertion order.
func (s *TagSet) All() iter.Seq2[string, []TagValue] {
	return func(yield func(string, []TagValue) bool) {
		for _, key := range s.order {
			values, ok := s.values[key]
			if !ok {
				continue
			}
			if !yield(key, values) {
				return
			}
		}
	}
}

// Filter iterates only the keys matching predicate, in insertion order.
func (s *TagSet) Filter(predicate func(string) bool) iter.Seq2[string, []TagValue] {
	return func(yield func(string, []TagValue) bool) {
		for _, key := range s.order {
			if !predicate(key) {
				continue
			}
			values, ok := s.values[key]
			if !ok {
				continue
			}
			if !yield(key, values) {
				return
			}
		}
	}
}

// Clone deep-copies the set, including per-entry Picture pointers (shallow
// copied — artwork bytes are treated as immutable once parsed).
func (s *TagSet) Clone() TagSet {
	if s == nil || s.values == nil {
		return TagSet{}
	}
	out := TagSet{values: make(map[string][]TagValue, len(s.values)), order: slices.Clone(s.order)}
	for key, values := range s.values {
		out.values[key] = slices.Clone(values)
	}
	return out
}

// Merge copies every (key, values) pair from other that t doesn't already
// have, preserving the order each key was first seen across the two sets.
func (s *TagSet) Merge(other *TagSet) {
	if other == nil {
		return
	}
	for _, key := range other.order {
		if _, existed := s.values[key]; existed {
			continue
		}
		values, ok := other.values[key]
		if !ok {
			continue
		}
		if s.values == nil {
			s.values = make(map[string][]TagValue)
		}
		s.order = append(s.order, key)
		s.values[key] = slices.Clone(values)
	}
}

func tagValueEqual(a, b TagValue) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case TagText:
		return a.Text == b.Text
	case TagBinary:
		return slices.Equal(a.Binary, b.Binary)
	case TagPicture:
		if a.Picture == nil || b.Picture == nil {
			return a.Picture == b.Picture
		}
		return a.Picture.Type == b.Picture.Type && a.Picture.MIMEType == b.Picture.MIMEType &&
			slices.Equal(a.Picture.Data, b.Picture.Data)
	case TagPairKind:
		return a.Pair == b.Pair
	case TagBool:
		return a.Bool == b.Bool
	case TagInt:
		return a.Int == b.Int
	default:
		return true
	}
}

// Equal compares two sets key-for-key and value-for-value; key order is not
// part of equality (two sets built from the same comments in different
// collection orders still compare equal).
func (s *TagSet) Equal(other *TagSet) bool {
	if s == nil && other == nil {
		return true
	}
	if s == nil || other == nil {
		return len(s.values) == 0 && len(other.values) == 0
	}
	if len(s.values) != len(other.values) {
		return false
	}
	for key, values := range s.values {
		ov, ok := other.values[key]
		if !ok || len(values) != len(ov) {
			return false
		}
		for i := range values {
			if !tagValueEqual(values[i], ov[i]) {
				return false
			}
		}
	}
	return true
}
