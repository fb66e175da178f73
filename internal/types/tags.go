package types

import (
	"iter"
	"slices"
	"strings"
)

// Tags is a ParsedFile's format-agnostic metadata view: a set of commonly
// needed fields mapped from whichever format-specific keys carry them, plus
// Raw, the complete TagSet keyed by the exact identifier the source format
// used (an ID3v2 frame ID, an uppercase Vorbis comment key, or an MP4 atom
// code). The mapped fields are a convenience projection; Raw is the
// authoritative, lossless record and is what round-trips values the mapped
// fields can't represent — an MP4 trkn atom's (index, total) pair, embedded
// pictures, or a Vorbis REPLAYGAIN float stored verbatim.
type Tags struct {
	Raw                 TagSet
	MusicBrainzAlbumID  string
	Narrator            string
	AlbumArtist         string
	Artist              string
	Copyright           string
	Label               string
	CatalogNumber       string
	Barcode             string
	Date                string
	OriginalDate        string
	ISRC                string
	MusicBrainzArtistID string
	Title               string
	Subtitle            string // Book/album subtitle (TIT3 in ID3v2)
	MusicBrainzTrackID  string
	Album               string
	Comment             string
	Series              string
	Grouping            string // Content grouping (©grp in M4A, TIT1 in ID3v2) - often contains series info
	Publisher           string
	Lyrics              string
	SeriesPart          string
	ISBN                string
	ASIN                string
	Performers          []string
	Composers           []string
	Genres              []string
	Artists             []string
	Language            string
	Description         string
	DiscTotal           int
	DiscNumber          int
	TrackTotal          int
	TrackNumber         int
	Year                int
}

// All iterates every raw tag in on-disk order. Values are the typed
// TagValue union (text/binary/picture/pair/bool/int), not bare strings —
// a caller wanting only text values can range over All and switch on
// v.Kind, or use Filter to narrow the key space first.
//
// Example:
//
//	for key, values := range file.Tags.All() {
//		for _, v := range values {
//			fmt.Printf("%s[%s] = %s\n", key, v.Kind, v)
//		}
//	}
func (t *Tags) All() iter.Seq2[string, []TagValue] {
	return t.Raw.All()
}

// Get retrieves every raw value stored under key (format-specific: e.g.
// "TIT2", "ARTIST", "trkn"). Returns nil if the key is absent.
func (t *Tags) Get(key string) []TagValue {
	return t.Raw.Get(key)
}

// GetFirst retrieves the first raw value under key, rendered as text via
// TagValue.String — for text values this is the value itself, for
// pair/int/bool values a short textual rendering, and for binary/picture
// values a size summary rather than the payload.
func (t *Tags) GetFirst(key string) string {
	v, ok := t.Raw.GetFirst(key)
	if !ok {
		return ""
	}
	return v.String()
}

// GetBest tries multiple raw keys in order and returns the first non-empty
// rendering, for reconciling format differences (e.g. "ARTIST" vs "TPE1").
func (t *Tags) GetBest(candidates ...string) string {
	for _, key := range candidates {
		if value := t.GetFirst(key); value != "" {
			return value
		}
	}
	return ""
}

// Add appends a raw text value under key, preserving any already stored —
// use this where the source format allows a key to repeat (Vorbis comments,
// ID3 TXXX descriptions).
func (t *Tags) Add(key, value string) {
	t.Raw.AddText(key, value)
}

// AddValue appends a raw, explicitly-typed value under key. Format parsers
// use this to record non-text kinds: AddValue("trkn", types.PairValue(3, 12)).
func (t *Tags) AddValue(key string, v TagValue) {
	t.Raw.Add(key, v)
}

// Set replaces every raw value under key with the given text values, or
// removes the key if values is empty.
func (t *Tags) Set(key string, values ...string) {
	if len(values) == 0 {
		t.Raw.Set(key)
		return
	}
	tvs := make([]TagValue, len(values))
	for i, v := range values {
		tvs[i] = TextValue(v)
	}
	t.Raw.Set(key, tvs...)
}

// Merge fills empty mapped fields in t from other, and copies every raw tag
// other has that t doesn't. Non-empty values in t always win.
func (t *Tags) Merge(other *Tags) { //nolint:gocyclo // Merging requires checking all tag fields individually
	if other == nil {
		return
	}

	if t.Title == "" {
		t.Title = other.Title
	}
	if t.Subtitle == "" {
		t.Subtitle = other.Subtitle
	}
	if t.Artist == "" {
		t.Artist = other.Artist
	}
	if t.Album == "" {
		t.Album = other.Album
	}
	if t.AlbumArtist == "" {
		t.AlbumArtist = other.AlbumArtist
	}
	if t.Year == 0 {
		t.Year = other.Year
	}
	if t.Date == "" {
		t.Date = other.Date
	}
	if t.OriginalDate == "" {
		t.OriginalDate = other.OriginalDate
	}
	if t.Comment == "" {
		t.Comment = other.Comment
	}
	if t.Lyrics == "" {
		t.Lyrics = other.Lyrics
	}
	if t.Narrator == "" {
		t.Narrator = other.Narrator
	}
	if t.Publisher == "" {
		t.Publisher = other.Publisher
	}
	if t.Series == "" {
		t.Series = other.Series
	}
	if t.Grouping == "" {
		t.Grouping = other.Grouping
	}
	if t.SeriesPart == "" {
		t.SeriesPart = other.SeriesPart
	}
	if t.ISBN == "" {
		t.ISBN = other.ISBN
	}
	if t.ASIN == "" {
		t.ASIN = other.ASIN
	}
	if t.TrackNumber == 0 {
		t.TrackNumber = other.TrackNumber
	}
	if t.TrackTotal == 0 {
		t.TrackTotal = other.TrackTotal
	}
	if t.DiscNumber == 0 {
		t.DiscNumber = other.DiscNumber
	}
	if t.DiscTotal == 0 {
		t.DiscTotal = other.DiscTotal
	}

	t.Artists = mergeUnique(t.Artists, other.Artists)
	t.Genres = mergeUnique(t.Genres, other.Genres)
	t.Composers = mergeUnique(t.Composers, other.Composers)
	t.Performers = mergeUnique(t.Performers, other.Performers)

	if t.MusicBrainzTrackID == "" {
		t.MusicBrainzTrackID = other.MusicBrainzTrackID
	}
	if t.MusicBrainzAlbumID == "" {
		t.MusicBrainzAlbumID = other.MusicBrainzAlbumID
	}
	if t.MusicBrainzArtistID == "" {
		t.MusicBrainzArtistID = other.MusicBrainzArtistID
	}
	if t.ISRC == "" {
		t.ISRC = other.ISRC
	}
	if t.Barcode == "" {
		t.Barcode = other.Barcode
	}
	if t.CatalogNumber == "" {
		t.CatalogNumber = other.CatalogNumber
	}
	if t.Label == "" {
		t.Label = other.Label
	}
	if t.Copyright == "" {
		t.Copyright = other.Copyright
	}

	t.Raw.Merge(&other.Raw)
}

// Clone creates a deep copy of the Tags, including the raw TagSet.
func (t *Tags) Clone() *Tags {
	if t == nil {
		return nil
	}

	clone := &Tags{
		Title:               t.Title,
		Subtitle:            t.Subtitle,
		Artist:              t.Artist,
		Album:               t.Album,
		AlbumArtist:         t.AlbumArtist,
		Year:                t.Year,
		Date:                t.Date,
		OriginalDate:        t.OriginalDate,
		TrackNumber:         t.TrackNumber,
		TrackTotal:          t.TrackTotal,
		DiscNumber:          t.DiscNumber,
		DiscTotal:           t.DiscTotal,
		Comment:             t.Comment,
		Lyrics:              t.Lyrics,
		Narrator:            t.Narrator,
		Publisher:           t.Publisher,
		Series:              t.Series,
		Grouping:            t.Grouping,
		SeriesPart:          t.SeriesPart,
		ISBN:                t.ISBN,
		ASIN:                t.ASIN,
		MusicBrainzTrackID:  t.MusicBrainzTrackID,
		MusicBrainzAlbumID:  t.MusicBrainzAlbumID,
		MusicBrainzArtistID: t.MusicBrainzArtistID,
		ISRC:                t.ISRC,
		Barcode:             t.Barcode,
		CatalogNumber:       t.CatalogNumber,
		Label:               t.Label,
		Copyright:           t.Copyright,

		Artists:    slices.Clone(t.Artists),
		Genres:     slices.Clone(t.Genres),
		Composers:  slices.Clone(t.Composers),
		Performers: slices.Clone(t.Performers),

		Language:    t.Language,
		Description: t.Description,

		Raw: t.Raw.Clone(),
	}

	return clone
}

// Equal reports whether two Tags carry the same mapped fields and the same
// raw TagSet.
func (t *Tags) Equal(other *Tags) bool { //nolint:gocyclo // Equality check requires comparing all tag fields individually
	if t == nil && other == nil {
		return true
	}
	if t == nil || other == nil {
		return false
	}

	if t.Title != other.Title ||
		t.Subtitle != other.Subtitle ||
		t.Artist != other.Artist ||
		t.Album != other.Album ||
		t.AlbumArtist != other.AlbumArtist ||
		t.Year != other.Year ||
		t.Date != other.Date ||
		t.OriginalDate != other.OriginalDate ||
		t.TrackNumber != other.TrackNumber ||
		t.TrackTotal != other.TrackTotal ||
		t.DiscNumber != other.DiscNumber ||
		t.DiscTotal != other.DiscTotal ||
		t.Comment != other.Comment ||
		t.Lyrics != other.Lyrics ||
		t.Narrator != other.Narrator ||
		t.Publisher != other.Publisher ||
		t.Series != other.Series ||
		t.Grouping != other.Grouping ||
		t.SeriesPart != other.SeriesPart ||
		t.ISBN != other.ISBN ||
		t.ASIN != other.ASIN ||
		t.MusicBrainzTrackID != other.MusicBrainzTrackID ||
		t.MusicBrainzAlbumID != other.MusicBrainzAlbumID ||
		t.MusicBrainzArtistID != other.MusicBrainzArtistID ||
		t.ISRC != other.ISRC ||
		t.Barcode != other.Barcode ||
		t.CatalogNumber != other.CatalogNumber ||
		t.Label != other.Label ||
		t.Copyright != other.Copyright ||
		t.Language != other.Language ||
		t.Description != other.Description {
		return false
	}

	if !slices.Equal(t.Artists, other.Artists) ||
		!slices.Equal(t.Genres, other.Genres) ||
		!slices.Equal(t.Composers, other.Composers) ||
		!slices.Equal(t.Performers, other.Performers) {
		return false
	}

	return t.Raw.Equal(&other.Raw)
}

// Filter iterates the raw tags whose key matches predicate.
//
// Example:
//
//	for key, values := range file.Tags.Filter(func(k string) bool {
//		return strings.HasPrefix(k, "MUSICBRAINZ")
//	}) {
//		fmt.Printf("%s: %v\n", key, values)
//	}
func (t *Tags) Filter(predicate func(string) bool) iter.Seq2[string, []TagValue] {
	return t.Raw.Filter(predicate)
}

// mergeUnique appends elements from b to a, skipping duplicates.
// Uses case-insensitive comparison for strings.
func mergeUnique(a, b []string) []string {
	if len(b) == 0 {
		return a
	}

	result := slices.Clone(a)

	for _, bVal := range b {
		found := false
		for _, aVal := range result {
			if strings.EqualFold(aVal, bVal) {
				found = true
				break
			}
		}
		if !found {
			result = append(result, bVal)
		}
	}

	return result
}
