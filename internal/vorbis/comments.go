// Package vorbis provides the shared Vorbis comment codec used by both the
// FLAC and Ogg Vorbis parsers: identical "KEY=VALUE" wire format, different
// container.
package vorbis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wrnbx/audiometa/internal/types"
)

// ParseComment decodes one "KEY=VALUE" Vorbis comment, files it under its
// normalized key in file.Tags.Raw (accumulating rather than overwriting, so
// a repeated key like "ARTIST=Alice" / "ARTIST=Bob" keeps both values in
// order), and — where the key matches a well-known field — also projects it
// onto the corresponding Tags convenience field.
//
// Per the Vorbis comment grammar, keys are case-insensitive; this always
// normalizes to uppercase ASCII before either step, so "artist" and "ARTIST"
// land under the same raw key and hit the same switch case. A comment with
// no "=" or with an ASCII control character in its key is rejected with an
// error and nothing is stored.
func ParseComment(comment string, file *types.File) error { //nolint:gocyclo // one branch per well-known Vorbis comment field
	eq := strings.IndexByte(comment, '=')
	if eq == -1 {
		return fmt.Errorf("missing '=' in comment: %s", comment)
	}

	key := strings.ToUpper(comment[:eq])
	value := comment[eq+1:]
	if strings.ContainsFunc(key, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return fmt.Errorf("control character in comment key %q", key)
	}

	tags := &file.Tags
	switch key {
	case "TITLE":
		tags.Title = value
	case "SUBTITLE":
		tags.Subtitle = value
	case "ARTIST":
		tags.Artist = value
		tags.Artists = append(tags.Artists, value)
	case "ALBUM":
		tags.Album = value
	case "ALBUMARTIST":
		tags.AlbumArtist = value
	case "DATE":
		tags.Date = value
		if year := leadingYear(value); year > 0 {
			tags.Year = year
		}
	case "ORIGINALDATE":
		tags.OriginalDate = value
	case "TRACKNUMBER":
		tags.TrackNumber = atoiBestEffort(value)
	case "TRACKTOTAL", "TOTALTRACKS":
		tags.TrackTotal = atoiBestEffort(value)
	case "DISCNUMBER":
		tags.DiscNumber = atoiBestEffort(value)
	case "DISCTOTAL", "TOTALDISCS":
		tags.DiscTotal = atoiBestEffort(value)
	case "GENRE":
		tags.Genres = append(tags.Genres, value)
	case "COMPOSER":
		tags.Composers = append(tags.Composers, value)
	case "PERFORMER":
		tags.Performers = append(tags.Performers, value)
	case "COMMENT":
		tags.Comment = value
	case "LYRICS":
		tags.Lyrics = value
	case "NARRATOR":
		tags.Narrator = value
	case "PUBLISHER":
		tags.Publisher = value
	case "SERIES":
		tags.Series = value
	case "SERIESPART":
		tags.SeriesPart = value
	case "ISBN":
		tags.ISBN = value
	case "ASIN", "AUDIBLE_ASIN":
		tags.ASIN = value
	case "LANGUAGE", "LANG":
		tags.Language = value
	case "DESCRIPTION":
		if tags.Description == "" {
			tags.Description = value
		}
	case "MUSICBRAINZ_TRACKID":
		tags.MusicBrainzTrackID = value
	case "MUSICBRAINZ_ALBUMID":
		tags.MusicBrainzAlbumID = value
	case "MUSICBRAINZ_ARTISTID":
		tags.MusicBrainzArtistID = value
	case "ISRC":
		tags.ISRC = value
	case "BARCODE":
		tags.Barcode = value
	case "CATALOGNUMBER":
		tags.CatalogNumber = value
	case "LABEL":
		tags.Label = value
	case "COPYRIGHT":
		tags.Copyright = value
	case "REPLAYGAIN_TRACK_GAIN":
		replayGain(file).TrackGain = parseReplayGainValue(value)
	case "REPLAYGAIN_TRACK_PEAK":
		replayGain(file).TrackPeak = parseReplayGainPeak(value)
	case "REPLAYGAIN_ALBUM_GAIN":
		replayGain(file).AlbumGain = parseReplayGainValue(value)
	case "REPLAYGAIN_ALBUM_PEAK":
		replayGain(file).AlbumPeak = parseReplayGainPeak(value)
	}

	tags.Add(key, value)

	return nil
}

// replayGain lazily allocates file.Audio.ReplayGain on first ReplayGain comment.
func replayGain(file *types.File) *types.ReplayGainInfo {
	if file.Audio.ReplayGain == nil {
		file.Audio.ReplayGain = &types.ReplayGainInfo{}
	}
	return file.Audio.ReplayGain
}

// leadingYear extracts a plausible year from the first four characters of a
// Vorbis DATE comment, which may be a bare year or a full ISO-8601 date.
func leadingYear(value string) int {
	if len(value) < 4 {
		return 0
	}
	year := atoiBestEffort(value[:4])
	if year <= 0 {
		return 0
	}
	return year
}

func atoiBestEffort(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s)) //nolint:errcheck // best-effort numeric parse, zero value is fine
	return n
}

// parseReplayGainValue parses a ReplayGain gain value like "-6.50 dB" or "-6.50".
func parseReplayGainValue(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " dB")
	s = strings.TrimSuffix(s, "dB")
	val, _ := strconv.ParseFloat(strings.TrimSpace(s), 64) //nolint:errcheck // best-effort parse, zero value is fine
	return val
}

// parseReplayGainPeak parses a ReplayGain peak value like "0.988127".
func parseReplayGainPeak(s string) float64 {
	val, _ := strconv.ParseFloat(strings.TrimSpace(s), 64) //nolint:errcheck // best-effort parse, zero value is fine
	return val
}

// SerializeComments re-encodes a Tags value's raw text entries as a slice of
// "KEY=VALUE" Vorbis comment strings, in the order the keys were first seen.
// Non-text raw values (there should be none for a format whose wire shape is
// entirely KEY=VALUE text) are skipped rather than corrupting the stream.
//
// Used by the FLAC and Ogg writers to rebuild a VORBIS_COMMENT block/packet
// after a caller has mutated Tags; every untouched raw key round-trips.
func SerializeComments(tags *types.Tags) []string {
	var comments []string
	for key, values := range tags.All() {
		for _, v := range values {
			if v.Kind != types.TagText {
				continue
			}
			comments = append(comments, key+"="+v.Text)
		}
	}
	return comments
}
