package vorbis

import (
	"testing"

	"github.com/wrnbx/audiometa/internal/types"
)

func TestParseComment(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		check   func(*types.Tags) bool
	}{
		// Basic metadata
		{"title", "TITLE=Test Song", func(t *types.Tags) bool { return t.Title == "Test Song" }},
		{"subtitle", "SUBTITLE=The Remix", func(t *types.Tags) bool { return t.Subtitle == "The Remix" }},
		{"artist", "ARTIST=Test Artist", func(t *types.Tags) bool { return t.Artist == "Test Artist" }},
		{"artist adds to artists", "ARTIST=Test Artist", func(t *types.Tags) bool {
			return len(t.Artists) == 1 && t.Artists[0] == "Test Artist"
		}},
		{"album", "ALBUM=Test Album", func(t *types.Tags) bool { return t.Album == "Test Album" }},
		{"album artist", "ALBUMARTIST=Various Artists", func(t *types.Tags) bool { return t.AlbumArtist == "Various Artists" }},
		{"key is case-insensitive", "artist=lowercase key", func(t *types.Tags) bool { return t.Artist == "lowercase key" }},

		// Date handling
		{"date full", "DATE=2024-05-15", func(t *types.Tags) bool { return t.Date == "2024-05-15" && t.Year == 2024 }},
		{"date year only", "DATE=2024", func(t *types.Tags) bool { return t.Date == "2024" && t.Year == 2024 }},
		{"original date", "ORIGINALDATE=1985-06-01", func(t *types.Tags) bool { return t.OriginalDate == "1985-06-01" }},

		// Track/disc numbers
		{"track number", "TRACKNUMBER=5", func(t *types.Tags) bool { return t.TrackNumber == 5 }},
		{"track total", "TRACKTOTAL=12", func(t *types.Tags) bool { return t.TrackTotal == 12 }},
		{"totaltracks", "TOTALTRACKS=15", func(t *types.Tags) bool { return t.TrackTotal == 15 }},
		{"disc number", "DISCNUMBER=2", func(t *types.Tags) bool { return t.DiscNumber == 2 }},
		{"disc total", "DISCTOTAL=3", func(t *types.Tags) bool { return t.DiscTotal == 3 }},
		{"totaldiscs", "TOTALDISCS=4", func(t *types.Tags) bool { return t.DiscTotal == 4 }},

		// Multi-value fields
		{"genre", "GENRE=Rock", func(t *types.Tags) bool {
			return len(t.Genres) == 1 && t.Genres[0] == "Rock"
		}},
		{"composer", "COMPOSER=John Williams", func(t *types.Tags) bool {
			return len(t.Composers) == 1 && t.Composers[0] == "John Williams"
		}},
		{"performer", "PERFORMER=Symphony Orchestra", func(t *types.Tags) bool {
			return len(t.Performers) == 1 && t.Performers[0] == "Symphony Orchestra"
		}},

		// Text fields
		{"comment", "COMMENT=Great album!", func(t *types.Tags) bool { return t.Comment == "Great album!" }},
		{"lyrics", "LYRICS=La la la", func(t *types.Tags) bool { return t.Lyrics == "La la la" }},
		{"description", "DESCRIPTION=A detailed description", func(t *types.Tags) bool { return t.Description == "A detailed description" }},

		// Audiobook fields
		{"narrator", "NARRATOR=Stephen Fry", func(t *types.Tags) bool { return t.Narrator == "Stephen Fry" }},
		{"publisher", "PUBLISHER=Penguin Books", func(t *types.Tags) bool { return t.Publisher == "Penguin Books" }},
		{"series", "SERIES=Harry Potter", func(t *types.Tags) bool { return t.Series == "Harry Potter" }},
		{"series part", "SERIESPART=1", func(t *types.Tags) bool { return t.SeriesPart == "1" }},
		{"isbn", "ISBN=978-0-06-112008-4", func(t *types.Tags) bool { return t.ISBN == "978-0-06-112008-4" }},
		{"asin", "ASIN=B00EXAMPLE", func(t *types.Tags) bool { return t.ASIN == "B00EXAMPLE" }},
		{"audible asin", "AUDIBLE_ASIN=B00AUDIBLE", func(t *types.Tags) bool { return t.ASIN == "B00AUDIBLE" }},
		{"language", "LANGUAGE=en", func(t *types.Tags) bool { return t.Language == "en" }},
		{"lang", "LANG=English", func(t *types.Tags) bool { return t.Language == "English" }},

		// MusicBrainz IDs
		{"musicbrainz track id", "MUSICBRAINZ_TRACKID=abc123", func(t *types.Tags) bool { return t.MusicBrainzTrackID == "abc123" }},
		{"musicbrainz album id", "MUSICBRAINZ_ALBUMID=def456", func(t *types.Tags) bool { return t.MusicBrainzAlbumID == "def456" }},
		{"musicbrainz artist id", "MUSICBRAINZ_ARTISTID=ghi789", func(t *types.Tags) bool { return t.MusicBrainzArtistID == "ghi789" }},

		// Catalog info
		{"isrc", "ISRC=USRC17607839", func(t *types.Tags) bool { return t.ISRC == "USRC17607839" }},
		{"barcode", "BARCODE=012345678901", func(t *types.Tags) bool { return t.Barcode == "012345678901" }},
		{"catalog number", "CATALOGNUMBER=ABC-123", func(t *types.Tags) bool { return t.CatalogNumber == "ABC-123" }},
		{"label", "LABEL=Sony Music", func(t *types.Tags) bool { return t.Label == "Sony Music" }},
		{"copyright", "COPYRIGHT=2024 Sony Music", func(t *types.Tags) bool { return t.Copyright == "2024 Sony Music" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			file := &types.File{}
			err := ParseComment(tc.comment, file)
			if err != nil {
				t.Fatalf("ParseComment() error = %v", err)
			}
			if !tc.check(&file.Tags) {
				t.Errorf("ParseComment(%q) did not set expected field", tc.comment)
			}
		})
	}
}

func TestParseComment_MultipleGenres(t *testing.T) {
	file := &types.File{}

	_ = ParseComment("GENRE=Rock", file)
	_ = ParseComment("GENRE=Alternative", file)
	_ = ParseComment("GENRE=Indie", file)

	if len(file.Tags.Genres) != 3 {
		t.Errorf("Genres = %v, want 3 genres", file.Tags.Genres)
	}
	if file.Tags.Genres[0] != "Rock" || file.Tags.Genres[1] != "Alternative" || file.Tags.Genres[2] != "Indie" {
		t.Errorf("Genres = %v, want [Rock Alternative Indie]", file.Tags.Genres)
	}
}

func TestParseComment_MultipleArtists(t *testing.T) {
	file := &types.File{}

	_ = ParseComment("ARTIST=Artist One", file)
	_ = ParseComment("ARTIST=Artist Two", file)

	if file.Tags.Artist != "Artist Two" {
		t.Errorf("Artist = %q, want %q (last value wins for the mapped field)", file.Tags.Artist, "Artist Two")
	}
	if len(file.Tags.Artists) != 2 {
		t.Errorf("Artists = %v, want 2 artists", file.Tags.Artists)
	}
}

func TestParseComment_RawAccumulatesDuplicateKeys(t *testing.T) {
	file := &types.File{}

	_ = ParseComment("ARTIST=Alice", file)
	_ = ParseComment("ARTIST=Bob", file)
	_ = ParseComment("TITLE=Song", file)

	raw := file.Tags.Get("ARTIST")
	if len(raw) != 2 || raw[0].Text != "Alice" || raw[1].Text != "Bob" {
		t.Errorf("raw ARTIST = %v, want [Alice Bob] (scenario 3: duplicate keys accumulate, in order)", raw)
	}
}

func TestParseComment_InvalidFormat(t *testing.T) {
	file := &types.File{}
	err := ParseComment("NOEQUALSIGN", file)
	if err == nil {
		t.Error("ParseComment() should return error for comment without '='")
	}
}

func TestParseComment_EmptyValue(t *testing.T) {
	file := &types.File{}
	err := ParseComment("TITLE=", file)
	if err != nil {
		t.Errorf("ParseComment() error = %v, want nil for empty value", err)
	}
	if file.Tags.Title != "" {
		t.Errorf("Title = %q, want empty string", file.Tags.Title)
	}
}

func TestParseComment_EmptyKey(t *testing.T) {
	file := &types.File{}
	err := ParseComment("=value", file)
	if err != nil {
		t.Errorf("ParseComment() error = %v", err)
	}
	if file.Tags.GetFirst("") != "value" {
		t.Errorf("Raw tag with empty key not set")
	}
}

func TestParseComment_ValueWithEquals(t *testing.T) {
	file := &types.File{}
	err := ParseComment("COMMENT=x=y=z", file)
	if err != nil {
		t.Errorf("ParseComment() error = %v", err)
	}
	if file.Tags.Comment != "x=y=z" {
		t.Errorf("Comment = %q, want %q", file.Tags.Comment, "x=y=z")
	}
}

func TestParseComment_StoresRawTag(t *testing.T) {
	file := &types.File{}
	_ = ParseComment("TITLE=Test Song", file)

	raw := file.Tags.Get("TITLE")
	if len(raw) != 1 || raw[0].Kind != types.TagText || raw[0].Text != "Test Song" {
		t.Errorf("Raw tag TITLE = %v, want [text:Test Song]", raw)
	}
}

func TestParseComment_UnknownTag(t *testing.T) {
	file := &types.File{}
	err := ParseComment("CUSTOMTAG=CustomValue", file)
	if err != nil {
		t.Errorf("ParseComment() error = %v for unknown tag", err)
	}

	if file.Tags.GetFirst("CUSTOMTAG") != "CustomValue" {
		t.Errorf("Unknown tag not stored in raw tags")
	}
}

func TestParseComment_DateYearExtraction(t *testing.T) {
	tests := []struct {
		date string
		year int
	}{
		{"2024", 2024},
		{"2024-05-15", 2024},
		{"2024-05-15T12:00:00", 2024},
		{"202", 0},  // Too short
		{"ABCD", 0}, // Not a number
	}

	for _, tc := range tests {
		t.Run(tc.date, func(t *testing.T) {
			file := &types.File{}
			_ = ParseComment("DATE="+tc.date, file)
			if file.Tags.Year != tc.year {
				t.Errorf("Year = %d for DATE=%s, want %d", file.Tags.Year, tc.date, tc.year)
			}
		})
	}
}

func TestParseComment_DescriptionNotOverwritten(t *testing.T) {
	file := &types.File{Tags: types.Tags{Description: "Original"}}
	_ = ParseComment("DESCRIPTION=New", file)

	if file.Tags.Description != "Original" {
		t.Errorf("Description = %q, want %q (should not be overwritten)", file.Tags.Description, "Original")
	}
}

func TestParseComment_InvalidNumbers(t *testing.T) {
	file := &types.File{}

	_ = ParseComment("TRACKNUMBER=abc", file)
	if file.Tags.TrackNumber != 0 {
		t.Errorf("TrackNumber = %d for invalid input, want 0", file.Tags.TrackNumber)
	}

	_ = ParseComment("DISCNUMBER=", file)
	if file.Tags.DiscNumber != 0 {
		t.Errorf("DiscNumber = %d for empty input, want 0", file.Tags.DiscNumber)
	}
}

func TestParseComment_ReplayGain(t *testing.T) {
	file := &types.File{}

	_ = ParseComment("REPLAYGAIN_TRACK_GAIN=-6.50 dB", file)
	_ = ParseComment("REPLAYGAIN_TRACK_PEAK=0.988127", file)

	if file.Audio.ReplayGain == nil {
		t.Fatal("ReplayGain not populated")
	}
	if file.Audio.ReplayGain.TrackGain != -6.50 {
		t.Errorf("TrackGain = %v, want -6.50", file.Audio.ReplayGain.TrackGain)
	}
	if file.Audio.ReplayGain.TrackPeak != 0.988127 {
		t.Errorf("TrackPeak = %v, want 0.988127", file.Audio.ReplayGain.TrackPeak)
	}
}

func TestSerializeComments_RoundTrip(t *testing.T) {
	file := &types.File{}
	_ = ParseComment("ARTIST=Alice", file)
	_ = ParseComment("ARTIST=Bob", file)
	_ = ParseComment("TITLE=Song", file)

	out := SerializeComments(&file.Tags)
	want := []string{"ARTIST=Alice", "ARTIST=Bob", "TITLE=Song"}
	if len(out) != len(want) {
		t.Fatalf("SerializeComments() = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("SerializeComments()[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}
