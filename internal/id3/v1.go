package id3

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	binutil "github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

const v1TrailerSize = 128

// v1Tag is the fixed 128-byte ID3v1/1.1 trailer layout.
type v1Tag struct {
	Title   string
	Artist  string
	Album   string
	Year    string
	Comment string
	Track   int // 0 if not ID3v1.1
	Genre   byte
}

// readV1 reads the trailing 128 bytes of the file and parses them as an
// ID3v1 (or ID3v1.1, track-number variant) tag. Returns false if the
// trailer doesn't start with the "TAG" marker.
func readV1(sr *binutil.SafeReader, fileSize int64) (v1Tag, bool) {
	if fileSize < v1TrailerSize {
		return v1Tag{}, false
	}
	buf := make([]byte, v1TrailerSize)
	if err := sr.ReadAt(buf, fileSize-v1TrailerSize, "ID3v1 trailer"); err != nil {
		return v1Tag{}, false
	}
	if string(buf[0:3]) != "TAG" {
		return v1Tag{}, false
	}

	decode := func(b []byte) string {
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			out = b
		}
		return strings.TrimRight(string(out), "\x00 ")
	}

	tag := v1Tag{
		Title:   decode(buf[3:33]),
		Artist:  decode(buf[33:63]),
		Album:   decode(buf[63:93]),
		Year:    decode(buf[93:97]),
		Comment: decode(buf[97:125]),
		Genre:   buf[127],
	}

	// ID3v1.1: byte 125 is 0 and byte 126 holds the track number.
	if buf[125] == 0 && buf[126] != 0 {
		tag.Track = int(buf[126])
		tag.Comment = decode(buf[97:125])
	}

	return tag, true
}

// MergeV1 parses a trailing ID3v1 tag (if present) and fills any Tags
// fields left empty by ID3v2, which always wins on conflict.
func MergeV1(sr *binutil.SafeReader, file *types.File) {
	tag, ok := readV1(sr, file.Size)
	if !ok {
		return
	}

	if file.Tags.Title == "" {
		file.Tags.Title = tag.Title
	}
	if file.Tags.Artist == "" {
		file.Tags.Artist = tag.Artist
	}
	if file.Tags.Album == "" {
		file.Tags.Album = tag.Album
	}
	if file.Tags.Comment == "" {
		file.Tags.Comment = tag.Comment
	}
	if file.Tags.Year == 0 {
		if y, err := strconv.Atoi(tag.Year); err == nil {
			file.Tags.Year = y
		}
	}
	if file.Tags.TrackNumber == 0 && tag.Track > 0 {
		file.Tags.TrackNumber = tag.Track
	}
	if len(file.Tags.Genres) == 0 {
		if genre := id3v1Genre(tag.Genre); genre != "" {
			file.Tags.Genres = append(file.Tags.Genres, genre)
		}
	}
}

// id3v1Genres is the fixed table of the 80 standard ID3v1 genres (index
// 0-79). Any higher index, including 255, returns "".
var id3v1Genres = []string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco", "Funk", "Grunge",
	"Hip-Hop", "Jazz", "Metal", "New Age", "Oldies", "Other", "Pop", "R&B",
	"Rap", "Reggae", "Rock", "Techno", "Industrial", "Alternative", "Ska",
	"Death Metal", "Pranks", "Soundtrack", "Euro-Techno", "Ambient",
	"Trip-Hop", "Vocal", "Jazz+Funk", "Fusion", "Trance", "Classical",
	"Instrumental", "Acid", "House", "Game", "Sound Clip", "Gospel",
	"Noise", "AlternRock", "Bass", "Soul", "Punk", "Space", "Meditative",
	"Instrumental Pop", "Instrumental Rock", "Ethnic", "Gothic",
	"Darkwave", "Techno-Industrial", "Electronic", "Pop-Folk",
	"Eurodance", "Dream", "Southern Rock", "Comedy", "Cult", "Gangsta",
	"Top 40", "Christian Rap", "Pop/Funk", "Jungle", "Native American",
	"Cabaret", "New Wave", "Psychedelic", "Rave", "Showtunes", "Trailer",
	"Lo-Fi", "Tribal", "Acid Punk", "Acid Jazz", "Polka", "Retro",
	"Musical", "Rock & Roll", "Hard Rock",
}

func id3v1Genre(idx byte) string {
	if int(idx) < len(id3v1Genres) {
		return id3v1Genres[idx]
	}
	return ""
}
