// Package mp3writer rebuilds an ID3v2 tag, regenerating every frame that
// maps to a Tags field from the field's current value while copying every
// unmapped frame and the audio stream unchanged.
package mp3writer

import (
	"fmt"
	"io"

	binutil "github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/id3"
	"github.com/wrnbx/audiometa/internal/registry"
	"github.com/wrnbx/audiometa/internal/types"
)

// writer implements registry.FormatWriter for MP3/ID3v2.
type writer struct{}

// Write streams an MP3 file to w: the ID3v2 tag is rebuilt frame by frame,
// regenerating every frame mapped to a Tags field from its current value
// and copying every other frame's raw bytes unchanged. Frames flagged as
// compressed or encrypted are dropped, since this module does not
// implement either transform. Everything from the end of the original
// ID3v2 tag onward (audio frames and any ID3v1 trailer) is copied
// byte-for-byte.
func (writer) Write(w io.Writer, file *types.File, original io.ReaderAt, originalSize int64) error {
	sr := binutil.NewSafeReader(original, originalSize, file.Path)

	h, frames, tagEnd, err := id3.ReadFrames(sr)
	if err != nil {
		return fmt.Errorf("mp3writer: no ID3v2 tag to rewrite: %w", err)
	}

	body := make([]byte, 0, h.Size)
	for _, f := range frames {
		if frameIsUnsupported(f.Flags, h.Version) {
			continue
		}

		normalized := id3.NormalizeFrameID(f.ID, h.Version)
		if value, ok := mappedTagValue(normalized, &file.Tags); ok {
			if value == "" {
				continue // field was cleared: drop the frame entirely
			}
			body = appendTextFrame(body, normalized, value)
			continue
		}

		body = appendRawFrame(body, f)
	}

	// Frames are always re-serialized in v2.3 form (see appendTextFrame /
	// appendRawFrame), so the rewritten tag is always declared as v2.3
	// regardless of the source tag's version.
	headerBuf := make([]byte, 10)
	copy(headerBuf[0:3], "ID3")
	headerBuf[3] = 3
	headerBuf[4] = 0
	headerBuf[5] = 0 // no unsynchronisation, no extended header
	size := id3.EncodeSynchsafe(uint32(len(body)))
	copy(headerBuf[6:10], size[:])

	if _, err := w.Write(headerBuf); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}

	if err := copyRange(w, sr, tagEnd, originalSize-tagEnd); err != nil {
		return fmt.Errorf("copy audio data: %w", err)
	}

	return nil
}

// frameIsUnsupported reports whether a frame's format flags request
// compression or encryption, neither of which this writer implements.
func frameIsUnsupported(flags uint16, version byte) bool {
	if version == 4 {
		return flags&0x0008 != 0 || flags&0x0004 != 0
	}
	return flags&0x0080 != 0 || flags&0x0040 != 0
}

// mappedTagValue returns the current value of a Tags field a known text
// frame ID maps to, and whether that ID is tracked at all. Multi-value
// fields (genre, composer) round-trip only their first value; see
// DESIGN.md.
func mappedTagValue(id string, tags *types.Tags) (string, bool) {
	switch id {
	case "TIT2":
		return tags.Title, true
	case "TIT3":
		return tags.Subtitle, true
	case "TPE1":
		return tags.Artist, true
	case "TALB":
		return tags.Album, true
	case "TPE2":
		return tags.AlbumArtist, true
	case "TIT1":
		return tags.Grouping, true
	case "TPUB":
		return tags.Publisher, true
	case "TCOP":
		return tags.Copyright, true
	case "TSRC":
		return tags.ISRC, true
	case "TCON":
		if len(tags.Genres) > 0 {
			return tags.Genres[0], true
		}
		return "", true
	case "TCOM":
		if len(tags.Composers) > 0 {
			return tags.Composers[0], true
		}
		return "", true
	case "TRCK":
		return trackPair(tags.TrackNumber, tags.TrackTotal), true
	case "TPOS":
		return trackPair(tags.DiscNumber, tags.DiscTotal), true
	}
	return "", false
}

func trackPair(number, total int) string {
	if number == 0 && total == 0 {
		return ""
	}
	if total > 0 {
		return fmt.Sprintf("%d/%d", number, total)
	}
	return fmt.Sprintf("%d", number)
}

// appendTextFrame appends a v2.3-style text frame (4-byte ID, raw
// big-endian size, no flags) encoded as ISO-8859-1.
func appendTextFrame(body []byte, id string, value string) []byte {
	data := make([]byte, 0, 1+len(value))
	data = append(data, 0x00) // ISO-8859-1
	data = append(data, value...)
	return appendFrameHeaderAndData(body, padID(id), 0, data)
}

// appendRawFrame re-serializes a frame exactly as read, upgrading a v2.2
// 6-byte header to the 10-byte header form this writer always emits (a
// 3-byte ID is zero-padded by padID, not translated; frame flags are absent
// in v2.2, so they default to zero).
// The per-frame unsynchronisation flag is cleared: id3.ReadFrames already
// reversed unsynchronisation into f.Data, so the flag no longer describes
// the bytes being written.
func appendRawFrame(body []byte, f id3.Frame) []byte {
	return appendFrameHeaderAndData(body, padID(f.ID), f.Flags&^0x0002, f.Data)
}

func appendFrameHeaderAndData(body []byte, id string, flags uint16, data []byte) []byte {
	hdr := make([]byte, 10)
	copy(hdr[0:4], id)
	size := len(data)
	hdr[4] = byte(size >> 24)
	hdr[5] = byte(size >> 16)
	hdr[6] = byte(size >> 8)
	hdr[7] = byte(size)
	hdr[8] = byte(flags >> 8)
	hdr[9] = byte(flags)
	body = append(body, hdr...)
	body = append(body, data...)
	return body
}

// padID right-pads a v2.2 3-character frame ID with a zero byte to fill the
// 4-byte ID field (this writer always emits a v2.3 tag body, even when
// rewriting a v2.2 or v2.4 source tag). The ID is not translated: Write
// passes mapped text frames under their v2.3 IDs, so only unmapped v2.2
// frames keep a padded 3-character ID.
func padID(id string) string {
	if len(id) == 4 {
		return id
	}
	return id + "\x00"[:4-len(id)]
}

// copyRange copies length bytes starting at offset from sr to w.
func copyRange(w io.Writer, sr *binutil.SafeReader, offset, length int64) error {
	if length <= 0 {
		return nil
	}
	buf := make([]byte, length)
	if err := sr.ReadAt(buf, offset, "copy range"); err != nil {
		return err
	}
	_, err := w.Write(buf)
	return err
}

func init() {
	registry.RegisterWriter(types.FormatMP3, writer{})
}
