package types

import (
	"io"
	"strconv"

	"github.com/wrnbx/audiometa/internal/binary"
)

// Format represents the detected audio format
type Format int

const (
	// FormatUnknown represents an unknown or unsupported format.
	FormatUnknown Format = iota // Unknown
	// FormatFLAC represents FLAC audio files.
	FormatFLAC // FLAC
	// FormatMP3 represents MP3 audio files.
	FormatMP3 // MP3
	// FormatM4A represents M4A audio files.
	FormatM4A // M4A
	// FormatM4B represents M4B audiobook files.
	FormatM4B // M4B
	// FormatOgg represents Ogg Vorbis audio files.
	FormatOgg // Ogg Vorbis
	// FormatOpus represents Opus audio files.
	FormatOpus // Opus
	// FormatWAV represents WAV audio files.
	FormatWAV // WAV
	// FormatAIFF represents AIFF audio files.
	FormatAIFF // AIFF
)

var formatNames = [...]string{"Unknown", "FLAC", "MP3", "M4A", "M4B", "Ogg Vorbis", "Opus", "WAV", "AIFF"}

// String returns the format's display name, e.g. "FLAC" or "Ogg Vorbis".
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "Format(" + strconv.Itoa(int(f)) + ")"
	}
	return formatNames[f]
}

// Extensions returns common file extensions for this format.
func (f Format) Extensions() []string {
	switch f {
	case FormatFLAC:
		return []string{".flac"}
	case FormatMP3:
		return []string{".mp3"}
	case FormatM4A:
		return []string{".m4a", ".mp4", ".m4p"}
	case FormatM4B:
		return []string{".m4b"}
	case FormatOgg:
		return []string{".ogg", ".oga"}
	case FormatOpus:
		return []string{".opus"}
	case FormatWAV:
		return []string{".wav"}
	case FormatAIFF:
		return []string{".aiff", ".aif"}
	case FormatUnknown:
		return nil
	default:
		return nil
	}
}

const (
	ftypMagic = uint32(0x66747970) // "ftyp"
	m4bMagic  = uint32(0x4D344220) // "M4B "
	m4aMagic  = uint32(0x4D344120) // "M4A "
	mp42Magic = uint32(0x6D703432) // "mp42"
	isomMagic = uint32(0x69736F6D) // "isom"
)

func unsupportedFormat(path, reason string) (Format, error) {
	return FormatUnknown, &UnsupportedFormatError{Path: path, Reason: reason}
}

// DetectFormat determines the audio file format from its leading magic
// bytes. This is sniffing, not validation — it does not walk the rest of
// the file structure.
//
// Supported formats: FLAC, MP3, M4A, M4B, Ogg Vorbis, Opus, WAV, AIFF.
func DetectFormat(r io.ReaderAt, size int64, path string) (Format, error) {
	if size < 4 {
		return unsupportedFormat(path, "file too small")
	}

	sr := binary.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "file magic bytes"); err != nil {
		return unsupportedFormat(path, "failed to read file header")
	}

	switch {
	case string(magic) == "fLaC":
		return FormatFLAC, nil
	case string(magic[:3]) == "ID3":
		return FormatMP3, nil
	case magic[0] == 0xFF && magic[1]&0xE0 == 0xE0: // MP3 frame sync, no ID3 tag
		return FormatMP3, nil
	case string(magic) == "OggS":
		return detectOggCodec(sr, size), nil
	}

	if format, ok := detectRIFFContainer(sr, magic, size); ok {
		return format, nil
	}

	return detectMP4Brand(sr, path)
}

// detectOggCodec peeks past the Ogg page header into the first packet to
// tell an Opus stream (OpusHead magic) from plain Vorbis.
func detectOggCodec(sr *binary.SafeReader, size int64) Format {
	const (
		pageHeaderLen    = 27 // fixed portion before the segment table
		minForOpusPacket = pageHeaderLen + 1 + 8
	)
	if size < minForOpusPacket {
		return FormatOgg
	}

	segCount := make([]byte, 1)
	if err := sr.ReadAt(segCount, 26, "segment count"); err != nil {
		return FormatOgg
	}

	packetOffset := int64(pageHeaderLen + int(segCount[0]))
	if packetOffset+8 > size {
		return FormatOgg
	}

	codecMagic := make([]byte, 8)
	if err := sr.ReadAt(codecMagic, packetOffset, "codec magic"); err == nil && string(codecMagic) == "OpusHead" {
		return FormatOpus
	}
	return FormatOgg
}

// detectRIFFContainer recognizes WAV (RIFF/WAVE) and AIFF (FORM/AIFF|AIFC),
// both courtesy detections beyond this module's core format set.
func detectRIFFContainer(sr *binary.SafeReader, magic []byte, size int64) (Format, bool) {
	if size < 12 {
		return FormatUnknown, false
	}

	switch string(magic) {
	case "RIFF":
		tag := make([]byte, 4)
		if err := sr.ReadAt(tag, 8, "WAVE tag"); err == nil && string(tag) == "WAVE" {
			return FormatWAV, true
		}
	case "FORM":
		tag := make([]byte, 4)
		if err := sr.ReadAt(tag, 8, "AIFF tag"); err == nil && (string(tag) == "AIFF" || string(tag) == "AIFC") {
			return FormatAIFF, true
		}
	}
	return FormatUnknown, false
}

// detectMP4Brand reads the leading ftyp atom's major brand to tell M4B
// (audiobook) apart from plain M4A/MP4.
func detectMP4Brand(sr *binary.SafeReader, path string) (Format, error) {
	atomSize, err := binary.Read[uint32](sr, 0, "ftyp atom size")
	if err != nil {
		return unsupportedFormat(path, "failed to read file header")
	}

	atomType, err := binary.Read[uint32](sr, 4, "ftyp atom type")
	if err != nil {
		return unsupportedFormat(path, "failed to read file header")
	}
	if atomType != ftypMagic {
		return unsupportedFormat(path, "unsupported file format")
	}
	if atomSize < 16 { // size + type + brand + version
		return unsupportedFormat(path, "ftyp atom too small")
	}

	majorBrand, err := binary.Read[uint32](sr, 8, "major brand")
	if err != nil {
		return unsupportedFormat(path, "failed to read major brand")
	}

	switch {
	case majorBrand == m4bMagic:
		return FormatM4B, nil
	case majorBrand == m4aMagic || majorBrand == mp42Magic || majorBrand == isomMagic:
		return FormatM4A, nil
	default:
		return unsupportedFormat(path, "unsupported file brand")
	}
}
