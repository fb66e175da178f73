package ogg

import (
	"fmt"
	"io"
	"time"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/registry"
	"github.com/wrnbx/audiometa/internal/types"
)

const (
	codecVorbis  = "vorbis"
	containerOgg = "Ogg"
)

// parser implements the audiometa.FormatParser interface for Ogg Vorbis and Opus files.
type parser struct{}

// headerPageCount is the number of leading Ogg pages that can hold Vorbis's
// identification/comment/setup headers (Opus only needs the first two).
const headerPageCount = 3

// Parse parses an Ogg Vorbis or Ogg Opus file and extracts metadata.
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binary.NewSafeReader(r, size, path)

	if err := verifyOggMagic(sr, path); err != nil {
		return nil, err
	}

	file := &types.File{
		Path:   path,
		Format: types.FormatOgg,
		Size:   size,
		Tags:   types.Tags{},
		Audio:  types.AudioInfo{},
	}

	packets, err := readHeaderPackets(sr, size, file)
	if err != nil {
		return nil, err
	}

	switch codec := detectOggCodec(packets[0]); codec {
	case codecVorbis:
		if err := parseVorbisStream(sr, size, packets, file); err != nil {
			return nil, err
		}
	case "opus":
		if err := parseOpusStream(sr, size, packets, file); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown or unsupported Ogg codec: %q", codec)
	}

	return file, nil
}

func verifyOggMagic(sr *binary.SafeReader, path string) error {
	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "Ogg magic bytes"); err != nil {
		return fmt.Errorf("read Ogg magic: %w", err)
	}
	if string(magic) != "OggS" {
		return &types.CorruptedFileError{Path: path, Offset: 0, Reason: "invalid Ogg magic bytes"}
	}
	return nil
}

// readHeaderPackets reads the leading pages (identification, comment, and
// for Vorbis a setup header) and demuxes them into packets. Losing a page
// after the first is recorded as a warning rather than failing the parse,
// since the comment header alone is still useful without the setup header.
func readHeaderPackets(sr *binary.SafeReader, size int64, file *types.File) ([][]byte, error) {
	var pages []*Page
	offset := int64(0)

	for i := 0; i < headerPageCount && offset < size; i++ {
		page, nextOffset, err := readPage(sr, offset)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("failed to read first Ogg page: %w", err)
			}
			addWarning(file, "metadata", offset, "failed to read Ogg page %d: %v", i, err)
			break
		}
		pages = append(pages, page)
		offset = nextOffset
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no Ogg pages found")
	}

	packets := extractPackets(pages)
	if len(packets) < 2 {
		return nil, fmt.Errorf("not enough packets found (need at least 2, got %d)", len(packets))
	}
	return packets, nil
}

// parseVorbisStream parses the identification and comment headers of an Ogg
// Vorbis stream and derives duration from the file's final granule position.
func parseVorbisStream(sr *binary.SafeReader, size int64, packets [][]byte, file *types.File) error {
	file.Format = types.FormatOgg

	if err := parseVorbisIdentification(packets[0], file); err != nil {
		return fmt.Errorf("failed to parse Vorbis identification header: %w", err)
	}
	if err := parseVorbisComment(packets[1], file); err != nil {
		addWarning(file, "metadata", 0, "failed to parse Vorbis comment header: %v", err)
	}

	if file.Audio.SampleRate > 0 {
		if duration, err := calculateDuration(sr, size, file.Audio.SampleRate); err != nil {
			addWarning(file, "technical", 0, "failed to calculate duration: %v", err)
		} else {
			file.Audio.Duration = duration
		}
	}
	return nil
}

// parseOpusStream parses the OpusHead and OpusTags headers, derives
// duration (Opus always decodes at 48kHz regardless of the input rate),
// and estimates a bitrate since Opus carries no nominal bitrate field.
func parseOpusStream(sr *binary.SafeReader, size int64, packets [][]byte, file *types.File) error {
	file.Format = types.FormatOpus

	if err := parseOpusHead(packets[0], file); err != nil {
		return fmt.Errorf("failed to parse OpusHead header: %w", err)
	}
	if err := parseOpusTags(packets[1], file); err != nil {
		addWarning(file, "metadata", 0, "failed to parse OpusTags header: %v", err)
	}

	if duration, err := calculateDuration(sr, size, opusOutputSampleRate); err != nil {
		addWarning(file, "technical", 0, "failed to calculate duration: %v", err)
	} else {
		file.Audio.Duration = duration
	}

	if file.Audio.Duration > 0 {
		file.Audio.Bitrate = estimateOpusBitrate(size, file.Audio.Duration)
	}
	return nil
}

func addWarning(file *types.File, stage string, offset int64, format string, args ...any) {
	file.Warnings = append(file.Warnings, types.Warning{
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	})
}

// detectOggCodec determines whether this is Vorbis or Opus
// by examining the magic marker in the first packet.
//
// Returns:
//   - "vorbis" for Ogg Vorbis files
//   - "opus" for Ogg Opus files
//   - "unknown" for unrecognized codecs
func detectOggCodec(firstPacket []byte) string {
	// Check for OpusHead (8 bytes)
	if len(firstPacket) >= 8 && string(firstPacket[0:8]) == "OpusHead" {
		return "opus"
	}

	// Check for Vorbis (7 bytes: 0x01 + "vorbis")
	if len(firstPacket) >= 7 && firstPacket[0] == 0x01 && string(firstPacket[1:7]) == codecVorbis {
		return codecVorbis
	}

	return "unknown"
}

// estimateOpusBitrate estimates the bitrate for an Opus file.
//
// Opus files don't have a nominal bitrate field in the header, so we
// estimate it from the file size and duration.
//
// We subtract approximately 5KB for headers and metadata overhead.
func estimateOpusBitrate(fileSize int64, duration time.Duration) int {
	if duration == 0 {
		return 0
	}

	// Estimate audio data size (subtract ~5KB for headers/tags)
	audioSize := fileSize - 5000
	if audioSize < 0 {
		audioSize = fileSize
	}

	// Calculate bitrate: (size in bits) / (duration in seconds)
	seconds := duration.Seconds()
	if seconds == 0 {
		return 0
	}

	bitrate := int((float64(audioSize) * 8) / seconds)
	return bitrate
}

// Duration = granule_position / sample_rate.
func calculateDuration(sr *binary.SafeReader, fileSize int64, sampleRate int) (time.Duration, error) {
	if sampleRate == 0 {
		return 0, fmt.Errorf("sample rate is zero")
	}

	// Find last page's granule position
	granule, err := findLastGranulePosition(sr, fileSize)
	if err != nil {
		return 0, err
	}

	// Granule position -1 means "not set"
	if granule < 0 {
		return 0, fmt.Errorf("granule position not set")
	}

	// Calculate duration (granule is in samples)
	seconds := float64(granule) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second)), nil
}

// init registers the Ogg parser for both Vorbis and Opus formats.
func init() {
	p := &parser{}
	registry.Register(types.FormatOgg, p)
	registry.Register(types.FormatOpus, p)
}
