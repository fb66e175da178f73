package flac

import (
	"fmt"
	"io"
	"time"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/registry"
	"github.com/wrnbx/audiometa/internal/types"
	"github.com/wrnbx/audiometa/internal/vorbis"
)

// Metadata block types
const (
	blockTypeStreamInfo    = 0
	blockTypePadding       = 1
	blockTypeApplication   = 2
	blockTypeSeekTable     = 3
	blockTypeVorbisComment = 4
	blockTypeCueSheet      = 5
	blockTypePicture       = 6
)

// parser implements the audiometa.FormatParser interface for FLAC files
type parser struct{}

// metadataBlock is a walked FLAC metadata block header: its type, the
// offset/length of its payload, and whether it's the last block in the
// stream.
type metadataBlock struct {
	blockType uint8
	offset    int64
	length    int64
	isLast    bool
}

// walkMetadataBlocks calls visit for each metadata block after the "fLaC"
// magic, stopping at the first unreadable header, the last block, or when
// visit returns false.
func walkMetadataBlocks(sr *binary.SafeReader, size int64, visit func(metadataBlock) bool) {
	offset := int64(4) // after "fLaC"
	for offset < size {
		header, err := binary.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			return
		}

		block := metadataBlock{
			blockType: uint8((header >> 24) & 0x7F),
			offset:    offset + 4,
			length:    int64(header & 0x00FFFFFF),
			isLast:    (header >> 31) == 1,
		}

		if !visit(block) {
			return
		}
		offset = block.offset + block.length
		if block.isLast {
			return
		}
	}
}

// Parse parses a FLAC file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binary.NewSafeReader(r, size, path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FLAC magic bytes"); err != nil {
		return nil, fmt.Errorf("read FLAC magic: %w", err)
	}
	if string(magic) != "fLaC" {
		return nil, &types.CorruptedFileError{Path: path, Offset: 0, Reason: "invalid FLAC magic bytes"}
	}

	file := &types.File{
		Path:   path,
		Format: types.FormatFLAC,
		Size:   size,
		Tags:   types.Tags{},
		Audio:  types.AudioInfo{},
	}

	walkMetadataBlocks(sr, size, func(block metadataBlock) bool {
		switch block.blockType {
		case blockTypeStreamInfo:
			if err := parseStreamInfo(sr, block.offset, block.length, file); err != nil {
				addWarning(file, "metadata", block.offset, "failed to parse STREAMINFO: %v", err)
			}
		case blockTypeVorbisComment:
			if err := parseVorbisComment(sr, block.offset, block.length, file); err != nil {
				addWarning(file, "metadata", block.offset, "failed to parse Vorbis comments: %v", err)
			}
		case blockTypeCueSheet:
			if err := parseCueSheet(sr, block.offset, uint32(block.length), file); err != nil {
				addWarning(file, "chapters", block.offset, "failed to parse CUESHEET: %v", err)
			}
		case blockTypePicture, blockTypePadding, blockTypeApplication, blockTypeSeekTable:
			// pictures are read lazily via ExtractArtwork(); the rest carry
			// nothing metadata extraction needs
		}
		return true
	})

	file.Audio.Container = "FLAC"
	file.Audio.Codec = "FLAC"
	file.Audio.Lossless = true

	return file, nil
}

// ExtractArtwork extracts embedded artwork from FLAC files
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	sr := binary.NewSafeReader(r, size, path)

	var artwork []types.Artwork
	walkMetadataBlocks(sr, size, func(block metadataBlock) bool {
		if block.blockType == blockTypePicture {
			if pic, err := parsePicture(sr, block.offset, block.length); err == nil {
				artwork = append(artwork, pic)
			}
		}
		return true
	})

	return artwork, nil
}

func addWarning(file *types.File, stage string, offset int64, format string, args ...any) {
	file.Warnings = append(file.Warnings, types.Warning{
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	})
}

// parseStreamInfo extracts audio info from STREAMINFO block
func parseStreamInfo(sr *binary.SafeReader, offset, blockLength int64, file *types.File) error {
	// STREAMINFO is exactly 34 bytes
	if blockLength != 34 {
		return fmt.Errorf("invalid STREAMINFO size: %d (expected 34)", blockLength)
	}

	// Read all 34 bytes
	data := make([]byte, 34)
	if err := sr.ReadAt(data, offset, "STREAMINFO block"); err != nil {
		return err
	}

	// Parse fields (all big-endian)
	// Bytes 0-1: Min block size (16 bits)
	// Bytes 2-3: Max block size (16 bits)
	// Bytes 4-6: Min frame size (24 bits)
	// Bytes 7-9: Max frame size (24 bits)

	// Bytes 10-17: Sample rate (20 bits), channels (3 bits), bits per sample (5 bits), total samples (36 bits)
	// This is a bit-packed 64-bit value
	packed := uint64(data[10])<<56 | uint64(data[11])<<48 | uint64(data[12])<<40 | uint64(data[13])<<32 |
		uint64(data[14])<<24 | uint64(data[15])<<16 | uint64(data[16])<<8 | uint64(data[17])

	sampleRate := (packed >> 44) & 0xFFFFF // Top 20 bits
	channels := ((packed >> 41) & 0x7) + 1  // Next 3 bits, stored as (channels - 1)
	bitsPerSample := ((packed >> 36) & 0x1F) + 1 // Next 5 bits, stored as (bits - 1)
	totalSamples := packed & 0xFFFFFFFFF // Bottom 36 bits

	// Calculate duration
	if sampleRate > 0 {
		durationSeconds := float64(totalSamples) / float64(sampleRate)
		file.Audio.Duration = time.Duration(durationSeconds * float64(time.Second))
	}

	// Set audio properties
	file.Audio.SampleRate = int(sampleRate)
	file.Audio.Channels = int(channels)
	file.Audio.BitDepth = int(bitsPerSample)

	// Calculate approximate bitrate (FLAC is variable bitrate)
	// Use file size and duration for a rough estimate
	if file.Audio.Duration > 0 {
		durationSeconds := file.Audio.Duration.Seconds()
		bitsPerSecond := (float64(file.Size) * 8) / durationSeconds
		file.Audio.Bitrate = int(bitsPerSecond)
	}

	return nil
}

// parseVorbisComment extracts tags from VORBIS_COMMENT block
func parseVorbisComment(sr *binary.SafeReader, offset, blockLength int64, file *types.File) error {
	currentOffset := offset

	// Read vendor string length (32-bit little-endian)
	vendorLength, err := binary.ReadLE[uint32](sr, currentOffset, "vendor string length")
	if err != nil {
		return err
	}
	currentOffset += 4

	// Skip vendor string
	currentOffset += int64(vendorLength)

	// Read number of comments (32-bit little-endian)
	numComments, err := binary.ReadLE[uint32](sr, currentOffset, "number of comments")
	if err != nil {
		return err
	}
	currentOffset += 4

	// Parse each comment
	for i := uint32(0); i < numComments; i++ {
		// Read comment length (32-bit little-endian)
		commentLength, err := binary.ReadLE[uint32](sr, currentOffset, "comment length")
		if err != nil {
			return fmt.Errorf("read comment %d length: %w", i, err)
		}
		currentOffset += 4

		// Read comment string (UTF-8)
		commentData := make([]byte, commentLength)
		if err := sr.ReadAt(commentData, currentOffset, fmt.Sprintf("comment %d", i)); err != nil {
			return fmt.Errorf("read comment %d: %w", i, err)
		}
		currentOffset += int64(commentLength)

		// Parse "KEY=VALUE" format
		comment := string(commentData)
		if err := vorbis.ParseComment(comment, file); err != nil {
			addWarning(file, "metadata", currentOffset, "invalid Vorbis comment: %s", err)
		}
	}

	return nil
}

// parsePicture extracts artwork from a PICTURE block by reading its entire
// payload and decoding it with the same cursor vorbis.DecodePictureComment
// uses for the METADATA_BLOCK_PICTURE comment convention — both are the
// same layout, one raw and one base64-wrapped.
func parsePicture(sr *binary.SafeReader, offset, blockLength int64) (types.Artwork, error) {
	raw := make([]byte, blockLength)
	if err := sr.ReadAt(raw, offset, "PICTURE block"); err != nil {
		return types.Artwork{}, err
	}
	return vorbis.DecodePictureBlock(raw)
}

// init registers the FLAC parser
func init() {
	registry.Register(types.FormatFLAC, &parser{})
}
