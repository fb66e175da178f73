// Package flacwriter rewrites the VORBIS_COMMENT metadata block of a FLAC
// file while copying every other block and the audio stream unchanged.
package flacwriter

import (
	"encoding/binary"
	"fmt"
	"io"

	binutil "github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/registry"
	"github.com/wrnbx/audiometa/internal/types"
	"github.com/wrnbx/audiometa/internal/vorbis"
)

const (
	blockTypeVorbisComment = 4
	vendorString           = "audiometa"
)

// writer implements registry.FormatWriter for FLAC.
type writer struct{}

// Write streams a FLAC file to w, replacing the VORBIS_COMMENT block with
// one serialized from file.Tags and copying every other metadata block and
// the audio frames byte-for-byte from original.
func (writer) Write(w io.Writer, file *types.File, original io.ReaderAt, originalSize int64) error {
	sr := binutil.NewSafeReader(original, originalSize, file.Path)

	magic := make([]byte, 4)
	if err := sr.ReadAt(magic, 0, "FLAC magic bytes"); err != nil {
		return fmt.Errorf("read FLAC magic: %w", err)
	}
	if string(magic) != "fLaC" {
		return &types.CorruptedFileError{Path: file.Path, Offset: 0, Reason: "invalid FLAC magic bytes"}
	}
	if _, err := w.Write(magic); err != nil {
		return err
	}

	newComment := serializeVorbisCommentBlock(&file.Tags)
	wroteComment := false

	offset := int64(4)
	for {
		if offset >= originalSize {
			break
		}

		header, err := binutil.Read[uint32](sr, offset, "metadata block header")
		if err != nil {
			return fmt.Errorf("read metadata block header at %d: %w", offset, err)
		}
		isLast := (header >> 31) == 1
		blockType := uint8((header >> 24) & 0x7F)
		blockLength := int64(header & 0x00FFFFFF)
		offset += 4

		if blockType == blockTypeVorbisComment {
			if err := writeBlockHeader(w, isLast, blockTypeVorbisComment, len(newComment)); err != nil {
				return err
			}
			if _, err := w.Write(newComment); err != nil {
				return err
			}
			wroteComment = true
		} else {
			if err := writeBlockHeader(w, isLast, blockType, int(blockLength)); err != nil {
				return err
			}
			if err := copyRange(w, sr, offset, blockLength); err != nil {
				return fmt.Errorf("copy block (type %d): %w", blockType, err)
			}
		}

		offset += blockLength
		if isLast {
			break
		}
	}

	// No VORBIS_COMMENT block existed in the source file: Write returns an
	// error and adds no block, so the tags are not saved. Rare in practice
	// (FLAC encoders always emit one).
	if !wroteComment {
		return fmt.Errorf("flacwriter: no VORBIS_COMMENT block found to rewrite")
	}

	// Copy remaining audio frame data unchanged.
	if err := copyRange(w, sr, offset, originalSize-offset); err != nil {
		return fmt.Errorf("copy audio data: %w", err)
	}

	return nil
}

// serializeVorbisCommentBlock builds a complete VORBIS_COMMENT block body
// (vendor string + comment list) from tags.
func serializeVorbisCommentBlock(tags *types.Tags) []byte {
	comments := vorbis.SerializeComments(tags)

	size := 4 + len(vendorString) + 4
	for _, c := range comments {
		size += 4 + len(c)
	}

	buf := make([]byte, 0, size)
	buf = appendUint32LE(buf, uint32(len(vendorString)))
	buf = append(buf, vendorString...)
	buf = appendUint32LE(buf, uint32(len(comments)))
	for _, c := range comments {
		buf = appendUint32LE(buf, uint32(len(c)))
		buf = append(buf, c...)
	}
	return buf
}

func appendUint32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// writeBlockHeader writes a 4-byte FLAC metadata block header.
func writeBlockHeader(w io.Writer, isLast bool, blockType uint8, length int) error {
	header := uint32(blockType&0x7F) << 24
	header |= uint32(length) & 0x00FFFFFF
	if isLast {
		header |= 1 << 31
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], header)
	_, err := w.Write(buf[:])
	return err
}

// copyRange copies length bytes starting at offset from sr to w.
func copyRange(w io.Writer, sr *binutil.SafeReader, offset, length int64) error {
	if length == 0 {
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
	registry.RegisterWriter(types.FormatFLAC, writer{})
}
