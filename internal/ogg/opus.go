package ogg

import (
	"encoding/binary"
	"fmt"

	"github.com/wrnbx/audiometa/internal/types"
	"github.com/wrnbx/audiometa/internal/vorbis"
)

const (
	opusOutputSampleRate = 48000 // Opus always decodes to 48 kHz regardless of the source rate
	opusHeadMinLen       = 19
	opusTagsMinLen       = 12
)

// parseOpusHead decodes the OpusHead identification packet: version, channel
// count, pre-skip, original sample rate and output gain, all little-endian.
func parseOpusHead(data []byte, file *types.File) error {
	if len(data) < opusHeadMinLen {
		return fmt.Errorf("OpusHead packet too short: %d bytes (need at least %d)", len(data), opusHeadMinLen)
	}
	if magic := string(data[0:8]); magic != "OpusHead" {
		return fmt.Errorf("invalid OpusHead magic: %q (expected \"OpusHead\")", magic)
	}
	if version := data[8]; version != 1 {
		return fmt.Errorf("unsupported Opus version: %d (only version 1 is supported)", version)
	}

	channels := int(data[9])
	originalRate := binary.LittleEndian.Uint32(data[12:16])
	outputGain := int16(binary.LittleEndian.Uint16(data[16:18]))

	file.Audio.Codec = "Opus"
	file.Audio.Container = containerOgg
	file.Audio.SampleRate = opusOutputSampleRate
	file.Audio.Channels = channels
	file.Audio.Lossless = false
	file.Audio.VBR = true

	if originalRate != opusOutputSampleRate && originalRate > 0 {
		file.Warnings = append(file.Warnings, types.Warning{
			Stage:   "technical",
			Message: fmt.Sprintf("original sample rate was %d Hz (Opus outputs at %d Hz)", originalRate, opusOutputSampleRate),
		})
	}
	if outputGain != 0 {
		file.Warnings = append(file.Warnings, types.Warning{
			Stage:   "technical",
			Message: fmt.Sprintf("output gain: %.2f dB", float64(outputGain)/256.0),
		})
	}
	// pre-skip (data[10:12]) and channel mapping family (data[18]) don't
	// affect any metadata field this package exposes.

	return nil
}

// opusTagsReader walks the length-prefixed fields of an OpusTags packet,
// which is byte-for-byte the Vorbis comment wire format behind a different
// magic marker.
type opusTagsReader struct {
	data   []byte
	offset int
}

func (r *opusTagsReader) lengthPrefixed(label string) (string, error) {
	if r.offset+4 > len(r.data) {
		return "", fmt.Errorf("truncated %s", label)
	}
	n := int(binary.LittleEndian.Uint32(r.data[r.offset : r.offset+4]))
	r.offset += 4
	if r.offset+n > len(r.data) {
		return "", fmt.Errorf("truncated %s", label)
	}
	s := string(r.data[r.offset : r.offset+n])
	r.offset += n
	return s, nil
}

// parseOpusTags decodes the OpusTags comment packet and feeds each
// "KEY=VALUE" entry through the shared Vorbis comment parser, then derives
// chapters from any CHAPTER comments present.
func parseOpusTags(data []byte, file *types.File) error {
	if len(data) < opusTagsMinLen {
		return fmt.Errorf("OpusTags packet too short: %d bytes (need at least %d)", len(data), opusTagsMinLen)
	}
	if magic := string(data[0:8]); magic != "OpusTags" {
		return fmt.Errorf("invalid OpusTags magic: %q (expected \"OpusTags\")", magic)
	}

	r := &opusTagsReader{data: data, offset: 8}

	if _, err := r.lengthPrefixed("vendor string"); err != nil {
		return err
	}

	if r.offset+4 > len(data) {
		return fmt.Errorf("truncated comment count")
	}
	commentCount := binary.LittleEndian.Uint32(data[r.offset : r.offset+4])
	r.offset += 4

	comments := make([]string, 0, commentCount)
	for i := uint32(0); i < commentCount; i++ {
		comment, err := r.lengthPrefixed(fmt.Sprintf("comment %d", i))
		if err != nil {
			file.Warnings = append(file.Warnings, types.Warning{Stage: "metadata", Message: err.Error()})
			break
		}

		comments = append(comments, comment)
		if err := vorbis.ParseComment(comment, file); err != nil {
			file.Warnings = append(file.Warnings, types.Warning{
				Stage:   "metadata",
				Message: fmt.Sprintf("invalid Opus tag: %s", err),
			})
		}
	}

	if len(comments) > 0 {
		file.Chapters = vorbis.ParseChapters(comments, file.Audio.Duration)
	}

	return nil
}
