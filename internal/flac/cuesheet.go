package flac

import (
	"fmt"
	"strings"
	"time"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

// cueSheet is a decoded FLAC CUESHEET metadata block: a CD table of contents
// embedded in the stream, used here only to synthesize Chapters.
type cueSheet struct {
	catalogNumber string
	leadInSamples uint64
	isCD          bool
	tracks        []cueTrack
}

type cueTrack struct {
	offsetSamples uint64 // from start of audio
	number        byte   // 1-99, or 170 for the lead-out track
	isrc          string
	isAudio       bool
	preEmphasis   bool
	indices       []cueIndex
}

type cueIndex struct {
	offsetSamples uint64 // from start of track
	number        byte
}

// cueSheetCursor walks a CUESHEET block's fixed-layout fields, advancing its
// own offset so callers never juggle return-offsets by hand.
type cueSheetCursor struct {
	sr     *binary.SafeReader
	offset int64
	end    int64
}

func (c *cueSheetCursor) bytes(n int, label string) ([]byte, error) {
	buf := make([]byte, n)
	if err := c.sr.ReadAt(buf, c.offset, label); err != nil {
		return nil, fmt.Errorf("read %s: %w", label, err)
	}
	c.offset += int64(n)
	return buf, nil
}

func (c *cueSheetCursor) skip(n int64) { c.offset += n }

func (c *cueSheetCursor) paddedString(n int, label string) (string, error) {
	buf, err := c.bytes(n, label)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf), "\x00"), nil
}

func cueU64(c *cueSheetCursor, label string) (uint64, error) {
	v, err := binary.Read[uint64](c.sr, c.offset, label)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", label, err)
	}
	c.offset += 8
	return v, nil
}

func cueU8(c *cueSheetCursor, label string) (uint8, error) {
	v, err := binary.Read[uint8](c.sr, c.offset, label)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", label, err)
	}
	c.offset++
	return v, nil
}

// parseCueSheet decodes a CUESHEET block and turns its audio tracks into
// file.Chapters, and files a non-empty media catalog number into the raw
// TagSet under CATALOGNUMBER, the key Vorbis comments use for it.
func parseCueSheet(sr *binary.SafeReader, offset int64, length uint32, file *types.File) error {
	const minSize = 128 + 8 + 1 + 259 + 1
	if length < minSize {
		return fmt.Errorf("CUESHEET block too short: %d bytes (need at least %d)", length, minSize)
	}

	c := &cueSheetCursor{sr: sr, offset: offset, end: offset + int64(length)}

	mcn, err := c.paddedString(128, "media catalog number")
	if err != nil {
		return err
	}

	leadIn, err := cueU64(c, "lead-in samples")
	if err != nil {
		return err
	}

	flags, err := cueU8(c, "cuesheet flags")
	if err != nil {
		return err
	}
	isCD := flags&0x80 != 0

	c.skip(259) // reserved

	trackCount, err := cueU8(c, "track count")
	if err != nil {
		return err
	}

	tracks := make([]cueTrack, 0, trackCount)
	for i := byte(0); i < trackCount; i++ {
		track, err := parseCueTrack(c)
		if err != nil {
			return fmt.Errorf("parse track %d: %w", i, err)
		}
		tracks = append(tracks, track)
	}

	sheet := &cueSheet{
		catalogNumber: mcn,
		leadInSamples: leadIn,
		isCD:          isCD,
		tracks:        tracks,
	}

	file.Chapters = chaptersFromCueSheet(sheet, file.Audio.SampleRate)
	if mcn != "" {
		file.Tags.Add("CATALOGNUMBER", mcn)
	}

	return nil
}

func parseCueTrack(c *cueSheetCursor) (cueTrack, error) {
	if c.offset+36 > c.end {
		return cueTrack{}, fmt.Errorf("track data exceeds block bounds")
	}

	trackOffset, err := cueU64(c, "track offset")
	if err != nil {
		return cueTrack{}, err
	}

	number, err := cueU8(c, "track number")
	if err != nil {
		return cueTrack{}, err
	}

	isrc, err := c.paddedString(12, "ISRC")
	if err != nil {
		return cueTrack{}, err
	}

	flags, err := cueU8(c, "track flags")
	if err != nil {
		return cueTrack{}, err
	}
	isAudio := flags&0x80 == 0     // set means non-audio
	preEmphasis := flags&0x40 != 0

	c.skip(13) // reserved

	indexCount, err := cueU8(c, "index count")
	if err != nil {
		return cueTrack{}, err
	}

	indices := make([]cueIndex, 0, indexCount)
	for j := byte(0); j < indexCount; j++ {
		if c.offset+12 > c.end {
			return cueTrack{}, fmt.Errorf("index data exceeds block bounds")
		}
		idx, err := parseCueIndex(c)
		if err != nil {
			return cueTrack{}, fmt.Errorf("parse index %d: %w", j, err)
		}
		indices = append(indices, idx)
	}

	return cueTrack{
		offsetSamples: trackOffset,
		number:        number,
		isrc:          isrc,
		isAudio:       isAudio,
		preEmphasis:   preEmphasis,
		indices:       indices,
	}, nil
}

func parseCueIndex(c *cueSheetCursor) (cueIndex, error) {
	offset, err := cueU64(c, "index offset")
	if err != nil {
		return cueIndex{}, err
	}
	number, err := cueU8(c, "index number")
	if err != nil {
		return cueIndex{}, err
	}
	c.skip(3) // reserved
	return cueIndex{offsetSamples: offset, number: number}, nil
}

// chaptersFromCueSheet projects a cue sheet's audio tracks (skipping the
// non-audio and lead-out entries) onto Chapter boundaries: each chapter ends
// where the next begins, the last ends at the lead-out offset if present.
func chaptersFromCueSheet(sheet *cueSheet, sampleRate int) []types.Chapter {
	if sampleRate <= 0 || len(sheet.tracks) == 0 {
		return nil
	}

	var audioTracks []cueTrack
	var leadOutOffset uint64
	for _, track := range sheet.tracks {
		switch {
		case track.number == 170:
			leadOutOffset = track.offsetSamples
		case track.isAudio:
			audioTracks = append(audioTracks, track)
		}
	}
	if len(audioTracks) == 0 {
		return nil
	}

	toDuration := func(samples uint64) time.Duration {
		return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
	}

	chapters := make([]types.Chapter, len(audioTracks))
	for i, track := range audioTracks {
		var end time.Duration
		switch {
		case i < len(audioTracks)-1:
			end = toDuration(audioTracks[i+1].offsetSamples)
		case leadOutOffset > 0:
			end = toDuration(leadOutOffset)
		}

		title := fmt.Sprintf("Track %02d", track.number)
		if track.isrc != "" {
			title = fmt.Sprintf("Track %02d (%s)", track.number, track.isrc)
		}

		chapters[i] = types.Chapter{
			Index:     i + 1,
			Title:     title,
			StartTime: toDuration(track.offsetSamples),
			EndTime:   end,
		}
	}

	return chapters
}
