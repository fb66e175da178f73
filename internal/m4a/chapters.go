package m4a

import (
	"fmt"
	"time"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

// parseChapters tries QuickTime chapter tracks (tref->chap) first, since
// that's what professional audiobook tooling produces, then falls back to
// the Nero chpl atom. Either source returning chapters wins outright; a
// read error in one doesn't block falling through to the other.
func parseChapters(sr *binary.SafeReader, moovAtom *Atom, fileDuration time.Duration) ([]types.Chapter, error) {
	qtChapters, qtErr := parseQuickTimeChapters(sr, moovAtom, fileDuration)
	if len(qtChapters) > 0 {
		return qtChapters, nil
	}

	chplChapters, chplErr := parseChplChapters(sr, moovAtom, fileDuration)
	if len(chplChapters) > 0 {
		return chplChapters, nil
	}

	if qtErr != nil && chplErr != nil {
		return nil, qtErr
	}
	return nil, nil
}

// parseChplChapters extracts chapter markers from the moov->udta->chpl atom
// (Nero format): a version/flags/reserved header followed by a chapter
// count and, per chapter, a 100ns-unit start time and a length-prefixed
// title.
func parseChplChapters(sr *binary.SafeReader, moovAtom *Atom, fileDuration time.Duration) ([]types.Chapter, error) {
	chplAtom, ok := descendAtoms(sr, moovAtom, []string{"udta", "chpl"})
	if !ok {
		return nil, nil
	}

	r := binary.NewReader(sr, chplAtom.DataOffset())
	r.Skip(1) // version
	r.Skip(3) // flags
	r.Skip(4) // reserved

	chapterCount, err := binary.ReadValue[uint8](r, "chapter count")
	if err != nil {
		return nil, err
	}
	if chapterCount == 0 {
		return nil, nil
	}

	chapters := make([]types.Chapter, 0, chapterCount)
	for i := uint8(0); i < chapterCount; i++ {
		startTime100ns, err := binary.ReadValue[uint64](r, "chapter start time")
		if err != nil {
			return nil, err
		}

		titleLen, err := binary.ReadValue[uint8](r, "chapter title length")
		if err != nil {
			return nil, err
		}

		var title string
		if titleLen > 0 {
			title, err = r.ReadString(int(titleLen), "chapter title")
			if err != nil {
				return nil, err
			}
		}

		chapters = append(chapters, types.Chapter{
			Index:     int(i + 1),
			Title:     title,
			StartTime: time.Duration(startTime100ns * 100),
		})
	}

	calculateChapterEndTimes(chapters, fileDuration)
	return chapters, nil
}

// Format: trak -> tref -> chap references a text track with chapter names.
func parseQuickTimeChapters(sr *binary.SafeReader, moovAtom *Atom, fileDuration time.Duration) ([]types.Chapter, error) {
	// Step 1: Find the chapter track reference
	chapterTrackID := findChapterTrackReference(sr, moovAtom)
	if chapterTrackID == 0 {
		return nil, nil
	}

	// Step 2: Find the chapter track by ID
	chapterTrak := findTrackByID(sr, moovAtom, chapterTrackID)
	if chapterTrak == nil {
		return nil, nil
	}

	// Step 3: Parse the text track
	return parseTextTrackChapters(sr, chapterTrak, fileDuration)
}

// walkTracks calls visit for each trak atom directly under moov, stopping
// early the moment visit returns a non-nil atom.
func walkTracks(sr *binary.SafeReader, moovAtom *Atom, visit func(trak *Atom) *Atom) *Atom {
	offset := moovAtom.DataOffset()
	end := offset + int64(moovAtom.DataSize())

	for offset < end {
		trakAtom, err := readAtomHeader(sr, offset)
		if err != nil {
			return nil
		}
		if trakAtom.Type == "trak" {
			if found := visit(trakAtom); found != nil {
				return found
			}
		}
		offset += int64(trakAtom.Size)
	}
	return nil
}

// findChapterTrackReference finds the tref->chap atom and returns the chapter track ID.
func findChapterTrackReference(sr *binary.SafeReader, moovAtom *Atom) uint32 {
	var chapterTrackID uint32
	walkTracks(sr, moovAtom, func(trak *Atom) *Atom {
		if id := extractChapterTrackID(sr, trak); id != 0 {
			chapterTrackID = id
			return trak
		}
		return nil
	})
	return chapterTrackID
}

// extractChapterTrackID reads the chapter track ID from tref->chap if present.
func extractChapterTrackID(sr *binary.SafeReader, trakAtom *Atom) uint32 {
	chapAtom, ok := descendAtoms(sr, trakAtom, []string{"tref", "chap"})
	if !ok || chapAtom.DataSize() < 4 {
		return 0
	}
	trackID, err := binary.Read[uint32](sr, chapAtom.DataOffset(), "chapter track ID")
	if err != nil {
		return 0
	}
	return trackID
}

// findTrackByID finds a trak atom with the specified track ID.
func findTrackByID(sr *binary.SafeReader, moovAtom *Atom, targetID uint32) *Atom {
	return walkTracks(sr, moovAtom, func(trak *Atom) *Atom {
		if readTrackID(sr, trak) == targetID {
			return trak
		}
		return nil
	})
}

// readTrackID reads the track ID from a trak atom's tkhd. Version 1 uses
// 64-bit timestamps ahead of the track ID field, pushing it 8 bytes later
// than version 0.
func readTrackID(sr *binary.SafeReader, trakAtom *Atom) uint32 {
	tkhdAtom, err := findAtom(sr, trakAtom.DataOffset(), trakAtom.DataOffset()+int64(trakAtom.DataSize()), "tkhd")
	if err != nil {
		return 0
	}

	tkhdOffset := tkhdAtom.DataOffset()
	version, err := binary.Read[uint8](sr, tkhdOffset, "tkhd version")
	if err != nil {
		return 0
	}

	trackIDOffset := tkhdOffset + 12
	if version == 1 {
		trackIDOffset = tkhdOffset + 20
	}

	trackID, err := binary.Read[uint32](sr, trackIDOffset, "track ID")
	if err != nil {
		return 0
	}
	return trackID
}

// parseTextTrackChapters extracts chapter information from a text track.
func parseTextTrackChapters(sr *binary.SafeReader, trakAtom *Atom, fileDuration time.Duration) ([]types.Chapter, error) {
	mdiaAtom, ok := descendAtoms(sr, trakAtom, []string{"mdia"})
	if !ok {
		return nil, fmt.Errorf("mdia atom not found")
	}
	stblAtom, ok := descendAtoms(sr, trakAtom, []string{"mdia", "minf", "stbl"})
	if !ok {
		return nil, fmt.Errorf("stbl atom not found")
	}

	// Extract timescale
	timescale, err := parseTrackTimescale(sr, mdiaAtom)
	if err != nil {
		return nil, err
	}

	// Parse chapter timings
	chapterTimes, err := parseChapterTimings(sr, stblAtom, timescale)
	if err != nil {
		return nil, err
	}

	// Parse sample sizes
	sampleSizes, err := parseSampleSizes(sr, stblAtom)
	if err != nil {
		return nil, err
	}

	// Parse chunk offsets
	chunkOffsets, err := parseChunkOffsets(sr, stblAtom)
	if err != nil {
		return nil, err
	}

	// Build chapters from text samples
	chapters := buildChaptersFromText(sr, chapterTimes, sampleSizes, chunkOffsets)

	// Calculate end times
	calculateChapterEndTimes(chapters, fileDuration)

	return chapters, nil
}

const defaultChapterTimescale = 1000

// parseTrackTimescale extracts the timescale from the mdhd atom, falling
// back to a millisecond timescale if mdhd is missing, unreadable, or zero.
func parseTrackTimescale(sr *binary.SafeReader, mdiaAtom *Atom) (uint32, error) {
	mdhdAtom, err := findAtom(sr, mdiaAtom.DataOffset(), mdiaAtom.DataOffset()+int64(mdiaAtom.DataSize()), "mdhd")
	if err != nil {
		return defaultChapterTimescale, nil //nolint:nilerr // missing mdhd falls back to default timescale
	}

	mdhdOffset := mdhdAtom.DataOffset()
	version, err := binary.Read[uint8](sr, mdhdOffset, "mdhd version")
	if err != nil {
		return defaultChapterTimescale, nil //nolint:nilerr // unreadable version falls back to default timescale
	}

	timescaleOffset := mdhdOffset + 12
	if version == 1 {
		timescaleOffset = mdhdOffset + 20
	}

	timescale, err := binary.Read[uint32](sr, timescaleOffset, "timescale")
	if err != nil || timescale == 0 {
		return defaultChapterTimescale, nil //nolint:nilerr // unreadable or zero timescale falls back to default
	}
	return timescale, nil
}

// parseChapterTimings extracts chapter start times from the stts
// (time-to-sample) atom's run-length-encoded (sampleCount, sampleDuration)
// entries, expanding each run into one timestamp per sample.
func parseChapterTimings(sr *binary.SafeReader, stblAtom *Atom, timescale uint32) ([]time.Duration, error) {
	sttsAtom, err := findAtom(sr, stblAtom.DataOffset(), stblAtom.DataOffset()+int64(stblAtom.DataSize()), "stts")
	if err != nil {
		return nil, err
	}

	r := binary.NewReader(sr, sttsAtom.DataOffset())
	r.Skip(4) // version + flags
	entryCount, err := binary.ReadValue[uint32](r, "stts entry count")
	if err != nil {
		return nil, err
	}

	var currentTime uint64
	chapterTimes := []time.Duration{}

	for i := uint32(0); i < entryCount; i++ {
		sampleCount, err := binary.ReadValue[uint32](r, "sample count")
		if err != nil {
			break // return partial results
		}
		sampleDuration, err := binary.ReadValue[uint32](r, "sample duration")
		if err != nil {
			break
		}

		for j := uint32(0); j < sampleCount; j++ {
			chapterTimes = append(chapterTimes, time.Duration((currentTime*1_000_000_000)/uint64(timescale)))
			currentTime += uint64(sampleDuration)
		}
	}

	return chapterTimes, nil
}

// parseSampleSizes extracts per-sample sizes from the stsz atom.
func parseSampleSizes(sr *binary.SafeReader, stblAtom *Atom) ([]uint32, error) {
	stszAtom, err := findAtom(sr, stblAtom.DataOffset(), stblAtom.DataOffset()+int64(stblAtom.DataSize()), "stsz")
	if err != nil {
		return nil, err
	}

	r := binary.NewReader(sr, stszAtom.DataOffset())
	r.Skip(4) // version + flags
	if _, err := binary.ReadValue[uint32](r, "default sample size"); err != nil {
		return nil, err
	}
	sampleCount, err := binary.ReadValue[uint32](r, "sample count")
	if err != nil {
		return nil, err
	}

	sampleSizes := make([]uint32, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		size, err := binary.ReadValue[uint32](r, "sample size")
		if err != nil {
			break // return partial results
		}
		sampleSizes[i] = size
	}
	return sampleSizes, nil
}

// parseChunkOffsets extracts chunk offsets from the stco (32-bit) or co64
// (64-bit) atom, whichever is present.
func parseChunkOffsets(sr *binary.SafeReader, stblAtom *Atom) ([]uint64, error) {
	is64 := false
	stcoAtom, err := findAtom(sr, stblAtom.DataOffset(), stblAtom.DataOffset()+int64(stblAtom.DataSize()), "stco")
	if err != nil {
		stcoAtom, err = findAtom(sr, stblAtom.DataOffset(), stblAtom.DataOffset()+int64(stblAtom.DataSize()), "co64")
		if err != nil {
			return nil, err
		}
		is64 = true
	}

	r := binary.NewReader(sr, stcoAtom.DataOffset())
	r.Skip(4) // version + flags
	chunkCount, err := binary.ReadValue[uint32](r, "chunk count")
	if err != nil {
		return nil, err
	}

	chunkOffsets := make([]uint64, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		var offset uint64
		var readErr error
		if is64 {
			offset, readErr = binary.ReadValue[uint64](r, "chunk offset")
		} else {
			var offset32 uint32
			offset32, readErr = binary.ReadValue[uint32](r, "chunk offset")
			offset = uint64(offset32)
		}
		if readErr != nil {
			break // return partial results
		}
		chunkOffsets[i] = offset
	}
	return chunkOffsets, nil
}

// buildChaptersFromText reads text samples and builds chapter list.
func buildChaptersFromText(sr *binary.SafeReader, chapterTimes []time.Duration, sampleSizes []uint32, chunkOffsets []uint64) []types.Chapter {
	chapters := make([]types.Chapter, 0, len(chapterTimes))
	maxSamples := min(len(chunkOffsets), len(sampleSizes), len(chapterTimes))

	for i := 0; i < maxSamples; i++ {
		sampleSize := sampleSizes[i]
		if sampleSize == 0 || sampleSize >= 10000 {
			continue // Skip invalid sizes
		}

		title := extractChapterTitle(sr, int64(chunkOffsets[i]), sampleSize)

		chapter := types.Chapter{
			Index:     i + 1,
			Title:     title,
			StartTime: chapterTimes[i],
		}
		chapters = append(chapters, chapter)
	}

	return chapters
}

// extractChapterTitle reads and decodes a chapter title from a text sample.
func extractChapterTitle(sr *binary.SafeReader, chunkOffset int64, sampleSize uint32) string {
	textBuf := make([]byte, sampleSize)
	if err := sr.ReadAt(textBuf, chunkOffset, "chapter text"); err != nil {
		return ""
	}

	// Text samples have a 2-byte length prefix
	if sampleSize < 2 {
		return ""
	}

	textLen := int(textBuf[0])<<8 | int(textBuf[1])
	if textLen <= 0 || textLen > len(textBuf)-2 {
		return ""
	}

	return string(textBuf[2 : 2+textLen])
}

// calculateChapterEndTimes sets the EndTime for each chapter.
func calculateChapterEndTimes(chapters []types.Chapter, fileDuration time.Duration) {
	for i := 0; i < len(chapters); i++ {
		if i < len(chapters)-1 {
			chapters[i].EndTime = chapters[i+1].StartTime
		} else {
			chapters[i].EndTime = fileDuration
		}
	}
}
