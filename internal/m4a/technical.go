package m4a

import (
	"time"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

// technicalAtomPath is the fixed descent from moov to the sample description
// table that holds codec, sample rate, and channel information.
var technicalAtomPath = []string{"trak", "mdia", "minf", "stbl", "stsd"}

// descendAtoms walks a chain of nested atom types starting from a parent's
// data range, returning the innermost atom found. Stops early (ok=false) the
// moment any link in the chain is missing.
func descendAtoms(sr *binary.SafeReader, parent *Atom, path []string) (atom *Atom, ok bool) {
	atom = parent
	for _, atomType := range path {
		next, err := findAtom(sr, atom.DataOffset(), atom.DataOffset()+int64(atom.DataSize()), atomType)
		if err != nil {
			return nil, false
		}
		atom = next
	}
	return atom, true
}

// parseTechnicalInfo extracts duration, bitrate, sample rate, channels, and
// codec. All failures here are swallowed: technical info is best-effort and
// a missing atom just leaves the corresponding field zero.
func parseTechnicalInfo(sr *binary.SafeReader, moovAtom *Atom, file *types.File) error { //nolint:unparam // error return kept for parser-interface consistency
	if mvhdAtom, ok := descendAtoms(sr, moovAtom, []string{"mvhd"}); ok {
		_ = parseMvhd(sr, mvhdAtom, file) //nolint:errcheck // best-effort
	}

	if stsdAtom, ok := descendAtoms(sr, moovAtom, technicalAtomPath); ok {
		_ = parseStsd(sr, stsdAtom, file) //nolint:errcheck // best-effort
	}

	if file.Audio.Duration > 0 && file.Size > 0 {
		if durationSec := file.Audio.Duration.Seconds(); durationSec > 0 {
			file.Audio.Bitrate = int((float64(file.Size) * 8) / durationSec)
		}
	}

	return nil
}

// parseMvhd parses the movie header atom for duration. Version 1 uses
// 64-bit creation/modification/duration fields instead of version 0's
// 32-bit ones; everything else lines up.
func parseMvhd(sr *binary.SafeReader, mvhdAtom *Atom, file *types.File) error {
	r := binary.NewReader(sr, mvhdAtom.DataOffset())

	version, err := binary.ReadValue[uint8](r, "mvhd version")
	if err != nil {
		return err
	}
	r.Skip(3) // flags

	timeFieldWidth := int64(4)
	if version == 1 {
		timeFieldWidth = 8
	}
	r.Skip(2 * timeFieldWidth) // creation time, modification time

	timescale, err := binary.ReadValue[uint32](r, "mvhd timescale")
	if err != nil {
		return err
	}

	var duration uint64
	if version == 1 {
		duration, err = binary.ReadValue[uint64](r, "mvhd duration")
	} else {
		var duration32 uint32
		duration32, err = binary.ReadValue[uint32](r, "mvhd duration")
		duration = uint64(duration32)
	}
	if err != nil {
		return err
	}

	if timescale > 0 {
		file.Audio.Duration = time.Duration((int64(duration) * 1_000_000_000) / int64(timescale))
	}
	return nil
}

// parseStsd reads the first entry of the sample description table for
// codec FourCC, channel count, and sample rate (16.16 fixed point).
func parseStsd(sr *binary.SafeReader, stsdAtom *Atom, file *types.File) error {
	r := binary.NewReader(sr, stsdAtom.DataOffset())
	r.Skip(4) // version + flags

	numEntries, err := binary.ReadValue[uint32](r, "stsd entry count")
	if err != nil {
		return err
	}
	if numEntries == 0 {
		return nil
	}

	if _, err := binary.ReadValue[uint32](r, "stsd entry size"); err != nil {
		return err
	}

	sampleEntryOffset := r.Offset()
	codec, err := r.ReadString(4, "stsd format")
	if err != nil {
		return err
	}
	file.Audio.Codec = codec
	_ = parseCodecDetails(sr, sampleEntryOffset, codec, file) //nolint:errcheck // enhanced details are optional

	r.Skip(8) // reserved + data reference index
	r.Skip(8) // version, revision level, vendor

	channels, err := binary.ReadValue[uint16](r, "channels")
	if err != nil {
		return err
	}
	file.Audio.Channels = int(channels)

	r.Skip(2) // sample size
	r.Skip(4) // compression ID + packet size

	sampleRateFixed, err := binary.ReadValue[uint32](r, "sample rate")
	if err != nil {
		return err
	}
	file.Audio.SampleRate = int(sampleRateFixed >> 16)

	return nil
}
