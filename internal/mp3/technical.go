package mp3

import (
	"encoding/binary"
	"fmt"
	"time"

	binutil "github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

// mpegVersion identifies the MPEG audio version bits (header bits 19-20).
type mpegVersion int

const (
	mpegV2_5 mpegVersion = iota // version bits 00
	mpegVReserved
	mpegV2 // version bits 10
	mpegV1 // version bits 11
)

// mpegLayer identifies the layer bits (header bits 17-18).
type mpegLayer int

const (
	layerReserved mpegLayer = iota
	layerIII
	layerII
	layerI
)

// bitrateTable[version][layer] -> kbps table indexed by the 4-bit bitrate
// field. version index: 0 = MPEG1, 1 = MPEG2/2.5. layer index: 0 = I, 1 = II, 2 = III.
var bitrateTable = [2][3][16]int{
	// MPEG1
	{
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},    // Layer I
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},       // Layer II
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},        // Layer III
	},
	// MPEG2 / MPEG2.5
	{
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}, // Layer I
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},      // Layer II
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},      // Layer III
	},
}

// sampleRateTable[version] -> Hz table indexed by the 2-bit sample-rate field.
var sampleRateTable = map[mpegVersion][4]int{
	mpegV1:   {44100, 48000, 32000, 0},
	mpegV2:   {22050, 24000, 16000, 0},
	mpegV2_5: {11025, 12000, 8000, 0},
}

// samplesPerFrame returns the PCM sample count encoded in a single frame,
// which depends on both MPEG version and layer.
func samplesPerFrame(v mpegVersion, l mpegLayer) int {
	switch l {
	case layerI:
		return 384
	case layerII:
		return 1152
	case layerIII:
		if v == mpegV1 {
			return 1152
		}
		return 576 // MPEG2/2.5 Layer III halves the block size
	default:
		return 1152
	}
}

type frameHeader struct {
	Version    mpegVersion
	Layer      mpegLayer
	Bitrate    int // bps
	SampleRate int // Hz
	Channels   int
	Padding    int // 0 or 1 byte
}

// parseTechnicalInfo extracts bitrate, sample rate, codec, and duration from MP3 frames.
func parseTechnicalInfo(sr *binutil.SafeReader, tagSize int64, fileSize int64, file *types.File) error {
	frameOffset := tagSize

	for frameOffset < fileSize-4 {
		header, err := findMP3FrameAt(sr, frameOffset)
		if err == nil {
			file.Audio.Bitrate = header.Bitrate
			file.Audio.SampleRate = header.SampleRate
			file.Audio.Channels = header.Channels
			file.Audio.Codec = "MP3"
			file.Audio.CodecDescription = layerName(header.Layer)

			duration, vbr := parseVBRHeader(sr, frameOffset, header, fileSize)
			if vbr {
				file.Audio.Duration = duration
				file.Audio.VBR = true
			} else {
				file.Audio.Duration = estimateCBRDuration(header.Bitrate, fileSize, tagSize)
				file.Audio.VBR = false
			}
			return nil
		}
		frameOffset++
	}

	return fmt.Errorf("no valid MP3 frame found")
}

func layerName(l mpegLayer) string {
	switch l {
	case layerI:
		return "MPEG Layer I"
	case layerII:
		return "MPEG Layer II"
	case layerIII:
		return "MPEG Layer III"
	default:
		return ""
	}
}

// findMP3FrameAt reads and validates an MP3 frame header at the given offset.
func findMP3FrameAt(sr *binutil.SafeReader, offset int64) (frameHeader, error) {
	buf := make([]byte, 4)
	if err := sr.ReadAt(buf, offset, "MP3 frame header"); err != nil {
		return frameHeader{}, err
	}

	raw := binary.BigEndian.Uint32(buf)

	if raw&0xFFE00000 != 0xFFE00000 {
		return frameHeader{}, fmt.Errorf("invalid frame sync")
	}

	versionBits := (raw >> 19) & 0x3
	layerBits := (raw >> 17) & 0x3
	version := mpegVersion(versionBits)
	layer := mpegLayer(layerBits)

	if version == mpegVReserved || layer == layerReserved {
		return frameHeader{}, fmt.Errorf("reserved version or layer")
	}

	bitrateIdx := (raw >> 12) & 0xF
	sampleRateIdx := (raw >> 10) & 0x3
	padding := int((raw >> 9) & 0x1)
	channelMode := (raw >> 6) & 0x3

	versionGroup := 0 // MPEG1
	if version != mpegV1 {
		versionGroup = 1 // MPEG2 / MPEG2.5
	}

	var layerIdx int
	switch layer {
	case layerI:
		layerIdx = 0
	case layerII:
		layerIdx = 1
	case layerIII:
		layerIdx = 2
	}

	if bitrateIdx == 0xF {
		return frameHeader{}, fmt.Errorf("invalid (free) bitrate index")
	}
	bitrate := bitrateTable[versionGroup][layerIdx][bitrateIdx] * 1000
	if bitrate == 0 {
		return frameHeader{}, fmt.Errorf("free-format bitrate unsupported")
	}

	rateTable, ok := sampleRateTable[version]
	if !ok {
		return frameHeader{}, fmt.Errorf("unsupported MPEG version")
	}
	sampleRate := rateTable[sampleRateIdx]
	if sampleRate == 0 {
		return frameHeader{}, fmt.Errorf("reserved sample rate")
	}

	channels := 2
	if channelMode == 3 {
		channels = 1
	}

	return frameHeader{
		Version:    version,
		Layer:      layer,
		Bitrate:    bitrate,
		SampleRate: sampleRate,
		Channels:   channels,
		Padding:    padding,
	}, nil
}

// xingHeaderOffset returns the byte offset of the Xing/Info/VBRI side
// info relative to the frame header, which depends on MPEG version and
// channel mode (mono side info is shorter).
func xingHeaderOffset(h frameHeader) int64 {
	if h.Version == mpegV1 {
		if h.Channels == 1 {
			return 4 + 17
		}
		return 4 + 32
	}
	if h.Channels == 1 {
		return 4 + 9
	}
	return 4 + 17
}

// parseVBRHeader checks for Xing/Info/VBRI VBR headers and calculates accurate duration.
func parseVBRHeader(sr *binutil.SafeReader, frameOffset int64, h frameHeader, fileSize int64) (time.Duration, bool) {
	off := frameOffset + xingHeaderOffset(h)
	buf := make([]byte, 120)
	if err := sr.ReadAt(buf, off, "VBR header"); err != nil {
		return 0, false
	}

	if string(buf[0:4]) == "Xing" || string(buf[0:4]) == "Info" {
		flags := binary.BigEndian.Uint32(buf[4:8])
		if flags&0x0001 != 0 {
			numFrames := binary.BigEndian.Uint32(buf[8:12])
			return durationFromFrames(numFrames, h), true
		}
		return 0, false
	}

	vbriOff := frameOffset + 36
	vbriBuf := make([]byte, 32)
	if err := sr.ReadAt(vbriBuf, vbriOff, "VBRI header"); err == nil {
		if string(vbriBuf[0:4]) == "VBRI" && len(vbriBuf) >= 18 {
			numFrames := binary.BigEndian.Uint32(vbriBuf[14:18])
			return durationFromFrames(numFrames, h), true
		}
	}

	return 0, false
}

func durationFromFrames(numFrames uint32, h frameHeader) time.Duration {
	spf := samplesPerFrame(h.Version, h.Layer)
	totalSamples := uint64(numFrames) * uint64(spf)
	seconds := float64(totalSamples) / float64(h.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// estimateCBRDuration estimates duration for constant bitrate files from
// the audio data size (file size minus the ID3v2 tag and 128 bytes for an
// ID3v1 trailer, whether or not one is present) and the frame bitrate.
func estimateCBRDuration(bitrate int, fileSize int64, tagSize int64) time.Duration {
	if bitrate == 0 {
		return 0
	}
	audioSize := fileSize - tagSize
	if fileSize >= 128 {
		audioSize -= 128 // optimistic: assume a trailing ID3v1 tag without checking for one
	}
	if audioSize < 0 {
		audioSize = fileSize - tagSize
	}
	durationSeconds := float64(audioSize*8) / float64(bitrate)
	return time.Duration(durationSeconds * float64(time.Second))
}
