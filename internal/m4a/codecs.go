// Package m4a provides M4A/M4B format parsing
package m4a

import (
	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

// codecNames maps MP4 codec FourCC codes to human-readable names.
var codecNames = map[string]string{
	// AAC Family
	"mp4a": "AAC",
	"mhm1": "xHE-AAC",
	"mhm2": "xHE-AAC v2",

	// Dolby Family
	"ac-3": "AC-3",
	"ec-3": "E-AC-3",
	"ac-4": "AC-4",

	// Lossless
	"alac": "Apple Lossless",
	"flac": "FLAC",

	// Other
	"opus": "Opus",
	"mp3 ": "MP3",
	".mp3": "MP3",
}

// aacProfiles maps AAC Audio Object Types to profile names.
var aacProfiles = map[uint8]string{
	1:  "AAC Main",
	2:  "AAC-LC",
	3:  "AAC-SSR",
	4:  "AAC-LTP",
	5:  "HE-AAC",
	6:  "AAC Scalable",
	29: "HE-AAC v2",
	42: "xHE-AAC",
}

// mapCodecName converts a FourCC codec identifier to a human-readable name.
func mapCodecName(fourCC string) string {
	if name, ok := codecNames[fourCC]; ok {
		return name
	}
	return fourCC
}

// parseCodecDetails enriches codec information with human-readable names.
func parseCodecDetails(sr *binary.SafeReader, sampleEntryOffset int64, codec string, file *types.File) error {
	file.Audio.CodecDescription = mapCodecName(codec)

	// For AAC variants, attempt to parse ESDS for profile
	if codec == "mp4a" {
		if profile, err := parseAACProfile(sr, sampleEntryOffset); err == nil && profile != "" {
			file.Audio.CodecProfile = profile
			if profile != "AAC-LC" {
				file.Audio.CodecDescription = profile
			}
		}
	}

	// For xHE-AAC, profile is implicit
	if codec == "mhm1" || codec == "mhm2" {
		file.Audio.CodecProfile = "USAC"
	}

	return nil
}

const (
	esdsSearchWindow = 256
	esdsMinSize      = 12
	esdsMaxSize      = 1024
	esdsMaxDataSize  = 512

	esDescriptorTag  = 0x03
	decConfigTag     = 0x04
	esDescFixedTrail = 3 // ES_ID(2) + flags(1) following the descriptor size
)

// parseAACProfile locates the esds atom embedded in an AAC sample entry and
// pulls the Audio Object Type out of its DecoderConfigDescriptor.
func parseAACProfile(sr *binary.SafeReader, sampleEntryOffset int64) (string, error) {
	esdsOffset, err := locateESDS(sr, sampleEntryOffset)
	if err != nil || esdsOffset < 0 {
		return "", err
	}

	payload, err := readESDSPayload(sr, esdsOffset)
	if err != nil || payload == nil {
		return "", err
	}

	objectType := decoderDescriptors(payload).audioObjectType()
	if objectType == 0 {
		return "", nil
	}
	return aacProfiles[objectType], nil
}

// locateESDS scans a fixed window after the sample entry for the "esds"
// FourCC, since ESDS is reached by name rather than a known fixed offset
// across the different sample entry box layouts.
func locateESDS(sr *binary.SafeReader, sampleEntryOffset int64) (int64, error) {
	window := make([]byte, esdsSearchWindow)
	if err := sr.ReadAt(window, sampleEntryOffset, "esds search buffer"); err != nil {
		return -1, err
	}
	for i := 0; i < len(window)-4; i++ {
		if string(window[i:i+4]) == "esds" {
			return sampleEntryOffset + int64(i) - 4, nil
		}
	}
	return -1, nil
}

// readESDSPayload reads the esds atom body, past its 12-byte box+FullBox
// header, bounding the size against implausible values from a corrupt atom.
func readESDSPayload(sr *binary.SafeReader, esdsOffset int64) ([]byte, error) {
	size, err := binary.Read[uint32](sr, esdsOffset, "esds size")
	if err != nil || size < esdsMinSize || size > esdsMaxSize {
		return nil, nil //nolint:nilerr // out-of-range size is "no profile", not a read failure
	}

	dataLen := int(size) - esdsMinSize
	if dataLen <= 0 || dataLen > esdsMaxDataSize {
		return nil, nil
	}

	data := make([]byte, dataLen)
	if err := sr.ReadAt(data, esdsOffset+esdsMinSize, "esds data"); err != nil {
		return nil, err
	}
	return data, nil
}

// decoderDescriptors walks the MPEG-4 descriptor hierarchy
// (ES_Descriptor → DecoderConfigDescriptor) to reach the Audio Object Type
// byte. Each descriptor starts with a tag byte and a variable-length
// (1-4 byte, high-bit-continued) size.
type decoderDescriptors []byte

func (d decoderDescriptors) audioObjectType() uint8 {
	pos := 0
	readSize := func() int {
		size := 0
		for i := 0; i < 4; i++ {
			if pos >= len(d) {
				return -1
			}
			b := d[pos]
			pos++
			size = (size << 7) | int(b&0x7F)
			if b&0x80 == 0 {
				break
			}
		}
		return size
	}

	for pos < len(d) {
		if d[pos] != esDescriptorTag {
			pos++
			continue
		}
		pos++
		if readSize() < 0 {
			return 0
		}
		pos += esDescFixedTrail

		if pos < len(d) && d[pos] == decConfigTag {
			pos++
			if readSize() < 0 || pos >= len(d) {
				return 0
			}
			return d[pos]
		}
	}
	return 0
}
