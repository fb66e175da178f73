package m4a

import (
	"fmt"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

const (
	mimeTypeJPEG = "image/jpeg"
	mimeTypePNG  = "image/png"
	mimeTypeBMP  = "image/bmp"
)

// covrAtomPath is the fixed descent from moov to the meta atom under which
// ilst → covr live; the meta atom carries 4 extra bytes of version+flags
// before its children.
var covrAtomPath = []string{"udta", "meta"}

// extractArtwork extracts embedded cover art from M4A/M4B files, following
// moov → udta → meta → ilst → covr → data.
func extractArtwork(sr *binary.SafeReader, size int64) ([]types.Artwork, error) {
	moovAtom, err := findAtom(sr, 0, size, "moov")
	if err != nil {
		return nil, nil //nolint:nilerr // no moov means no metadata, not a failure
	}

	metaAtom, ok := descendAtoms(sr, moovAtom, covrAtomPath)
	if !ok {
		return nil, nil
	}

	ilstAtom, err := findAtom(sr, metaAtom.DataOffset()+4, metaAtom.DataOffset()+int64(metaAtom.DataSize()), "ilst")
	if err != nil {
		return nil, nil //nolint:nilerr // no ilst means no metadata, not a failure
	}

	covrAtom, err := findAtom(sr, ilstAtom.DataOffset(), ilstAtom.DataOffset()+int64(ilstAtom.DataSize()), "covr")
	if err != nil {
		return nil, nil //nolint:nilerr // no cover atom is not a failure
	}

	return parseCovrChildren(sr, covrAtom)
}

// parseCovrChildren walks the data atoms nested under covr, skipping any
// that fail to parse so one malformed entry doesn't hide the rest.
func parseCovrChildren(sr *binary.SafeReader, covrAtom *Atom) ([]types.Artwork, error) {
	var artwork []types.Artwork
	offset := covrAtom.DataOffset()
	end := offset + int64(covrAtom.DataSize())

	for offset < end {
		dataAtom, err := readAtomHeader(sr, offset)
		if err != nil {
			break
		}

		if dataAtom.Type == "data" {
			if art, err := parseCovrData(sr, dataAtom); err == nil {
				artwork = append(artwork, art)
			}
		}

		if dataAtom.Size == 0 {
			break
		}
		offset += int64(dataAtom.Size)
	}

	return artwork, nil
}

// parseCovrData extracts artwork from a single covr data atom:
// [1 byte version][3 bytes flags, byte 3 = MIME indicator][4 bytes reserved][image data].
func parseCovrData(sr *binary.SafeReader, dataAtom *Atom) (types.Artwork, error) {
	r := binary.NewReader(sr, dataAtom.DataOffset())

	versionFlags, err := binary.ReadValue[uint32](r, "data version+flags")
	if err != nil {
		return types.Artwork{}, err
	}
	mimeType := flagsToMIMEType(uint8(versionFlags & 0xFF))
	r.Skip(4) // reserved

	imageSize := int64(dataAtom.DataSize()) - 8
	if imageSize <= 0 {
		return types.Artwork{}, fmt.Errorf("invalid image size: %d", imageSize)
	}

	imageData, err := r.ReadString(int(imageSize), "cover image data")
	if err != nil {
		return types.Artwork{}, err
	}
	data := []byte(imageData)

	width, height := detectImageDimensions(data, mimeType)

	return types.Artwork{
		MIMEType:    mimeType,
		Data:        data,
		Type:        types.ArtworkFrontCover, // covr is always front cover, M4A has no other slot
		Width:       width,
		Height:      height,
	}, nil
}

// flagsToMIMEType converts M4A flags byte to MIME type.
func flagsToMIMEType(flags byte) string {
	switch flags {
	case 0x0D: // JPEG
		return mimeTypeJPEG
	case 0x0E: // PNG
		return mimeTypePNG
	case 0x1B: // BMP
		return mimeTypeBMP
	default:
		// Default to JPEG (most common)
		return mimeTypeJPEG
	}
}

// detectImageDimensions extracts width/height from image data.
// Supports JPEG and PNG. Returns 0, 0 if unable to detect.
func detectImageDimensions(data []byte, mimeType string) (int, int) {
	switch mimeType {
	case mimeTypeJPEG:
		return detectJPEGDimensions(data)
	case mimeTypePNG:
		return detectPNGDimensions(data)
	default:
		return 0, 0
	}
}

// detectJPEGDimensions extracts dimensions from JPEG data.
func detectJPEGDimensions(data []byte) (int, int) {
	// JPEG structure: markers are 0xFF followed by marker type
	// SOF markers contain dimensions: SOF0 (0xC0), SOF1 (0xC1), SOF2 (0xC2)
	for i := 0; i < len(data)-9; i++ {
		if data[i] != 0xFF {
			continue
		}

		marker := data[i+1]
		// Check for SOF markers (Start Of Frame)
		if marker == 0xC0 || marker == 0xC1 || marker == 0xC2 {
			// SOF format: FF Cn [2 bytes length] [1 byte precision] [2 bytes height] [2 bytes width]
			if i+9 <= len(data) {
				height := int(data[i+5])<<8 | int(data[i+6])
				width := int(data[i+7])<<8 | int(data[i+8])
				return width, height
			}
		}
	}
	return 0, 0
}

// detectPNGDimensions extracts dimensions from PNG data.
func detectPNGDimensions(data []byte) (int, int) {
	// PNG structure: 8-byte signature + IHDR chunk
	// IHDR is at bytes 8-24: [4 len] [4 "IHDR"] [4 width] [4 height] [...]
	if len(data) < 24 {
		return 0, 0
	}

	// Verify PNG signature
	pngSig := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	for i := range 8 {
		if data[i] != pngSig[i] {
			return 0, 0
		}
	}

	// Read IHDR dimensions (big-endian)
	width := int(data[16])<<24 | int(data[17])<<16 | int(data[18])<<8 | int(data[19])
	height := int(data[20])<<24 | int(data[21])<<16 | int(data[22])<<8 | int(data[23])

	return width, height
}
