package id3

import (
	"bytes"
	"errors"
	"io"
	"strings"

	binutil "github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

const maxAPICFrameSize = 100 * 1024 * 1024

var (
	errAPICTooShort    = errors.New("APIC frame too short")
	errAPICNoMIMETerm  = errors.New("APIC MIME type not null-terminated")
	errAPICTruncated   = errors.New("APIC frame truncated after MIME type")
	errAPICNoImageData = errors.New("APIC frame has no image data")
)

// ExtractArtwork parses ID3v2 APIC/PIC (Attached Picture) frames from an
// MP3 file and returns every embedded image found. Reuses ReadFrames'
// index-then-decode walk rather than re-scanning the tag independently.
func ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	sr := binutil.NewSafeReader(r, size, path)

	h, frames, _, err := ReadFrames(sr)
	if err != nil {
		return nil, nil //nolint:nilerr // absent ID3v2 tag means no embedded artwork, not an error
	}

	var artwork []types.Artwork
	for _, f := range frames {
		if normalizeFrameID(f.ID, h.Version) != "APIC" {
			continue
		}
		if len(f.Data) == 0 || len(f.Data) > maxAPICFrameSize {
			continue
		}
		data := f.Data
		if h.Version == 2 && len(data) >= 5 {
			// v2.2 PIC carries a fixed 3-byte image format with no
			// terminator; insert one so it parses with the APIC layout.
			data = append(append(append([]byte{}, data[:4]...), 0), data[4:]...)
		}
		if art, err := parseAPICFrame(data); err == nil {
			artwork = append(artwork, art)
		}
	}

	return artwork, nil
}

// parseAPICFrame parses an APIC (Attached Picture) frame:
//
//	[1 byte]              Text encoding
//	[null-terminated]     MIME type
//	[1 byte]              Picture type
//	[null-terminated]     Description
//	[remaining]           Picture data
func parseAPICFrame(data []byte) (types.Artwork, error) {
	if len(data) < 4 {
		return types.Artwork{}, errAPICTooShort
	}

	encoding := data[0]
	pos := 1

	mimeEnd := bytes.IndexByte(data[pos:], 0)
	if mimeEnd < 0 {
		return types.Artwork{}, errAPICNoMIMETerm
	}
	mimeType := string(data[pos : pos+mimeEnd])
	pos += mimeEnd + 1

	switch strings.ToLower(mimeType) {
	case "jpg":
		mimeType = "image/jpeg"
	case "png":
		mimeType = "image/png"
	case "", "-->":
		mimeType = "image/jpeg"
	}

	if pos >= len(data) {
		return types.Artwork{}, errAPICTruncated
	}

	pictureType := data[pos]
	pos++

	descEnd := findNullTerminator(data[pos:], encoding)
	description := ""
	if descEnd >= 0 {
		description = decodeText(data[pos:pos+descEnd], encoding)
		pos += descEnd + terminatorSize(encoding)
	}

	if pos >= len(data) {
		return types.Artwork{}, errAPICNoImageData
	}

	imageData := data[pos:]
	if detected := detectMIMEType(imageData); detected != "" {
		mimeType = detected
	}
	width, height := detectImageDimensions(imageData, mimeType)

	return types.Artwork{
		MIMEType:    mimeType,
		Description: description,
		Data:        imageData,
		Type:        types.ArtworkType(pictureType),
		Width:       width,
		Height:      height,
	}, nil
}

func detectMIMEType(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	switch {
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "image/png"
	case data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46:
		return "image/gif"
	case data[0] == 0x42 && data[1] == 0x4D:
		return "image/bmp"
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	default:
		return ""
	}
}

func detectImageDimensions(data []byte, mimeType string) (int, int) {
	switch mimeType {
	case "image/jpeg":
		return detectJPEGDimensions(data)
	case "image/png":
		return detectPNGDimensions(data)
	default:
		return 0, 0
	}
}

func detectJPEGDimensions(data []byte) (int, int) {
	for i := 0; i < len(data)-9; i++ {
		if data[i] != 0xFF {
			continue
		}
		marker := data[i+1]
		if marker == 0xC0 || marker == 0xC1 || marker == 0xC2 {
			if i+9 <= len(data) {
				height := int(data[i+5])<<8 | int(data[i+6])
				width := int(data[i+7])<<8 | int(data[i+8])
				return width, height
			}
		}
	}
	return 0, 0
}

func detectPNGDimensions(data []byte) (int, int) {
	if len(data) < 24 {
		return 0, 0
	}
	sig := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	for i := range 8 {
		if data[i] != sig[i] {
			return 0, 0
		}
	}
	width := int(data[16])<<24 | int(data[17])<<16 | int(data[18])<<8 | int(data[19])
	height := int(data[20])<<24 | int(data[21])<<16 | int(data[22])<<8 | int(data[23])
	return width, height
}
