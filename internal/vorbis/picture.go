package vorbis

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/wrnbx/audiometa/internal/types"
)

// pictureCursor walks the big-endian, length-prefixed fields of a FLAC
// picture block (the payload METADATA_BLOCK_PICTURE base64-encodes).
type pictureCursor struct {
	data   []byte
	offset int
}

func (c *pictureCursor) u32(label string) (uint32, error) {
	if c.offset+4 > len(c.data) {
		return 0, fmt.Errorf("%s: unexpected end of data", label)
	}
	v := binary.BigEndian.Uint32(c.data[c.offset:])
	c.offset += 4
	return v, nil
}

func (c *pictureCursor) bytes(n int, label string) ([]byte, error) {
	if c.offset+n > len(c.data) {
		return nil, fmt.Errorf("%s exceeds data", label)
	}
	b := c.data[c.offset : c.offset+n]
	c.offset += n
	return b, nil
}

// DecodePictureComment decodes a METADATA_BLOCK_PICTURE Vorbis comment
// value: base64 data shaped like a FLAC PICTURE metadata block. Shared by
// the FLAC and Ogg parsers since the comment convention is identical in
// both containers.
func DecodePictureComment(base64Value string) (types.Artwork, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Value)
	if err != nil {
		return types.Artwork{}, fmt.Errorf("invalid base64: %w", err)
	}
	return DecodePictureBlock(raw)
}

// DecodePictureBlock decodes a FLAC PICTURE metadata block's payload
// (type, MIME, description, dimensions, color info, image bytes) from raw
// bytes, shared by FLAC's native PICTURE block and the base64-encoded
// METADATA_BLOCK_PICTURE Vorbis comment convention it was borrowed from.
func DecodePictureBlock(raw []byte) (types.Artwork, error) {
	const minSize = 4 + 4 + 4 + 4 + 4 + 4 + 4 + 4 // type, mimeLen, descLen, w, h, depth, colors, dataLen
	if len(raw) < minSize {
		return types.Artwork{}, fmt.Errorf("picture block too small: %d bytes", len(raw))
	}

	c := &pictureCursor{data: raw}

	pictureType, err := c.u32("picture type")
	if err != nil {
		return types.Artwork{}, err
	}

	mimeLen, err := c.u32("MIME type length")
	if err != nil {
		return types.Artwork{}, err
	}
	mimeBytes, err := c.bytes(int(mimeLen), "MIME type")
	if err != nil {
		return types.Artwork{}, err
	}

	descLen, err := c.u32("description length")
	if err != nil {
		return types.Artwork{}, err
	}
	descBytes, err := c.bytes(int(descLen), "description")
	if err != nil {
		return types.Artwork{}, err
	}

	width, err := c.u32("width")
	if err != nil {
		return types.Artwork{}, err
	}
	height, err := c.u32("height")
	if err != nil {
		return types.Artwork{}, err
	}
	if _, err := c.bytes(8, "color depth/indexed colors"); err != nil { // skip, unused
		return types.Artwork{}, err
	}

	dataLen, err := c.u32("image data length")
	if err != nil {
		return types.Artwork{}, err
	}
	imageData, err := c.bytes(int(dataLen), "picture data")
	if err != nil {
		return types.Artwork{}, err
	}

	return types.Artwork{
		Data:        imageData,
		MIMEType:    string(mimeBytes),
		Type:        flacPictureType(pictureType),
		Description: string(descBytes),
		Width:       int(width),
		Height:      int(height),
	}, nil
}

// flacPictureType maps a FLAC/ID3 picture-type code to types.ArtworkType.
func flacPictureType(code uint32) types.ArtworkType {
	switch code {
	case 3:
		return types.ArtworkFrontCover
	case 4:
		return types.ArtworkBackCover
	default:
		return types.ArtworkOther
	}
}
