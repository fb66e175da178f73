package mp3

import (
	"io"

	binutil "github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/id3"
	"github.com/wrnbx/audiometa/internal/registry"
	"github.com/wrnbx/audiometa/internal/types"
)

// parser implements the registry.FormatParser interface for MP3 files.
type parser struct{}

// Parse parses a single MP3 file and extracts metadata.
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binutil.NewSafeReader(r, size, path)

	file := &types.File{
		Path:   path,
		Format: types.FormatMP3,
		Size:   size,
		Tags:   types.Tags{},
		Audio:  types.AudioInfo{},
	}

	tagSize, err := id3.ParseV2Into(sr, file)
	if err != nil {
		file.Warnings = append(file.Warnings, types.Warning{
			Stage:   "metadata",
			Message: "ID3v2 parsing failed: " + err.Error(),
		})
		tagSize = 0
	}

	if err := parseTechnicalInfo(sr, tagSize, size, file); err != nil {
		file.Warnings = append(file.Warnings, types.Warning{
			Stage:   "technical",
			Message: "failed to parse MP3 technical info: " + err.Error(),
		})
	}

	id3.MergeV1(sr, file)

	if file.Tags.Narrator == "" && len(file.Tags.Composers) > 0 {
		file.Tags.Narrator = file.Tags.Composers[0]
	}

	return file, nil
}

// ExtractArtwork extracts embedded artwork from MP3 files (ID3v2 APIC frames).
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	return extractArtwork(r, size, path)
}

func init() {
	registry.Register(types.FormatMP3, &parser{})
}
