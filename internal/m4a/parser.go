package m4a

import (
	"io"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/registry"
	"github.com/wrnbx/audiometa/internal/types"
)

// parser implements registry.FormatParser for MP4/M4A/M4B containers.
type parser struct{}

// Parse parses an M4A/M4B file and extracts metadata.
func (p *parser) Parse(r io.ReaderAt, size int64, path string) (*types.File, error) {
	sr := binary.NewSafeReader(r, size, path)

	format, err := types.DetectFormat(r, size, path)
	if err != nil {
		return nil, err
	}

	file := &types.File{
		Path:   path,
		Format: format,
		Size:   size,
		Tags:   types.Tags{},
		Audio:  types.AudioInfo{},
	}

	moovAtom, err := findAtom(sr, 0, size, "moov")
	if err != nil {
		return file, nil //nolint:nilerr // no moov means no metadata, not a parse failure
	}

	metaAtom, ok := descendAtoms(sr, moovAtom, []string{"udta", "meta"})
	if !ok {
		return file, nil
	}

	// meta atom has 4 bytes of version+flags before its children.
	ilstAtom, err := findAtom(sr, metaAtom.DataOffset()+4, metaAtom.DataOffset()+int64(metaAtom.DataSize()), "ilst")
	if err != nil {
		return file, nil //nolint:nilerr // no ilst means no metadata, not a parse failure
	}

	if err := extractIlstMetadata(sr, ilstAtom, file); err != nil {
		addWarning(file, "metadata", err.Error())
	}
	if err := parseTechnicalInfo(sr, moovAtom, file); err != nil {
		addWarning(file, "technical", err.Error())
	}
	if err := parseAudiobookTags(sr, ilstAtom, file); err != nil {
		addWarning(file, "metadata", err.Error())
	}

	if chapters, err := parseChapters(sr, moovAtom, file.Audio.Duration); err != nil {
		addWarning(file, "chapters", err.Error())
	} else if len(chapters) > 0 {
		file.Chapters = chapters
	}

	return file, nil
}

func addWarning(file *types.File, stage, message string) {
	file.Warnings = append(file.Warnings, types.Warning{Stage: stage, Message: message})
}

// ExtractArtwork extracts embedded cover art from M4A/M4B files.
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	sr := binary.NewSafeReader(r, size, path)
	return extractArtwork(sr, size)
}

func init() {
	p := &parser{}
	registry.Register(types.FormatM4A, p)
	registry.Register(types.FormatM4B, p)
}
