package ogg

import (
	"fmt"
	"io"
	"strings"

	binutil "github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
	"github.com/wrnbx/audiometa/internal/vorbis"
)

// ExtractArtwork decodes every METADATA_BLOCK_PICTURE Vorbis comment found
// in an Ogg Vorbis/Opus stream into Artwork. There is no container-native
// picture block in Ogg, so this is the only source of embedded images.
func (p *parser) ExtractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	// The SafeReader built here is discarded; p.Parse below does the
	// page/packet demux with its own bounds-checked reads against r.
	_ = binutil.NewSafeReader(r, size, path)

	file, err := p.Parse(r, size, path)
	if err != nil {
		return nil, fmt.Errorf("parse file: %w", err)
	}

	var artwork []types.Artwork
	for key, values := range file.Tags.All() {
		if !strings.EqualFold(key, "METADATA_BLOCK_PICTURE") {
			continue
		}
		for _, value := range values {
			if value.Kind != types.TagText {
				continue
			}
			pic, err := vorbis.DecodePictureComment(value.Text)
			if err != nil {
				continue // skip invalid embedded picture, keep the rest
			}
			artwork = append(artwork, pic)
		}
	}

	return artwork, nil
}
