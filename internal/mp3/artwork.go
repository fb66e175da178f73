package mp3

import (
	"io"

	"github.com/wrnbx/audiometa/internal/id3"
	"github.com/wrnbx/audiometa/internal/types"
)

// extractArtwork delegates to the shared ID3v2 APIC frame parser.
func extractArtwork(r io.ReaderAt, size int64, path string) ([]types.Artwork, error) {
	return id3.ExtractArtwork(r, size, path)
}
