package audiometa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	goerrors "github.com/go-errors/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wrnbx/audiometa/internal/cache"
	"github.com/wrnbx/audiometa/internal/registry"
	"github.com/wrnbx/audiometa/internal/types"
)

// File represents an opened audio file with parsed metadata.
//
// File provides access to format-agnostic metadata (Tags), technical
// audio properties (AudioInfo), and optional embedded artwork.
//
// File uses lazy loading - opening a file reads only metadata, not
// audio content or artwork. Call ExtractArtwork() to load images.
//
// Always call Close() when done to release file resources:
//
//	file, err := audiometa.Open("song.flac")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
type File struct {
	types.File
}

// Open opens an audio file and reads its metadata.
//
// Supported formats: FLAC, MP3, M4A, M4B, Ogg Vorbis, Opus.
//
// Open performs lazy loading - audio content is not read into memory,
// only metadata is parsed. Use ExtractArtwork() to retrieve embedded images.
//
// If the file is corrupted or has invalid tags, Open may return a partial
// File with warnings instead of an error. Check File.Warnings for details.
//
// Options can be provided to customize parsing behavior:
//
//	file, err := audiometa.Open("song.flac",
//	    audiometa.WithStrictParsing(),
//	    audiometa.WithArtworkPreload(),
//	)
func Open(path string, opts ...Option) (*File, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, goerrors.Wrap(err, 0)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck // best-effort close on error path
		return nil, goerrors.Wrap(err, 0)
	}
	size := stat.Size()

	if cached := cache.GetResult(path, size, stat.ModTime()); cached != nil {
		f.Close() //nolint:errcheck // cached result means we don't need the descriptor
		clone := *cached
		clone.Reader_ = nil
		return &File{File: clone}, nil
	}

	file, err := openReader(f, size, path, options)
	if err != nil {
		f.Close() //nolint:errcheck // best-effort close on error path
		return nil, err
	}

	file.Reader_ = f

	if options.strictParsing && len(file.Warnings) > 0 {
		f.Close() //nolint:errcheck // best-effort close on error path
		return nil, fmt.Errorf("strict parsing failed: %s", file.Warnings[0].Message)
	}

	if options.preloadArtwork {
		if _, err := file.ExtractArtwork(); err != nil {
			file.Warnings = append(file.Warnings, Warning{
				Stage:   "artwork",
				Message: fmt.Sprintf("preload artwork failed: %v", err),
			})
		}
	}

	cache.PutResult(path, size, stat.ModTime(), &file.File)
	return file, nil
}

// openReader opens from an io.ReaderAt (internal, for testing).
func openReader(r io.ReaderAt, size int64, path string, options *openOptions) (*File, error) {
	format, err := DetectFormat(r, size, path)
	if err != nil {
		return nil, err
	}

	parser := registry.Get(format)
	if parser == nil {
		parser = tryTrialParse(r, size, path)
	}
	if parser == nil {
		return nil, &UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("no parser available for format %s", format),
		}
	}

	parsed, err := parser.Parse(r, size, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	parsed.Path = path
	parsed.Format = format
	parsed.Size = size
	parsed.Parser_ = parser

	if options.ignoreWarnings {
		parsed.Warnings = nil
	}

	logger().Debug("parsed audio file",
		slog.String("path", path),
		slog.String("format", format.String()),
		slog.Int("warnings", len(parsed.Warnings)))

	return &File{File: *parsed}, nil
}

// tryTrialParse is the final fallback when magic-byte sniffing fails to
// identify a format: try every registered parser in a fixed priority order
// and return the first one whose Parse call succeeds.
func tryTrialParse(r io.ReaderAt, size int64, path string) registry.FormatParser {
	for _, format := range []Format{FormatFLAC, FormatMP3, FormatOgg, FormatM4A} {
		p := registry.Get(format)
		if p == nil {
			continue
		}
		if _, err := p.Parse(r, size, path); err == nil {
			return p
		}
	}
	return nil
}

// Close releases resources held by the file.
//
// After Close is called, the File should not be used.
func (f *File) Close() error {
	if closer, ok := f.Reader_.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ExtractArtwork extracts embedded artwork from the file.
//
// Artwork is lazily loaded - it is not parsed during Open(). The first
// call to ExtractArtwork() reads and caches the artwork. Subsequent
// calls return the cached data.
//
// Returns an empty slice if the file contains no artwork.
func (f *File) ExtractArtwork() ([]Artwork, error) {
	if f.Artwork_ != nil {
		return f.Artwork_, nil
	}

	extractor, ok := f.Parser_.(registry.ArtworkExtractor)
	if !ok {
		return nil, nil
	}

	artwork, err := extractor.ExtractArtwork(f.Reader_, f.Size, f.Path)
	if err != nil {
		return nil, fmt.Errorf("extract artwork: %w", err)
	}

	if key := pictureTagKey(f.Format); key != "" {
		for i := range artwork {
			f.Tags.AddValue(key, types.PictureValue(&artwork[i]))
		}
	}

	f.Artwork_ = artwork
	return artwork, nil
}

// pictureTagKey returns the raw TagSet key that extracted artwork should be
// filed under for a given format, matching the frame/atom/comment-key that
// format actually embeds pictures in.
func pictureTagKey(format Format) string {
	switch format {
	case FormatMP3:
		return "APIC"
	case FormatFLAC:
		return "PICTURE"
	case FormatOgg, FormatOpus:
		return "METADATA_BLOCK_PICTURE"
	case FormatM4A, FormatM4B:
		return "covr"
	default:
		return ""
	}
}

// RawTags returns the complete raw TagSet, keyed by the exact identifier the
// source format used (an ID3v2 frame ID, an uppercase Vorbis comment key, or
// an MP4 atom code), with each value carrying its own kind — text, binary,
// picture, a (number, total) pair, bool, or int. This is the lossless view;
// Tags' mapped fields are a convenience projection over the same data.
func (f *File) RawTags() *TagSet {
	return &f.Tags.Raw
}

// OpenContext opens a file with context support for cancellation.
//
// This is a thin wrapper around Open() that checks context before starting.
func OpenContext(ctx context.Context, path string, opts ...Option) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// OpenMany opens multiple audio files concurrently.
//
// Files are grouped by (size, xxhash of the first 64 KiB) so identical duplicates across the
// batch are parsed exactly once, then fanned out across a worker pool
// bounded by runtime.NumCPU() (or WithBatchWorkers via OpenManyWithOptions).
// Results are returned in the same order as the input paths. Cancellation
// is checked between work items; an in-progress parse is never interrupted.
//
// If any file fails to open, all successfully opened files are closed
// and an error is returned.
func OpenMany(ctx context.Context, paths ...string) ([]*File, error) {
	return OpenManyWithOptions(ctx, paths)
}

// OpenManyWithOptions is OpenMany with explicit batch configuration options.
func OpenManyWithOptions(ctx context.Context, paths []string, opts ...Option) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	workers := options.batchWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]*File, len(paths))
	groups := cache.GroupByFingerprint(paths)

	for _, group := range groups {
		group := group
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			representative, err := Open(group.Paths[0], opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", group.Paths[0], err)
			}
			results[group.Indices[0]] = representative

			for i := 1; i < len(group.Paths); i++ {
				clone := representative.File
				clone.Path = group.Paths[i]
				results[group.Indices[i]] = &File{File: clone}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, file := range results {
			if file != nil {
				file.Close() //nolint:errcheck // best-effort cleanup on batch failure
			}
		}
		return nil, err
	}

	return results, nil
}

// FormatParser is the interface all format parsers implement.
//
// This interface is public to allow internal format packages to implement it,
// but it's not intended for external use. Do not implement custom parsers.
type FormatParser = registry.FormatParser

// ArtworkExtractor is an optional interface for parsers that support artwork extraction.
type ArtworkExtractor = registry.ArtworkExtractor

// ClearCache clears all in-process caches (file-data, result, fingerprint).
//
// Tests and long-running processes that need a clean slate (e.g. after
// replacing a file on disk at the same path) should call this between runs.
func ClearCache() {
	cache.ClearAll()
}
