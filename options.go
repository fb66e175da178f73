package audiometa

import (
	"log/slog"
	"sync/atomic"

	"github.com/wrnbx/audiometa/internal/cache"
	"github.com/wrnbx/audiometa/internal/limits"
)

// Option configures behavior when opening audio files.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	file, err := audiometa.Open("song.flac",
//	    audiometa.WithStrictParsing(),
//	    audiometa.WithArtworkPreload(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening files.
type openOptions struct {
	strictParsing  bool // Fail on any warning
	preloadArtwork bool // Load artwork immediately instead of lazily
	ignoreWarnings bool // Suppress all warnings
	maxArtworkSize int  // Maximum artwork size in bytes (0 = no limit)
	batchWorkers   int  // Worker pool size for OpenManyWithOptions (0 = runtime.NumCPU())
	maxID3Frames   int  // parse.id3v2.max_frames (0 = no limit)
	mp4MaxDepth    int  // parse.mp4.max_depth
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		strictParsing:  false,
		preloadArtwork: false,
		ignoreWarnings: false,
		maxArtworkSize: 0, // No limit
		batchWorkers:   0,
		maxID3Frames:   0,
		mp4MaxDepth:    16,
	}
}

// defaultLogger is the package-wide diagnostic logger, overridable via
// WithLogger. It defaults to a discard handler so the library is silent
// unless a caller opts in, matching the corpus convention of not writing
// to stderr from a library import.
var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	defaultLogger.Store(slog.New(slog.NewTextHandler(discardWriter{}, nil)))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func logger() *slog.Logger {
	return defaultLogger.Load()
}

// WithLogger installs a structured logger for parse diagnostics.
//
// Logging is diagnostic-only: it never replaces File.Warnings as the
// authoritative channel for non-fatal parse issues, and has no effect on
// parsing behavior.
//
// Example:
//
//	audiometa.Open("song.flac", audiometa.WithLogger(slog.Default()))
func WithLogger(l *slog.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			defaultLogger.Store(l)
		}
	}
}

// WithFileCacheBytes caps the size of the shared file-data cache.
//
// Corresponds to the cache.file.bytes configuration knob: the total number
// of raw file bytes the library will keep resident across Open calls.
func WithFileCacheBytes(n int64) Option {
	return func(o *openOptions) {
		cache.SetFileCacheBytes(n)
	}
}

// WithResultCacheEntries caps the number of parsed File results kept in
// the shared result cache (cache.result.entries).
func WithResultCacheEntries(n int) Option {
	return func(o *openOptions) {
		cache.SetResultCacheEntries(n)
	}
}

// WithBatchWorkers overrides the worker pool size used by
// OpenManyWithOptions (batch.workers). Defaults to runtime.NumCPU().
func WithBatchWorkers(n int) Option {
	return func(o *openOptions) {
		o.batchWorkers = n
	}
}

// WithMaxID3Frames rejects ID3v2 tags carrying more than n frames
// (parse.id3v2.max_frames), guarding against pathological or adversarial
// tags with an unbounded frame count.
func WithMaxID3Frames(n int) Option {
	return func(o *openOptions) {
		o.maxID3Frames = n
		limits.SetMaxID3Frames(n)
	}
}

// WithMP4MaxDepth sets the MP4/M4A atom recursion depth limit
// (parse.mp4.max_depth, default 16) held in internal/limits. The m4a
// parser walks fixed atom paths and does not read this limit, so the
// option does not change how MP4 files are parsed.
func WithMP4MaxDepth(n int) Option {
	return func(o *openOptions) {
		o.mp4MaxDepth = n
		limits.SetMP4MaxDepth(n)
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default, audiometa continues parsing when it encounters issues
// like invalid tag encodings or corrupted artwork, returning warnings
// alongside the parsed data.
//
// With strict parsing enabled, any warning becomes a fatal error.
//
// Example:
//
//	file, err := audiometa.Open("song.flac", audiometa.WithStrictParsing())
//	// err != nil if ANY issue is encountered
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strictParsing = true
	}
}

// WithArtworkPreload loads artwork immediately instead of lazily.
//
// By default, artwork is only loaded when ExtractArtwork() is called.
// This option loads it during Open() for convenience.
//
// Use this when you know you'll need the artwork and want to fail fast
// if artwork extraction has issues.
//
// Example:
//
//	file, err := audiometa.Open("song.flac", audiometa.WithArtworkPreload())
//	// file.ExtractArtwork() will return cached data
func WithArtworkPreload() Option {
	return func(o *openOptions) {
		o.preloadArtwork = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// By default, warnings about non-fatal issues (invalid encodings, etc.)
// are collected in File.Warnings. This option discards them.
//
// Use this for performance-critical code where you don't care about
// data quality issues.
//
// Example:
//
//	file, err := audiometa.Open("song.flac", audiometa.WithIgnoreWarnings())
//	// file.Warnings will always be empty
func WithIgnoreWarnings() Option {
	return func(o *openOptions) {
		o.ignoreWarnings = true
	}
}

// WithMaxArtworkSize records a maximum artwork size (in bytes) in the open
// options.
//
// ExtractArtwork does not read this value: artwork of any size is
// returned, and no warning is added for large images.
//
// Default is 0 (no limit).
//
// Example:
//
//	// Limit artwork to 10MB
//	file, err := audiometa.Open("song.flac",
//	    audiometa.WithMaxArtworkSize(10*1024*1024),
//	)
func WithMaxArtworkSize(bytes int) Option {
	return func(o *openOptions) {
		o.maxArtworkSize = bytes
	}
}
