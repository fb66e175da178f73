// Package limits holds process-wide parsing bounds configurable via
// audiometa's functional options (parse.id3v2.max_frames,
// parse.mp4.max_depth); there is one value per process, matching the
// cache package's global-by-design configuration knobs. Only MaxID3Frames
// is consulted by a parser (internal/id3); the m4a parser walks fixed atom
// paths and reads neither MP4MaxDepth nor MP4MaxAtomCount.
package limits

import "sync/atomic"

var (
	maxID3Frames atomic.Int64
	mp4MaxDepth  atomic.Int64
)

func init() {
	mp4MaxDepth.Store(16)
}

// SetMaxID3Frames sets the maximum number of ID3v2 frames a tag may
// contain before parsing aborts with a malformed-tag warning. 0 means
// unlimited.
func SetMaxID3Frames(n int) { maxID3Frames.Store(int64(n)) }

// MaxID3Frames returns the configured limit (0 = unlimited).
func MaxID3Frames() int { return int(maxID3Frames.Load()) }

// SetMP4MaxDepth sets the maximum MP4/M4A atom recursion depth.
func SetMP4MaxDepth(n int) {
	if n <= 0 {
		n = 16
	}
	mp4MaxDepth.Store(int64(n))
}

// MP4MaxDepth returns the configured recursion depth limit.
func MP4MaxDepth() int { return int(mp4MaxDepth.Load()) }

// MP4MaxAtomCount is a per-file bound of 4096 atoms. internal/m4a does not
// consult it, so its sibling scans are not capped by count.
const MP4MaxAtomCount = 4096
