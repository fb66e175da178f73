// Package cache implements the library's multi-tier caching substrate:
// a sharded file-data cache (raw bytes by path+size+mtime), a sharded
// result cache (parsed *types.File by path+size+mtime), and a batch-only
// fingerprint cache (content hash via xxhash) used to deduplicate
// identical files within a single OpenMany call. All three tiers share
// the same sharded-lock design, grounded on the registry package's
// package-level singleton pattern.
package cache

import (
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/wrnbx/audiometa/internal/types"
)

const shardCount = 16

// key identifies a file by path plus the (size, mtime) pair that the
// dispatcher invalidates the cache entry on, per spec's cache-key design.
type key struct {
	path  string
	size  int64
	mtime int64
}

type shard[V any] struct {
	mu      sync.RWMutex
	entries map[key]V
	order   []key // approximate LRU order, oldest first
	limit   int
}

func shardIndex(k key) uint64 {
	return xxhash.Sum64String(k.path) % shardCount
}

func newShard[V any](limit int) *shard[V] {
	return &shard[V]{entries: make(map[key]V), limit: limit}
}

func (s *shard[V]) get(k key) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[k]
	return v, ok
}

func (s *shard[V]) put(k key, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[k]; !exists {
		s.order = append(s.order, k)
	}
	s.entries[k] = v
	if s.limit > 0 {
		for len(s.entries) > s.limit && len(s.order) > 0 {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.entries, oldest)
		}
	}
}

func (s *shard[V]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[key]V)
	s.order = nil
}

type fileDataCache struct {
	shards     [shardCount]*shard[[]byte]
	maxBytes   int64
	usedBytes  int64
	usedMu     sync.Mutex
}

type resultCache struct {
	shards      [shardCount]*shard[*types.File]
	maxEntries  int
}

var (
	fileCache = newFileDataCache(64 * 1024 * 1024) // cache.file.bytes default: 64MiB
	resCache  = newResultCache(1024)                // cache.result.entries default
)

func newFileDataCache(maxBytes int64) *fileDataCache {
	c := &fileDataCache{maxBytes: maxBytes}
	for i := range c.shards {
		c.shards[i] = newShard[[]byte](0) // byte-budget enforced globally, not per-shard count
	}
	return c
}

func newResultCache(maxEntries int) *resultCache {
	c := &resultCache{maxEntries: maxEntries}
	perShard := maxEntries / shardCount
	if perShard < 1 {
		perShard = 1
	}
	for i := range c.shards {
		c.shards[i] = newShard[*types.File](perShard)
	}
	return c
}

// SetFileCacheBytes reconfigures the file-data cache's byte budget
// (cache.file.bytes) and clears existing entries.
func SetFileCacheBytes(n int64) {
	fileCache = newFileDataCache(n)
}

// SetResultCacheEntries reconfigures the result cache's entry budget
// (cache.result.entries) and clears existing entries.
func SetResultCacheEntries(n int) {
	resCache = newResultCache(n)
}

// GetFileData returns cached raw bytes for path if present and still fresh
// for the given (size, mtime) pair.
func GetFileData(path string, size int64, mtime time.Time) ([]byte, bool) {
	k := key{path: path, size: size, mtime: mtime.UnixNano()}
	s := fileCache.shards[shardIndex(k)]
	return s.get(k)
}

// PutFileData stores raw file bytes in the file-data cache, subject to
// the configured byte budget (oldest entries evicted first, across all
// shards combined).
func PutFileData(path string, size int64, mtime time.Time, data []byte) {
	if fileCache.maxBytes <= 0 {
		return
	}
	k := key{path: path, size: size, mtime: mtime.UnixNano()}
	s := fileCache.shards[shardIndex(k)]

	fileCache.usedMu.Lock()
	fileCache.usedBytes += int64(len(data))
	over := fileCache.usedBytes > fileCache.maxBytes
	fileCache.usedMu.Unlock()

	s.put(k, data)

	if over {
		// Simple global reclaim: drop the oldest entry from each shard in
		// turn until back under budget. Approximate LRU is sufficient here;
		// exactness isn't a spec invariant, only the bound is.
		reclaimFileCache()
	}
}

func reclaimFileCache() {
	for fileCache.usedBytes > fileCache.maxBytes {
		freed := false
		for _, s := range fileCache.shards {
			s.mu.Lock()
			if len(s.order) > 0 {
				oldest := s.order[0]
				s.order = s.order[1:]
				if data, ok := s.entries[oldest]; ok {
					delete(s.entries, oldest)
					fileCache.usedMu.Lock()
					fileCache.usedBytes -= int64(len(data))
					fileCache.usedMu.Unlock()
					freed = true
				}
			}
			s.mu.Unlock()
		}
		if !freed {
			break
		}
	}
}

// GetResult returns a cached parsed File for path if present and fresh.
func GetResult(path string, size int64, mtime time.Time) *types.File {
	k := key{path: path, size: size, mtime: mtime.UnixNano()}
	s := resCache.shards[shardIndex(k)]
	v, ok := s.get(k)
	if !ok {
		return nil
	}
	return v
}

// PutResult stores a parsed File in the result cache.
func PutResult(path string, size int64, mtime time.Time, file *types.File) {
	if resCache.maxEntries <= 0 {
		return
	}
	k := key{path: path, size: size, mtime: mtime.UnixNano()}
	s := resCache.shards[shardIndex(k)]
	cloned := *file
	cloned.Reader_ = nil
	s.put(k, &cloned)
}

// ClearAll clears every cache tier. Exposed publicly via
// audiometa.ClearCache(), matching the spec's "clear_cache()" design note.
func ClearAll() {
	for _, s := range fileCache.shards {
		s.clear()
	}
	fileCache.usedMu.Lock()
	fileCache.usedBytes = 0
	fileCache.usedMu.Unlock()
	for _, s := range resCache.shards {
		s.clear()
	}
}

// FingerprintGroup is a set of input paths that share identical content,
// determined by a leading-chunk xxhash fingerprint plus file size.
type FingerprintGroup struct {
	Paths   []string
	Indices []int
}

// GroupByFingerprint stats every path and groups those with identical
// (size, leading 64KiB xxhash) so OpenMany parses each distinct file
// exactly once. Paths that can't be stat'd or read form singleton groups
// so the eventual Open() call surfaces the real error.
func GroupByFingerprint(paths []string) []FingerprintGroup {
	type fpKey struct {
		size int64
		sum  uint64
	}

	groups := make(map[fpKey]*FingerprintGroup)
	var order []fpKey
	var singles []FingerprintGroup

	for i, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			singles = append(singles, FingerprintGroup{Paths: []string{path}, Indices: []int{i}})
			continue
		}

		info, err := f.Stat()
		if err != nil {
			f.Close() //nolint:errcheck // best-effort close on error path
			singles = append(singles, FingerprintGroup{Paths: []string{path}, Indices: []int{i}})
			continue
		}

		buf := make([]byte, 64*1024)
		n, _ := f.Read(buf)
		f.Close() //nolint:errcheck // best-effort close, data already read

		fk := fpKey{size: info.Size(), sum: xxhash.Sum64(buf[:n])}
		if g, ok := groups[fk]; ok {
			g.Paths = append(g.Paths, path)
			g.Indices = append(g.Indices, i)
			continue
		}
		g := &FingerprintGroup{Paths: []string{path}, Indices: []int{i}}
		groups[fk] = g
		order = append(order, fk)
	}

	result := make([]FingerprintGroup, 0, len(order)+len(singles))
	for _, fk := range order {
		result = append(result, *groups[fk])
	}
	result = append(result, singles...)
	return result
}
