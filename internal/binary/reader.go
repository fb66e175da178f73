// Package binary provides type-safe binary reading primitives with bounds
// checking, shared by every format parser that walks a fixed binary layout
// (MP4 atoms, FLAC blocks, ID3v2 frames, Ogg pages).
package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SafeReader wraps io.ReaderAt with bounds checking and helpful error messages.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{r: r, size: size, path: path}
}

// Path returns the file path associated with this reader.
func (sr *SafeReader) Path() string { return sr.path }

// ReadAt reads bytes at the given offset with context for error messages.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off >= sr.size {
		return fmt.Errorf("%s: offset %d out of bounds (file size: %d) while reading %s",
			sr.path, off, sr.size, what)
	}
	if off+int64(len(b)) > sr.size {
		return fmt.Errorf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
			sr.path, len(b), off, sr.size, what)
	}

	n, err := sr.r.ReadAt(b, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.path, what, off, err)
	}
	if n < len(b) {
		return fmt.Errorf("%s: short read for %s at offset %d: got %d bytes, expected %d",
			sr.path, what, off, n, len(b))
	}
	return nil
}

// word is the set of unsigned integer widths Read/ReadValue support.
type word interface {
	uint8 | uint16 | uint32 | uint64
}

// widthOf returns the byte width of a word type without a reflect call,
// letting Read and the sequential Reader below share one size table instead
// of each re-deriving it from a type switch.
func widthOf[T word]() int64 {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default: // uint64
		return 8
	}
}

func decodeBigEndian[T word](buf []byte) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(binary.BigEndian.Uint16(buf))
	case uint32:
		return T(binary.BigEndian.Uint32(buf))
	default: // uint64
		return T(binary.BigEndian.Uint64(buf))
	}
}

// Read decodes a big-endian value of type T (the MP4/FLAC/ID3 box-field
// convention) from the given offset.
func Read[T word](sr *SafeReader, off int64, what string) (T, error) {
	var zero T
	buf := make([]byte, widthOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		return zero, err
	}
	return decodeBigEndian[T](buf), nil
}

// Reader provides sequential reading with automatic offset tracking on top
// of a SafeReader.
type Reader struct {
	*SafeReader
	offset int64
}

// NewReader creates a new Reader starting at the given offset.
func NewReader(sr *SafeReader, offset int64) *Reader {
	return &Reader{SafeReader: sr, offset: offset}
}

// ReadValue reads a numeric value and advances the offset by its width.
func ReadValue[T word](r *Reader, what string) (T, error) {
	val, err := Read[T](r.SafeReader, r.offset, what)
	if err != nil {
		var zero T
		return zero, err
	}
	r.offset += widthOf[T]()
	return val, nil
}

// ReadString reads a string of the given length and advances the offset.
func (r *Reader) ReadString(length int, what string) (string, error) {
	buf := make([]byte, length)
	if err := r.SafeReader.ReadAt(buf, r.offset, what); err != nil {
		return "", err
	}
	r.offset += int64(length)
	return string(buf), nil
}

// Skip advances the offset by n bytes.
func (r *Reader) Skip(n int64) { r.offset += n }

// Offset returns the current offset.
func (r *Reader) Offset() int64 { return r.offset }

// ChainReader runs a sequence of reads against a Reader, short-circuiting
// once any one of them fails so callers can omit per-field "if err != nil".
type ChainReader struct {
	*Reader
	err error
}

// NewChainReader creates a new ChainReader.
func NewChainReader(r *Reader) *ChainReader { return &ChainReader{Reader: r} }

// ReadChained reads a value, recording the first error and returning the
// zero value for every read attempted after it.
func ReadChained[T word](cr *ChainReader, what string) T {
	var zero T
	if cr.err != nil {
		return zero
	}
	val, err := ReadValue[T](cr.Reader, what)
	if err != nil {
		cr.err = err
		return zero
	}
	return val
}

// String reads a string, accumulating any error the same way ReadChained does.
func (cr *ChainReader) String(length int, what string) string {
	if cr.err != nil {
		return ""
	}
	val, err := cr.Reader.ReadString(length, what)
	if err != nil {
		cr.err = err
		return ""
	}
	return val
}

// Error returns the first error encountered by this chain, if any.
func (cr *ChainReader) Error() error { return cr.err }
