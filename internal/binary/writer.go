// Package binary also provides type-safe binary writing primitives with
// offset tracking, used by the format writers (internal/flacwriter,
// internal/oggwriter, internal/mp3writer) to rebuild tag blocks in place.
package binary

import (
	"encoding/binary"
	"io"
)

// SafeWriter wraps io.Writer with position tracking.
type SafeWriter struct {
	w      io.Writer
	offset int64
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{w: w}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 { return sw.offset }

// WriteBytes writes raw bytes to the underlying writer.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	return err
}

// WriteString writes a string as bytes to the underlying writer.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

func encode[T word](val T, endian Endianness) []byte {
	switch v := any(val).(type) {
	case uint8:
		return []byte{v}
	case uint16:
		buf := make([]byte, 2)
		if endian == LittleEndian {
			binary.LittleEndian.PutUint16(buf, v)
		} else {
			binary.BigEndian.PutUint16(buf, v)
		}
		return buf
	case uint32:
		buf := make([]byte, 4)
		if endian == LittleEndian {
			binary.LittleEndian.PutUint32(buf, v)
		} else {
			binary.BigEndian.PutUint32(buf, v)
		}
		return buf
	default: // uint64
		buf := make([]byte, 8)
		v64 := v.(uint64) //nolint:forcetypeassert // word is constrained to these four widths
		if endian == LittleEndian {
			binary.LittleEndian.PutUint64(buf, v64)
		} else {
			binary.BigEndian.PutUint64(buf, v64)
		}
		return buf
	}
}

// Write writes a value of type T in big-endian byte order (the MP4/FLAC
// block-header convention).
func Write[T word](sw *SafeWriter, val T) error {
	return sw.WriteBytes(encode(val, BigEndian))
}

// WriteLE writes a value of type T in little-endian byte order (the Vorbis
// comment / Ogg framing convention).
func WriteLE[T word](sw *SafeWriter, val T) error {
	return sw.WriteBytes(encode(val, LittleEndian))
}
