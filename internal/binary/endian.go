package binary

import "encoding/binary"

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian uses big-endian byte order: MP4/M4A, MP3 ID3v2, network protocols.
	BigEndian Endianness = iota
	// LittleEndian uses little-endian byte order: FLAC/Ogg Vorbis comments, WAV.
	LittleEndian
)

// ReadLE reads a little-endian value of type T — FLAC and Ogg Vorbis comment
// length/count fields use this byte order.
func ReadLE[T word](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, LittleEndian)
}

// ReadBE reads a big-endian value of type T. Equivalent to Read, spelled out
// explicitly where a call site sits next to ReadLE calls for the same format.
func ReadBE[T word](sr *SafeReader, off int64, what string) (T, error) {
	return ReadEndian[T](sr, off, what, BigEndian)
}

// ReadEndian is the byte-order-parameterized primitive behind Read, ReadLE
// and ReadBE.
func ReadEndian[T word](sr *SafeReader, off int64, what string, endian Endianness) (T, error) {
	var zero T
	buf := make([]byte, widthOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		return zero, err
	}

	if endian == BigEndian {
		return decodeBigEndian[T](buf), nil
	}

	switch any(zero).(type) {
	case uint8:
		return T(buf[0]), nil
	case uint16:
		return T(binary.LittleEndian.Uint16(buf)), nil
	case uint32:
		return T(binary.LittleEndian.Uint32(buf)), nil
	default: // uint64
		return T(binary.LittleEndian.Uint64(buf)), nil
	}
}
