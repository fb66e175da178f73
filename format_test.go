package audiometa

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createMockM4B creates a minimal valid M4B/M4A file header.
func createMockM4B(brand string) []byte {
	buf := &bytes.Buffer{}

	// ftyp atom size (28 bytes)
	binary.Write(buf, binary.BigEndian, uint32(28))
	// ftyp atom type
	buf.WriteString("ftyp")
	// major brand
	buf.WriteString(brand)
	// minor version
	binary.Write(buf, binary.BigEndian, uint32(0))
	// compatible brands (just repeat the brand)
	buf.WriteString(brand)
	buf.WriteString(brand)

	return buf.Bytes()
}

// createInvalidFile creates a file with invalid ftyp.
func createInvalidFile() []byte {
	buf := &bytes.Buffer{}
	// Invalid atom size
	binary.Write(buf, binary.BigEndian, uint32(8))
	// Wrong type
	buf.WriteString("XXXX")
	return buf.Bytes()
}

func TestDetectFormat_M4B(t *testing.T) {
	data := createMockM4B("M4B ")

	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.m4b")
	require.NoError(t, err)
	assert.Equal(t, FormatM4B, format)
}

func TestDetectFormat_M4A(t *testing.T) {
	data := createMockM4B("M4A ")

	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.m4a")
	require.NoError(t, err)
	assert.Equal(t, FormatM4A, format)
}

func TestDetectFormat_MP42(t *testing.T) {
	// mp42 is also valid M4A
	data := createMockM4B("mp42")

	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.m4a")
	require.NoError(t, err)
	assert.Equal(t, FormatM4A, format, "mp42 should detect as M4A")
}

func TestDetectFormat_TooSmall(t *testing.T) {
	// File too small to contain ftyp
	data := []byte{0x00, 0x00}

	_, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "tiny.m4b")
	require.Error(t, err)

	var unsupportedErr *UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupportedErr)
}

func TestDetectFormat_InvalidFtyp(t *testing.T) {
	data := createInvalidFile()

	_, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "invalid.m4b")
	require.Error(t, err)

	var unsupportedErr *UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupportedErr)
}

func TestDetectFormat_UnsupportedBrand(t *testing.T) {
	// Create file with unsupported brand
	data := createMockM4B("XXXX")

	_, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "unsupported.mp4")
	require.Error(t, err)

	var unsupportedErr *UnsupportedFormatError
	assert.ErrorAs(t, err, &unsupportedErr)
}

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format   Format
		expected string
	}{
		{FormatFLAC, "FLAC"},
		{FormatMP3, "MP3"},
		{FormatM4A, "M4A"},
		{FormatM4B, "M4B"},
		{FormatOgg, "Ogg Vorbis"},
		{FormatOpus, "Opus"},
		{FormatWAV, "WAV"},
		{FormatAIFF, "AIFF"},
		{FormatUnknown, "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.format.String())
	}
}

func TestFormat_Extensions(t *testing.T) {
	tests := []struct {
		format Format
		want   []string
	}{
		{FormatFLAC, []string{".flac"}},
		{FormatMP3, []string{".mp3"}},
		{FormatM4A, []string{".m4a", ".mp4", ".m4p"}},
		{FormatM4B, []string{".m4b"}},
		{FormatOgg, []string{".ogg", ".oga"}},
		{FormatOpus, []string{".opus"}},
		{FormatWAV, []string{".wav"}},
		{FormatAIFF, []string{".aiff", ".aif"}},
		{FormatUnknown, nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.format.Extensions())
	}
}

func TestDetectFormat_FLAC(t *testing.T) {
	// FLAC magic bytes: "fLaC"
	data := []byte("fLaC")
	data = append(data, make([]byte, 100)...) // Add some padding

	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.flac")
	require.NoError(t, err)
	assert.Equal(t, FormatFLAC, format)
}

func TestDetectFormat_MP3_WithID3(t *testing.T) {
	// MP3 with ID3v2 tag
	data := []byte("ID3")
	data = append(data, make([]byte, 100)...) // Add some padding

	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.mp3")
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, format)
}

func TestDetectFormat_MP3_WithoutID3(t *testing.T) {
	// MP3 frame sync: 0xFF 0xFB (common MP3 header)
	data := []byte{0xFF, 0xFB, 0x00, 0x00}
	data = append(data, make([]byte, 100)...) // Add some padding

	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.mp3")
	require.NoError(t, err)
	assert.Equal(t, FormatMP3, format)
}

func TestDetectFormat_Ogg(t *testing.T) {
	// Ogg magic bytes: "OggS"
	data := []byte("OggS")
	data = append(data, make([]byte, 100)...) // Add some padding

	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.ogg")
	require.NoError(t, err)
	assert.Equal(t, FormatOgg, format)
}

func TestDetectFormat_WAV(t *testing.T) {
	// WAV header: RIFF....WAVE
	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(100)) // File size
	buf.WriteString("WAVE")
	buf.Write(make([]byte, 100)) // More data

	data := buf.Bytes()
	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.wav")
	require.NoError(t, err)
	assert.Equal(t, FormatWAV, format)
}

func TestDetectFormat_AIFF(t *testing.T) {
	// AIFF header: FORM....AIFF
	buf := &bytes.Buffer{}
	buf.WriteString("FORM")
	binary.Write(buf, binary.BigEndian, uint32(100)) // File size
	buf.WriteString("AIFF")
	buf.Write(make([]byte, 100)) // More data

	data := buf.Bytes()
	format, err := DetectFormat(bytes.NewReader(data), int64(len(data)), "test.aiff")
	require.NoError(t, err)
	assert.Equal(t, FormatAIFF, format)
}
