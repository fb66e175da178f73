package audiometa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutOfBoundsError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OutOfBoundsError
		contains []string
	}{
		{
			name: "offset beyond file size",
			err: &OutOfBoundsError{
				Path:   "test.m4b",
				Offset: 1000,
				Length: 4,
				Size:   500,
				What:   "ftyp atom",
			},
			contains: []string{"test.m4b", "offset 1000 out of bounds", "file size: 500", "ftyp atom"},
		},
		{
			name: "read would exceed file size",
			err: &OutOfBoundsError{
				Path:   "audio.m4a",
				Offset: 100,
				Length: 50,
				Size:   120,
				What:   "atom header",
			},
			contains: []string{"audio.m4a", "read of 50 bytes", "offset 100", "exceed file size 120", "atom header"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, substr := range tt.contains {
				assert.Contains(t, msg, substr)
			}
		})
	}
}

func TestUnsupportedFormatError_Error(t *testing.T) {
	err := &UnsupportedFormatError{
		Path:   "test.mp3",
		Reason: "not an M4B/M4A file",
	}

	msg := err.Error()
	assert.Contains(t, msg, "test.mp3")
	assert.Contains(t, msg, "not an M4B/M4A file")
	assert.Contains(t, msg, "unsupported format")
}

func TestCorruptedFileError_Error(t *testing.T) {
	err := &CorruptedFileError{
		Path:   "broken.m4b",
		Offset: 256,
		Reason: "invalid atom size",
	}

	msg := err.Error()
	assert.Contains(t, msg, "broken.m4b")
	assert.Contains(t, msg, "offset 256")
	assert.Contains(t, msg, "invalid atom size")
	assert.Contains(t, msg, "corrupted file")
}
