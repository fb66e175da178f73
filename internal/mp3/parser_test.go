package mp3

import (
	"os"
	"testing"

	"github.com/wrnbx/audiometa/internal/types"
)

func TestParse_ValidMP3(t *testing.T) {
	// Create a minimal valid MP3 with ID3v2 tag
	data := createMinimalMP3WithID3()

	tmpFile, err := os.CreateTemp("", "test*.mp3")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.Write(data)
	tmpFile.Close()

	// Open file for parsing
	f, err := os.Open(tmpFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}

	// Parse the file
	p := &parser{}
	file, err := p.Parse(f, stat.Size(), tmpFile.Name())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.Format != types.FormatMP3 {
		t.Errorf("expected FormatMP3, got %v", file.Format)
	}

	if file.Size == 0 {
		t.Error("expected non-zero file size")
	}

	if file.Tags.Title != "Test Title" {
		t.Errorf("expected title 'Test Title', got %q", file.Tags.Title)
	}

	if file.Audio.Codec != "MP3" {
		t.Errorf("expected codec MP3, got %s", file.Audio.Codec)
	}
}

func TestParse_FileNotFound(t *testing.T) {
	_, err := os.Open("/nonexistent/path.mp3")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestParse_EmptyFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "test*.mp3")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	f, err := os.Open(tmpFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}

	p := &parser{}
	file, err := p.Parse(f, stat.Size(), tmpFile.Name())
	// Empty file doesn't necessarily error - it just returns minimal metadata with warnings
	if err != nil {
		return
	}
	if file != nil && len(file.Warnings) == 0 {
		t.Error("expected warnings for empty file")
	}
}

// createMinimalMP3WithID3 creates a minimal MP3 file with an ID3v2.3 tag
// and a single MPEG1 Layer III frame.
func createMinimalMP3WithID3() []byte {
	data := make([]byte, 0, 1024)

	// ID3v2.3 header (10 bytes)
	data = append(data, []byte{
		'I', 'D', '3', // ID3 magic
		0x03, 0x00, // Version 2.3.0
		0x00,                   // Flags
		0x00, 0x00, 0x00, 0x15, // Size (synchsafe) = 21 bytes
	}...)

	// TIT2 frame (Title)
	data = append(data, []byte{
		'T', 'I', 'T', '2', // Frame ID
		0x00, 0x00, 0x00, 0x0B, // Size = 11 bytes
		0x00, 0x00, // Flags
		0x00,                                             // Encoding (ISO-8859-1)
		'T', 'e', 's', 't', ' ', 'T', 'i', 't', 'l', 'e', // Text
	}...)

	// Padding to match declared size
	for len(data) < 31 { // 10 (header) + 21 (declared size)
		data = append(data, 0)
	}

	// Minimal MP3 frame: MPEG1 Layer III, 128 kbps, 44.1 kHz, stereo
	data = append(data, []byte{
		0xFF, 0xFB, // Frame sync + version (MPEG1) + layer (III)
		0x90, 0x00, // Bitrate index (128kbps) + sample rate (44.1kHz) + padding
		0x00, 0x00, 0x00, 0x00,
	}...)

	return data
}
