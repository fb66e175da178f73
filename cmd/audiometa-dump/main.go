// Command audiometa-dump is a developer diagnostic tool: given a single
// audio file, it prints the high-level metadata audiometa exposes (tags,
// audio properties, warnings) followed by a low-level dump of the
// underlying container structure — the M4A atom tree, the FLAC metadata
// block chain, the Ogg page sequence, or the ID3v2 frame list, depending
// on the file's detected format.
//
// It exists to answer "what did we actually read from this file, and
// why" during format-support work; it is not a player or tagger.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/wrnbx/audiometa"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: audiometa-dump <file>")
		os.Exit(1)
	}
	path := os.Args[1]

	if err := dumpSummary(path); err != nil {
		fmt.Printf("summary: %v\n", err)
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close() //nolint:errcheck // diagnostic tool, best-effort close

	stat, err := f.Stat()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n--- container structure ---")
	switch detectLowLevelFormat(f, stat.Size()) {
	case lowLevelM4A:
		dumpAtoms(f, 0, stat.Size(), 0)
	case lowLevelFLAC:
		dumpFLACBlocks(f, stat.Size())
	case lowLevelOgg:
		dumpOggPages(f, stat.Size())
	case lowLevelID3:
		dumpID3Frames(f, stat.Size())
	default:
		fmt.Println("(no low-level dumper for this format)")
	}
}

// dumpSummary prints the metadata audiometa.Open exposes through its
// public API: tags, audio properties, and any parse warnings.
func dumpSummary(path string) error {
	file, err := audiometa.Open(path)
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck // diagnostic tool, best-effort close

	fmt.Printf("format:    %s\n", file.Format)
	fmt.Printf("title:     %q\n", file.Tags.Title)
	fmt.Printf("artist:    %q\n", file.Tags.Artist)
	fmt.Printf("album:     %q\n", file.Tags.Album)
	fmt.Printf("duration:  %s\n", file.Audio.Duration)
	fmt.Printf("bitrate:   %d kbps\n", file.Audio.Bitrate/1000)
	fmt.Printf("sample rate: %d Hz\n", file.Audio.SampleRate)
	for _, w := range file.Warnings {
		fmt.Printf("warning:   %s\n", w)
	}
	return nil
}

type lowLevelFormat int

const (
	lowLevelUnknown lowLevelFormat = iota
	lowLevelM4A
	lowLevelFLAC
	lowLevelOgg
	lowLevelID3
)

// detectLowLevelFormat sniffs the same magic bytes the parsers key off
// of, independent of the high-level Format audiometa.Open returns, since
// the tree dumpers below walk raw container bytes rather than going
// through the library's internal packages.
func detectLowLevelFormat(r io.ReaderAt, size int64) lowLevelFormat {
	if size < 12 {
		return lowLevelUnknown
	}
	head := make([]byte, 12)
	if _, err := r.ReadAt(head, 0); err != nil {
		return lowLevelUnknown
	}
	switch {
	case string(head[0:3]) == "ID3":
		return lowLevelID3
	case string(head[0:4]) == "fLaC":
		return lowLevelFLAC
	case string(head[0:4]) == "OggS":
		return lowLevelOgg
	case string(head[4:8]) == "ftyp":
		return lowLevelM4A
	}
	return lowLevelUnknown
}

// --- M4A atom tree ---
//
// Walks the ISO base media file format box chain directly off the
// file's bytes: an 8-byte size+type header (or a 16-byte header when
// size==1 signals a 64-bit extended size follows), recursing into the
// small set of atoms known to contain nested atoms.

func dumpAtoms(r io.ReaderAt, offset, end int64, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	for offset < end {
		header := make([]byte, 8)
		if _, err := r.ReadAt(header, offset); err != nil {
			return
		}

		size := binary.BigEndian.Uint32(header[0:4])
		atomType := string(header[4:8])

		atomSize := uint64(size)
		headerSize := int64(8)
		if size == 1 {
			extSize := make([]byte, 8)
			if _, err := r.ReadAt(extSize, offset+8); err != nil {
				return
			}
			atomSize = binary.BigEndian.Uint64(extSize)
			headerSize = 16
		}

		fmt.Printf("%s%s (size: %d, offset: %d)\n", indent, atomType, atomSize, offset)

		if isContainerAtom(atomType) {
			dataOffset := offset + headerSize
			if atomType == "meta" {
				dataOffset += 4 // version + flags
			}
			dumpAtoms(r, dataOffset, offset+int64(atomSize), depth+1)
		}

		if atomSize == 0 {
			break
		}
		offset += int64(atomSize)
	}
}

func isContainerAtom(atomType string) bool {
	switch atomType {
	case "moov", "trak", "mdia", "minf", "stbl", "udta", "meta", "ilst", "edts":
		return true
	}
	return false
}

// --- FLAC metadata block chain ---
//
// Mirrors internal/flac's block-header decode: a 4-byte header packs the
// last-block bit, a 7-bit block type, and a 24-bit length.

func dumpFLACBlocks(r io.ReaderAt, size int64) {
	const (
		blockTypeStreamInfo    = 0
		blockTypePadding       = 1
		blockTypeApplication   = 2
		blockTypeSeekTable     = 3
		blockTypeVorbisComment = 4
		blockTypeCueSheet      = 5
		blockTypePicture       = 6
	)
	names := map[uint8]string{
		blockTypeStreamInfo:    "STREAMINFO",
		blockTypePadding:       "PADDING",
		blockTypeApplication:   "APPLICATION",
		blockTypeSeekTable:     "SEEKTABLE",
		blockTypeVorbisComment: "VORBIS_COMMENT",
		blockTypeCueSheet:      "CUESHEET",
		blockTypePicture:       "PICTURE",
	}

	offset := int64(4) // skip "fLaC" magic
	for offset < size {
		hdr := make([]byte, 4)
		if _, err := r.ReadAt(hdr, offset); err != nil {
			fmt.Printf("read block header at %d: %v\n", offset, err)
			return
		}
		header := binary.BigEndian.Uint32(hdr)
		isLast := header>>31 == 1
		blockType := uint8((header >> 24) & 0x7F)
		blockLength := int64(header & 0x00FFFFFF)

		name, ok := names[blockType]
		if !ok {
			name = fmt.Sprintf("RESERVED(%d)", blockType)
		}
		fmt.Printf("%s (length: %d, offset: %d, last: %v)\n", name, blockLength, offset, isLast)

		offset += 4 + blockLength
		if isLast {
			break
		}
	}
	fmt.Printf("audio frames start at offset %d\n", offset)
}

// --- Ogg page sequence ---
//
// Mirrors internal/ogg's page header layout: "OggS" magic, version,
// header type flags, granule position, serial/sequence numbers, CRC, and
// a lacing table of segment lengths.

func dumpOggPages(r io.ReaderAt, size int64) {
	offset := int64(0)
	for offset < size {
		hdr := make([]byte, 27)
		if _, err := r.ReadAt(hdr, offset); err != nil {
			fmt.Printf("read page header at %d: %v\n", offset, err)
			return
		}
		if string(hdr[0:4]) != "OggS" {
			fmt.Printf("expected OggS magic at offset %d, stopping\n", offset)
			return
		}

		headerType := hdr[5]
		granule := int64(binary.LittleEndian.Uint64(hdr[6:14]))
		serial := binary.LittleEndian.Uint32(hdr[14:18])
		sequence := binary.LittleEndian.Uint32(hdr[18:22])
		segmentCount := int(hdr[26])

		segTable := make([]byte, segmentCount)
		if _, err := r.ReadAt(segTable, offset+27); err != nil {
			fmt.Printf("read segment table at %d: %v\n", offset+27, err)
			return
		}
		dataLen := 0
		for _, s := range segTable {
			dataLen += int(s)
		}

		fmt.Printf("page seq=%d serial=%d granule=%d type=0x%02x segments=%d data=%d bytes (offset: %d)\n",
			sequence, serial, granule, headerType, segmentCount, dataLen, offset)

		offset += 27 + int64(segmentCount) + int64(dataLen)
	}
}

// --- ID3v2 frame list ---
//
// Mirrors internal/id3's header/frame layout: a 10-byte header with a
// synchsafe tag size, followed by a run of frames whose ID width and
// frame-header width depend on the tag version.

func dumpID3Frames(r io.ReaderAt, size int64) {
	hdr := make([]byte, 10)
	if _, err := r.ReadAt(hdr, 0); err != nil {
		fmt.Printf("read ID3v2 header: %v\n", err)
		return
	}
	version := hdr[3]
	tagSize := decodeSynchsafe(hdr[6:10])
	fmt.Printf("ID3v2.%d tag, size=%d\n", version, tagSize)

	idWidth, hdrWidth := 3, 6
	if version >= 3 {
		idWidth, hdrWidth = 4, 10
	}

	offset := int64(10)
	end := int64(10) + int64(tagSize)
	if end > size {
		end = size
	}
	for offset+int64(hdrWidth) <= end {
		frameHdr := make([]byte, hdrWidth)
		if _, err := r.ReadAt(frameHdr, offset); err != nil {
			return
		}
		id := string(frameHdr[0:idWidth])
		if id[0] == 0 {
			break // padding
		}

		var frameSize uint32
		var flags uint16
		if version >= 3 {
			if version == 4 {
				frameSize = decodeSynchsafe(frameHdr[4:8])
			} else {
				frameSize = binary.BigEndian.Uint32(frameHdr[4:8])
			}
			flags = binary.BigEndian.Uint16(frameHdr[8:10])
		} else {
			frameSize = uint32(frameHdr[3])<<16 | uint32(frameHdr[4])<<8 | uint32(frameHdr[5])
		}

		fmt.Printf("%s (size: %d, flags: 0x%04x, offset: %d)\n", id, frameSize, flags, offset)
		offset += int64(hdrWidth) + int64(frameSize)
	}
}

func decodeSynchsafe(b []byte) uint32 {
	return uint32(b[0]&0x7F)<<21 | uint32(b[1]&0x7F)<<14 | uint32(b[2]&0x7F)<<7 | uint32(b[3]&0x7F)
}
