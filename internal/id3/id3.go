// Package id3 parses ID3v1 trailers and ID3v2.2/2.3/2.4 tags.
//
// Frames are indexed eagerly (id, flags, raw payload, version) at parse
// time, copying bytes only. The same parse then decodes every text, TXXX
// and COMM frame in the index into Tags and the raw TagSet; APIC/PIC
// picture payloads are decoded only when ExtractArtwork runs.
package id3

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	binutil "github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/limits"
	"github.com/wrnbx/audiometa/internal/types"
)

// Header describes a parsed ID3v2 tag header.
type Header struct {
	Version  byte // 2, 3, or 4
	Revision byte
	Flags    byte
	Size     uint32 // tag size excluding the 10-byte header, always synchsafe
}

// unsynchronisation is bit 7; extended header is bit 6 (v3/v4 only).
func (h Header) unsynchronised() bool { return h.Flags&0x80 != 0 }
func (h Header) hasExtendedHeader() bool { return h.Version >= 3 && h.Flags&0x40 != 0 }

// Frame is a single ID3v2 frame: its ID, flags and raw payload.
type Frame struct {
	ID    string
	Flags uint16
	Data  []byte
}

// decodeSynchsafe decodes a 4-byte synchsafe (7 bits per byte) integer.
func decodeSynchsafe(b []byte) uint32 {
	return uint32(b[0]&0x7F)<<21 | uint32(b[1]&0x7F)<<14 | uint32(b[2]&0x7F)<<7 | uint32(b[3]&0x7F)
}

// ParseHeader reads and validates the 10-byte ID3v2 header at offset 0.
func ParseHeader(sr *binutil.SafeReader) (Header, error) {
	buf := make([]byte, 10)
	if err := sr.ReadAt(buf, 0, "ID3v2 header"); err != nil {
		return Header{}, fmt.Errorf("read ID3v2 header: %w", err)
	}
	if string(buf[0:3]) != "ID3" {
		return Header{}, fmt.Errorf("not an ID3v2 tag")
	}
	h := Header{
		Version:  buf[3],
		Revision: buf[4],
		Flags:    buf[5],
		Size:     decodeSynchsafe(buf[6:10]),
	}
	if h.Version < 2 || h.Version > 4 {
		return Header{}, fmt.Errorf("unsupported ID3v2 version: 2.%d", h.Version)
	}
	return h, nil
}

// idFieldWidth returns the frame-ID width in bytes: 3 for ID3v2.2, 4 otherwise.
func idFieldWidth(version byte) int {
	if version == 2 {
		return 3
	}
	return 4
}

// frameHeaderWidth returns the frame header's total size in bytes
// (id width + size width + flags width, flags absent in v2.2).
func frameHeaderWidth(version byte) int {
	if version == 2 {
		return 6 // 3 (id) + 3 (size)
	}
	return 10 // 4 (id) + 4 (size) + 2 (flags)
}

func decodeFrameSize(version byte, b []byte) uint32 {
	if version == 2 {
		return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}
	if version == 4 {
		return decodeSynchsafe(b)
	}
	return binary.BigEndian.Uint32(b) // v2.3: raw big-endian
}

// removeUnsynchronisation strips the 0x00 stuffing byte that ID3v2
// inserts after every 0xFF byte when the unsynchronisation flag is set.
func removeUnsynchronisation(data []byte) []byte {
	if !bytes.Contains(data, []byte{0xFF, 0x00}) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		out = append(out, data[i])
		if data[i] == 0xFF && i+1 < len(data) && data[i+1] == 0x00 {
			i++
		}
	}
	return out
}

// readFrames walks the frame region [start, tagEnd) and returns the raw
// frame index.
func readFrames(sr *binutil.SafeReader, h Header, start, tagEnd int64) ([]Frame, error) {
	idWidth := idFieldWidth(h.Version)
	headerWidth := frameHeaderWidth(h.Version)

	var frames []Frame
	offset := start
	count := 0
	for offset < tagEnd {
		if limits.MaxID3Frames() > 0 && count >= limits.MaxID3Frames() {
			return frames, fmt.Errorf("exceeded max ID3v2 frame count (%d)", limits.MaxID3Frames())
		}

		hdrBuf := make([]byte, headerWidth)
		if err := sr.ReadAt(hdrBuf, offset, "frame header"); err != nil {
			break
		}
		if hdrBuf[0] == 0 {
			break // padding
		}

		id := string(hdrBuf[:idWidth])
		size := decodeFrameSize(h.Version, hdrBuf[idWidth:idWidth+3+boolToInt(h.Version != 2)])
		var flags uint16
		if h.Version != 2 {
			flags = binary.BigEndian.Uint16(hdrBuf[8:10])
		}

		if int64(size) < 0 || offset+int64(headerWidth)+int64(size) > tagEnd+int64(headerWidth) {
			break
		}

		data := make([]byte, size)
		if size > 0 {
			if err := sr.ReadAt(data, offset+int64(headerWidth), fmt.Sprintf("frame %s data", id)); err != nil {
				break
			}
		}

		if h.Version == 4 && flags&0x02 != 0 { // per-frame unsynchronisation (v2.4)
			data = removeUnsynchronisation(data)
		}

		frames = append(frames, Frame{ID: id, Flags: flags, Data: data})
		offset += int64(headerWidth) + int64(size)
		count++
	}
	return frames, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseV2Into parses the ID3v2 tag (if present) at the start of the file
// and merges mapped fields into file.Tags / file.Chapters. Returns the
// total tag size (header + body) so callers can locate the first MP3 frame.
func ParseV2Into(sr *binutil.SafeReader, file *types.File) (int64, error) { //nolint:gocyclo // header/extended-header/frame walk is inherently branchy
	h, err := ParseHeader(sr)
	if err != nil {
		return 0, err
	}

	frameStart := int64(10)
	if h.hasExtendedHeader() {
		extBuf := make([]byte, 4)
		if err := sr.ReadAt(extBuf, frameStart, "extended header size"); err == nil {
			if h.Version == 4 {
				frameStart += int64(decodeSynchsafe(extBuf))
			} else {
				frameStart += int64(binary.BigEndian.Uint32(extBuf)) + 4
			}
		}
	}

	tagEnd := int64(10) + int64(h.Size)

	// Whole-tag unsynchronisation (applies to the body as a single run for
	// v2.3; v2.4 uses the per-frame flag handled in readFrames instead).
	bodyWholeUnsync := h.unsynchronised() && h.Version == 3

	var frames []Frame
	if bodyWholeUnsync {
		raw := make([]byte, tagEnd-frameStart)
		if err := sr.ReadAt(raw, frameStart, "ID3v2 body"); err != nil {
			return tagEnd, err
		}
		raw = removeUnsynchronisation(raw)
		frames = framesFromBuffer(raw, h)
	} else {
		frames, err = readFrames(sr, h, frameStart, tagEnd)
		if err != nil {
			return tagEnd, err
		}
	}

	var chapFrames []Frame
	for _, f := range frames {
		applyFrame(f, file, h.Version)
		if f.ID == "CHAP" {
			chapFrames = append(chapFrames, f)
		}
	}

	if len(chapFrames) > 0 {
		file.Chapters = parseChapterFrames(chapFrames, h.Version, file.Audio.Duration)
	}

	return tagEnd, nil
}

// ReadFrames parses the ID3v2 header and frame index at the start of the
// file, without applying any frame to a Tags value. Used by the MP3 writer
// to rebuild a tag body while preserving unmapped frames verbatim.
//
// Returns the header, the raw frame list in file order, and the total tag
// size (header + body) so the caller can locate the first audio frame.
func ReadFrames(sr *binutil.SafeReader) (Header, []Frame, int64, error) {
	h, err := ParseHeader(sr)
	if err != nil {
		return Header{}, nil, 0, err
	}

	frameStart := int64(10)
	if h.hasExtendedHeader() {
		extBuf := make([]byte, 4)
		if err := sr.ReadAt(extBuf, frameStart, "extended header size"); err == nil {
			if h.Version == 4 {
				frameStart += int64(decodeSynchsafe(extBuf))
			} else {
				frameStart += int64(binary.BigEndian.Uint32(extBuf)) + 4
			}
		}
	}

	tagEnd := int64(10) + int64(h.Size)

	if h.unsynchronised() && h.Version == 3 {
		raw := make([]byte, tagEnd-frameStart)
		if err := sr.ReadAt(raw, frameStart, "ID3v2 body"); err != nil {
			return h, nil, tagEnd, err
		}
		raw = removeUnsynchronisation(raw)
		return h, framesFromBuffer(raw, h), tagEnd, nil
	}

	frames, err := readFrames(sr, h, frameStart, tagEnd)
	return h, frames, tagEnd, err
}

// NormalizeFrameID maps an ID3v2.2 3-character frame ID to its 2.3/2.4
// equivalent; a no-op for versions 3 and 4.
func NormalizeFrameID(id string, version byte) string {
	return normalizeFrameID(id, version)
}

// EncodeSynchsafe encodes n as a 4-byte synchsafe (7 bits per byte) integer.
func EncodeSynchsafe(n uint32) [4]byte {
	return [4]byte{
		byte(n>>21) & 0x7F,
		byte(n>>14) & 0x7F,
		byte(n>>7) & 0x7F,
		byte(n) & 0x7F,
	}
}

// framesFromBuffer walks an in-memory, already-unsynchronised tag body.
func framesFromBuffer(buf []byte, h Header) []Frame {
	idWidth := idFieldWidth(h.Version)
	headerWidth := frameHeaderWidth(h.Version)

	var frames []Frame
	offset := 0
	for offset+headerWidth <= len(buf) {
		if buf[offset] == 0 {
			break
		}
		id := string(buf[offset : offset+idWidth])
		sizeField := buf[offset+idWidth : offset+idWidth+3+boolToInt(h.Version != 2)]
		size := decodeFrameSize(h.Version, sizeField)
		var flags uint16
		if h.Version != 2 {
			flags = binary.BigEndian.Uint16(buf[offset+8 : offset+10])
		}
		dataStart := offset + headerWidth
		dataEnd := dataStart + int(size)
		if dataEnd > len(buf) {
			break
		}
		frames = append(frames, Frame{ID: id, Flags: flags, Data: buf[dataStart:dataEnd]})
		offset = dataEnd
	}
	return frames
}

// applyFrame decodes one frame, merges it into the Tags/AudioInfo field it
// maps to (if any), and files a text frame into file.Tags.Raw under its
// normalized frame ID so it survives even when no convenience field covers
// it (scenario 1: a bare TIT2 frame must still produce
// TagSet{"TIT2": ["Hello"]}). TXXX and COMM frames are handled by
// applyTXXX and applyComment; APIC/PIC frames reach the TagSet only when
// ExtractArtwork runs, and other non-text frames are not filed.
func applyFrame(f Frame, file *types.File, version byte) { //nolint:gocyclo // one dispatch per known frame family
	id := normalizeFrameID(f.ID, version)

	switch {
	case id == "TXXX":
		applyTXXX(f, file)
	case id == "COMM":
		applyComment(f, file)
	case id == "APIC" || id == "PIC":
		// Binary artwork payload; ExtractArtwork (see artwork.go) decodes it
		// lazily and files the resulting picture under this same id.
	case strings.HasPrefix(id, "T") && len(f.Data) >= 1:
		text := decodeText(f.Data[1:], f.Data[0])
		applyTextFrame(id, text, file)
		file.Tags.AddValue(id, pairOrText(id, text))
	}
}

// pairOrText renders a text frame's raw TagValue: TRCK/TPOS carry "n/total"
// slash notation and decode to a pair value, matching how MP4's trkn/disk
// atoms are represented; every other text frame is stored as text.
func pairOrText(id, text string) types.TagValue {
	switch id {
	case "TRCK", "TPOS":
		number, total := parseTrackNumber(text)
		return types.PairValue(number, total)
	default:
		return types.TextValue(text)
	}
}

// normalizeFrameID maps ID3v2.2's 3-character frame IDs to their 2.3/2.4
// equivalents so a single switch in applyFrame/applyTextFrame covers all
// three tag versions.
func normalizeFrameID(id string, version byte) string {
	if version != 2 {
		return id
	}
	v22ToV23 := map[string]string{
		"TT2": "TIT2", "TP1": "TPE1", "TAL": "TALB", "TYE": "TYER",
		"TRK": "TRCK", "TPA": "TPOS", "TCO": "TCON", "TP2": "TPE2",
		"TCM": "TCOM", "TXX": "TXXX", "COM": "COMM", "PIC": "APIC",
	}
	if mapped, ok := v22ToV23[id]; ok {
		return mapped
	}
	return id
}

func applyTextFrame(id, text string, file *types.File) {
	switch id {
	case "TIT2":
		file.Tags.Title = text
	case "TIT3":
		file.Tags.Subtitle = text
	case "TPE1":
		file.Tags.Artist = text
	case "TALB":
		file.Tags.Album = text
	case "TCON":
		if text != "" {
			file.Tags.Genres = append(file.Tags.Genres, text)
		}
	case "TYER", "TDRC":
		if year := parseYear(text); year > 0 {
			file.Tags.Year = year
		}
	case "TCOM":
		if text != "" {
			file.Tags.Composers = append(file.Tags.Composers, text)
		}
	case "TRCK":
		file.Tags.TrackNumber, file.Tags.TrackTotal = parseTrackNumber(text)
	case "TPOS":
		file.Tags.DiscNumber, file.Tags.DiscTotal = parseTrackNumber(text)
	case "TPE2":
		file.Tags.AlbumArtist = text
	case "TIT1":
		file.Tags.Grouping = text
	case "TPUB":
		file.Tags.Publisher = text
	case "TCOP":
		file.Tags.Copyright = text
	case "TSRC":
		file.Tags.ISRC = text
	}
}

func applyTXXX(f Frame, file *types.File) {
	if len(f.Data) < 2 {
		return
	}
	encoding := f.Data[0]
	data := f.Data[1:]
	nullIdx := findNullTerminator(data, encoding)
	if nullIdx < 0 {
		return
	}
	description := decodeText(data[:nullIdx], encoding)
	value := decodeText(data[nullIdx+terminatorSize(encoding):], encoding)

	switch strings.ToLower(description) {
	case "narrator":
		file.Tags.Narrator = value
	case "series":
		file.Tags.Series = value
	case "series part", "seriespart", "part", "series-part", "series position":
		file.Tags.SeriesPart = value
	case "publisher":
		file.Tags.Publisher = value
	case "isbn":
		file.Tags.ISBN = value
	case "asin":
		file.Tags.ASIN = value
	}
	// TXXX is keyed by its description, not a fixed frame ID, and a tag can
	// legitimately carry several TXXX frames with distinct descriptions —
	// accumulate rather than overwrite.
	file.Tags.Add(strings.ToUpper(description), value)
}

func applyComment(f Frame, file *types.File) {
	if len(f.Data) < 4 {
		return
	}
	encoding := f.Data[0]
	data := f.Data[4:]
	nullIdx := findNullTerminator(data, encoding)
	text := decodeText(data, encoding)
	if nullIdx >= 0 {
		text = decodeText(data[nullIdx+terminatorSize(encoding):], encoding)
	}
	file.Tags.Comment = text
	file.Tags.Add("COMM", text)
}

// decodeText decodes an ID3v2 text payload per its leading encoding byte,
// using golang.org/x/text for the multi-byte/legacy encodings.
func decodeText(data []byte, encoding byte) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	var err error
	switch encoding {
	case 0: // ISO-8859-1
		var out []byte
		out, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		s = string(out)
	case 1: // UTF-16 with BOM
		var out []byte
		out, err = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
		s = string(out)
	case 2: // UTF-16BE without BOM
		var out []byte
		out, err = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		s = string(out)
	case 3: // UTF-8
		s = string(data)
	default:
		var out []byte
		out, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		s = string(out)
	}
	if err != nil {
		s = string(data)
	}
	return strings.TrimRight(s, "\x00")
}

func findNullTerminator(data []byte, encoding byte) int {
	switch encoding {
	case 1, 2:
		for i := 0; i+1 < len(data); i += 2 {
			if data[i] == 0 && data[i+1] == 0 {
				return i
			}
		}
		return -1
	default:
		return bytes.IndexByte(data, 0)
	}
}

func terminatorSize(encoding byte) int {
	if encoding == 1 || encoding == 2 {
		return 2
	}
	return 1
}

func parseYear(text string) int {
	if len(text) >= 4 {
		var year int
		fmt.Sscanf(text[:4], "%d", &year) //nolint:errcheck // best-effort numeric parse
		if year >= 1900 && year <= 2100 {
			return year
		}
	}
	return 0
}

func parseTrackNumber(text string) (number, total int) {
	parts := strings.Split(text, "/")
	if len(parts) >= 1 {
		fmt.Sscanf(parts[0], "%d", &number) //nolint:errcheck // best-effort numeric parse
	}
	if len(parts) >= 2 {
		fmt.Sscanf(parts[1], "%d", &total) //nolint:errcheck // best-effort numeric parse
	}
	return
}

// parseChapterFrames decodes CHAP frames into sorted Chapter values.
func parseChapterFrames(frames []Frame, version byte, _ time.Duration) []types.Chapter {
	type chapterData struct {
		StartTime uint32
		EndTime   uint32
		Title     string
		ElementID string
	}

	var chapters []chapterData
	for _, frame := range frames {
		data := frame.Data
		nullIdx := bytes.IndexByte(data, 0)
		if nullIdx < 0 {
			continue
		}
		elementID := string(data[:nullIdx])
		data = data[nullIdx+1:]
		if len(data) < 16 {
			continue
		}

		startTime := binary.BigEndian.Uint32(data[0:4])
		endTime := binary.BigEndian.Uint32(data[4:8])

		title := elementID
		sub := data[16:]
		idWidth := idFieldWidth(version)
		headerWidth := frameHeaderWidth(version)
		if len(sub) >= headerWidth && normalizeFrameID(string(sub[:idWidth]), version) == "TIT2" {
			size := decodeFrameSize(version, sub[idWidth:idWidth+3+boolToInt(version != 2)])
			if len(sub) >= headerWidth+int(size) && size > 0 {
				titleData := sub[headerWidth : headerWidth+int(size)]
				title = decodeText(titleData[1:], titleData[0])
			}
		}

		chapters = append(chapters, chapterData{StartTime: startTime, EndTime: endTime, Title: title, ElementID: elementID})
	}

	slices.SortFunc(chapters, func(a, b chapterData) int {
		return cmp.Compare(a.StartTime, b.StartTime)
	})

	result := make([]types.Chapter, len(chapters))
	for i, ch := range chapters {
		result[i] = types.Chapter{
			Index:     i + 1,
			Title:     ch.Title,
			StartTime: time.Duration(ch.StartTime) * time.Millisecond,
			EndTime:   time.Duration(ch.EndTime) * time.Millisecond,
		}
	}
	return result
}
