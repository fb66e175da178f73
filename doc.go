// Package audiometa provides format-agnostic audio metadata extraction and
// writing for MP3 (ID3v1/ID3v2.2/2.3/2.4), FLAC, Ogg Vorbis/Opus, and
// MP4/M4A/M4B.
//
// # Quick Start
//
// Reading metadata from an audio file:
//
//	file, err := audiometa.Open("song.flac")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer file.Close()
//
//	fmt.Printf("%s - %s\n", file.Tags.Artist, file.Tags.Title)
//	fmt.Printf("Duration: %s\n", file.Audio.Duration)
//
// # Supported Formats
//
//   - MP3: ID3v1 and ID3v2.2/2.3/2.4 tags, frame-accurate technical info
//   - FLAC: STREAMINFO/VORBIS_COMMENT/PICTURE/CUESHEET metadata blocks
//   - Ogg Vorbis and Opus: page-demuxed Vorbis comments and pictures
//   - MP4/M4A/M4B: iTunes `ilst` atoms, audiobook tags, and chapters
//
// Reading is supported for all four; writing tags back to the file is
// supported for MP3, FLAC, and Ogg Vorbis via file.Save()/SaveAs().
//
// # Design
//
//   - Lazy loading: Open() reads only metadata; artwork is read on the
//     first ExtractArtwork() call and cached afterward.
//   - Graceful degradation: a corrupted file returns partial data plus
//     File.Warnings rather than failing outright, unless WithStrictParsing
//     is set.
//   - A lossless raw view: file.RawTags() exposes every tag exactly as its
//     container stored it (frame ID, Vorbis key, or atom code), alongside
//     file.Tags' mapped convenience fields.
//
// # Architecture
//
//	[File]           - Entry point with Open()
//	  ├─ [Tags]      - Mapped fields + Tags.Raw (format-native TagSet)
//	  ├─ [AudioInfo] - Technical properties
//	  └─ [Artwork]   - Embedded images (lazy loaded)
//
// Each format package implements registry.FormatParser (and, where
// supported, registry.ArtworkExtractor / registry.FormatWriter) and
// self-registers via init(), so adding a format doesn't touch this
// package's public API.
//
// # Advanced Usage
//
// Extract artwork:
//
//	artwork, err := file.ExtractArtwork()
//	if err == nil && len(artwork) > 0 {
//		os.WriteFile("cover.jpg", artwork[0].Data, 0644)
//	}
//
// Parse multiple files concurrently, deduplicating identical files by
// (size, hash of the first 64 KiB):
//
//	ctx := context.Background()
//	files, err := audiometa.OpenMany(ctx, paths...)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer func() {
//		for _, f := range files {
//			f.Close()
//		}
//	}()
//
// Iterate over every raw tag, including ones with no mapped field:
//
//	for key, values := range file.RawTags().All() {
//		fmt.Printf("%s: %v\n", key, values)
//	}
//
// # Error Handling
//
// Fatal errors (file not found, unsupported format, or — under
// WithStrictParsing — the first warning) come back from Open() as an
// error. Everything else that goes wrong during parsing becomes a
// File.Warning and parsing continues with whatever was recovered:
//
//	if len(file.Warnings) > 0 {
//		for _, w := range file.Warnings {
//			log.Printf("warning: %s", w)
//		}
//	}
package audiometa
