package m4a

import (
	"strings"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/parsing"
	"github.com/wrnbx/audiometa/internal/types"
)

// parseAudiobookTags extracts narrator, series, publisher, etc. from custom
// "----" atoms, e.g. com.apple.iTunes:Narrator, com.pilabor.m4b:Series.
func parseAudiobookTags(sr *binary.SafeReader, ilstAtom *Atom, file *types.File) error {
	offset := ilstAtom.DataOffset()
	end := offset + int64(ilstAtom.DataSize())

	customTags := make(map[string]string)

	for offset < end {
		atom, err := readAtomHeader(sr, offset)
		if err != nil {
			break
		}

		if atom.Type == "----" {
			if fieldName, value, err := parseCustomAtomWithTags(sr, atom, file); err == nil && fieldName != "" {
				customTags[fieldName] = value
				file.Tags.Add("----:"+fieldName, value)
			}
		}

		offset += int64(atom.Size)
	}

	// Apply fallbacks
	// If no custom Narrator atom, use Composer as fallback
	if file.Tags.Narrator == "" && len(file.Tags.Composers) > 0 {
		file.Tags.Narrator = file.Tags.Composers[0]
	}

	// If no explicit Series atom, try to extract from Grouping tag
	// Grouping often contains series info in formats like "Series Name #5"
	if file.Tags.Series == "" && file.Tags.Grouping != "" {
		series, part := parsing.ParseGrouping(file.Tags.Grouping)
		if series != "" {
			file.Tags.Series = series
			if file.Tags.SeriesPart == "" && part != "" {
				file.Tags.SeriesPart = part
			}
		}
	}

	// If a series is known but no part was found yet, resolve the part from
	// the other sources; a part already set is kept as it is
	if file.Tags.Series != "" && file.Tags.SeriesPart == "" {
		file.Tags.SeriesPart = resolveSeriesPart(sr, file, customTags)
	}

	return nil
}

// readAtomTail reads an atom's payload past a fixed header of headerLen
// bytes (4 for mean/name's version+flags, 8 for data's version+flags+reserved).
func readAtomTail(sr *binary.SafeReader, atom *Atom, headerLen int64, label string) string {
	dataSize := int64(atom.DataSize()) - headerLen
	if dataSize <= 0 {
		return ""
	}
	buf := make([]byte, dataSize)
	if err := sr.ReadAt(buf, atom.DataOffset()+headerLen, label); err != nil {
		return ""
	}
	return string(buf)
}

// parseCustomAtomWithTags parses a ---- custom atom's mean/name/data
// children and returns the field name and value. The namespace (mean)
// child is skipped, so field names are not told apart across vendors.
func parseCustomAtomWithTags(sr *binary.SafeReader, customAtom *Atom, file *types.File) (string, string, error) {
	offset := customAtom.DataOffset()
	end := offset + int64(customAtom.DataSize())

	var fieldName, value string

	for offset < end {
		atom, err := readAtomHeader(sr, offset)
		if err != nil {
			break
		}

		switch atom.Type {
		case "name":
			fieldName = readAtomTail(sr, atom, 4, "name field")
		case "data":
			value = strings.TrimSpace(strings.TrimRight(readAtomTail(sr, atom, 8, "data value"), "\x00"))
		}

		offset += int64(atom.Size)
	}

	mapAudiobookField(fieldName, value, file)
	return fieldName, value, nil
}

// to allow multi-source validation and fallback.
func mapAudiobookField(fieldName, value string, file *types.File) {
	// Normalize field name (case-insensitive)
	fieldName = strings.ToLower(fieldName)

	switch fieldName {
	case "subtitle":
		file.Tags.Subtitle = value
	case "narrator":
		file.Tags.Narrator = value
	case "series":
		file.Tags.Series = value
	// "series part", "seriespart", "part" - intentionally NOT set here
	// These are collected in customTags and resolved via resolveSeriesPart()
	case "publisher":
		file.Tags.Publisher = value
	case "isbn":
		file.Tags.ISBN = value
	case "asin", "audible_asin":
		file.Tags.ASIN = value
	case "language", "lang":
		file.Tags.Language = value
	case "description":
		if file.Tags.Description == "" {
			file.Tags.Description = value
		}
	case "mvnm", "movement name", "movement":
		if file.Tags.Series == "" {
			file.Tags.Series = value
		}
	case "mvin", "movement number", "movement index":
		if file.Tags.SeriesPart == "" {
			file.Tags.SeriesPart = value
		}
	}
}

// Priority: Custom atoms > Title parsing > Album parsing > Path parsing.
func resolveSeriesPart(sr *binary.SafeReader, file *types.File, customTags map[string]string) string {
	// Priority 1: Explicit custom iTunes atoms
	if part := customTags["Series Part"]; part != "" {
		return part
	}
	if part := customTags["Series Position"]; part != "" {
		return part
	}
	if part := customTags["Part"]; part != "" {
		return part
	}
	if part := customTags["Volume"]; part != "" {
		return part
	}

	// Priority 2: Parse from title
	if part := parsing.ExtractSeriesPartFromText(file.Tags.Title); part != "" {
		return part
	}

	// Priority 3: Parse from album
	if part := parsing.ExtractSeriesPartFromText(file.Tags.Album); part != "" {
		return part
	}

	// Priority 4: Parse from file path
	if part := parsing.ExtractSeriesPartFromPath(sr.Path()); part != "" {
		return part
	}

	return ""
}
