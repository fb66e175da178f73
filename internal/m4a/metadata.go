package m4a

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wrnbx/audiometa/internal/binary"
	"github.com/wrnbx/audiometa/internal/types"
)

// parseMetadataTag extracts the string value from an iTunes metadata tag atom.
// Layout: tag atom -> "data" child atom -> version/flags/reserved -> value.
func parseMetadataTag(sr *binary.SafeReader, tagAtom *Atom) (string, error) {
	if tagAtom.DataSize() == 0 {
		return "", nil
	}

	dataAtom, err := findAtom(sr, tagAtom.DataOffset(), tagAtom.DataOffset()+int64(tagAtom.DataSize()), "data")
	if err != nil {
		return "", nil //nolint:nilerr // missing data atom means no value, not a parse failure
	}

	valueOffset := dataAtom.DataOffset() + 8 // version(1) + flags(3) + reserved(4)
	valueSize := int64(dataAtom.DataSize()) - 8
	if valueSize <= 0 {
		return "", nil
	}

	buf := make([]byte, valueSize)
	if err := sr.ReadAt(buf, valueOffset, "metadata value"); err != nil {
		return "", err
	}

	value := strings.TrimRight(string(buf), "\x00")
	return strings.TrimSpace(value), nil
}

// pairAtoms are the ilst atoms whose "data" payload is a (number, total)
// pair rather than free text, per the spec's trkn/disk handling.
var pairAtoms = map[string]bool{
	"trkn": true,
	"disk": true,
}

// extractIlstMetadata walks the ilst atom's children, one per metadata tag,
// filing each into both file.Tags' mapped fields and the raw TagSet keyed
// by the exact 4-byte atom code so no information is lost in the mapping.
func extractIlstMetadata(sr *binary.SafeReader, ilstAtom *Atom, file *types.File) error {
	offset := ilstAtom.DataOffset()
	end := offset + int64(ilstAtom.DataSize())

	for offset < end {
		tagAtom, err := readAtomHeader(sr, offset)
		if err != nil {
			return err
		}

		if pairAtoms[tagAtom.Type] {
			pair, err := parsePairAtom(sr, tagAtom)
			if err == nil {
				applyPairTag(tagAtom.Type, pair, file)
				file.Tags.AddValue(tagAtom.Type, types.PairValue(pair.Number, pair.Total))
			}
		} else {
			value, err := parseMetadataTag(sr, tagAtom)
			if err != nil {
				file.Warnings = append(file.Warnings, types.Warning{
					Stage:   "metadata",
					Message: fmt.Sprintf("failed to parse tag %s: %v", tagAtom.Type, err),
				})
			} else {
				mapTagToField(tagAtom.Type, value, file)
				file.Tags.Add(tagAtom.Type, value)
			}
		}

		offset += int64(tagAtom.Size)
	}

	return nil
}

// mapTagToField projects a well-known iTunes atom code onto its Tags
// convenience field. The high bit of these 4-byte codes is the copyright
// sign (0xA9), so "\xA9nam", "\xA9ART" etc. are the literal Go strings.
func mapTagToField(tag string, value string, file *types.File) {
	switch tag {
	case "\xA9nam":
		file.Tags.Title = value
	case "\xA9ART":
		file.Tags.Artist = value
	case "\xA9alb":
		file.Tags.Album = value
	case "\xA9gen":
		file.Tags.Genres = append(file.Tags.Genres, value)
	case "\xA9cmt":
		file.Tags.Comment = value
	case "\xA9wrt":
		file.Tags.Composers = append(file.Tags.Composers, value)
	case "\xA9day":
		if year, err := strconv.Atoi(value); err == nil {
			file.Tags.Year = year
		}
	}
}

// applyPairTag projects a parsed trkn/disk pair onto its Tags fields.
func applyPairTag(tag string, pair types.TagPair, file *types.File) {
	switch tag {
	case "trkn":
		file.Tags.TrackNumber = pair.Number
		file.Tags.TrackTotal = pair.Total
	case "disk":
		file.Tags.DiscNumber = pair.Number
		file.Tags.DiscTotal = pair.Total
	}
}

// parsePairAtom reads the (number, total) payload shared by trkn and disk:
//
//	[2 bytes] reserved
//	[2 bytes] number
//	[2 bytes] total
//	[2 bytes] reserved
func parsePairAtom(sr *binary.SafeReader, atom *Atom) (types.TagPair, error) {
	var result types.TagPair

	dataAtom, err := findAtom(sr, atom.DataOffset(), atom.DataOffset()+int64(atom.DataSize()), "data")
	if err != nil {
		return result, err
	}

	offset := dataAtom.DataOffset() + 8 // version(1) + flags(3) + reserved(4)
	offset += 2                         // leading reserved pair field

	number, err := binary.Read[uint16](sr, offset, "pair number")
	if err != nil {
		return result, err
	}
	result.Number = int(number)
	offset += 2

	total, err := binary.Read[uint16](sr, offset, "pair total")
	if err != nil {
		return result, err
	}
	result.Total = int(total)

	return result, nil
}
