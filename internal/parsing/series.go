package parsing

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// seriesPartPatterns matches a series/part number embedded in a title, album,
// or directory name, checked in priority order. Compiled once at package
// init rather than per call: written-number support ("one", "two", ...) was
// tried and dropped as too brittle, so this sticks to digit parsing.
var seriesPartPatterns = compilePatterns(
	`(?i)book\s+(\d+(?:\.\d+)?)`,           // "Book 2", "Book 0.5", "Book 100"
	`(?i)part\s+(\d+(?:\.\d+)?)`,           // "Part 2", "Part 1.5"
	`(?i)vol(?:ume)?\.?\s+(\d+(?:\.\d+)?)`, // "Vol 2", "Volume 2.5"
	`#(\d+(?:\.\d+)?)`,                     // "#2", "#0.5", "#100"
	`^(\d+(?:\.\d+)?)\s*[-–—:]`,            // "2 -", "0.5 -", "100:", "2 –", "2 —"
	`[-–—:]\s*book\s+(\d+(?:\.\d+)?)`,      // "- Book 2"
	`\((\d+(?:\.\d+)?)\)`,                  // "(2)", "(1.5)", "(0)"
	`^(\d+(?:\.\d+)?)$`,                    // "3", "0.5", "0", "150" (standalone number)
)

func compilePatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// ExtractSeriesPartFromText extracts a series/part position, supporting
// fractional ("0.5"), zero-based ("Book 0"), and large ("Book 150") values.
func ExtractSeriesPartFromText(text string) string {
	if text == "" {
		return ""
	}

	for _, re := range seriesPartPatterns {
		if matches := re.FindStringSubmatch(text); len(matches) > 1 {
			return normalizeSeriesPart(matches[1])
		}
	}

	return ""
}

// ParseGrouping splits a grouping value such as "Series Name #5" into the
// series name before the part number and the normalized part; both are
// empty when no part number follows a non-empty name.
func ParseGrouping(grouping string) (series, part string) {
	for _, re := range seriesPartPatterns {
		if loc := re.FindStringSubmatchIndex(grouping); loc != nil {
			series = strings.TrimRight(strings.TrimSpace(grouping[:loc[0]]), " ,;:-–—")
			if series == "" {
				return "", ""
			}
			return series, normalizeSeriesPart(grouping[loc[2]:loc[3]])
		}
	}
	return "", ""
}

// normalizeSeriesPart normalizes the series part string
// - Removes leading zeros from whole numbers: "01" -> "1"
// - Normalizes decimals: "01.5" -> "1.5", "00.5" -> "0.5"
// - Handles book 0: "0" -> "0"
func normalizeSeriesPart(part string) string {
	if part == "" {
		return ""
	}

	// If it contains a decimal point, parse as float to normalize
	if strings.Contains(part, ".") {
		if num, err := strconv.ParseFloat(part, 64); err == nil {
			// Format to remove leading zeros but keep decimal precision
			// Precision -1 gives the shortest form (1.5, not 1.50)
			return strconv.FormatFloat(num, 'f', -1, 64)
		}
		// Fallback: return as-is if parsing fails
		return part
	}

	// Parse as integer to remove leading zeros
	// This handles "01" -> "1", "001" -> "1", but keeps "0" as "0"
	if num, err := strconv.Atoi(part); err == nil {
		return fmt.Sprintf("%d", num)
	}

	// Fallback: return as-is if parsing fails
	return part
}

// IsLikelySeriesPosition determines if track number represents series position
// versus chapter/file position using improved heuristics
func IsLikelySeriesPosition(trackNum, trackTotal int) bool {
	// Invalid input
	if trackNum == 0 || trackTotal == 0 {
		return false
	}

	// Invalid track number (out of bounds)
	if trackNum > trackTotal {
		return false
	}

	// Special case: Track 1/1 is highly ambiguous
	// Most M4B files are single-file audiobooks with track 1/1, but this doesn't
	// indicate series position. Prefer to fall through to other methods (title, album, path)
	if trackNum == 1 && trackTotal == 1 {
		return false
	}

	// Heuristic 1: Very small totals (≤ 10) are likely series
	// Examples: 3-book trilogy, 5-book series
	if trackTotal <= 10 {
		return true
	}

	// Heuristic 2: Medium totals (11-30) could be either
	// Use ratio: track 1, or a track past one third of the total, is taken
	// as a series position; any other track as a chapter
	// Examples:
	// - 2 of 15 = chapters (ratio: 0.13)
	// - 6 of 15 = series (ratio: 0.40)
	if trackTotal <= 30 {
		ratio := float64(trackNum) / float64(trackTotal)
		// If we're past 1/3 of the total, more likely to be a series
		return ratio > 0.33 || trackNum == 1
	}

	// Heuristic 3: Large totals (31-100) - could be large series
	// Examples: Discworld (41 books), Horus Heresy (54+ books)
	// Every position with such a total is taken as a chapter (false)
	if trackTotal <= 100 {
		// Near the beginning or end: ambiguous
		if trackNum <= 3 || trackNum >= trackTotal-3 {
			// Near edges - ambiguous, default to false (safer)
			return false
		}
		// Middle positions with large totals are likely chapters
		return false
	}

	// Heuristic 4: Very large totals (> 100) are almost certainly chapters
	// No audiobook series has 100+ books in a single M4B with track metadata
	// (They would be separate files)
	return false
}

// ExtractSeriesPartFromPath attempts to extract series position from the file path
// by examining the immediate parent directory name
// Example: "/audiobooks/Author/Series/2 - North or Be Eaten/file.m4b" → "2"
func ExtractSeriesPartFromPath(path string) string {
	if path == "" {
		return ""
	}

	// Get the directory containing the file
	dir := filepath.Dir(path)

	// Extract the last component of the directory path (the immediate parent)
	dirName := filepath.Base(dir)

	// Extract series part from directory name using text patterns
	return ExtractSeriesPartFromText(dirName)
}
