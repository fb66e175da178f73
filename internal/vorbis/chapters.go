package vorbis

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wrnbx/audiometa/internal/types"
)

// chapterMark holds everything collected for one chapter number before its
// timestamp is parsed and neighbors are known, so it must have a timestamp
// before being promoted to a types.Chapter.
type chapterMark struct {
	number    int
	timestamp string
	title     string
}

// ParseChapters extracts chapters from Vorbis CHAPTER comments.
//
// Ogg Vorbis and Opus support chapters via special comments:
//
//	CHAPTERxxx=HH:MM:SS.mmm
//	CHAPTERxxxNAME=Title
//
// Where xxx is a zero-padded chapter number (e.g., 001, 002, 010, 100).
//
// Example:
//
//	CHAPTER001=00:00:00.000
//	CHAPTER001NAME=Introduction
//	CHAPTER002=00:05:23.500
//	CHAPTER002NAME=Chapter 1: The Beginning
func ParseChapters(comments []string, fileDuration time.Duration) []types.Chapter {
	marks := collectChapterMarks(comments)
	ordered := timestampedMarks(marks)
	if len(ordered) == 0 {
		return nil
	}
	return buildChapters(ordered, fileDuration)
}

// collectChapterMarks scans every CHAPTERxxx / CHAPTERxxxNAME comment into
// a mark keyed by chapter number, merging the timestamp and name halves
// regardless of which order they appear in.
func collectChapterMarks(comments []string) map[int]*chapterMark {
	marks := make(map[int]*chapterMark)

	for _, comment := range comments {
		eq := strings.IndexByte(comment, '=')
		if eq < 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(comment[:eq]))
		value := strings.TrimSpace(comment[eq+1:])
		if !strings.HasPrefix(key, "CHAPTER") {
			continue
		}

		isName := strings.HasSuffix(key, "NAME")
		numStr := strings.TrimPrefix(key, "CHAPTER")
		if isName {
			numStr = strings.TrimSuffix(numStr, "NAME")
		}
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}

		if marks[num] == nil {
			marks[num] = &chapterMark{number: num}
		}
		if isName {
			marks[num].title = value
		} else {
			marks[num].timestamp = value
		}
	}
	return marks
}

// timestampedMarks drops marks with no timestamp (a lone CHAPTERxxxNAME
// with no matching CHAPTERxxx) and sorts the rest by chapter number.
func timestampedMarks(marks map[int]*chapterMark) []chapterMark {
	ordered := make([]chapterMark, 0, len(marks))
	for _, m := range marks {
		if m.timestamp != "" {
			ordered = append(ordered, *m)
		}
	}
	slices.SortFunc(ordered, func(a, b chapterMark) int {
		return cmp.Compare(a.number, b.number)
	})
	return ordered
}

// buildChapters converts ordered marks into types.Chapter, each chapter
// ending where the next one starts and the last ending at fileDuration.
func buildChapters(marks []chapterMark, fileDuration time.Duration) []types.Chapter {
	chapters := make([]types.Chapter, 0, len(marks))
	for i, mark := range marks {
		startTime, err := parseChapterTimestamp(mark.timestamp)
		if err != nil {
			continue
		}

		var endTime time.Duration
		switch {
		case i < len(marks)-1:
			endTime, _ = parseChapterTimestamp(marks[i+1].timestamp)
		case fileDuration > 0:
			endTime = fileDuration
		}

		title := mark.title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", mark.number)
		}

		chapters = append(chapters, types.Chapter{
			Index:     len(chapters) + 1,
			Title:     title,
			StartTime: startTime,
			EndTime:   endTime,
		})
	}
	return chapters
}

// parseChapterTimestamp parses chapter timestamps in various formats:
//   - HH:MM:SS.mmm (hours:minutes:seconds.milliseconds)
//   - MM:SS.mmm (minutes:seconds.milliseconds)
//   - SS.mmm (seconds.milliseconds)
//
// Returns the duration or an error if the format is invalid.
func parseChapterTimestamp(ts string) (time.Duration, error) {
	parts := strings.Split(ts, ":")
	if len(parts) < 1 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp format: %s", ts)
	}

	// parts is right-aligned to [hours, minutes, seconds]; a 1- or 2-part
	// timestamp just leaves the missing leading fields as "0".
	fields := make([]string, 3)
	copy(fields[3-len(parts):], parts)

	hours, err := strconv.Atoi(orZero(fields[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid hours in timestamp: %s", ts)
	}
	minutes, err := strconv.Atoi(orZero(fields[1]))
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in timestamp: %s", ts)
	}
	seconds, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in timestamp: %s", ts)
	}

	if hours < 0 || minutes < 0 || minutes >= 60 || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("timestamp values out of range: %s", ts)
	}

	totalSeconds := float64(hours*3600+minutes*60) + seconds
	return time.Duration(totalSeconds * float64(time.Second)), nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
