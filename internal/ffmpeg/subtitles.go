package ffmpeg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Subtitle represents a single subtitle entry
type Subtitle struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// SRT time format: HH:MM:SS,mmm --> HH:MM:SS,mmm
var timeRangeRe = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2}),(\d{3})`)

// ParseSRTFile parses an SRT subtitle file
func ParseSRTFile(filename string) ([]Subtitle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer file.Close()

	return ParseSRT(file)
}

// ParseSRT parses SRT cues from r
func ParseSRT(r io.Reader) ([]Subtitle, error) {
	var subtitles []Subtitle
	scanner := bufio.NewScanner(r)

	var current Subtitle
	inText := false

	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))

		if line == "" {
			if inText && current.Text != "" {
				subtitles = append(subtitles, current)
				current = Subtitle{}
				inText = false
			}
			continue
		}

		if !inText {
			if index, err := strconv.Atoi(line); err == nil {
				current.Index = index
				continue
			}
			if start, end, ok := parseTimeRange(line); ok {
				current.Start = start
				current.End = end
				inText = true
				continue
			}
			continue
		}

		if current.Text != "" {
			current.Text += "\n" + line
		} else {
			current.Text = line
		}
	}

	if inText && current.Text != "" {
		subtitles = append(subtitles, current)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SRT: %w", err)
	}

	return subtitles, nil
}

func parseTimeRange(line string) (time.Duration, time.Duration, bool) {
	m := timeRangeRe.FindStringSubmatch(line)
	if len(m) != 9 {
		return 0, 0, false
	}
	return srtClock(m[1], m[2], m[3], m[4]), srtClock(m[5], m[6], m[7], m[8]), true
}

func srtClock(h, m, s, ms string) time.Duration {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	millis, _ := strconv.Atoi(ms)
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}

// FormatDurationToSRT converts time.Duration to SRT time format
func FormatDurationToSRT(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}

// WriteSRT writes cues in SRT format, renumbering them from 1
func WriteSRT(w io.Writer, subtitles []Subtitle) error {
	bw := bufio.NewWriter(w)
	for i, sub := range subtitles {
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n",
			i+1, FormatDurationToSRT(sub.Start), FormatDurationToSRT(sub.End), sub.Text); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SecondsToDuration converts float seconds to a time.Duration
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// TextBetween joins the text of cues overlapping [start, end)
func TextBetween(subtitles []Subtitle, start, end time.Duration) string {
	var parts []string
	for _, sub := range subtitles {
		if sub.End <= start || sub.Start >= end {
			continue
		}
		parts = append(parts, strings.ReplaceAll(sub.Text, "\n", " "))
	}
	return strings.Join(parts, " ")
}
