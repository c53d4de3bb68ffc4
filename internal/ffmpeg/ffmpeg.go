package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"summitclips-server/internal/models"
)

// Format represents the container section of ffprobe output
type Format struct {
	Duration       string `json:"duration"`
	BitRate        string `json:"bit_rate"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	StartTime      string `json:"start_time"`
	Size           string `json:"size"`
}

// Stream represents a video/audio/subtitle stream
type Stream struct {
	Index         int               `json:"index"`
	CodecName     string            `json:"codec_name"`
	CodecLongName string            `json:"codec_long_name"`
	CodecType     string            `json:"codec_type"`
	Width         int               `json:"width,omitempty"`
	Height        int               `json:"height,omitempty"`
	SampleRate    string            `json:"sample_rate,omitempty"`
	Duration      string            `json:"duration"`
	BitRate       string            `json:"bit_rate"`
	AvgFrameRate  string            `json:"avg_frame_rate,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// ProbeResult represents the result of ffprobe
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Span is a [Start, End) interval in seconds
type Span struct {
	Start float64
	End   float64
}

// Client runs ffmpeg and ffprobe
type Client struct {
	ffprobePath  string
	ffmpegPath   string
	frameTimeout time.Duration
	captionLang  string
	logger       zerolog.Logger
}

// Option customizes the client
type Option func(*Client)

// WithBinaries overrides the ffmpeg and ffprobe executables
func WithBinaries(ffmpegPath, ffprobePath string) Option {
	return func(c *Client) {
		if ffmpegPath != "" {
			c.ffmpegPath = ffmpegPath
		}
		if ffprobePath != "" {
			c.ffprobePath = ffprobePath
		}
	}
}

// WithFrameTimeout bounds a single frame extraction
func WithFrameTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.frameTimeout = d
		}
	}
}

// WithCaptionLanguage prefers embedded subtitle streams tagged with lang
func WithCaptionLanguage(lang string) Option {
	return func(c *Client) {
		c.captionLang = strings.ToLower(strings.TrimSpace(lang))
	}
}

// NewClient creates a new FFmpeg client
func NewClient(logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		ffprobePath:  "ffprobe",
		ffmpegPath:   "ffmpeg",
		frameTimeout: 30 * time.Second,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) run(ctx context.Context, name string, args ...string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	err := cmd.Run()
	return out.Bytes(), stderr.String(), err
}

// Metadata extracts format and stream metadata from a video file
func (c *Client) Metadata(ctx context.Context, videoPath string) (*ProbeResult, error) {
	out, stderr, err := c.run(ctx, c.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath)
	if err != nil {
		return nil, &models.ProbeError{Path: videoPath, Stderr: strings.TrimSpace(stderr), Err: err}
	}

	var result ProbeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, &models.ProbeError{Path: videoPath, Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}
	return &result, nil
}

// Duration returns the container duration in seconds
func (c *Client) Duration(ctx context.Context, videoPath string) (float64, error) {
	out, stderr, err := c.run(ctx, c.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath)
	if err != nil {
		return 0, &models.ProbeError{Path: videoPath, Stderr: strings.TrimSpace(stderr), Err: err}
	}
	if s := strings.TrimSpace(stderr); s != "" {
		c.logger.Warn().Str("video", videoPath).Str("stderr", s).Msg("ffprobe reported warnings")
	}

	var parsed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, &models.ProbeError{Path: videoPath, Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(parsed.Format.Duration), 64)
	if err != nil {
		return 0, &models.ProbeError{Path: videoPath, Err: fmt.Errorf("parse duration %q: %w", parsed.Format.Duration, err)}
	}
	return duration, nil
}

// ExtractAudio writes mono 16kHz PCM WAV to outputPath, either the whole file
// or the given span. A failed extraction removes the partial output.
func (c *Client) ExtractAudio(ctx context.Context, videoPath, outputPath string, span *Span) error {
	var args []string
	if span != nil {
		args = append(args, "-ss", formatSeconds(span.Start))
	}
	args = append(args, "-i", videoPath)
	if span != nil {
		args = append(args, "-t", formatSeconds(span.End-span.Start))
	}
	args = append(args,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		outputPath)

	if _, stderr, err := c.run(ctx, c.ffmpegPath, args...); err != nil {
		if rmErr := os.Remove(outputPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			c.logger.Debug().Err(rmErr).Str("path", outputPath).Msg("failed to remove partial audio")
		}
		return &models.ExtractionError{Op: "extract audio", Path: videoPath, Stderr: lastLines(stderr, 5), Err: err}
	}
	return nil
}

// ExtractFrame returns one JPEG frame at timestamp (clamped to >= 0).
// Failures are logged and reported as a nil frame.
func (c *Client) ExtractFrame(ctx context.Context, videoPath string, timestamp float64) []byte {
	if timestamp < 0 {
		timestamp = 0
	}

	ctx, cancel := context.WithTimeout(ctx, c.frameTimeout)
	defer cancel()

	out, stderr, err := c.run(ctx, c.ffmpegPath,
		"-ss", formatSeconds(timestamp),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1")
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("video", videoPath).
			Float64("timestamp", timestamp).
			Str("stderr", lastLines(stderr, 3)).
			Msg("frame extraction failed")
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DetectCuts runs the scene-change filter over the whole video and returns its
// diagnostic output, which carries one showinfo line per detected cut.
func (c *Client) DetectCuts(ctx context.Context, videoPath string, threshold float64) (string, error) {
	_, stderr, err := c.run(ctx, c.ffmpegPath,
		"-hide_banner",
		"-i", videoPath,
		"-filter:v", fmt.Sprintf("select='gt(scene,%s)',showinfo", strconv.FormatFloat(threshold, 'f', -1, 64)),
		"-f", "null",
		"-")
	if err != nil {
		return "", &models.ProbeError{Path: videoPath, Stderr: lastLines(stderr, 5), Err: fmt.Errorf("scene detection: %w", err)}
	}
	return stderr, nil
}

// ExtractSubtitles extracts the best embedded subtitle stream to SRT.
// Streams in the caption language win, then English or Japanese ones, then
// the first subtitle stream. SubRip is preferred within a language tier.
func (c *Client) ExtractSubtitles(ctx context.Context, videoPath, outputPath string) error {
	meta, err := c.Metadata(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("get video metadata for subtitles: %w", err)
	}

	idx, ok := pickSubtitleStream(meta.Streams, c.captionLang)
	if !ok {
		return &models.ExtractionError{Op: "extract subtitles", Path: videoPath, Err: errors.New("no subtitle streams found in video")}
	}

	_, stderr, err := c.run(ctx, c.ffmpegPath,
		"-y",
		"-i", videoPath,
		"-map", fmt.Sprintf("0:s:%d", idx),
		"-c:s", "srt",
		outputPath)
	if err != nil {
		return &models.ExtractionError{Op: "extract subtitles", Path: videoPath, Stderr: lastLines(stderr, 5), Err: err}
	}
	return nil
}

// languageAliases maps ISO 639-1 and 639-2 codes onto each other
var languageAliases = map[string]string{
	"ja": "jpn", "jpn": "ja",
	"en": "eng", "eng": "en",
}

// pickSubtitleStream returns the index among subtitle streams to extract
func pickSubtitleStream(streams []Stream, language string) (int, bool) {
	type subInfo struct {
		idx   int
		codec string
		lang  string
	}
	var subs []subInfo
	for _, s := range streams {
		if s.CodecType != "subtitle" {
			continue
		}
		lang := s.Tags["language"]
		if lang == "" {
			lang = s.Tags["LANGUAGE"]
		}
		subs = append(subs, subInfo{idx: len(subs), codec: s.CodecName, lang: strings.ToLower(lang)})
	}
	if len(subs) == 0 {
		return 0, false
	}

	bestIn := func(langs ...string) int {
		best := -1
		for i, s := range subs {
			if s.lang == "" || !slices.Contains(langs, s.lang) {
				continue
			}
			if best < 0 || (subs[best].codec != "subrip" && s.codec == "subrip") {
				best = i
			}
		}
		return best
	}

	if language != "" {
		if best := bestIn(language, languageAliases[language]); best >= 0 {
			return subs[best].idx, true
		}
	}
	if best := bestIn("eng", "en", "jpn", "ja"); best >= 0 {
		return subs[best].idx, true
	}
	return subs[0].idx, true
}

// Check verifies that FFmpeg and FFprobe are available
func (c *Client) Check(ctx context.Context) error {
	if _, _, err := c.run(ctx, c.ffprobePath, "-version"); err != nil {
		return fmt.Errorf("ffprobe not found: %w", err)
	}
	if _, _, err := c.run(ctx, c.ffmpegPath, "-version"); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
