package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"summitclips-server/internal/ffmpeg"
	"summitclips-server/internal/models"
)

// MediaTool is the subset of the ffmpeg client the transcriber needs
type MediaTool interface {
	ExtractAudio(ctx context.Context, videoPath, outputPath string, span *ffmpeg.Span) error
	ExtractSubtitles(ctx context.Context, videoPath, outputPath string) error
}

// Transcriber produces per-scene transcripts
type Transcriber struct {
	media          MediaTool
	recognizer     Recognizer
	preferCaptions bool
	logger         zerolog.Logger
}

// Option customizes a Transcriber
type Option func(*Transcriber)

// WithRecognizer swaps the speech recognizer
func WithRecognizer(r Recognizer) Option {
	return func(t *Transcriber) {
		if r != nil {
			t.recognizer = r
		}
	}
}

// WithCaptions makes embedded subtitles take priority over audio recognition
func WithCaptions(enabled bool) Option {
	return func(t *Transcriber) {
		t.preferCaptions = enabled
	}
}

// NewTranscriber creates a transcriber backed by the placeholder recognizer
func NewTranscriber(media MediaTool, logger zerolog.Logger, opts ...Option) *Transcriber {
	t := &Transcriber{
		media:      media,
		recognizer: PlaceholderRecognizer{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TranscribeScenes returns one segment per scene, in scene order.
// A scene whose audio cannot be extracted or recognized gets empty text.
func (t *Transcriber) TranscribeScenes(ctx context.Context, videoPath string, scenes []models.Scene) ([]models.TranscriptSegment, error) {
	t.logger.Info().Str("video", videoPath).Int("scenes", len(scenes)).Msg("transcribing scenes")

	workDir, err := os.MkdirTemp("", "summitclips-audio-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	var captions []ffmpeg.Subtitle
	if t.preferCaptions {
		captions = t.loadCaptions(ctx, videoPath, workDir)
	}

	segments := make([]models.TranscriptSegment, 0, len(scenes))
	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := ""
		if len(captions) > 0 {
			text = ffmpeg.TextBetween(captions,
				ffmpeg.SecondsToDuration(scene.StartTime),
				ffmpeg.SecondsToDuration(scene.EndTime))
		}
		if text == "" {
			text = t.recognizeScene(ctx, videoPath, workDir, scene)
		}

		segments = append(segments, models.TranscriptSegment{
			SceneID:   scene.SceneID,
			StartTime: scene.StartTime,
			EndTime:   scene.EndTime,
			Text:      text,
		})
	}
	return segments, nil
}

func (t *Transcriber) recognizeScene(ctx context.Context, videoPath, workDir string, scene models.Scene) string {
	audioPath := filepath.Join(workDir, fmt.Sprintf("scene_%d.wav", scene.SceneID))
	defer os.Remove(audioPath)

	span := &ffmpeg.Span{Start: scene.StartTime, End: scene.EndTime}
	if err := t.media.ExtractAudio(ctx, videoPath, audioPath, span); err != nil {
		t.logger.Warn().Err(err).Int("scene_id", scene.SceneID).Msg("audio extraction failed, using empty transcript")
		return ""
	}

	text, err := t.recognizer.Recognize(ctx, audioPath)
	if err != nil {
		t.logger.Warn().Err(err).Int("scene_id", scene.SceneID).Msg("recognition failed, using empty transcript")
		return ""
	}
	return text
}

func (t *Transcriber) loadCaptions(ctx context.Context, videoPath, workDir string) []ffmpeg.Subtitle {
	srtPath := filepath.Join(workDir, "captions.srt")
	if err := t.media.ExtractSubtitles(ctx, videoPath, srtPath); err != nil {
		t.logger.Debug().Err(err).Msg("no usable captions, falling back to audio")
		return nil
	}
	subs, err := ffmpeg.ParseSRTFile(srtPath)
	if err != nil {
		t.logger.Warn().Err(err).Msg("failed to parse extracted captions")
		return nil
	}
	t.logger.Info().Int("cues", len(subs)).Msg("using embedded captions")
	return subs
}

// TranscribeWhole transcribes the full audio track as one text blob
func (t *Transcriber) TranscribeWhole(ctx context.Context, videoPath string) (string, error) {
	workDir, err := os.MkdirTemp("", "summitclips-audio-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, "full.wav")
	if err := t.media.ExtractAudio(ctx, videoPath, audioPath, nil); err != nil {
		return "", err
	}
	return t.recognizer.Recognize(ctx, audioPath)
}
