package vision

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"summitclips-server/internal/models"
)

// FramePrompt asks the model for a structured description of a frame burst
const FramePrompt = `この登山動画のフレームを分析し、以下の情報を抽出してください：
1. 場所の特徴（山の種類、地形、標高など）
2. 活動内容（登山、休憩、景色の鑑賞など）
3. 天候状況（晴れ、曇り、雨など）
4. 時間帯（朝、昼、夕方、夜など）
5. 特筆すべき風景や自然の特徴
6. 登山者の状況や装備

JSON形式で回答してください。`

// ErrModelUnavailable is returned when no vision model could be initialized
var ErrModelUnavailable = &models.ModelError{Model: "vision", Err: errors.New("model not initialized")}

// FrameSource extracts single JPEG frames; nil means no frame
type FrameSource interface {
	ExtractFrame(ctx context.Context, videoPath string, timestamp float64) []byte
}

// Model is a generative model that accepts a prompt plus images
type Model interface {
	Generate(ctx context.Context, prompt string, images [][]byte) (string, error)
}

// Options tunes frame analysis
type Options struct {
	FramesPerScene int
	ModelTimeout   time.Duration
}

// Analyzer runs the vision model over frame bursts
type Analyzer struct {
	frames FrameSource
	model  Model
	opts   Options
	logger zerolog.Logger
}

// NewAnalyzer creates an analyzer. A nil model makes every Analyze call fail.
func NewAnalyzer(frames FrameSource, model Model, opts Options, logger zerolog.Logger) *Analyzer {
	if opts.FramesPerScene < 1 {
		opts.FramesPerScene = 3
	}
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = 60 * time.Second
	}
	return &Analyzer{frames: frames, model: model, opts: opts, logger: logger}
}

// BurstTimes returns the frame times sampled around timestamp, clamped at 0
func BurstTimes(timestamp float64, framesPerScene int) []float64 {
	times := make([]float64, framesPerScene)
	for i := range times {
		offset := float64(i)/float64(framesPerScene) - 0.5
		t := timestamp + offset
		if t < 0 {
			t = 0
		}
		times[i] = t
	}
	return times
}

// Analyze returns one FrameAnalysis per timestamp, in input order.
// Per-timestamp failures are replaced with the canned analysis.
func (a *Analyzer) Analyze(ctx context.Context, videoPath string, timestamps []float64) ([]models.FrameAnalysis, error) {
	if a.model == nil {
		return nil, ErrModelUnavailable
	}

	a.logger.Info().Str("video", videoPath).Int("timestamps", len(timestamps)).Msg("analyzing frames")

	results := make([]models.FrameAnalysis, 0, len(timestamps))
	for _, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, models.FrameAnalysis{
			Timestamp: ts,
			Analysis:  a.analyzeOne(ctx, videoPath, ts),
		})
	}
	return results, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, videoPath string, ts float64) string {
	var frames [][]byte
	for _, t := range BurstTimes(ts, a.opts.FramesPerScene) {
		if frame := a.frames.ExtractFrame(ctx, videoPath, t); len(frame) > 0 {
			frames = append(frames, frame)
		}
	}
	if len(frames) == 0 {
		a.logger.Warn().Float64("timestamp", ts).Msg("no frames extracted, using canned analysis")
		return CannedAnalysis(ts)
	}

	mctx, cancel := context.WithTimeout(ctx, a.opts.ModelTimeout)
	defer cancel()

	text, err := a.model.Generate(mctx, FramePrompt, frames)
	if err != nil {
		a.logger.Error().Err(err).Float64("timestamp", ts).Msg("vision model failed, using canned analysis")
		return CannedAnalysis(ts)
	}
	return text
}
