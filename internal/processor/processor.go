package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"summitclips-server/internal/describe"
	"summitclips-server/internal/logging"
	"summitclips-server/internal/models"
	"summitclips-server/internal/scenedetect"
	"summitclips-server/internal/session"
)

const pipelineAuthor = "pipeline"

// Segmenter splits a video into scenes
type Segmenter interface {
	DetectScenes(ctx context.Context, videoPath string) ([]models.Scene, error)
}

// Transcriber produces one transcript segment per scene
type Transcriber interface {
	TranscribeScenes(ctx context.Context, videoPath string, scenes []models.Scene) ([]models.TranscriptSegment, error)
}

// FrameAnalyzer describes the frames around each timestamp
type FrameAnalyzer interface {
	Analyze(ctx context.Context, videoPath string, timestamps []float64) ([]models.FrameAnalysis, error)
}

// ResultSink receives every finished result before its session is discarded
type ResultSink interface {
	SaveResult(ctx context.Context, result *models.AnalysisResult) error
}

// Pipeline sequences segmentation, transcription, frame analysis,
// description synthesis and editing advice for one video at a time.
type Pipeline struct {
	segmenter   Segmenter
	transcriber Transcriber
	analyzer    FrameAnalyzer
	sessions    *session.Registry
	sink        ResultSink
	logger      zerolog.Logger
	now         func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithResultSink archives every finished result
func WithResultSink(sink ResultSink) Option {
	return func(p *Pipeline) {
		p.sink = sink
	}
}

// WithRegistry shares a session registry with other components
func WithRegistry(r *session.Registry) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.sessions = r
		}
	}
}

// NewPipeline creates a new pipeline
func NewPipeline(segmenter Segmenter, transcriber Transcriber, analyzer FrameAnalyzer, logger zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		segmenter:   segmenter,
		transcriber: transcriber,
		analyzer:    analyzer,
		sessions:    session.NewRegistry(),
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sessions returns the registry of in-flight runs
func (p *Pipeline) Sessions() *session.Registry {
	return p.sessions
}

type emitFunc func(models.ProgressEvent)

// Process analyzes a video. It always returns a usable result; when the run
// fails the canned fallback dataset is returned with Fallback set.
func (p *Pipeline) Process(ctx context.Context, videoPath string) *models.AnalysisResult {
	return p.run(ctx, videoPath, func(models.ProgressEvent) {})
}

// ProcessStreaming runs the same analysis while sending progress events to
// events. The last event is of type result. events is closed on return; sends
// are abandoned once ctx is done.
func (p *Pipeline) ProcessStreaming(ctx context.Context, videoPath string, events chan<- models.ProgressEvent) *models.AnalysisResult {
	defer close(events)
	return p.run(ctx, videoPath, func(ev models.ProgressEvent) {
		ev.Timestamp = p.timestamp()
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
}

func (p *Pipeline) timestamp() float64 {
	return float64(p.now().UnixNano()) / float64(time.Second)
}

func (p *Pipeline) run(ctx context.Context, videoPath string, emit emitFunc) *models.AnalysisResult {
	sess := p.sessions.Open()
	defer p.sessions.Close(sess.ID)

	logger := logging.WithSession(p.logger, sess.ID).With().Str("video", videoPath).Logger()
	started := p.now()

	sess.Set(session.KeyVideoPath, videoPath)
	p.enter(sess, logger, emit, models.StageInit)
	emit(models.ProgressEvent{
		Type:    models.EventMessage,
		Author:  "user",
		Content: "この動画を分析して、シーン説明と編集提案を生成してください: " + videoPath,
	})

	if err := p.analyze(ctx, sess, logger, emit); err != nil {
		logger.Error().Err(err).Msg("analysis failed, using fallback data")
		emit(models.ProgressEvent{Type: models.EventError, Author: pipelineAuthor, Content: err.Error()})
		p.applyFallback(sess, logger, emit)
	}
	p.enter(sess, logger, emit, models.StageDone)

	result := sess.Result()
	if p.sink != nil {
		if err := p.sink.SaveResult(ctx, result); err != nil {
			logger.Warn().Err(err).Msg("failed to archive result")
		}
	}

	logger.Info().
		Int("scenes", len(result.Scenes)).
		Bool("fallback", result.Fallback).
		Dur("elapsed", p.now().Sub(started)).
		Msg("analysis complete")

	emit(models.ProgressEvent{Type: models.EventResult, Author: pipelineAuthor, Content: result})
	return result
}

func (p *Pipeline) enter(sess *session.Session, logger zerolog.Logger, emit emitFunc, stage models.Stage) {
	sess.Set(session.KeyStage, stage)
	logger.Debug().Str("stage", string(stage)).Msg("pipeline stage")
	emit(models.ProgressEvent{Type: models.EventProgress, Author: pipelineAuthor, Content: string(stage)})
}

func (p *Pipeline) analyze(ctx context.Context, sess *session.Session, logger zerolog.Logger, emit emitFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	videoPath := sess.VideoPath()

	p.enter(sess, logger, emit, models.StageSegmenting)
	scenes, err := p.segmenter.DetectScenes(ctx, videoPath)
	if err != nil {
		logger.Error().Err(err).Msg("scene detection failed, using fallback scenes")
		scenes = scenedetect.FallbackScenes()
	}
	if len(scenes) == 0 {
		logger.Warn().Msg("no scenes detected, using fallback scenes")
		scenes = scenedetect.FallbackScenes()
	}
	sess.Set(session.KeyScenes, scenes)
	emit(models.ProgressEvent{Type: models.EventPartial, Author: "scene_detection", Content: map[string]any{"scenes": scenes}})

	midpoints := make([]float64, len(scenes))
	for i, s := range scenes {
		midpoints[i] = s.Midpoint()
	}

	var (
		transcripts []models.TranscriptSegment
		analyses    []models.FrameAnalysis
	)
	p.enter(sess, logger, emit, models.StageTranscribing)
	p.enter(sess, logger, emit, models.StageAnalyzing)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(func() error {
		segs, err := p.transcriber.TranscribeScenes(gctx, videoPath, scenes)
		if err != nil {
			logger.Error().Err(err).Msg("transcription failed, continuing without transcripts")
			return nil
		}
		transcripts = segs
		return nil
	}))
	g.Go(guard(func() error {
		fas, err := p.analyzer.Analyze(gctx, videoPath, midpoints)
		if err != nil {
			logger.Error().Err(err).Msg("frame analysis failed, continuing without analyses")
			return nil
		}
		analyses = fas
		return nil
	}))
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sess.Set(session.KeyTranscriptions, transcripts)
	sess.Set(session.KeyFrameAnalyses, analyses)
	emit(models.ProgressEvent{Type: models.EventPartial, Author: "transcription", Content: map[string]any{"transcriptions": transcripts}})
	emit(models.ProgressEvent{Type: models.EventPartial, Author: "vision_analysis", Content: map[string]any{"frame_analyses": analyses}})

	p.enter(sess, logger, emit, models.StageSynthesizing)
	descriptions := describe.Synthesize(scenes, transcripts, analyses)
	sess.Set(session.KeyDescriptions, descriptions)
	emit(models.ProgressEvent{Type: models.EventPartial, Author: "description", Content: map[string]any{"descriptions": descriptions}})

	p.enter(sess, logger, emit, models.StageSuggesting)
	suggestions := describe.Suggest(scenes, descriptions)
	sess.Set(session.KeyEditingSuggestions, suggestions)
	emit(models.ProgressEvent{Type: models.EventPartial, Author: "editing_suggestion", Content: map[string]any{"editing_suggestions": suggestions}})

	return nil
}

// applyFallback replaces every artifact with the canned dataset. Transcripts and
// frame analyses are cleared since they no longer line up with the scenes.
func (p *Pipeline) applyFallback(sess *session.Session, logger zerolog.Logger, emit emitFunc) {
	p.enter(sess, logger, emit, models.StageFallback)
	scenes, descriptions, suggestions := describe.Fallback()
	sess.Set(session.KeyScenes, scenes)
	sess.Set(session.KeyDescriptions, descriptions)
	sess.Set(session.KeyEditingSuggestions, suggestions)
	sess.Set(session.KeyTranscriptions, []models.TranscriptSegment(nil))
	sess.Set(session.KeyFrameAnalyses, []models.FrameAnalysis(nil))
	sess.Set(session.KeyFallback, true)
}

// guard turns a panic in fn into an error so errgroup can report it
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("worker panic: %v", r)
			}
		}()
		return fn()
	}
}
