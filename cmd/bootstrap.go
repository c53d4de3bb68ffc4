package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"summitclips-server/internal/config"
	"summitclips-server/internal/database"
	"summitclips-server/internal/ffmpeg"
	"summitclips-server/internal/logging"
	"summitclips-server/internal/processor"
	"summitclips-server/internal/query"
	"summitclips-server/internal/queue"
	"summitclips-server/internal/scenedetect"
	"summitclips-server/internal/session"
	"summitclips-server/internal/transcribe"
	"summitclips-server/internal/vision"
)

// commandContext carries configuration shared by every subcommand
type commandContext struct {
	logLevel *string

	cfg    *config.Config
	logger zerolog.Logger
}

func (c *commandContext) load() error {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		return err
	}
	if c.logLevel != nil && *c.logLevel != "" {
		cfg.LogLevel = *c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	if !envLoaded {
		logger.Debug().Msg("no .env file found, using environment variables")
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}

// services is the wired pipeline plus whatever optional backends are enabled
type services struct {
	media      *ffmpeg.Client
	pipeline   *processor.Pipeline
	sessions   *session.Registry
	model      *vision.GeminiModel
	queryModel *vision.GeminiModel
	archive    *database.DB
	jobs       *queue.Queue
}

type serviceOptions struct {
	archive bool
	queue   bool
	queries bool
}

func (c *commandContext) buildServices(ctx context.Context, opts serviceOptions) (*services, error) {
	cfg := c.cfg
	logger := c.logger
	svc := &services{sessions: session.NewRegistry()}

	svc.media = ffmpeg.NewClient(logging.WithComponent(logger, "ffmpeg"),
		ffmpeg.WithFrameTimeout(cfg.Analysis.KeyframeTimeout),
		ffmpeg.WithCaptionLanguage(cfg.Transcription.Language))

	detector := scenedetect.NewDetector(svc.media, scenedetect.Options{
		MinSceneLength: cfg.SceneDetection.MinSceneLength,
		Threshold:      cfg.SceneDetection.Threshold,
		Timeout:        cfg.SceneDetection.Timeout,
	}, logging.WithComponent(logger, "scenedetect"))

	transcriber := transcribe.NewTranscriber(svc.media, logging.WithComponent(logger, "transcribe"),
		transcribe.WithCaptions(cfg.Transcription.PreferCaptions))

	// a nil *GeminiModel must not reach an interface; leave the model unset instead
	var frameModel vision.Model
	model, err := vision.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.Models.Vision)
	if err != nil {
		logger.Warn().Err(err).Msg("vision model unavailable, frame analysis will use empty results")
	} else {
		svc.model = model
		frameModel = model
	}

	if opts.queries {
		if qm, err := vision.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.Models.Interactive); err != nil {
			logger.Warn().Err(err).Msg("query model unavailable, tone and weather queries disabled")
		} else {
			svc.queryModel = qm
		}
	}

	analyzer := vision.NewAnalyzer(svc.media, frameModel, vision.Options{
		FramesPerScene: cfg.Analysis.FramesPerScene,
		ModelTimeout:   cfg.Analysis.ModelTimeout,
	}, logging.WithComponent(logger, "vision"))

	pipelineOpts := []processor.Option{processor.WithRegistry(svc.sessions)}

	if opts.archive && cfg.Archive.Enabled {
		db, err := database.NewConnection(cfg.Archive.DSN(), logging.WithComponent(logger, "database"))
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to connect to archive: %w", err)
		}
		if err := db.AutoMigrate(); err != nil {
			db.Close()
			svc.Close()
			return nil, err
		}
		logger.Info().Msg("archive connection established")
		svc.archive = db
		pipelineOpts = append(pipelineOpts, processor.WithResultSink(db))
	}

	if opts.queue && cfg.Queue.Enabled {
		q, err := queue.NewQueue(ctx, queue.Config{
			Addr:     cfg.Queue.Addr,
			Password: cfg.Queue.Password,
			DB:       cfg.Queue.DB,
		})
		if err != nil {
			svc.Close()
			return nil, err
		}
		logger.Info().Str("addr", cfg.Queue.Addr).Msg("job queue connected")
		svc.jobs = q
	}

	svc.pipeline = processor.NewPipeline(detector, transcriber, analyzer,
		logging.WithComponent(logger, "pipeline"), pipelineOpts...)
	return svc, nil
}

// textModel returns the model backing scene queries, or nil when none was built
func (s *services) textModel() query.TextModel {
	if s.queryModel == nil {
		return nil
	}
	return s.queryModel
}

// Close releases every backend that was opened
func (s *services) Close() {
	if s.model != nil {
		s.model.Close()
	}
	if s.queryModel != nil {
		s.queryModel.Close()
	}
	if s.archive != nil {
		s.archive.Close()
	}
	if s.jobs != nil {
		s.jobs.Close()
	}
}
