package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"summitclips-server/internal/models"
)

// DB represents the archive database connection
type DB struct {
	*gorm.DB
}

// Stats summarizes the archive
type Stats struct {
	TotalAnalyses    int64 `json:"total_analyses"`
	FallbackAnalyses int64 `json:"fallback_analyses"`
	TotalScenes      int64 `json:"total_scenes"`
}

// gormWriter routes gorm's log output through zerolog
type gormWriter struct {
	logger zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Debug().Msgf(format, args...)
}

// NewConnection creates a new database connection
func NewConnection(dsn string, log zerolog.Logger) (*DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.New(
			gormWriter{logger: log},
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &DB{db}, nil
}

// AutoMigrate runs database migrations for the archive tables
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.Analysis{},
		&models.AnalysisScene{},
	)
}

// SaveResult archives a finished pipeline result with its scene rows
func (db *DB) SaveResult(ctx context.Context, result *models.AnalysisResult) error {
	record := models.NewAnalysisRecord(result, map[string]interface{}{
		"transcriptions": len(result.Transcriptions),
		"frame_analyses": len(result.FrameAnalyses),
	})
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to archive analysis %s: %w", result.SessionID, err)
	}
	return nil
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotFound(format, args...)
	}
	return err
}

func orderedScenes(db *gorm.DB) *gorm.DB {
	return db.Order("start_time ASC, scene_id ASC")
}

// GetAnalysisByID retrieves an analysis with its scenes in temporal order
func (db *DB) GetAnalysisByID(ctx context.Context, id uint) (*models.Analysis, error) {
	var analysis models.Analysis
	err := db.WithContext(ctx).Preload("Scenes", orderedScenes).First(&analysis, id).Error
	if err != nil {
		return nil, notFound(err, "analysis %d not found", id)
	}
	return &analysis, nil
}

// GetAnalysisBySession retrieves an analysis by its pipeline session id
func (db *DB) GetAnalysisBySession(ctx context.Context, sessionID string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := db.WithContext(ctx).Preload("Scenes", orderedScenes).Where("session_id = ?", sessionID).First(&analysis).Error
	if err != nil {
		return nil, notFound(err, "analysis for session %s not found", sessionID)
	}
	return &analysis, nil
}

// ListAnalyses retrieves analyses with pagination, newest first
func (db *DB) ListAnalyses(ctx context.Context, limit, offset int) ([]models.Analysis, int64, error) {
	var analyses []models.Analysis
	var total int64

	tx := db.WithContext(ctx)
	if err := tx.Model(&models.Analysis{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := tx.Limit(limit).Offset(offset).Order("created_at DESC").Find(&analyses).Error
	if err != nil {
		return nil, 0, err
	}

	return analyses, total, nil
}

// GetStats queries archive statistics
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	err := db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM analyses) as total_analyses,
			(SELECT COUNT(*) FROM analyses WHERE fallback) as fallback_analyses,
			(SELECT COUNT(*) FROM analysis_scenes) as total_scenes
	`).Scan(&stats).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query database stats: %w", err)
	}

	return &stats, nil
}

// Health checks the database connection
func (db *DB) Health(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	return sqlDB.Close()
}
