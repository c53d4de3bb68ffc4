package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Models names the generative models used by each stage
type Models struct {
	Vision      string `json:"vision"`
	Interactive string `json:"interactive"`
}

// SceneDetection holds segmenter thresholds
type SceneDetection struct {
	MinSceneLength float64       `json:"min_scene_length"`
	Threshold      float64       `json:"threshold"`
	Timeout        time.Duration `json:"timeout"`
}

// Transcription holds speech recognition settings
type Transcription struct {
	Language       string `json:"language"`
	PreferCaptions bool   `json:"prefer_captions"`
}

// Analysis holds frame analysis settings
type Analysis struct {
	FramesPerScene  int           `json:"frames_per_scene"`
	KeyframeTimeout time.Duration `json:"keyframe_timeout"`
	ModelTimeout    time.Duration `json:"model_timeout"`
}

// UI holds constants served to the web front end
type UI struct {
	ThumbnailWidth   int     `json:"thumbnail_width"`
	ThumbnailHeight  int     `json:"thumbnail_height"`
	PreviewDuration  float64 `json:"preview_duration"`
	MaxScenesPerPage int     `json:"max_scenes_per_page"`
}

// Server holds HTTP listener and upload settings
type Server struct {
	Host              string   `json:"host"`
	Port              int      `json:"port"`
	UploadDir         string   `json:"upload_dir"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

// Queue holds Redis job queue settings
type Queue struct {
	Enabled  bool   `json:"enabled"`
	Addr     string `json:"addr"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// Archive holds Postgres archive settings
type Archive struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"-"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
	TimeZone string `json:"time_zone"`
}

// Config is the full application configuration
type Config struct {
	Models         Models         `json:"models"`
	SceneDetection SceneDetection `json:"scene_detection"`
	Transcription  Transcription  `json:"transcription"`
	Analysis       Analysis       `json:"analysis"`
	UI             UI             `json:"ui"`
	Server         Server         `json:"server"`
	Queue          Queue          `json:"queue"`
	Archive        Archive        `json:"archive"`

	GeminiAPIKey string `json:"-"`
	LogLevel     string `json:"log_level"`
	LogFormat    string `json:"log_format"`
}

// Default returns the built-in configuration without consulting the environment
func Default() *Config {
	return &Config{
		Models: Models{
			Vision:      "gemini-1.5-flash",
			Interactive: "gemini-2.0-flash-live-001",
		},
		SceneDetection: SceneDetection{
			MinSceneLength: 5.0,
			Threshold:      0.3,
			Timeout:        300 * time.Second,
		},
		Transcription: Transcription{
			Language: "ja",
		},
		Analysis: Analysis{
			FramesPerScene:  3,
			KeyframeTimeout: 30 * time.Second,
			ModelTimeout:    60 * time.Second,
		},
		UI: UI{
			ThumbnailWidth:   320,
			ThumbnailHeight:  180,
			PreviewDuration:  5.0,
			MaxScenesPerPage: 10,
		},
		Server: Server{
			Host:              "0.0.0.0",
			Port:              8000,
			UploadDir:         "uploads",
			AllowedExtensions: []string{".mp4", ".mov", ".avi", ".mkv", ".webm"},
		},
		Queue: Queue{
			Addr: "localhost:6379",
		},
		Archive: Archive{
			Host:     "localhost",
			Port:     "5432",
			User:     "summitclips",
			DBName:   "summitclips",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load reads an optional .env file and overlays environment variables on the defaults.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	loaded := godotenv.Load() == nil
	cfg, err := FromEnv()
	return cfg, loaded, err
}

// FromEnv builds a Config from defaults and the current environment
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.Models.Vision = getEnvOrDefault("MODEL_VISION", cfg.Models.Vision)
	cfg.Models.Interactive = getEnvOrDefault("MODEL_INTERACTIVE", cfg.Models.Interactive)

	var err error
	if cfg.SceneDetection.MinSceneLength, err = getEnvFloat("SCENE_MIN_LENGTH", cfg.SceneDetection.MinSceneLength); err != nil {
		return nil, err
	}
	if cfg.SceneDetection.Threshold, err = getEnvFloat("SCENE_THRESHOLD", cfg.SceneDetection.Threshold); err != nil {
		return nil, err
	}
	if cfg.SceneDetection.Timeout, err = getEnvSeconds("SCENEDETECT_TIMEOUT_SECS", cfg.SceneDetection.Timeout); err != nil {
		return nil, err
	}

	cfg.Transcription.Language = getEnvOrDefault("TRANSCRIBE_LANGUAGE", cfg.Transcription.Language)
	if cfg.Transcription.PreferCaptions, err = getEnvBool("TRANSCRIBE_PREFER_CAPTIONS", cfg.Transcription.PreferCaptions); err != nil {
		return nil, err
	}

	if cfg.Analysis.FramesPerScene, err = getEnvInt("FRAMES_PER_SCENE", cfg.Analysis.FramesPerScene); err != nil {
		return nil, err
	}
	if cfg.Analysis.KeyframeTimeout, err = getEnvSeconds("KEYFRAME_TIMEOUT_SECS", cfg.Analysis.KeyframeTimeout); err != nil {
		return nil, err
	}
	if cfg.Analysis.ModelTimeout, err = getEnvSeconds("MODEL_TIMEOUT_SECS", cfg.Analysis.ModelTimeout); err != nil {
		return nil, err
	}

	cfg.Server.Host = getEnvOrDefault("HOST", cfg.Server.Host)
	if cfg.Server.Port, err = getEnvInt("PORT", cfg.Server.Port); err != nil {
		return nil, err
	}
	cfg.Server.UploadDir = getEnvOrDefault("UPLOAD_DIR", cfg.Server.UploadDir)
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		cfg.Server.AllowedExtensions = splitExtensions(v)
	}

	if cfg.Queue.Enabled, err = getEnvBool("QUEUE_ENABLED", cfg.Queue.Enabled); err != nil {
		return nil, err
	}
	cfg.Queue.Addr = getEnvOrDefault("REDIS_ADDR", cfg.Queue.Addr)
	cfg.Queue.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Queue.DB, err = getEnvInt("REDIS_DB", cfg.Queue.DB); err != nil {
		return nil, err
	}

	if cfg.Archive.Enabled, err = getEnvBool("ARCHIVE_ENABLED", cfg.Archive.Enabled); err != nil {
		return nil, err
	}
	cfg.Archive.Host = getEnvOrDefault("DB_HOST", cfg.Archive.Host)
	cfg.Archive.Port = getEnvOrDefault("DB_PORT", cfg.Archive.Port)
	cfg.Archive.User = getEnvOrDefault("DB_USER", cfg.Archive.User)
	cfg.Archive.Password = os.Getenv("DB_PASSWORD")
	cfg.Archive.DBName = getEnvOrDefault("DB_NAME", cfg.Archive.DBName)
	cfg.Archive.SSLMode = getEnvOrDefault("DB_SSLMODE", cfg.Archive.SSLMode)
	cfg.Archive.TimeZone = getEnvOrDefault("DB_TIMEZONE", cfg.Archive.TimeZone)

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.SceneDetection.MinSceneLength < 0 {
		return fmt.Errorf("scene_detection.min_scene_length must be >= 0, got %v", c.SceneDetection.MinSceneLength)
	}
	if c.SceneDetection.Threshold <= 0 || c.SceneDetection.Threshold >= 1 {
		return fmt.Errorf("scene_detection.threshold must be in (0, 1), got %v", c.SceneDetection.Threshold)
	}
	if c.Analysis.FramesPerScene < 1 {
		return fmt.Errorf("analysis.frames_per_scene must be >= 1, got %d", c.Analysis.FramesPerScene)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Addr returns host:port for the HTTP listener
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN returns the Postgres connection string
func (a Archive) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		a.Host, a.User, a.Password, a.DBName, a.Port, a.SSLMode, a.TimeZone)
}

// Helper function to get environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

// getEnvSeconds reads a positive whole number of seconds
func getEnvSeconds(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want positive seconds", key, v)
	}
	return time.Duration(secs) * time.Second, nil
}

func splitExtensions(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
