package session

import (
	"sync"

	"github.com/google/uuid"

	"summitclips-server/internal/models"
)

// State keys written by the pipeline
const (
	KeyVideoPath          = "video_path"
	KeyScenes             = "scenes"
	KeyTranscriptions     = "transcriptions"
	KeyFrameAnalyses      = "frame_analyses"
	KeyDescriptions       = "descriptions"
	KeyEditingSuggestions = "editing_suggestions"
	KeyStage              = "stage"
	KeyFallback           = "fallback"
)

// Session is the state bag for one analysis run
type Session struct {
	ID string

	mu    sync.RWMutex
	state map[string]any
}

// New creates a session with a random id
func New() *Session {
	return &Session{ID: uuid.NewString(), state: make(map[string]any)}
}

// Set stores value under key
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
}

// Get returns the value stored under key
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok
}

// Len returns the number of stored keys
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state)
}

func getAs[T any](s *Session, key string) T {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		return zero
	}
	return typed
}

// VideoPath returns the input video of the run
func (s *Session) VideoPath() string { return getAs[string](s, KeyVideoPath) }

// Stage returns the current pipeline stage
func (s *Session) Stage() models.Stage { return getAs[models.Stage](s, KeyStage) }

// Scenes returns the published scenes
func (s *Session) Scenes() []models.Scene { return getAs[[]models.Scene](s, KeyScenes) }

// Transcriptions returns the per-scene transcript segments
func (s *Session) Transcriptions() []models.TranscriptSegment {
	return getAs[[]models.TranscriptSegment](s, KeyTranscriptions)
}

// FrameAnalyses returns one analysis per analyzed timestamp
func (s *Session) FrameAnalyses() []models.FrameAnalysis {
	return getAs[[]models.FrameAnalysis](s, KeyFrameAnalyses)
}

// Descriptions returns one description per scene
func (s *Session) Descriptions() []models.Description {
	return getAs[[]models.Description](s, KeyDescriptions)
}

// EditingSuggestions returns one suggestion per scene
func (s *Session) EditingSuggestions() []models.EditingSuggestion {
	return getAs[[]models.EditingSuggestion](s, KeyEditingSuggestions)
}

// Result snapshots the published artifacts
func (s *Session) Result() *models.AnalysisResult {
	return &models.AnalysisResult{
		SessionID:          s.ID,
		VideoPath:          s.VideoPath(),
		Scenes:             s.Scenes(),
		Descriptions:       s.Descriptions(),
		EditingSuggestions: s.EditingSuggestions(),
		Transcriptions:     s.Transcriptions(),
		FrameAnalyses:      s.FrameAnalyses(),
		Fallback:           getAs[bool](s, KeyFallback),
	}
}

// Registry tracks the sessions of in-flight runs
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Open creates and registers a new session
func (r *Registry) Open() *Session {
	s := New()
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Close discards a session
func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Lookup returns an in-flight session
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Active returns the number of in-flight sessions
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
