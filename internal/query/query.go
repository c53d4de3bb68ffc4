package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"summitclips-server/internal/models"
)

const emotionalTonePrompt = `以下の登山動画シーンの説明文から、感情的なトーンを分析してください。
感情（興奮、平穏、緊張、喜び、驚きなど）と強度（1-5のスケール）を特定してください。

説明文: %s

JSON形式で回答してください。`

const weatherPrompt = `以下の登山動画シーンのフレーム分析から、天候状況に関する情報を抽出してください。
天候（晴れ、曇り、雨、雪など）、気温（推定）、視界（良好、普通、不良）などを特定してください。

フレーム分析:
%s

JSON形式で回答してください。`

// TextModel answers free-text prompts
type TextModel interface {
	Generate(ctx context.Context, prompt string, images [][]byte) (string, error)
}

// SceneMatch is one keyword hit
type SceneMatch struct {
	SceneID     int     `json:"scene_id"`
	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	Description string  `json:"description"`
}

// SearchResult lists scenes whose description contains a keyword
type SearchResult struct {
	MatchingScenes []SceneMatch `json:"matching_scenes"`
	TotalMatches   int          `json:"total_matches"`
}

// ToneResult is the model's reading of a scene's emotional tone
type ToneResult struct {
	SceneID       int    `json:"scene_id"`
	EmotionalTone string `json:"emotional_tone"`
}

// WeatherResult is the model's reading of a scene's weather
type WeatherResult struct {
	SceneID           int    `json:"scene_id"`
	WeatherConditions string `json:"weather_conditions"`
}

// Engine answers property questions about a finished analysis
type Engine struct {
	result  *models.AnalysisResult
	model   TextModel
	timeout time.Duration
}

// NewEngine creates a query engine. model may be nil, in which case the
// model-backed queries fail with a model invocation error.
func NewEngine(result *models.AnalysisResult, model TextModel, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{result: result, model: model, timeout: timeout}
}

// SceneAt returns the first scene whose interval contains t
func (e *Engine) SceneAt(t float64) (models.Scene, error) {
	for _, s := range e.result.Scenes {
		if s.Contains(t) {
			return s, nil
		}
	}
	return models.Scene{}, models.NotFound("no scene at %g seconds", t)
}

// Search does a case-insensitive substring match over scene descriptions
func (e *Engine) Search(keyword string) SearchResult {
	needle := strings.ToLower(keyword)
	res := SearchResult{MatchingScenes: []SceneMatch{}}
	for _, s := range e.result.Scenes {
		desc := e.result.DescriptionFor(s.SceneID)
		if desc == "" || !strings.Contains(strings.ToLower(desc), needle) {
			continue
		}
		res.MatchingScenes = append(res.MatchingScenes, SceneMatch{
			SceneID:     s.SceneID,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			Description: desc,
		})
	}
	res.TotalMatches = len(res.MatchingScenes)
	return res
}

// EmotionalTone asks the model for the emotional tone of a scene's description
func (e *Engine) EmotionalTone(ctx context.Context, sceneID int) (*ToneResult, error) {
	if _, ok := e.result.SceneByID(sceneID); !ok {
		return nil, models.NotFound("scene %d not found", sceneID)
	}
	desc := e.result.DescriptionFor(sceneID)
	if desc == "" {
		return nil, models.NotFound("scene %d has no description", sceneID)
	}

	text, err := e.generate(ctx, fmt.Sprintf(emotionalTonePrompt, desc))
	if err != nil {
		return nil, err
	}
	return &ToneResult{SceneID: sceneID, EmotionalTone: text}, nil
}

// Weather asks the model to summarize weather from the frame analyses inside a scene
func (e *Engine) Weather(ctx context.Context, sceneID int) (*WeatherResult, error) {
	scene, ok := e.result.SceneByID(sceneID)
	if !ok {
		return nil, models.NotFound("scene %d not found", sceneID)
	}

	var analyses []string
	for _, fa := range e.result.FrameAnalyses {
		if scene.Contains(fa.Timestamp) {
			analyses = append(analyses, fa.Analysis)
		}
	}
	if len(analyses) == 0 {
		return nil, models.NotFound("scene %d has no frame analysis", sceneID)
	}

	text, err := e.generate(ctx, fmt.Sprintf(weatherPrompt, strings.Join(analyses, " ")))
	if err != nil {
		return nil, err
	}
	return &WeatherResult{SceneID: sceneID, WeatherConditions: text}, nil
}

func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	if e.model == nil {
		return "", &models.ModelError{Model: "interactive", Err: fmt.Errorf("model not configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.model.Generate(ctx, prompt, nil)
}
