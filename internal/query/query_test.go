package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"summitclips-server/internal/models"
)

type fakeModel struct {
	prompt string
	reply  string
	err    error
}

func (m *fakeModel) Generate(ctx context.Context, prompt string, images [][]byte) (string, error) {
	m.prompt = prompt
	return m.reply, m.err
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Scenes: []models.Scene{
			{SceneID: 1, StartTime: 0, EndTime: 30},
			{SceneID: 3, StartTime: 30, EndTime: 60},
			{SceneID: 4, StartTime: 60, EndTime: 90},
		},
		Descriptions: []models.Description{
			{SceneID: 1, Text: "このシーンでは、Summit push at dawn"},
			{SceneID: 3, Text: "このシーンでは、雲海が見える山頂"},
		},
		FrameAnalyses: []models.FrameAnalysis{
			{Timestamp: 15, Analysis: `{"天候状況": "晴れ"}`},
			{Timestamp: 45, Analysis: `{"天候状況": "霧"}`},
		},
	}
}

func TestSceneAt(t *testing.T) {
	e := NewEngine(sampleResult(), nil, 0)
	cases := []struct {
		t    float64
		want int
	}{
		{0, 1},
		{29.9, 1},
		{30, 1},
		{30.1, 3},
		{90, 4},
	}
	for _, tc := range cases {
		s, err := e.SceneAt(tc.t)
		if err != nil || s.SceneID != tc.want {
			t.Errorf("SceneAt(%v) = %d, %v; want %d", tc.t, s.SceneID, err, tc.want)
		}
	}
	if _, err := e.SceneAt(120); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	e := NewEngine(sampleResult(), nil, 0)

	res := e.Search("SUMMIT")
	if res.TotalMatches != 1 || res.MatchingScenes[0].SceneID != 1 {
		t.Fatalf("search = %+v", res)
	}
	if res.MatchingScenes[0].EndTime != 30 {
		t.Fatalf("match timing = %+v", res.MatchingScenes[0])
	}

	res = e.Search("このシーン")
	if res.TotalMatches != 2 {
		t.Fatalf("expected 2 matches, got %d", res.TotalMatches)
	}

	res = e.Search("吹雪")
	if res.TotalMatches != 0 || res.MatchingScenes == nil {
		t.Fatalf("empty search = %+v", res)
	}
}

func TestEmotionalTone(t *testing.T) {
	model := &fakeModel{reply: `{"感情": "喜び", "強度": 4}`}
	e := NewEngine(sampleResult(), model, 0)

	res, err := e.EmotionalTone(context.Background(), 3)
	if err != nil {
		t.Fatalf("EmotionalTone returned error: %v", err)
	}
	if res.SceneID != 3 || res.EmotionalTone != model.reply {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(model.prompt, "説明文: このシーンでは、雲海が見える山頂") {
		t.Fatalf("prompt = %q", model.prompt)
	}

	if _, err := e.EmotionalTone(context.Background(), 2); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("missing scene: %v", err)
	}
	if _, err := e.EmotionalTone(context.Background(), 4); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("missing description: %v", err)
	}
}

func TestWeather(t *testing.T) {
	model := &fakeModel{reply: `{"天候": "晴れ"}`}
	e := NewEngine(sampleResult(), model, 0)

	res, err := e.Weather(context.Background(), 1)
	if err != nil {
		t.Fatalf("Weather returned error: %v", err)
	}
	if res.WeatherConditions != model.reply {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(model.prompt, `{"天候状況": "晴れ"}`) || strings.Contains(model.prompt, "霧") {
		t.Fatalf("prompt should only carry scene 1 analyses: %q", model.prompt)
	}

	if _, err := e.Weather(context.Background(), 4); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("scene without analyses: %v", err)
	}
}

func TestModelFailures(t *testing.T) {
	e := NewEngine(sampleResult(), nil, 0)
	if _, err := e.EmotionalTone(context.Background(), 1); !errors.Is(err, models.ErrModelInvocation) {
		t.Fatalf("nil model: %v", err)
	}

	model := &fakeModel{err: &models.ModelError{Model: "interactive", Err: errors.New("quota")}}
	e = NewEngine(sampleResult(), model, 0)
	if _, err := e.Weather(context.Background(), 1); !errors.Is(err, models.ErrModelInvocation) {
		t.Fatalf("model error: %v", err)
	}
}
