package transcribe

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"summitclips-server/internal/ffmpeg"
	"summitclips-server/internal/models"
)

type fakeMedia struct {
	sizes     map[float64]int // audio bytes by span start
	failStart map[float64]bool
	srt       string
	written   []string
}

func (f *fakeMedia) ExtractAudio(ctx context.Context, videoPath, outputPath string, span *ffmpeg.Span) error {
	start := -1.0
	if span != nil {
		start = span.Start
	}
	if f.failStart[start] {
		return &models.ExtractionError{Op: "extract audio", Path: videoPath, Err: errors.New("exit status 1")}
	}
	f.written = append(f.written, outputPath)
	return os.WriteFile(outputPath, make([]byte, f.sizes[start]), 0o644)
}

func (f *fakeMedia) ExtractSubtitles(ctx context.Context, videoPath, outputPath string) error {
	if f.srt == "" {
		return errors.New("no subtitle stream")
	}
	return os.WriteFile(outputPath, []byte(f.srt), 0o644)
}

func TestPlaceholderText(t *testing.T) {
	cases := []struct {
		size      int64
		sentences int
	}{
		{0, 1},
		{99999, 1},
		{100000, 1},
		{250000, 2},
		{499999, 4},
		{5000000, 5},
	}
	for _, tc := range cases {
		got := PlaceholderText(tc.size)
		want := strings.Join(placeholderSentences[:tc.sentences], " ")
		if got != want {
			t.Errorf("size %d: got %q, want %d sentences", tc.size, got, tc.sentences)
		}
	}
}

func TestTranscribeScenesIsolatesFailures(t *testing.T) {
	media := &fakeMedia{
		sizes:     map[float64]int{0: 10, 30: 320000},
		failStart: map[float64]bool{60: true},
	}
	tr := NewTranscriber(media, zerolog.Nop())
	scenes := []models.Scene{
		{SceneID: 1, StartTime: 0, EndTime: 30},
		{SceneID: 2, StartTime: 30, EndTime: 60},
		{SceneID: 4, StartTime: 60, EndTime: 90},
	}

	segments, err := tr.TranscribeScenes(context.Background(), "climb.mp4", scenes)
	if err != nil {
		t.Fatalf("TranscribeScenes returned error: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(segments))
	}
	if segments[0].Text != placeholderSentences[0] {
		t.Errorf("scene 1 text = %q", segments[0].Text)
	}
	if want := strings.Join(placeholderSentences[:3], " "); segments[1].Text != want {
		t.Errorf("scene 2 text = %q", segments[1].Text)
	}
	if segments[2].SceneID != 4 || segments[2].Text != "" {
		t.Errorf("failed scene = %+v, want empty text for scene 4", segments[2])
	}
	for _, p := range media.written {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("temp audio %s not cleaned up", p)
		}
	}
}

type failingRecognizer struct{}

func (failingRecognizer) Recognize(ctx context.Context, audioPath string) (string, error) {
	return "", errors.New("model unavailable")
}

func TestTranscribeScenesRecognizerFailure(t *testing.T) {
	media := &fakeMedia{sizes: map[float64]int{}}
	tr := NewTranscriber(media, zerolog.Nop(), WithRecognizer(failingRecognizer{}))
	segments, err := tr.TranscribeScenes(context.Background(), "climb.mp4", []models.Scene{{SceneID: 1, StartTime: 0, EndTime: 10}})
	if err != nil {
		t.Fatalf("TranscribeScenes returned error: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "" {
		t.Fatalf("segments = %+v", segments)
	}
}

func TestTranscribeScenesPrefersCaptions(t *testing.T) {
	media := &fakeMedia{
		sizes: map[float64]int{20: 10},
		srt:   "1\n00:00:02,000 --> 00:00:05,000\n出発します。\n\n",
	}
	tr := NewTranscriber(media, zerolog.Nop(), WithCaptions(true))
	scenes := []models.Scene{
		{SceneID: 1, StartTime: 0, EndTime: 20},
		{SceneID: 2, StartTime: 20, EndTime: 40},
	}
	segments, err := tr.TranscribeScenes(context.Background(), "climb.mp4", scenes)
	if err != nil {
		t.Fatalf("TranscribeScenes returned error: %v", err)
	}
	if segments[0].Text != "出発します。" {
		t.Errorf("captioned scene text = %q", segments[0].Text)
	}
	if segments[1].Text != placeholderSentences[0] {
		t.Errorf("uncaptioned scene should fall back to audio, got %q", segments[1].Text)
	}
}

func TestTranscribeScenesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := NewTranscriber(&fakeMedia{}, zerolog.Nop())
	if _, err := tr.TranscribeScenes(ctx, "climb.mp4", []models.Scene{{SceneID: 1, EndTime: 5}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranscribeWhole(t *testing.T) {
	media := &fakeMedia{sizes: map[float64]int{-1: 200000}}
	tr := NewTranscriber(media, zerolog.Nop())
	text, err := tr.TranscribeWhole(context.Background(), "climb.mp4")
	if err != nil {
		t.Fatalf("TranscribeWhole returned error: %v", err)
	}
	if want := strings.Join(placeholderSentences[:2], " "); text != want {
		t.Fatalf("text = %q", text)
	}

	media.failStart = map[float64]bool{-1: true}
	if _, err := tr.TranscribeWhole(context.Background(), "climb.mp4"); !errors.Is(err, models.ErrToolInvocation) {
		t.Fatalf("expected tool invocation error, got %v", err)
	}
}
