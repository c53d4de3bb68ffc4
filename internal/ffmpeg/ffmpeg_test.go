package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"summitclips-server/internal/models"
)

// writeScript installs an executable shell script standing in for ffmpeg/ffprobe
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func newTestClient(t *testing.T, ffmpegBody, ffprobeBody string) *Client {
	t.Helper()
	dir := t.TempDir()
	ffmpegPath := writeScript(t, dir, "ffmpeg", ffmpegBody)
	ffprobePath := writeScript(t, dir, "ffprobe", ffprobeBody)
	return NewClient(zerolog.Nop(), WithBinaries(ffmpegPath, ffprobePath), WithFrameTimeout(5*time.Second))
}

func TestDuration(t *testing.T) {
	c := newTestClient(t, "exit 0", `echo '{"format":{"duration":"95.000000"}}'`)
	got, err := c.Duration(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("Duration returned error: %v", err)
	}
	if got != 95.0 {
		t.Fatalf("duration = %v, want 95", got)
	}
}

func TestDurationFailures(t *testing.T) {
	cases := map[string]string{
		"tool error":      "echo 'No such file' >&2; exit 1",
		"unparsable json": "echo 'not json'",
		"bad duration":    `echo '{"format":{"duration":"N/A"}}'`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, "exit 0", body)
			_, err := c.Duration(context.Background(), "video.mp4")
			var probeErr *models.ProbeError
			if !errors.As(err, &probeErr) {
				t.Fatalf("expected ProbeError, got %v", err)
			}
			if !errors.Is(err, models.ErrToolInvocation) {
				t.Fatal("probe error should match ErrToolInvocation")
			}
		})
	}
}

func TestExtractAudioSpanArgs(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	body := `echo "$@" > ` + argsFile + `
for last; do :; done
printf 'RIFF' > "$last"`
	c := newTestClient(t, body, "exit 0")

	out := filepath.Join(dir, "scene.wav")
	if err := c.ExtractAudio(context.Background(), "video.mp4", out, &Span{Start: 10, End: 25.5}); err != nil {
		t.Fatalf("ExtractAudio returned error: %v", err)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	want := "-ss 10.000 -i video.mp4 -t 15.500 -vn -acodec pcm_s16le -ar 16000 -ac 1 -y " + out
	if strings.TrimSpace(string(args)) != want {
		t.Fatalf("args = %q\nwant  %q", strings.TrimSpace(string(args)), want)
	}
	if data, _ := os.ReadFile(out); string(data) != "RIFF" {
		t.Fatalf("output = %q", data)
	}
}

func TestExtractAudioFailureRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	body := `for last; do :; done
printf 'partial' > "$last"
echo 'Conversion failed!' >&2
exit 1`
	c := newTestClient(t, body, "exit 0")

	out := filepath.Join(dir, "scene.wav")
	err := c.ExtractAudio(context.Background(), "video.mp4", out, nil)
	var extractErr *models.ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if !strings.Contains(extractErr.Stderr, "Conversion failed") {
		t.Fatalf("stderr not captured: %q", extractErr.Stderr)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("partial output should be removed")
	}
}

func TestExtractFrame(t *testing.T) {
	c := newTestClient(t, `printf 'JPEGDATA'`, "exit 0")
	frame := c.ExtractFrame(context.Background(), "video.mp4", -3)
	if string(frame) != "JPEGDATA" {
		t.Fatalf("frame = %q", frame)
	}
}

func TestExtractFrameFailureReturnsNil(t *testing.T) {
	c := newTestClient(t, "exit 1", "exit 0")
	if frame := c.ExtractFrame(context.Background(), "video.mp4", 1); frame != nil {
		t.Fatalf("expected nil frame, got %q", frame)
	}
}

func TestDetectCutsReturnsDiagnostics(t *testing.T) {
	body := `echo '[Parsed_showinfo_1 @ 0x1] n:   0 pts:  12012 pts_time:12.012  duration:1001' >&2`
	c := newTestClient(t, body, "exit 0")
	out, err := c.DetectCuts(context.Background(), "video.mp4", 0.3)
	if err != nil {
		t.Fatalf("DetectCuts returned error: %v", err)
	}
	if !strings.Contains(out, "pts_time:12.012") {
		t.Fatalf("diagnostics = %q", out)
	}
}

func TestPickSubtitleStream(t *testing.T) {
	streams := []Stream{
		{Index: 0, CodecType: "video"},
		{Index: 1, CodecType: "subtitle", CodecName: "ass", Tags: map[string]string{"language": "fre"}},
		{Index: 2, CodecType: "subtitle", CodecName: "mov_text", Tags: map[string]string{"language": "jpn"}},
		{Index: 3, CodecType: "subtitle", CodecName: "subrip", Tags: map[string]string{"LANGUAGE": "eng"}},
		{Index: 4, CodecType: "subtitle", CodecName: "subrip"},
	}
	cases := []struct {
		name     string
		streams  []Stream
		language string
		want     int
	}{
		{"subrip wins among en/ja without a language", streams, "", 2},
		{"configured language beats subrip", streams, "ja", 1},
		{"three-letter language code", streams, "fre", 0},
		{"unknown language falls back to en/ja", streams, "de", 2},
		{"first stream when nothing matches", streams[:2], "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx, ok := pickSubtitleStream(tc.streams, tc.language)
			if !ok || idx != tc.want {
				t.Fatalf("idx = %d ok = %v, want %d", idx, ok, tc.want)
			}
		})
	}

	if _, ok := pickSubtitleStream(streams[:1], "ja"); ok {
		t.Fatal("expected no subtitle stream")
	}
}

func TestExtractSubtitlesUsesCaptionLanguage(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	probe := `echo '{"streams":[{"index":0,"codec_type":"subtitle","codec_name":"subrip","tags":{"language":"eng"}},{"index":1,"codec_type":"subtitle","codec_name":"mov_text","tags":{"language":"jpn"}}]}'`
	ffmpegPath := writeScript(t, dir, "ffmpeg", `echo "$@" > `+argsFile)
	ffprobePath := writeScript(t, dir, "ffprobe", probe)
	c := NewClient(zerolog.Nop(), WithBinaries(ffmpegPath, ffprobePath), WithCaptionLanguage("JA"))

	if err := c.ExtractSubtitles(context.Background(), "video.mp4", filepath.Join(dir, "out.srt")); err != nil {
		t.Fatalf("ExtractSubtitles returned error: %v", err)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	if !strings.Contains(string(args), "-map 0:s:1") {
		t.Fatalf("args = %q, want japanese stream mapped", args)
	}
}

func TestCheck(t *testing.T) {
	c := newTestClient(t, "exit 0", "exit 0")
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	bad := NewClient(zerolog.Nop(), WithBinaries("/nonexistent/ffmpeg", "/nonexistent/ffprobe"))
	if err := bad.Check(context.Background()); err == nil {
		t.Fatal("expected error for missing binaries")
	}
}
