package media

import (
	"context"
	"errors"
	"os/exec"
	"testing"
)

func stubTools(t *testing.T, available map[string]bool, outputs map[string]string) {
	t.Helper()
	origLook, origRun := lookPath, runOutput
	t.Cleanup(func() {
		lookPath, runOutput = origLook, origRun
	})

	lookPath = func(name string) (string, error) {
		if available[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
	runOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		out, ok := outputs[name]
		if !ok {
			return nil, errors.New("exit status 1")
		}
		return []byte(out), nil
	}
}

func TestProbe(t *testing.T) {
	stubTools(t,
		map[string]bool{FFmpegCommand: true, FFprobeCommand: true, YTDLPCommand: true},
		map[string]string{FFmpegCommand: "ffmpeg version 6.1 Copyright\nbuilt with gcc\n"},
	)

	tools := Probe(context.Background())
	if !tools.FFmpeg || !tools.FFprobe || !tools.YTDLP {
		t.Fatalf("expected all tools available, got %+v", tools)
	}
	if tools.FFmpegVersion != "ffmpeg version 6.1 Copyright" {
		t.Errorf("unexpected version line %q", tools.FFmpegVersion)
	}
	if tools.YTDLPPath != "/usr/bin/yt-dlp" {
		t.Errorf("unexpected yt-dlp path %q", tools.YTDLPPath)
	}
}

func TestProbe_FFmpegBroken(t *testing.T) {
	// Binary on PATH but -version fails
	stubTools(t, map[string]bool{FFmpegCommand: true}, map[string]string{})

	tools := Probe(context.Background())
	if tools.FFmpeg {
		t.Error("expected ffmpeg to be unavailable when -version fails")
	}
	if tools.FFprobe || tools.YTDLP {
		t.Errorf("expected other tools unavailable, got %+v", tools)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected float64
		wantErr  bool
	}{
		{"plain seconds", "213.45\n", 213.45, false},
		{"garbage", "N/A\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubTools(t, nil, map[string]string{FFprobeCommand: tt.output})

			got, err := Duration(context.Background(), "/tmp/x.mp4")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := map[float64]string{
		213:  "213",
		61.5: "61.5",
		0.25: "0.25",
	}
	for in, expected := range tests {
		if got := FormatSeconds(in); got != expected {
			t.Errorf("FormatSeconds(%v) = %q, expected %q", in, got, expected)
		}
	}
}
