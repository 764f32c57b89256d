// Package media inspects the external tools and files around a download:
// whether ffmpeg is installed and how long a produced artifact plays.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Executable and I/O constants
const (
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	YTDLPCommand        = "yt-dlp"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
)

// DefaultProbeTimeout bounds every tool invocation made by this package
const DefaultProbeTimeout = 10 * time.Second

// InstallHint is printed when ffmpeg is missing
var InstallHint = []string{
	"FFmpeg is not installed. Some features may not work properly.",
	"To install FFmpeg:",
	"  - Ubuntu/Debian: sudo apt install ffmpeg",
	"  - macOS: brew install ffmpeg",
	"  - Windows: Download from https://ffmpeg.org/download.html",
}

// Tools reports which external programs are usable
type Tools struct {
	FFmpeg        bool   `json:"ffmpeg"`
	FFmpegVersion string `json:"ffmpeg_version,omitempty"`
	FFprobe       bool   `json:"ffprobe"`
	YTDLP         bool   `json:"yt_dlp"`
	YTDLPPath     string `json:"yt_dlp_path,omitempty"`
}

// lookPath and runOutput are swapped in tests
var (
	lookPath  = exec.LookPath
	runOutput = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).Output()
	}
)

// Probe checks for ffmpeg, ffprobe and yt-dlp on PATH. ffmpeg only counts as
// available when `ffmpeg -version` runs successfully.
func Probe(ctx context.Context) Tools {
	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	var tools Tools
	if _, err := lookPath(FFmpegCommand); err == nil {
		if out, err := runOutput(ctx, FFmpegCommand, "-version"); err == nil {
			tools.FFmpeg = true
			tools.FFmpegVersion = firstLine(string(out))
		}
	}
	if _, err := lookPath(FFprobeCommand); err == nil {
		tools.FFprobe = true
	}
	if path, err := lookPath(YTDLPCommand); err == nil {
		tools.YTDLP = true
		tools.YTDLPPath = path
	}
	return tools
}

// Duration gets the duration of a media file in seconds using ffprobe
func Duration(ctx context.Context, filePath string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	output, err := runOutput(ctx, FFprobeCommand, "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// FormatSeconds renders a duration reported as seconds
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
