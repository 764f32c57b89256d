package download

import (
	"fmt"

	"github.com/MDigiTechnology/Video-Downloader/internal/extractor"
	"github.com/MDigiTechnology/Video-Downloader/internal/model"
)

// Format expressions understood by the extractor
const (
	FormatHighest         = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	FormatHighestDegraded = "best[ext=mp4]/best"
	FormatAudio           = "bestaudio/best"
	FormatInstagram       = "best"

	AudioCodec   = "mp3"
	AudioBitrate = "192"
)

var qualityHeights = map[model.Quality]int{
	model.Quality720p: 720,
	model.Quality480p: 480,
	model.Quality360p: 360,
}

// FormatFor returns the primary format expression for a video quality and
// the degraded expression that needs no muxing. Unknown qualities resolve
// to highest.
func FormatFor(quality model.Quality) (primary, degraded string) {
	height, ok := qualityHeights[quality]
	if !ok {
		return FormatHighest, FormatHighestDegraded
	}
	primary = fmt.Sprintf("bestvideo[height<=%d][ext=mp4]+bestaudio[ext=m4a]/best[height<=%d][ext=mp4]/best[height<=%d]", height, height, height)
	degraded = fmt.Sprintf("best[height<=%d][ext=mp4]/best[height<=%d]", height, height)
	return primary, degraded
}

// baseOptions builds the first-attempt options for a job. ffmpeg selects
// between the primary and degraded video expressions.
func baseOptions(job *model.Job, output string, ffmpeg bool) extractor.Options {
	opts := extractor.Options{Output: output}.WithDefaults()

	switch {
	case job.Platform == model.PlatformInstagram:
		opts.Format = FormatInstagram
	case job.Format == model.FormatAudio:
		opts.Format = FormatAudio
		opts.ExtractAudio = true
		opts.AudioFormat = AudioCodec
		opts.AudioQuality = AudioBitrate
	default:
		primary, degraded := FormatFor(job.Quality)
		opts.Format = primary
		if !ffmpeg {
			opts.Format = degraded
		}
	}
	return opts
}
