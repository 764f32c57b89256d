package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"

	"github.com/MDigiTechnology/Video-Downloader/internal/progress"
)

// DefaultProgressInterval is how often yt-dlp progress is sampled
const DefaultProgressInterval = 500 * time.Millisecond

// YTDLP is an Extractor backed by the yt-dlp executable
type YTDLP struct {
	executable       string
	progressInterval time.Duration
	log              logrus.FieldLogger
}

// NewYTDLP creates the adapter. An empty executable lets go-ytdlp resolve
// yt-dlp from PATH or its own cache.
func NewYTDLP(executable string, log logrus.FieldLogger) *YTDLP {
	return &YTDLP{
		executable:       executable,
		progressInterval: DefaultProgressInterval,
		log:              log,
	}
}

// Install downloads a yt-dlp binary into the go-ytdlp cache if none is found
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New()
	if y.executable != "" {
		cmd = cmd.SetExecutable(y.executable)
	}
	return cmd
}

// Download implements Extractor
func (y *YTDLP) Download(ctx context.Context, url string, opts Options, onProgress ProgressFunc) (*Media, error) {
	opts = opts.WithDefaults()

	cmd := y.command().
		ForceOverwrites().
		NoPlaylist().
		PrintJSON().
		Output(opts.Output).
		ExtractorRetries(strconv.Itoa(opts.ExtractorRetries)).
		SocketTimeout(opts.SocketTimeout.Seconds())

	if opts.Format != "" {
		cmd = cmd.Format(opts.Format)
	}
	if opts.ExtractAudio {
		cmd = cmd.ExtractAudio()
		if opts.AudioFormat != "" {
			cmd = cmd.AudioFormat(opts.AudioFormat)
		}
		if opts.AudioQuality != "" {
			cmd = cmd.AudioQuality(opts.AudioQuality)
		}
	}
	for _, field := range sortedKeys(opts.Headers) {
		cmd = cmd.AddHeaders(field + ":" + opts.Headers[field])
	}

	if onProgress != nil {
		cmd = cmd.ProgressFunc(y.progressInterval, func(update ytdlp.ProgressUpdate) {
			onProgress(progressEvent(update))
		})
	}

	y.log.WithFields(logrus.Fields{"url": url, "format": opts.Format}).Debug("running yt-dlp")

	result, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, err
	}
	return mediaFromResult(result), nil
}

// Extract implements Extractor
func (y *YTDLP) Extract(ctx context.Context, url string) (*Media, error) {
	result, err := y.command().
		SkipDownload().
		NoPlaylist().
		DumpJSON().
		Run(ctx, url)
	if err != nil {
		return nil, err
	}
	return mediaFromResult(result), nil
}

func mediaFromResult(result *ytdlp.Result) *Media {
	media := &Media{}
	if result == nil {
		return media
	}

	infos, err := result.GetExtractedInfo()
	if err != nil || len(infos) == 0 {
		return media
	}

	info := infos[0]
	media.Title = deref(info.Title)
	media.Filename = deref(info.Filename)
	media.DurationString = durationString(result)
	media.Description = deref(info.Description)
	media.Thumbnail = deref(info.Thumbnail)
	media.Uploader = deref(info.Uploader)
	if info.Duration != nil {
		media.Duration = *info.Duration
	}
	return media
}

// infoExtras holds info JSON fields go-ytdlp does not decode
type infoExtras struct {
	Type           string `json:"_type"`
	DurationString string `json:"duration_string"`
}

// durationString reads duration_string from the first info JSON line, the
// same line GetExtractedInfo returns first
func durationString(result *ytdlp.Result) string {
	for _, line := range result.OutputLogs {
		if line == nil || line.JSON == nil {
			continue
		}
		var extras infoExtras
		if err := json.Unmarshal(*line.JSON, &extras); err != nil || extras.Type == "" {
			continue
		}
		if extras.DurationString == "none" {
			return ""
		}
		return extras.DurationString
	}
	return ""
}

// progressEvent converts a go-ytdlp update into the sink's event shape.
// Speed is the average rate since the transfer started; ProgressUpdate
// carries no instantaneous speed.
func progressEvent(update ytdlp.ProgressUpdate) progress.Event {
	ev := progress.Event{
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
		Filename:        update.Filename,
	}

	switch string(update.Status) {
	case string(progress.StatusFinished):
		ev.Status = progress.StatusFinished
	default:
		ev.Status = progress.StatusDownloading
	}

	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started).Seconds(); elapsed > 0 && update.DownloadedBytes > 0 {
			speed := float64(update.DownloadedBytes) / elapsed
			ev.Speed = &speed
		}
	}
	if eta := update.ETA(); eta > 0 {
		sec := int(eta.Seconds())
		ev.ETASec = &sec
	}
	return ev
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
