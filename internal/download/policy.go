package download

import (
	"maps"
	"strings"

	"github.com/MDigiTechnology/Video-Downloader/internal/extractor"
	"github.com/MDigiTechnology/Video-Downloader/internal/model"
)

// Fallback is one rule of a retry policy. Match is tested against the latest
// extractor error. Apply rewrites the options for a retry; a nil Apply makes
// the match terminal. Message, when set, becomes the reported failure if the
// job ends after this rule fired.
type Fallback struct {
	Name    string
	Match   func(error) bool
	Apply   func(extractor.Options) extractor.Options
	Message string
}

// Policy is an ordered list of fallbacks plus the failure description used
// when no rule supplies one. Each fallback fires at most once per job.
type Policy struct {
	Fallbacks    []Fallback
	Describe     func(error) string
	Alternatives []string
}

// Attempt runs the extractor once with the given options
type Attempt func(opts extractor.Options) (*extractor.Media, error)

// Run calls attempt with opts and walks the fallbacks until an attempt
// succeeds or no unused rule matches. onFallback is told about every retry.
func (p Policy) Run(opts extractor.Options, attempt Attempt, onFallback func(Fallback)) (*extractor.Media, *Failure) {
	media, err := attempt(opts)

	used := make([]bool, len(p.Fallbacks))
	message := ""
	for err != nil {
		i := p.match(err, used)
		if i < 0 {
			break
		}
		fb := p.Fallbacks[i]
		used[i] = true
		if fb.Message != "" {
			message = fb.Message
		}
		if fb.Apply == nil {
			break
		}

		if onFallback != nil {
			onFallback(fb)
		}
		opts = fb.Apply(opts)
		media, err = attempt(opts)
	}

	if err == nil {
		return media, nil
	}
	if message == "" {
		message = p.describe(err)
	}
	return nil, newFailure(message, p.Alternatives, err)
}

func (p Policy) match(err error, used []bool) int {
	for i, fb := range p.Fallbacks {
		if !used[i] && fb.Match != nil && fb.Match(err) {
			return i
		}
	}
	return -1
}

func (p Policy) describe(err error) string {
	if p.Describe != nil {
		return p.Describe(err)
	}
	return err.Error()
}

// Error text fragments reported by the extractor
const (
	botDetectionMarker = "Sign in to confirm you're not a bot"
	ffmpegMissing      = "ffmpeg is not installed"
	ffmpegNotFound     = "ffmpeg not found"
)

// Client identity used after anti-automation detection
const (
	AlternateUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	AlternateReferer   = "https://www.youtube.com/"
	AlternateRetries   = 5
)

// Failure messages
const (
	MsgBotDetected    = "YouTube has detected automated access. Please try a different video or try again later."
	MsgFFmpegRequired = "FFmpeg is required for audio downloads. Please install FFmpeg or contact the administrator."
	msgInstagramFail  = "Could not download Instagram video: "
)

// InstagramHints are offered when an Instagram download fails
var InstagramHints = []string{
	"1. Use a browser extension like 'Video DownloadHelper'",
	"2. Try an online service like savefrom.net",
	"3. Use the Instagram app to save videos directly",
}

func errorContains(fragments ...string) func(error) bool {
	return func(err error) bool {
		text := err.Error()
		for _, f := range fragments {
			if strings.Contains(text, f) {
				return true
			}
		}
		return false
	}
}

// botDetectionFallback retries with a simpler format, another declared client
// and more extractor retries
func botDetectionFallback() Fallback {
	return Fallback{
		Name:  "bot_detection",
		Match: errorContains(botDetectionMarker),
		Apply: func(opts extractor.Options) extractor.Options {
			opts.Format = FormatHighestDegraded
			headers := maps.Clone(opts.Headers)
			if headers == nil {
				headers = make(map[string]string, 2)
			}
			headers["User-Agent"] = AlternateUserAgent
			headers["Referer"] = AlternateReferer
			opts.Headers = headers
			opts.ExtractorRetries = AlternateRetries
			return opts
		},
		Message: MsgBotDetected,
	}
}

// ffmpegFallback retries with a format that needs no muxing
func ffmpegFallback() Fallback {
	return Fallback{
		Name:  "ffmpeg_missing",
		Match: errorContains(ffmpegMissing, ffmpegNotFound),
		Apply: func(opts extractor.Options) extractor.Options {
			opts.Format = FormatHighestDegraded
			return opts
		},
	}
}

// PolicyFor returns the retry policy for a job
func PolicyFor(job *model.Job) Policy {
	switch {
	case job.Platform == model.PlatformInstagram:
		return Policy{
			Describe:     func(err error) string { return msgInstagramFail + err.Error() },
			Alternatives: InstagramHints,
		}
	case job.Format == model.FormatAudio:
		return Policy{
			Fallbacks: []Fallback{{
				Name:    "ffmpeg_missing",
				Match:   errorContains(ffmpegMissing, ffmpegNotFound),
				Message: MsgFFmpegRequired,
			}},
		}
	default:
		return Policy{
			Fallbacks: []Fallback{
				botDetectionFallback(),
				ffmpegFallback(),
			},
		}
	}
}
