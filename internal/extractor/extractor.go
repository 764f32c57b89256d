// Package extractor wraps the external media extraction tool. Everything
// platform specific (format negotiation, muxing, codecs) happens inside the
// tool; this package only passes options in and maps results and progress
// callbacks out.
package extractor

import (
	"context"
	"time"

	"github.com/MDigiTechnology/Video-Downloader/internal/progress"
)

// Defaults applied when Options leave a field empty
const (
	DefaultExtractorRetries = 3
	DefaultSocketTimeout    = 30 * time.Second
)

// Options configures one extractor invocation
type Options struct {
	Format string
	Output string // output template, may contain %(ext)s

	ExtractAudio bool
	AudioFormat  string
	AudioQuality string

	Headers          map[string]string
	ExtractorRetries int
	SocketTimeout    time.Duration
}

// WithDefaults returns a copy of o with zero values replaced by defaults
func (o Options) WithDefaults() Options {
	if o.ExtractorRetries <= 0 {
		o.ExtractorRetries = DefaultExtractorRetries
	}
	if o.SocketTimeout <= 0 {
		o.SocketTimeout = DefaultSocketTimeout
	}
	return o
}

// Media is what the tool reports about the extracted item
type Media struct {
	Title          string
	Filename       string
	DurationString string
	Duration       float64 // seconds, 0 if unknown
	Description    string
	Thumbnail      string
	Uploader       string
}

// ProgressFunc receives progress callbacks. Events carry no job identity;
// the caller binds it.
type ProgressFunc func(progress.Event)

// Extractor is the contract the download runner and info fetcher rely on
type Extractor interface {
	// Download fetches url into opts.Output, reporting progress to onProgress
	Download(ctx context.Context, url string, opts Options, onProgress ProgressFunc) (*Media, error)

	// Extract reads metadata for url without downloading media
	Extract(ctx context.Context, url string) (*Media, error)
}
