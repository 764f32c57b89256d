package download

import (
	"context"
	"time"

	"github.com/MDigiTechnology/Video-Downloader/internal/downloadlog"
	"github.com/MDigiTechnology/Video-Downloader/internal/worker"
)

// Submitter is what the HTTP layer needs from the runner
type Submitter interface {
	Submit(ctx context.Context, req Request) (string, error)
}

// Scheduler runs job tasks. worker.Pool satisfies it.
type Scheduler interface {
	Submit(task worker.Task) error
}

// Journal records successful downloads. downloadlog.Writer satisfies it.
type Journal interface {
	Record(entry downloadlog.Entry) error
}

// Recorder receives pipeline metrics. metrics.Metrics satisfies it.
type Recorder interface {
	JobSubmitted(platform string)
	JobRefused()
	JobStarted()
	JobCompleted(platform, outcome string, elapsed time.Duration)
	FallbackAttempted(name string)
	ArtifactPublished(format string, size int64)
}

type nopRecorder struct{}

func (nopRecorder) JobSubmitted(string)                        {}
func (nopRecorder) JobRefused()                                {}
func (nopRecorder) JobStarted()                                {}
func (nopRecorder) JobCompleted(string, string, time.Duration) {}
func (nopRecorder) FallbackAttempted(string)                   {}
func (nopRecorder) ArtifactPublished(string, int64)            {}

type nopJournal struct{}

func (nopJournal) Record(downloadlog.Entry) error { return nil }
