package download

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"

	"github.com/MDigiTechnology/Video-Downloader/internal/downloadlog"
	"github.com/MDigiTechnology/Video-Downloader/internal/extractor"
	"github.com/MDigiTechnology/Video-Downloader/internal/media"
	"github.com/MDigiTechnology/Video-Downloader/internal/metrics"
	"github.com/MDigiTechnology/Video-Downloader/internal/model"
	"github.com/MDigiTechnology/Video-Downloader/internal/platform"
	"github.com/MDigiTechnology/Video-Downloader/internal/progress"
	"github.com/MDigiTechnology/Video-Downloader/internal/registry"
	"github.com/MDigiTechnology/Video-Downloader/internal/worker"
)

// Defaults and user-visible texts
const (
	DefaultStaticPrefix = "/static/downloads/"
	DefaultDescription  = "No description available"
	DefaultDuration     = "Unknown"
	MsgQueueFull        = "Server is busy, please try again later"
	outputTemplateExt   = ".%(ext)s"
)

// Request is one download submission
type Request struct {
	URL      string
	Platform string // platform name or "auto"
	Format   model.Format
	Quality  model.Quality
}

// Config holds the runner's filesystem layout
type Config struct {
	TempDir      string // extractor output
	DownloadsDir string // published artifacts
	StaticPrefix string // public path of DownloadsDir
	FFmpeg       bool   // muxing available
}

// Runner registers jobs and executes them on a scheduler
type Runner struct {
	cfg       Config
	store     registry.Store
	sink      *progress.Sink
	extractor extractor.Extractor
	scheduler Scheduler
	journal   Journal
	metrics   Recorder
	duration  func(ctx context.Context, path string) (float64, error)
	log       logrus.FieldLogger
	now       func() time.Time
}

// Option customizes a Runner
type Option func(*Runner)

// WithJournal records successful downloads in j
func WithJournal(j Journal) Option {
	return func(r *Runner) { r.journal = j }
}

// WithMetrics reports pipeline metrics to m
func WithMetrics(m Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner wires a runner. Jobs are executed on scheduler, which must be started by the caller.
func NewRunner(cfg Config, store registry.Store, ex extractor.Extractor, scheduler Scheduler, log logrus.FieldLogger, opts ...Option) *Runner {
	if cfg.StaticPrefix == "" {
		cfg.StaticPrefix = DefaultStaticPrefix
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	r := &Runner{
		cfg:       cfg,
		store:     store,
		sink:      progress.NewSink(store, log),
		extractor: ex,
		scheduler: scheduler,
		journal:   nopJournal{},
		metrics:   nopRecorder{},
		duration:  media.Duration,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit validates req, registers a Starting job and schedules it. It returns
// the job identity without waiting for the download. Facebook URLs yield a
// *Notice and no job.
func (r *Runner) Submit(ctx context.Context, req Request) (string, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return "", ErrMissingURL
	}

	p, known, detected := platform.ResolvePlatform(req.Platform, rawURL)
	switch {
	case !known:
		return "", ErrUnsupportedPlatform
	case !detected:
		return "", ErrUnknownPlatform
	case p == model.PlatformFacebook:
		return "", FacebookNotice()
	}

	format := req.Format
	if format != model.FormatAudio || p == model.PlatformInstagram {
		format = model.FormatVideo
	}
	quality := req.Quality
	if quality == "" {
		quality = model.QualityHighest
	}

	job := model.NewJob(generateJobID(p), p, rawURL, format, quality)
	if err := r.store.Create(job); err != nil {
		return "", fmt.Errorf("failed to register job: %w", err)
	}

	logger := r.log.WithFields(logrus.Fields{"job_id": job.ID, "platform": p})
	if err := r.scheduler.Submit(func(ctx context.Context) { r.run(ctx, job) }); err != nil {
		r.metrics.JobRefused()
		r.store.Update(job.ID, model.Update{Phase: model.Ptr(model.PhaseFailed), Error: MsgQueueFull})
		logger.WithError(err).Warn("download refused")
		return "", fmt.Errorf("failed to schedule job %s: %w", job.ID, err)
	}

	r.metrics.JobSubmitted(string(p))
	logger.WithFields(logrus.Fields{"format": format, "quality": quality}).Info("download submitted")
	return job.ID, nil
}

// run executes job on a worker. Panics and errors end the job as Failed.
func (r *Runner) run(ctx context.Context, job *model.Job) {
	started := r.now()
	logger := r.log.WithFields(logrus.Fields{"job_id": job.ID, "platform": job.Platform})
	r.metrics.JobStarted()

	var failure *Failure
	recovered := panics.Try(func() { failure = r.execute(ctx, job, logger) })
	if recovered != nil {
		failure = newFailure(fmt.Sprintf("%s download error: %v", job.Platform.DisplayName(), recovered.Value), nil, recovered.AsError())
	}

	outcome := metrics.OutcomeFinished
	if failure != nil {
		outcome = metrics.OutcomeFailed
		r.store.Update(job.ID, model.Update{
			Phase:        model.Ptr(model.PhaseFailed),
			Error:        failure.Message,
			Alternatives: failure.Alternatives,
		})
		logger.WithError(failure.Err).Errorf("download failed: %s", failure.Message)
	}
	r.metrics.JobCompleted(string(job.Platform), outcome, r.now().Sub(started))
}

// execute downloads and publishes the artifact. A nil result means the job is Finished.
func (r *Runner) execute(ctx context.Context, job *model.Job, logger logrus.FieldLogger) *Failure {
	r.store.Update(job.ID, model.Update{Phase: model.Ptr(model.PhaseDownloading)})

	output := filepath.Join(r.cfg.TempDir, job.ID+outputTemplateExt)
	opts := baseOptions(job, output, r.cfg.FFmpeg)

	// Progress is bound to this job; the sink never has to guess
	onProgress := func(ev progress.Event) {
		ev.JobID = job.ID
		r.sink.Handle(ev)
	}

	attempt := 0
	info, failure := PolicyFor(job).Run(opts,
		func(opts extractor.Options) (*extractor.Media, error) {
			attempt++
			logger.WithFields(logrus.Fields{"attempt": attempt, "format": opts.Format}).Debug("invoking extractor")
			return r.extractor.Download(ctx, job.URL, opts, onProgress)
		},
		func(fb Fallback) {
			r.metrics.FallbackAttempted(fb.Name)
			logger.WithField("fallback", fb.Name).Info("retrying with alternate configuration")
		},
	)
	if failure != nil {
		return failure
	}

	result, err := r.publish(job, info)
	if err != nil {
		return newFailure(fmt.Sprintf("%s download error: %v", job.Platform.DisplayName(), err), nil, err)
	}

	metadata := &model.Metadata{
		Title:       platform.SanitizeFilename(info.Title),
		Duration:    r.durationOf(ctx, info, result.FilePath),
		Description: info.Description,
		Platform:    job.Platform.DisplayName(),
		URL:         job.URL,
	}
	if metadata.Description == "" {
		metadata.Description = DefaultDescription
	}

	r.store.Update(job.ID, model.Update{
		Phase:    model.Ptr(model.PhaseFinished),
		Percent:  model.Ptr(100),
		Result:   result,
		Metadata: metadata,
	})
	r.metrics.ArtifactPublished(result.Ext, result.Size)

	if err := r.journal.Record(downloadlog.Entry{
		Title:    metadata.Title,
		Duration: metadata.Duration,
		Platform: metadata.Platform,
		Size:     result.Size,
	}); err != nil {
		logger.WithError(err).Warn("failed to record download")
	}

	logger.WithFields(logrus.Fields{"file": result.FilePath, "size": result.Size}).Info("download finished")
	return nil
}

// publish copies the extractor output into the downloads directory under a
// name unique to the job and removes the temporary file
func (r *Runner) publish(job *model.Job, info *extractor.Media) (*model.Result, error) {
	ext := job.Format.Ext()
	src, err := platform.FindArtifact(filepath.Join(r.cfg.TempDir, job.ID+"."+ext))
	if err != nil && info.Filename != "" {
		src, err = platform.FindArtifact(info.Filename)
	}
	if err != nil {
		return nil, fmt.Errorf("downloaded file not found: %w", err)
	}
	if actual := strings.TrimPrefix(filepath.Ext(src), "."); actual != "" {
		ext = actual
	}

	name := fmt.Sprintf("%s_%s.%s", platform.SanitizeFilename(info.Title), job.ID, ext)
	dst := filepath.Join(r.cfg.DownloadsDir, name)
	size, err := platform.CopyFile(src, dst)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.log.WithError(err).WithField("job_id", job.ID).Warn("failed to remove temporary file")
	}

	return &model.Result{
		FilePath:   dst,
		StaticPath: r.cfg.StaticPrefix + url.PathEscape(name),
		Ext:        ext,
		Size:       size,
	}, nil
}

// durationOf prefers the extractor's display string, then its seconds, then
// an ffprobe reading of the artifact
func (r *Runner) durationOf(ctx context.Context, info *extractor.Media, path string) string {
	if info.DurationString != "" {
		return info.DurationString
	}
	if info.Duration > 0 {
		return media.FormatSeconds(info.Duration)
	}
	if r.duration != nil {
		if seconds, err := r.duration(ctx, path); err == nil && seconds > 0 {
			return media.FormatSeconds(seconds)
		}
	}
	return DefaultDuration
}

// generateJobID generates a unique job ID using UUID v7 for better uniqueness and time ordering
func generateJobID(p model.Platform) string {
	prefix := p.IDPrefix() + "_"
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
	}
	return prefix + id.String()
}

var _ Submitter = (*Runner)(nil)
var _ Scheduler = (*worker.Pool)(nil)
